package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"duet/internal/core/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	type body struct {
		Message string `json:"message"`
	}
	writeJSON(w, errStatus(err), body{Message: err.Error()})
}

// errStatus maps domain sentinels to HTTP statuses. Invalid state-machine
// transitions and duplicate/self requests are caller errors; nothing here is
// retried server-side.
func errStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotRequestParty),
		errors.Is(err, domain.ErrNotReceiver),
		errors.Is(err, domain.ErrNotFriends):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrBadLogin):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSelfRequest),
		errors.Is(err, domain.ErrSelfMessage),
		errors.Is(err, domain.ErrRequestExists),
		errors.Is(err, domain.ErrRequestNotPending),
		errors.Is(err, domain.ErrAlreadyFriends),
		errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrInvalidUserID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
