package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"duet/internal/core/domain"
	"duet/internal/core/services"
	"duet/pkg/logging"
)

type AuthHandler struct {
	userSvc  *services.UserService
	tokenSvc *services.TokenService
}

func NewAuthHandler(u *services.UserService, t *services.TokenService) *AuthHandler {
	return &AuthHandler{userSvc: u, tokenSvc: t}
}

type credentials struct {
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.userSvc.Signup(r.Context(), req.FullName, req.Email, req.Password)
	if err != nil {
		log.InfoContext(r.Context(), "auth handler - signup failed", "email", req.Email, "err", err)
		writeError(w, err)
		return
	}
	h.issueToken(w, r, user.ID, user, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.userSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.InfoContext(r.Context(), "auth handler - login failed", "email", req.Email)
		writeError(w, err)
		return
	}
	h.issueToken(w, r, user.ID, user, http.StatusOK)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// issueToken sets the httpOnly cookie the socket handshake reads, and echoes
// the token in the body for non-browser clients.
func (h *AuthHandler) issueToken(w http.ResponseWriter, r *http.Request, id domain.UserID, user any, status int) {
	log := logging.FromContext(r.Context())
	token, err := h.tokenSvc.GenerateToken(id)
	if err != nil {
		log.ErrorContext(r.Context(), "auth handler - generate token failed", "err", err)
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "jwt",
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, map[string]any{
		"token": token,
		"user":  user,
	})
}
