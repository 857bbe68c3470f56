package handlers

import (
	"net/http"

	"duet/internal/core/domain"
	"duet/internal/core/services"
	"duet/pkg/middleware"
)

type FriendHandler struct {
	friends *services.FriendService
}

func NewFriendHandler(friends *services.FriendService) *FriendHandler {
	return &FriendHandler{friends: friends}
}

// POST /friends/request/{id}
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	receiver, err := domain.ParseUserID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	fr, err := h.friends.Send(r.Context(), actor, receiver)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, fr)
}

// PUT /friends/accept/{id}
func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	fr, err := h.friends.Accept(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fr)
}

// PUT /friends/reject/{id}
func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	fr, err := h.friends.Reject(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fr)
}

// DELETE /friends/cancel/{id}
func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.friends.Cancel(r.Context(), r.PathValue("id"), actor); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "friend request cancelled"})
}

// GET /friends/requests
func (h *FriendHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	lists, err := h.friends.ListRequests(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// GET /friends/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	friends, err := h.friends.ListFriends(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	if friends == nil {
		friends = []domain.User{}
	}
	writeJSON(w, http.StatusOK, friends)
}
