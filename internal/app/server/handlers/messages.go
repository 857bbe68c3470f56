package handlers

import (
	"encoding/json"
	"net/http"

	"duet/internal/core/domain"
	"duet/internal/core/services"
	"duet/pkg/middleware"
)

type MessageHandler struct {
	messages *services.MessageService
	users    *services.UserService
}

func NewMessageHandler(messages *services.MessageService, users *services.UserService) *MessageHandler {
	return &MessageHandler{messages: messages, users: users}
}

// GET /messages/contacts
func (h *MessageHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	contacts, err := h.users.Contacts(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// GET /messages/chats
func (h *MessageHandler) ChatPartners(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	partners, err := h.messages.ChatPartners(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, partners)
}

// GET /messages/{id}
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	peer, err := domain.ParseUserID(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	msgs, err := h.messages.History(r.Context(), actor, peer)
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

type sendMessageRequest struct {
	Text         string             `json:"text"`
	Attachment   *domain.Attachment `json:"attachment,omitempty"`
	Disappearing bool               `json:"disappearing"`
}

// POST /messages/send/{id}
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
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
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	msg, err := h.messages.Send(r.Context(), actor, receiver, services.SendInput{
		Text:         req.Text,
		Attachment:   req.Attachment,
		Disappearing: req.Disappearing,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// PUT /messages/view/{id}
func (h *MessageHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	msg, err := h.messages.MarkViewed(r.Context(), r.PathValue("id"), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}
