package domain

import (
	"encoding/json"
	"time"
)

// Socket events, client → server.
const (
	EventRequestOnlineUsers = "request-online-users"
	EventTypingStart        = "typing-start"
	EventTypingStop         = "typing-stop"
)

// Socket events, server → client.
const (
	EventOnlineUsers            = "getOnlineUsers"
	EventUserTyping             = "user-typing"
	EventUserStoppedTyping      = "user-stopped-typing"
	EventNewMessage             = "newMessage"
	EventMessageViewed          = "messageViewed"
	EventNewFriendRequest       = "newFriendRequest"
	EventFriendRequestAccepted  = "friendRequestAccepted"
	EventFriendRequestRejected  = "friendRequestRejected"
	EventFriendRequestCancelled = "friendRequestCancelled"
)

// Envelope is the wire frame for every socket event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func NewEnvelope(event string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}

// TypingSignal is the payload for typing-start / typing-stop from clients.
type TypingSignal struct {
	ReceiverID string `json:"receiverId"`
}

// TypingEvent is pushed to the peer of a typing user.
type TypingEvent struct {
	UserID   UserID `json:"userId"`
	FullName string `json:"fullName,omitempty"`
}

// MessageViewedEvent acknowledges a disappearing message to its sender.
type MessageViewedEvent struct {
	MessageID string    `json:"messageId"`
	ViewedAt  time.Time `json:"viewedAt"`
}

// RequestCancelledEvent carries just enough for the receiver to drop the row.
type RequestCancelledEvent struct {
	RequestID string `json:"requestId"`
	SenderID  UserID `json:"senderId"`
}
