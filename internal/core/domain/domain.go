package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. PasswordHash never crosses the wire.
type User struct {
	ID           UserID    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ProfilePic   string    `json:"profilePic,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Attachment is an already-uploaded media reference. Upload itself happens
// outside this service; we only store and gate the resulting URL.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	MIME string `json:"mime,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// Message is a direct message between two friends.
type Message struct {
	ID           string      `json:"id"`
	SenderID     UserID      `json:"senderId"`
	ReceiverID   UserID      `json:"receiverId"`
	Text         string      `json:"text,omitempty"`
	Attachment   *Attachment `json:"attachment,omitempty"`
	Disappearing bool        `json:"disappearing"`
	Viewed       bool        `json:"viewed"`
	ViewedAt     *time.Time  `json:"viewedAt,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

func NewMessageID() string { return uuid.NewString() }

// RequestStatus is the friend-request lifecycle state.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// FriendRequest is a pairwise relationship request. At most one non-rejected
// request may exist per unordered (sender, receiver) pair.
type FriendRequest struct {
	ID         string        `json:"id"`
	SenderID   UserID        `json:"senderId"`
	ReceiverID UserID        `json:"receiverId"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
}

func NewRequestID() string { return uuid.NewString() }

// Contact is a user decorated with the viewer's relationship to them.
type Contact struct {
	User
	IsFriend      bool       `json:"isFriend"`
	RequestStatus string     `json:"friendRequestStatus,omitempty"` // "sent" | "received"
	RequestID     string     `json:"friendRequestId,omitempty"`
	LastSeen      *time.Time `json:"lastSeen,omitempty"`
}

// RequestLists splits pending requests by direction for the viewer.
type RequestLists struct {
	Sent     []FriendRequest `json:"sent"`
	Received []FriendRequest `json:"received"`
}
