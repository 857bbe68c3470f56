package domain

import (
	"context"
	"time"
)

// UserRepository handles the persistent identity.
type UserRepository interface {
	GetUserByID(ctx context.Context, id UserID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	// ListUsersExcept returns every account other than the viewer,
	// for the contact list.
	ListUsersExcept(ctx context.Context, viewer UserID) ([]User, error)
}

// FriendshipRepository handles the mutual relation written only by accept.
type FriendshipRepository interface {
	AreFriends(ctx context.Context, a, b UserID) (bool, error)
	CreateFriendship(ctx context.Context, a, b UserID) error
	ListFriends(ctx context.Context, id UserID) ([]User, error)
}

// FriendRequestRepository handles the request lifecycle rows.
type FriendRequestRepository interface {
	CreateRequest(ctx context.Context, fr *FriendRequest) error
	GetRequestByID(ctx context.Context, id string) (*FriendRequest, error)
	// FindByPair looks up the unordered (a, b) pair in any status.
	FindByPair(ctx context.Context, a, b UserID) (*FriendRequest, error)
	UpdateStatus(ctx context.Context, id string, status RequestStatus) error
	DeleteRequest(ctx context.Context, id string) error
	ListPending(ctx context.Context, party UserID) ([]FriendRequest, error)
}

// MessageRepository handles message persistence. Real-time delivery is a
// separate concern; storage remains the fallback source of truth when the
// peer was offline at dispatch time.
type MessageRepository interface {
	CreateMessage(ctx context.Context, m *Message) error
	GetMessageByID(ctx context.Context, id string) (*Message, error)
	// ListBetween returns the conversation in creation order.
	ListBetween(ctx context.Context, a, b UserID) ([]Message, error)
	MarkViewed(ctx context.Context, id string, viewedAt time.Time) error
	// ListPartnerIDs returns the distinct peers the user has messaged with.
	ListPartnerIDs(ctx context.Context, id UserID) ([]UserID, error)
}
