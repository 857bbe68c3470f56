package contracts

import (
	"context"

	"duet/internal/core/domain"
)

// Presence is the source of truth for "is user X reachable now". A single
// in-process registry; one active connection per user.
type Presence interface {
	// Register inserts or replaces the entry for the client's user. A
	// replaced handle is evicted (closed).
	Register(c Client)
	// Unregister removes the entry. No-op when the stored handle is not c,
	// so a stale disconnect cannot evict a newer connection.
	Unregister(c Client)
	// Lookup is called on every dispatch attempt.
	Lookup(id domain.UserID) (Client, bool)
	// ListOnline returns a snapshot of currently connected users.
	ListOnline() []domain.UserID
	// SendSnapshot pushes the current online set to one client.
	SendSnapshot(ctx context.Context, c Client)
}

// Client is the minimal surface the registry and dispatcher need from an
// individual connection.
type Client interface {
	UserID() domain.UserID
	Send(ctx context.Context, data []byte) error
	Close()
}
