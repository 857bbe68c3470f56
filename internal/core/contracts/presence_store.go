package contracts

import (
	"context"
	"time"

	"duet/internal/core/domain"
)

// LastSeenStore records coarse reachability across restarts. The in-process
// registry stays authoritative for live presence; this only feeds the
// "last seen" field on contact lists.
type LastSeenStore interface {
	Touch(ctx context.Context, id domain.UserID) error
	SetLastSeen(ctx context.Context, id domain.UserID, at time.Time) error
	GetLastSeen(ctx context.Context, id domain.UserID) (time.Time, bool, error)
}
