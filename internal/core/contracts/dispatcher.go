package contracts

import (
	"context"

	"duet/internal/core/domain"
)

// Dispatcher routes one domain event to one user's connection, if any.
// Delivery is fire-and-forget: no queue, no retry, no durable outbox. A
// dispatch toward an offline user is permanently lost from the real-time
// channel; persistent storage remains the fallback.
type Dispatcher interface {
	// Dispatch reports whether delivery was attempted (target was online).
	Dispatch(ctx context.Context, target domain.UserID, event string, payload any) bool
}
