package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"duet/internal/core/contracts"
	"duet/internal/core/domain"
)

// DispatchService routes a domain event to the target's connection looked up
// in the presence registry. Offline targets are dropped silently; the return
// value only tells the caller whether delivery was attempted.
type DispatchService struct {
	presence contracts.Presence
	log      *slog.Logger
}

func NewDispatchService(log *slog.Logger, presence contracts.Presence) *DispatchService {
	return &DispatchService{presence: presence, log: log}
}

func (d *DispatchService) Dispatch(ctx context.Context, target domain.UserID, event string, payload any) bool {
	c, ok := d.presence.Lookup(target)
	if !ok {
		d.log.DebugContext(ctx, "dispatch - target offline", "event", event, "target", target)
		return false
	}
	env, err := domain.NewEnvelope(event, payload)
	if err != nil {
		d.log.ErrorContext(ctx, "dispatch - encode failed", "event", event, "err", err)
		return false
	}
	data, err := json.Marshal(env)
	if err != nil {
		d.log.ErrorContext(ctx, "dispatch - encode failed", "event", event, "err", err)
		return false
	}
	if err := c.Send(ctx, data); err != nil {
		// The connection raced a disconnect. Not an error: storage remains
		// the source of truth and the client re-fetches on reconnect.
		d.log.InfoContext(ctx, "dispatch - send failed", "event", event, "target", target, "err", err)
		return false
	}
	return true
}
