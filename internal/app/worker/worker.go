package worker

import (
	"context"
	"log/slog"
	"time"

	"duet/internal/core/services"
)

// TypingSweeper expires stale typing entries so indicators cannot stick when
// a typing-stop is lost to an abrupt disconnect.
type TypingSweeper struct {
	log      *slog.Logger
	tracker  *services.TypingTracker
	interval time.Duration
}

func NewTypingSweeper(log *slog.Logger, tracker *services.TypingTracker, interval time.Duration) *TypingSweeper {
	return &TypingSweeper{log: log, tracker: tracker, interval: interval}
}

func (w *TypingSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.log.Info("worker - typing sweeper - started", "interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			w.log.Info("worker - typing sweeper - stopped")
			return nil
		case <-ticker.C:
			w.tracker.Sweep(ctx, time.Now())
		}
	}
}
