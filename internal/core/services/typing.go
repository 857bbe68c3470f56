package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"duet/internal/core/contracts"
	"duet/internal/core/domain"
)

// TypingTracker holds short-lived per-(sender, receiver) typing state.
// Signals bypass storage entirely: best-effort, dropped silently when the
// peer is offline or the dispatch races a disconnect. Entries that never see
// a typing-stop are expired by Sweep.
type TypingTracker struct {
	mu       sync.Mutex
	entries  map[domain.UserID]map[domain.UserID]time.Time
	dispatch contracts.Dispatcher
	expiry   time.Duration
	log      *slog.Logger
}

func NewTypingTracker(log *slog.Logger, dispatch contracts.Dispatcher, expiry time.Duration) *TypingTracker {
	return &TypingTracker{
		entries:  make(map[domain.UserID]map[domain.UserID]time.Time),
		dispatch: dispatch,
		expiry:   expiry,
		log:      log,
	}
}

// Start records typing activity and signals the receiver if reachable.
func (t *TypingTracker) Start(ctx context.Context, sender domain.UserID, senderName string, receiver domain.UserID) {
	t.mu.Lock()
	if t.entries[sender] == nil {
		t.entries[sender] = make(map[domain.UserID]time.Time)
	}
	t.entries[sender][receiver] = time.Now()
	t.mu.Unlock()

	t.dispatch.Dispatch(ctx, receiver, domain.EventUserTyping, domain.TypingEvent{
		UserID:   sender,
		FullName: senderName,
	})
}

// Stop clears the entry and signals the receiver. Clearing an entry that was
// never recorded is a defensive no-op; the stop event is sent regardless.
func (t *TypingTracker) Stop(ctx context.Context, sender, receiver domain.UserID) {
	t.mu.Lock()
	if m := t.entries[sender]; m != nil {
		delete(m, receiver)
		if len(m) == 0 {
			delete(t.entries, sender)
		}
	}
	t.mu.Unlock()

	t.dispatch.Dispatch(ctx, receiver, domain.EventUserStoppedTyping, domain.TypingEvent{UserID: sender})
}

// Disconnect drops all typing state for a departing sender and signals each
// receiver, so indicators do not stick after an abrupt close.
func (t *TypingTracker) Disconnect(ctx context.Context, sender domain.UserID) {
	t.mu.Lock()
	receivers := make([]domain.UserID, 0, len(t.entries[sender]))
	for r := range t.entries[sender] {
		receivers = append(receivers, r)
	}
	delete(t.entries, sender)
	t.mu.Unlock()

	for _, r := range receivers {
		t.dispatch.Dispatch(ctx, r, domain.EventUserStoppedTyping, domain.TypingEvent{UserID: sender})
	}
}

// Sweep expires entries older than the configured expiry and signals the
// affected receivers. Returns the number of entries removed.
func (t *TypingTracker) Sweep(ctx context.Context, now time.Time) int {
	type pair struct{ sender, receiver domain.UserID }
	var expired []pair

	t.mu.Lock()
	for s, m := range t.entries {
		for r, at := range m {
			if now.Sub(at) > t.expiry {
				delete(m, r)
				expired = append(expired, pair{s, r})
			}
		}
		if len(m) == 0 {
			delete(t.entries, s)
		}
	}
	t.mu.Unlock()

	for _, p := range expired {
		t.dispatch.Dispatch(ctx, p.receiver, domain.EventUserStoppedTyping, domain.TypingEvent{UserID: p.sender})
	}
	if len(expired) > 0 {
		t.log.InfoContext(ctx, "typing - sweep - expired stale entries", "count", len(expired))
	}
	return len(expired)
}
