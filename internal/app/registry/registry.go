package registry

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"

	"duet/internal/core/contracts"
	"duet/internal/core/domain"
)

// Registry owns the userID → connection map. All mutation goes through its
// mutex; no send happens while the lock is held.
type Registry struct {
	mu      sync.RWMutex
	clients map[domain.UserID]contracts.Client
	log     *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		clients: make(map[domain.UserID]contracts.Client),
		log:     log,
	}
}

// Register inserts or replaces the entry for the client's user. Single
// session policy: a second connection from the same user evicts the first,
// and the evicted handle is closed so it cannot linger half-alive.
func (r *Registry) Register(c contracts.Client) {
	id := c.UserID()
	r.mu.Lock()
	old := r.clients[id]
	r.clients[id] = c
	r.mu.Unlock()
	if old != nil && old != c {
		old.Close()
		r.log.Info("registry - register - evicted previous session", "user_id", id)
	}
	r.broadcastOnline(context.Background())
}

// Unregister removes the entry only if the stored handle is c. A disconnect
// of an already-replaced connection must not evict its successor.
func (r *Registry) Unregister(c contracts.Client) {
	id := c.UserID()
	r.mu.Lock()
	cur, ok := r.clients[id]
	if ok && cur == c {
		delete(r.clients, id)
	} else {
		ok = false
	}
	r.mu.Unlock()
	if ok {
		r.broadcastOnline(context.Background())
	}
}

func (r *Registry) Lookup(id domain.UserID) (contracts.Client, bool) {
	r.mu.RLock()
	c, ok := r.clients[id]
	r.mu.RUnlock()
	return c, ok
}

func (r *Registry) ListOnline() []domain.UserID {
	r.mu.RLock()
	ids := make([]domain.UserID, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SendSnapshot pushes the current online set to a single client, for the
// request-online-users re-sync event.
func (r *Registry) SendSnapshot(ctx context.Context, c contracts.Client) {
	data, err := onlineFrame(r.ListOnline())
	if err != nil {
		return
	}
	_ = c.Send(ctx, data)
}

// broadcastOnline fans the full online set out to every connection. O(n) per
// churn event; fine at this scale, the known limit for a bigger one.
func (r *Registry) broadcastOnline(ctx context.Context) {
	r.mu.RLock()
	targets := make([]contracts.Client, 0, len(r.clients))
	for _, c := range r.clients {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	data, err := onlineFrame(r.ListOnline())
	if err != nil {
		r.log.Error("registry - broadcast online - encode failed", "err", err)
		return
	}
	for _, c := range targets {
		_ = c.Send(ctx, data)
	}
}

func onlineFrame(ids []domain.UserID) ([]byte, error) {
	env, err := domain.NewEnvelope(domain.EventOnlineUsers, ids)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}
