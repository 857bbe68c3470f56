package registry

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"duet/internal/core/domain"
)

type fakeClient struct {
	id domain.UserID

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeClient) UserID() domain.UserID { return c.id }

func (c *fakeClient) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// lastOnlineSet decodes the most recent getOnlineUsers frame the client saw.
func (c *fakeClient) lastOnlineSet(t *testing.T) []domain.UserID {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		t.Fatal("no frames received")
	}
	var env domain.Envelope
	if err := json.Unmarshal(c.frames[len(c.frames)-1], &env); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	if env.Event != domain.EventOnlineUsers {
		t.Fatalf("unexpected event %q", env.Event)
	}
	var ids []domain.UserID
	if err := json.Unmarshal(env.Data, &ids); err != nil {
		t.Fatalf("bad online payload: %v", err)
	}
	return ids
}

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func containsID(ids []domain.UserID, id domain.UserID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func TestRegisterLookupUnregister(t *testing.T) {
	r := newTestRegistry()
	alice := &fakeClient{id: domain.NewUserID()}

	if _, ok := r.Lookup(alice.id); ok {
		t.Fatal("lookup before register must miss")
	}
	r.Register(alice)
	got, ok := r.Lookup(alice.id)
	if !ok || got != alice {
		t.Fatal("lookup after register must return the handle")
	}
	r.Unregister(alice)
	if _, ok := r.Lookup(alice.id); ok {
		t.Fatal("lookup after unregister must miss")
	}
}

func TestRegisterReplacementEvictsPreviousSession(t *testing.T) {
	r := newTestRegistry()
	id := domain.NewUserID()
	first := &fakeClient{id: id}
	second := &fakeClient{id: id}

	r.Register(first)
	r.Register(second)

	if !first.isClosed() {
		t.Fatal("replaced handle must be closed")
	}
	got, ok := r.Lookup(id)
	if !ok || got != second {
		t.Fatal("registry must hold the newer handle")
	}
	if n := len(r.ListOnline()); n != 1 {
		t.Fatalf("one user online, got %d", n)
	}
}

func TestStaleUnregisterDoesNotEvictSuccessor(t *testing.T) {
	r := newTestRegistry()
	id := domain.NewUserID()
	first := &fakeClient{id: id}
	second := &fakeClient{id: id}

	r.Register(first)
	r.Register(second)
	// The replaced connection's read loop exits late and unregisters.
	r.Unregister(first)

	got, ok := r.Lookup(id)
	if !ok || got != second {
		t.Fatal("stale unregister evicted the live session")
	}
}

func TestChurnBroadcastsFullOnlineSet(t *testing.T) {
	r := newTestRegistry()
	alice := &fakeClient{id: domain.NewUserID()}
	bob := &fakeClient{id: domain.NewUserID()}

	r.Register(alice)
	r.Register(bob)

	for _, c := range []*fakeClient{alice, bob} {
		ids := c.lastOnlineSet(t)
		if len(ids) != 2 || !containsID(ids, alice.id) || !containsID(ids, bob.id) {
			t.Fatalf("online set after join wrong: %v", ids)
		}
	}

	r.Unregister(bob)
	ids := alice.lastOnlineSet(t)
	if len(ids) != 1 || !containsID(ids, alice.id) {
		t.Fatalf("online set after leave wrong: %v", ids)
	}
}

func TestSendSnapshotTargetsOneClient(t *testing.T) {
	r := newTestRegistry()
	alice := &fakeClient{id: domain.NewUserID()}
	bob := &fakeClient{id: domain.NewUserID()}
	r.Register(alice)
	r.Register(bob)

	before := len(bob.frames)
	r.SendSnapshot(context.Background(), alice)

	ids := alice.lastOnlineSet(t)
	if len(ids) != 2 {
		t.Fatalf("snapshot wrong: %v", ids)
	}
	if len(bob.frames) != before {
		t.Fatal("snapshot leaked to another client")
	}
}

func TestListOnlineIsSorted(t *testing.T) {
	r := newTestRegistry()
	for i := 0; i < 5; i++ {
		r.Register(&fakeClient{id: domain.NewUserID()})
	}
	ids := r.ListOnline()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] > ids[i] {
			t.Fatalf("not sorted: %v", ids)
		}
	}
}
