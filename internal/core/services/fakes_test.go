package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"duet/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordedEvent is one Dispatch call captured by the fake dispatcher.
type recordedEvent struct {
	Target  domain.UserID
	Event   string
	Payload any
}

// fakeDispatcher records every dispatch and reports delivery based on the
// online set.
type fakeDispatcher struct {
	mu     sync.Mutex
	online map[domain.UserID]bool
	events []recordedEvent
}

func newFakeDispatcher(online ...domain.UserID) *fakeDispatcher {
	d := &fakeDispatcher{online: make(map[domain.UserID]bool)}
	for _, id := range online {
		d.online[id] = true
	}
	return d
}

func (d *fakeDispatcher) Dispatch(_ context.Context, target domain.UserID, event string, payload any) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, recordedEvent{Target: target, Event: event, Payload: payload})
	return d.online[target]
}

func (d *fakeDispatcher) sent(target domain.UserID, event string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.events {
		if e.Target == target && e.Event == event {
			n++
		}
	}
	return n
}

var errUnavailable = errors.New("store unavailable")

// fakeLastSeen is an in-memory LastSeenStore.
type fakeLastSeen struct {
	mu   sync.Mutex
	seen map[domain.UserID]time.Time
	fail bool
}

func newFakeLastSeen() *fakeLastSeen {
	return &fakeLastSeen{seen: make(map[domain.UserID]time.Time)}
}

func (f *fakeLastSeen) Touch(ctx context.Context, id domain.UserID) error {
	return f.SetLastSeen(ctx, id, time.Now())
}

func (f *fakeLastSeen) SetLastSeen(_ context.Context, id domain.UserID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errUnavailable
	}
	f.seen[id] = at
	return nil
}

func (f *fakeLastSeen) GetLastSeen(_ context.Context, id domain.UserID) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return time.Time{}, false, errUnavailable
	}
	at, ok := f.seen[id]
	return at, ok, nil
}

// fakeMailer records welcome mails and can be told to fail.
type fakeMailer struct {
	mu      sync.Mutex
	sent    []string // recipient addresses
	sendErr error
}

func (f *fakeMailer) SendWelcome(_ context.Context, to, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, to)
	return nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[domain.UserID]domain.User
}

func newMemUserRepo(users ...domain.User) *memUserRepo {
	r := &memUserRepo{users: make(map[domain.UserID]domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) GetUserByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) CreateUser(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) ListUsersExcept(_ context.Context, viewer domain.UserID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.ID != viewer {
			out = append(out, u)
		}
	}
	return out, nil
}

type memFriendshipRepo struct {
	mu    sync.Mutex
	pairs map[[2]domain.UserID]bool
	users *memUserRepo
}

func newMemFriendshipRepo(users *memUserRepo) *memFriendshipRepo {
	return &memFriendshipRepo{pairs: make(map[[2]domain.UserID]bool), users: users}
}

func pairKey(a, b domain.UserID) [2]domain.UserID {
	if b < a {
		a, b = b, a
	}
	return [2]domain.UserID{a, b}
}

func (r *memFriendshipRepo) AreFriends(_ context.Context, a, b domain.UserID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pairs[pairKey(a, b)], nil
}

func (r *memFriendshipRepo) CreateFriendship(_ context.Context, a, b domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pairs[pairKey(a, b)] = true
	return nil
}

func (r *memFriendshipRepo) ListFriends(ctx context.Context, id domain.UserID) ([]domain.User, error) {
	r.mu.Lock()
	var peers []domain.UserID
	for k, ok := range r.pairs {
		if !ok {
			continue
		}
		switch id {
		case k[0]:
			peers = append(peers, k[1])
		case k[1]:
			peers = append(peers, k[0])
		}
	}
	r.mu.Unlock()
	var out []domain.User
	for _, p := range peers {
		u, err := r.users.GetUserByID(ctx, p)
		if err != nil {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

type memRequestRepo struct {
	mu       sync.Mutex
	requests map[string]domain.FriendRequest
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{requests: make(map[string]domain.FriendRequest)}
}

func (r *memRequestRepo) CreateRequest(_ context.Context, fr *domain.FriendRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[fr.ID] = *fr
	return nil
}

func (r *memRequestRepo) GetRequestByID(_ context.Context, id string) (*domain.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fr, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return &fr, nil
}

func (r *memRequestRepo) FindByPair(_ context.Context, a, b domain.UserID) (*domain.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(a, b)
	for _, fr := range r.requests {
		if pairKey(fr.SenderID, fr.ReceiverID) == key && fr.Status != domain.RequestRejected {
			out := fr
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memRequestRepo) UpdateStatus(_ context.Context, id string, status domain.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fr, ok := r.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	fr.Status = status
	r.requests[id] = fr
	return nil
}

func (r *memRequestRepo) DeleteRequest(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[id]; !ok {
		return domain.ErrRequestNotFound
	}
	delete(r.requests, id)
	return nil
}

func (r *memRequestRepo) ListPending(_ context.Context, party domain.UserID) ([]domain.FriendRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FriendRequest
	for _, fr := range r.requests {
		if fr.Status == domain.RequestPending && (fr.SenderID == party || fr.ReceiverID == party) {
			out = append(out, fr)
		}
	}
	return out, nil
}

type memMessageRepo struct {
	mu       sync.Mutex
	messages []domain.Message
}

func newMemMessageRepo() *memMessageRepo { return &memMessageRepo{} }

func (r *memMessageRepo) CreateMessage(_ context.Context, m *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, *m)
	return nil
}

func (r *memMessageRepo) GetMessageByID(_ context.Context, id string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			out := m
			return &out, nil
		}
	}
	return nil, domain.ErrMessageNotFound
}

func (r *memMessageRepo) ListBetween(_ context.Context, a, b domain.UserID) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Message
	for _, m := range r.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMessageRepo) MarkViewed(_ context.Context, id string, viewedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.messages {
		if r.messages[i].ID == id && !r.messages[i].Viewed {
			r.messages[i].Viewed = true
			at := viewedAt
			r.messages[i].ViewedAt = &at
			return nil
		}
	}
	return domain.ErrMessageNotFound
}

func (r *memMessageRepo) ListPartnerIDs(_ context.Context, id domain.UserID) ([]domain.UserID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[domain.UserID]bool)
	var out []domain.UserID
	for _, m := range r.messages {
		var peer domain.UserID
		switch id {
		case m.SenderID:
			peer = m.ReceiverID
		case m.ReceiverID:
			peer = m.SenderID
		default:
			continue
		}
		if !seen[peer] {
			seen[peer] = true
			out = append(out, peer)
		}
	}
	return out, nil
}
