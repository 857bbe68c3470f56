// Package client holds the state-merging half of the real-time protocol: a
// connection-agnostic store that presents locally-originated actions
// immediately and reconciles them with authoritative records arriving either
// as the HTTP response to the originating call or as a pushed socket event.
// The two paths race; the store tolerates either order.
package client

import (
	"encoding/json"
	"fmt"
	"sync"

	"duet/internal/core/domain"
)

type Store struct {
	mu      sync.Mutex
	self    domain.UserID
	tempSeq int

	messages []domain.Message
	merged   map[string]struct{} // message ids (temporary or authoritative) present in messages

	requests map[string]domain.FriendRequest
	typing   map[domain.UserID]string // peer → full name
	online   map[domain.UserID]struct{}
}

func NewStore(self domain.UserID) *Store {
	return &Store{
		self:     self,
		merged:   make(map[string]struct{}),
		requests: make(map[string]domain.FriendRequest),
		typing:   make(map[domain.UserID]string),
		online:   make(map[domain.UserID]struct{}),
	}
}

// AppendLocal inserts an optimistic placeholder for a message this client
// just sent and returns its temporary identifier.
func (s *Store) AppendLocal(msg domain.Message) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempSeq++
	tempID := fmt.Sprintf("temp-%d", s.tempSeq)
	msg.ID = tempID
	s.messages = append(s.messages, msg)
	s.merged[tempID] = struct{}{}
	return tempID
}

// ResolveLocal replaces the placeholder with the authoritative record from
// the HTTP response. If the dispatched event for the same message arrived
// first, the placeholder is dropped instead, leaving exactly one record.
func (s *Store) ResolveLocal(tempID string, authoritative domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.merged[authoritative.ID]; seen {
		s.removeLocked(tempID)
		return
	}
	for i := range s.messages {
		if s.messages[i].ID == tempID {
			s.messages[i] = authoritative
			delete(s.merged, tempID)
			s.merged[authoritative.ID] = struct{}{}
			return
		}
	}
	// Placeholder already gone (discarded); treat the response as foreign.
	s.messages = append(s.messages, authoritative)
	s.merged[authoritative.ID] = struct{}{}
}

// DiscardLocal drops the placeholder after the originating call failed.
func (s *Store) DiscardLocal(tempID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(tempID)
}

// ApplyEvent merges one server-pushed envelope. Message and friend-request
// events are deduplicated by their stable identifiers; typing and presence
// events mutate auxiliary maps and never touch the message collection.
func (s *Store) ApplyEvent(env domain.Envelope) error {
	switch env.Event {
	case domain.EventNewMessage:
		var msg domain.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return err
		}
		s.applyMessage(msg)
	case domain.EventMessageViewed:
		var ev domain.MessageViewedEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return err
		}
		s.applyViewed(ev)
	case domain.EventUserTyping:
		var ev domain.TypingEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return err
		}
		s.mu.Lock()
		s.typing[ev.UserID] = ev.FullName
		s.mu.Unlock()
	case domain.EventUserStoppedTyping:
		var ev domain.TypingEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return err
		}
		s.mu.Lock()
		delete(s.typing, ev.UserID)
		s.mu.Unlock()
	case domain.EventOnlineUsers:
		var ids []domain.UserID
		if err := json.Unmarshal(env.Data, &ids); err != nil {
			return err
		}
		s.mu.Lock()
		s.online = make(map[domain.UserID]struct{}, len(ids))
		for _, id := range ids {
			s.online[id] = struct{}{}
		}
		s.mu.Unlock()
	case domain.EventNewFriendRequest, domain.EventFriendRequestAccepted, domain.EventFriendRequestRejected:
		var fr domain.FriendRequest
		if err := json.Unmarshal(env.Data, &fr); err != nil {
			return err
		}
		s.mu.Lock()
		s.requests[fr.ID] = fr
		s.mu.Unlock()
	case domain.EventFriendRequestCancelled:
		var ev domain.RequestCancelledEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return err
		}
		s.mu.Lock()
		delete(s.requests, ev.RequestID)
		s.mu.Unlock()
	default:
		return fmt.Errorf("unknown event %q", env.Event)
	}
	return nil
}

func (s *Store) applyMessage(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.merged[msg.ID]; seen {
		return
	}
	// An event for a record this client authored may land before the HTTP
	// response resolves the placeholder; append now, ResolveLocal drops the
	// placeholder when it runs.
	s.messages = append(s.messages, msg)
	s.merged[msg.ID] = struct{}{}
}

func (s *Store) applyViewed(ev domain.MessageViewedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == ev.MessageID {
			s.messages[i].Viewed = true
			at := ev.ViewedAt
			s.messages[i].ViewedAt = &at
			return
		}
	}
}

func (s *Store) removeLocked(id string) {
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			break
		}
	}
	delete(s.merged, id)
}

// Messages returns a copy of the merged message list in arrival order.
func (s *Store) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Requests returns the known friend requests keyed by id.
func (s *Store) Requests() map[string]domain.FriendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.FriendRequest, len(s.requests))
	for k, v := range s.requests {
		out[k] = v
	}
	return out
}

// TypingPeers returns the peers currently typing toward this client.
func (s *Store) TypingPeers() map[domain.UserID]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.UserID]string, len(s.typing))
	for k, v := range s.typing {
		out[k] = v
	}
	return out
}

// IsOnline reports presence from the latest snapshot.
func (s *Store) IsOnline(id domain.UserID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.online[id]
	return ok
}
