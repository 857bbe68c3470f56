package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"duet/internal/core/contracts"
	"duet/internal/core/domain"
)

var messageTracer = otel.Tracer("message-service")

// MessageService persists direct messages and announces each write to the
// zero, one or two parties currently online. The friendship gate runs before
// any mutation; an offline party simply misses the real-time push and sees
// the message on its next history fetch.
type MessageService struct {
	repo        domain.MessageRepository
	users       domain.UserRepository
	friendships domain.FriendshipRepository
	dispatch    contracts.Dispatcher
	log         *slog.Logger
}

func NewMessageService(
	log *slog.Logger,
	repo domain.MessageRepository,
	users domain.UserRepository,
	friendships domain.FriendshipRepository,
	dispatch contracts.Dispatcher,
) *MessageService {
	return &MessageService{
		log:         log,
		repo:        repo,
		users:       users,
		friendships: friendships,
		dispatch:    dispatch,
	}
}

// SendInput is the write half of a message; the attachment URL is produced
// by the upload collaborator before this call.
type SendInput struct {
	Text         string
	Attachment   *domain.Attachment
	Disappearing bool
}

// Send persists a message and pushes newMessage to both receiver and sender.
// The sender push keeps both UIs symmetric without a separate fetch; the
// payload carries the message id so receivers can deduplicate.
func (s *MessageService) Send(ctx context.Context, sender, receiver domain.UserID, in SendInput) (*domain.Message, error) {
	ctx, span := messageTracer.Start(ctx, "MessageService.Send", trace.WithAttributes(
		attribute.String("sender_id", sender.String()),
		attribute.String("receiver_id", receiver.String()),
	))
	defer span.End()

	if in.Text == "" && in.Attachment == nil {
		return nil, domain.ErrEmptyMessage
	}
	if sender == receiver {
		return nil, domain.ErrSelfMessage
	}
	if _, err := s.users.GetUserByID(ctx, receiver); err != nil {
		span.RecordError(err)
		return nil, err
	}
	friends, err := s.friendships.AreFriends(ctx, sender, receiver)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !friends {
		return nil, domain.ErrNotFriends
	}

	msg := &domain.Message{
		ID:           domain.NewMessageID(),
		SenderID:     sender,
		ReceiverID:   receiver,
		Text:         in.Text,
		Attachment:   in.Attachment,
		Disappearing: in.Disappearing,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create message failed")
		s.log.ErrorContext(ctx, "messages - send - create message failed", "sender_id", sender, "receiver_id", receiver, "err", err)
		return nil, err
	}

	delivered := s.dispatch.Dispatch(ctx, receiver, domain.EventNewMessage, msg)
	s.dispatch.Dispatch(ctx, sender, domain.EventNewMessage, msg)
	span.SetAttributes(attribute.Bool("delivered_realtime", delivered))
	s.log.InfoContext(ctx, "messages - send - message created", "message_id", msg.ID, "delivered_realtime", delivered)
	return msg, nil
}

// History returns the conversation between viewer and peer, applying the
// disappearing rule at read time: a viewed disappearing attachment is hidden
// from the receiver, never from the sender.
func (s *MessageService) History(ctx context.Context, viewer, peer domain.UserID) ([]domain.Message, error) {
	msgs, err := s.repo.ListBetween(ctx, viewer, peer)
	if err != nil {
		s.log.ErrorContext(ctx, "messages - history - query failed", "user_id", viewer, "peer_id", peer, "err", err)
		return nil, err
	}
	for i := range msgs {
		m := &msgs[i]
		if m.Disappearing && m.Viewed && m.ReceiverID == viewer {
			m.Attachment = nil
		}
	}
	return msgs, nil
}

// MarkViewed flips a disappearing message to viewed, once, by its receiver,
// and acknowledges the sender with messageViewed. A second call is a no-op.
func (s *MessageService) MarkViewed(ctx context.Context, messageID string, actor domain.UserID) (*domain.Message, error) {
	ctx, span := messageTracer.Start(ctx, "MessageService.MarkViewed", trace.WithAttributes(
		attribute.String("message_id", messageID),
	))
	defer span.End()

	msg, err := s.repo.GetMessageByID(ctx, messageID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if msg.ReceiverID != actor {
		return nil, domain.ErrNotReceiver
	}
	if !msg.Disappearing || msg.Viewed {
		return msg, nil
	}
	viewedAt := time.Now()
	if err := s.repo.MarkViewed(ctx, msg.ID, viewedAt); err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "messages - mark viewed - update failed", "message_id", msg.ID, "err", err)
		return nil, err
	}
	msg.Viewed = true
	msg.ViewedAt = &viewedAt
	s.dispatch.Dispatch(ctx, msg.SenderID, domain.EventMessageViewed, domain.MessageViewedEvent{
		MessageID: msg.ID,
		ViewedAt:  viewedAt,
	})
	s.log.InfoContext(ctx, "messages - mark viewed - message viewed", "message_id", msg.ID)
	return msg, nil
}

// ChatPartners returns the viewer's friends with message history.
func (s *MessageService) ChatPartners(ctx context.Context, viewer domain.UserID) ([]domain.User, error) {
	ids, err := s.repo.ListPartnerIDs(ctx, viewer)
	if err != nil {
		s.log.ErrorContext(ctx, "messages - chat partners - query failed", "user_id", viewer, "err", err)
		return nil, err
	}
	partners := []domain.User{}
	for _, id := range ids {
		friends, err := s.friendships.AreFriends(ctx, viewer, id)
		if err != nil {
			return nil, err
		}
		if !friends {
			continue
		}
		u, err := s.users.GetUserByID(ctx, id)
		if err != nil {
			continue
		}
		partners = append(partners, *u)
	}
	return partners, nil
}
