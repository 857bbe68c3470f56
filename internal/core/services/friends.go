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

var friendTracer = otel.Tracer("friend-service")

// FriendService governs the friend-request lifecycle: pending → accepted,
// pending → rejected, pending → deleted via cancel. Every guard is checked
// before any mutation; every successful transition triggers exactly one
// dispatch per affected party.
type FriendService struct {
	requests    domain.FriendRequestRepository
	friendships domain.FriendshipRepository
	users       domain.UserRepository
	dispatch    contracts.Dispatcher
	txManager   *TxManager
	log         *slog.Logger
}

func NewFriendService(
	log *slog.Logger,
	requests domain.FriendRequestRepository,
	friendships domain.FriendshipRepository,
	users domain.UserRepository,
	dispatch contracts.Dispatcher,
	txManager *TxManager,
) *FriendService {
	return &FriendService{
		log:         log,
		requests:    requests,
		friendships: friendships,
		users:       users,
		dispatch:    dispatch,
		txManager:   txManager,
	}
}

// Send creates a pending request from sender to receiver and notifies the
// receiver if online. A request is refused when the parties are already
// friends or when any non-rejected request exists for the unordered pair.
func (s *FriendService) Send(ctx context.Context, sender, receiver domain.UserID) (*domain.FriendRequest, error) {
	ctx, span := friendTracer.Start(ctx, "FriendService.Send", trace.WithAttributes(
		attribute.String("sender_id", sender.String()),
		attribute.String("receiver_id", receiver.String()),
	))
	defer span.End()

	if sender == receiver {
		return nil, domain.ErrSelfRequest
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
	if friends {
		return nil, domain.ErrAlreadyFriends
	}
	existing, err := s.requests.FindByPair(ctx, sender, receiver)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if existing != nil && existing.Status != domain.RequestRejected {
		return nil, domain.ErrRequestExists
	}

	fr := &domain.FriendRequest{
		ID:         domain.NewRequestID(),
		SenderID:   sender,
		ReceiverID: receiver,
		Status:     domain.RequestPending,
		CreatedAt:  time.Now(),
	}
	if err := s.requests.CreateRequest(ctx, fr); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create request failed")
		s.log.ErrorContext(ctx, "friends - send - create request failed", "sender_id", sender, "receiver_id", receiver, "err", err)
		return nil, err
	}
	s.dispatch.Dispatch(ctx, receiver, domain.EventNewFriendRequest, fr)
	s.log.InfoContext(ctx, "friends - send - request created", "request_id", fr.ID, "sender_id", sender, "receiver_id", receiver)
	return fr, nil
}

// Accept flips a pending request to accepted and writes the mutual
// friendship in the same transaction. Only the receiver may accept. Both
// parties are notified so each side's contact view updates without a fetch.
func (s *FriendService) Accept(ctx context.Context, requestID string, actor domain.UserID) (*domain.FriendRequest, error) {
	ctx, span := friendTracer.Start(ctx, "FriendService.Accept", trace.WithAttributes(
		attribute.String("request_id", requestID),
	))
	defer span.End()

	fr, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if fr.ReceiverID != actor {
		return nil, domain.ErrNotRequestParty
	}
	if err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.UpdateStatus(txCtx, fr.ID, domain.RequestAccepted); err != nil {
			return err
		}
		return s.friendships.CreateFriendship(txCtx, fr.SenderID, fr.ReceiverID)
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
		s.log.ErrorContext(ctx, "friends - accept - transaction failed", "request_id", fr.ID, "err", err)
		return nil, err
	}
	fr.Status = domain.RequestAccepted
	s.dispatch.Dispatch(ctx, fr.SenderID, domain.EventFriendRequestAccepted, fr)
	s.dispatch.Dispatch(ctx, fr.ReceiverID, domain.EventFriendRequestAccepted, fr)
	s.log.InfoContext(ctx, "friends - accept - request accepted", "request_id", fr.ID)
	return fr, nil
}

// Reject flips a pending request to rejected. Only the receiver may reject.
func (s *FriendService) Reject(ctx context.Context, requestID string, actor domain.UserID) (*domain.FriendRequest, error) {
	ctx, span := friendTracer.Start(ctx, "FriendService.Reject", trace.WithAttributes(
		attribute.String("request_id", requestID),
	))
	defer span.End()

	fr, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if fr.ReceiverID != actor {
		return nil, domain.ErrNotRequestParty
	}
	if err := s.requests.UpdateStatus(ctx, fr.ID, domain.RequestRejected); err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "friends - reject - update status failed", "request_id", fr.ID, "err", err)
		return nil, err
	}
	fr.Status = domain.RequestRejected
	s.dispatch.Dispatch(ctx, fr.SenderID, domain.EventFriendRequestRejected, fr)
	s.log.InfoContext(ctx, "friends - reject - request rejected", "request_id", fr.ID)
	return fr, nil
}

// Cancel deletes a pending request. Only the sender may cancel.
func (s *FriendService) Cancel(ctx context.Context, requestID string, actor domain.UserID) error {
	ctx, span := friendTracer.Start(ctx, "FriendService.Cancel", trace.WithAttributes(
		attribute.String("request_id", requestID),
	))
	defer span.End()

	fr, err := s.pendingRequest(ctx, requestID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if fr.SenderID != actor {
		return domain.ErrNotRequestParty
	}
	if err := s.requests.DeleteRequest(ctx, fr.ID); err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "friends - cancel - delete request failed", "request_id", fr.ID, "err", err)
		return err
	}
	s.dispatch.Dispatch(ctx, fr.ReceiverID, domain.EventFriendRequestCancelled, domain.RequestCancelledEvent{
		RequestID: fr.ID,
		SenderID:  fr.SenderID,
	})
	s.log.InfoContext(ctx, "friends - cancel - request cancelled", "request_id", fr.ID)
	return nil
}

// ListRequests returns the viewer's pending requests split by direction.
func (s *FriendService) ListRequests(ctx context.Context, viewer domain.UserID) (*domain.RequestLists, error) {
	pending, err := s.requests.ListPending(ctx, viewer)
	if err != nil {
		s.log.ErrorContext(ctx, "friends - list requests - query failed", "user_id", viewer, "err", err)
		return nil, err
	}
	lists := &domain.RequestLists{
		Sent:     []domain.FriendRequest{},
		Received: []domain.FriendRequest{},
	}
	for _, fr := range pending {
		if fr.SenderID == viewer {
			lists.Sent = append(lists.Sent, fr)
		} else {
			lists.Received = append(lists.Received, fr)
		}
	}
	return lists, nil
}

func (s *FriendService) ListFriends(ctx context.Context, viewer domain.UserID) ([]domain.User, error) {
	return s.friendships.ListFriends(ctx, viewer)
}

// AreFriends gates whether message delivery may even be attempted.
func (s *FriendService) AreFriends(ctx context.Context, a, b domain.UserID) (bool, error) {
	return s.friendships.AreFriends(ctx, a, b)
}

func (s *FriendService) pendingRequest(ctx context.Context, requestID string) (*domain.FriendRequest, error) {
	fr, err := s.requests.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if fr.Status != domain.RequestPending {
		return nil, domain.ErrRequestNotPending
	}
	return fr, nil
}
