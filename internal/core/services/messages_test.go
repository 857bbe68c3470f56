package services

import (
	"context"
	"errors"
	"testing"

	"duet/internal/core/domain"
)

type messageFixture struct {
	svc         *MessageService
	dispatch    *fakeDispatcher
	friendships *memFriendshipRepo
	alice       domain.User
	bob         domain.User
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	alice := domain.User{ID: domain.NewUserID(), FullName: "Alice", Email: "alice@example.com"}
	bob := domain.User{ID: domain.NewUserID(), FullName: "Bob", Email: "bob@example.com"}
	users := newMemUserRepo(alice, bob)
	friendships := newMemFriendshipRepo(users)
	if err := friendships.CreateFriendship(context.Background(), alice.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	dispatch := newFakeDispatcher(alice.ID, bob.ID)
	svc := NewMessageService(testLogger(), newMemMessageRepo(), users, friendships, dispatch)
	return &messageFixture{svc: svc, dispatch: dispatch, friendships: friendships, alice: alice, bob: bob}
}

func TestSendMessagePushesToBothParties(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Send(ctx, f.alice.ID, f.bob.ID, SendInput{Text: "hello"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("message has no id")
	}
	if got := f.dispatch.sent(f.bob.ID, domain.EventNewMessage); got != 1 {
		t.Fatalf("receiver pushes: got %d", got)
	}
	if got := f.dispatch.sent(f.alice.ID, domain.EventNewMessage); got != 1 {
		t.Fatalf("sender pushes: got %d", got)
	}
}

func TestSendMessageGuards(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Send(ctx, f.alice.ID, f.bob.ID, SendInput{}); !errors.Is(err, domain.ErrEmptyMessage) {
		t.Fatalf("empty message: got %v", err)
	}
	if _, err := f.svc.Send(ctx, f.alice.ID, f.alice.ID, SendInput{Text: "hi"}); !errors.Is(err, domain.ErrSelfMessage) {
		t.Fatalf("self message: got %v", err)
	}
	if _, err := f.svc.Send(ctx, f.alice.ID, domain.NewUserID(), SendInput{Text: "hi"}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("unknown receiver: got %v", err)
	}
	if got := f.dispatch.sent(f.bob.ID, domain.EventNewMessage); got != 0 {
		t.Fatalf("no push may happen on a refused send, got %d", got)
	}
}

func TestSendMessageRequiresFriendship(t *testing.T) {
	alice := domain.User{ID: domain.NewUserID(), FullName: "Alice", Email: "alice@example.com"}
	bob := domain.User{ID: domain.NewUserID(), FullName: "Bob", Email: "bob@example.com"}
	users := newMemUserRepo(alice, bob)
	dispatch := newFakeDispatcher(bob.ID)
	svc := NewMessageService(testLogger(), newMemMessageRepo(), users, newMemFriendshipRepo(users), dispatch)

	if _, err := svc.Send(context.Background(), alice.ID, bob.ID, SendInput{Text: "hi"}); !errors.Is(err, domain.ErrNotFriends) {
		t.Fatalf("non-friends: got %v", err)
	}
}

func TestSendMessageAttachmentOnlyIsValid(t *testing.T) {
	f := newMessageFixture(t)

	msg, err := f.svc.Send(context.Background(), f.alice.ID, f.bob.ID, SendInput{
		Attachment: &domain.Attachment{URL: "https://cdn.example.com/a.png"},
	})
	if err != nil {
		t.Fatalf("attachment-only send: %v", err)
	}
	if msg.Attachment == nil {
		t.Fatal("attachment lost")
	}
}

func TestMarkViewedIsReceiverOnlyAndFiresOnce(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Send(ctx, f.alice.ID, f.bob.ID, SendInput{
		Attachment:   &domain.Attachment{URL: "https://cdn.example.com/a.png"},
		Disappearing: true,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := f.svc.MarkViewed(ctx, msg.ID, f.alice.ID); !errors.Is(err, domain.ErrNotReceiver) {
		t.Fatalf("sender marking viewed: got %v", err)
	}

	viewed, err := f.svc.MarkViewed(ctx, msg.ID, f.bob.ID)
	if err != nil {
		t.Fatalf("mark viewed: %v", err)
	}
	if !viewed.Viewed || viewed.ViewedAt == nil {
		t.Fatalf("message not flipped: %+v", viewed)
	}
	if got := f.dispatch.sent(f.alice.ID, domain.EventMessageViewed); got != 1 {
		t.Fatalf("sender acknowledgements: got %d", got)
	}

	// Second view is a no-op: no state change, no second acknowledgement.
	if _, err := f.svc.MarkViewed(ctx, msg.ID, f.bob.ID); err != nil {
		t.Fatalf("repeat mark viewed: %v", err)
	}
	if got := f.dispatch.sent(f.alice.ID, domain.EventMessageViewed); got != 1 {
		t.Fatalf("acknowledgement fired twice: got %d", got)
	}
}

func TestMarkViewedNonDisappearingIsNoOp(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Send(ctx, f.alice.ID, f.bob.ID, SendInput{Text: "plain"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	got, err := f.svc.MarkViewed(ctx, msg.ID, f.bob.ID)
	if err != nil {
		t.Fatalf("mark viewed: %v", err)
	}
	if got.Viewed {
		t.Fatal("non-disappearing message must not flip to viewed")
	}
	if n := f.dispatch.sent(f.alice.ID, domain.EventMessageViewed); n != 0 {
		t.Fatalf("no acknowledgement expected, got %d", n)
	}
}

func TestHistoryHidesViewedDisappearingAttachmentFromReceiverOnly(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Send(ctx, f.alice.ID, f.bob.ID, SendInput{
		Text:         "look once",
		Attachment:   &domain.Attachment{URL: "https://cdn.example.com/a.png"},
		Disappearing: true,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	// Before viewing both sides see the attachment.
	forBob, err := f.svc.History(ctx, f.bob.ID, f.alice.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(forBob) != 1 || forBob[0].Attachment == nil {
		t.Fatalf("receiver must see unviewed attachment: %+v", forBob)
	}

	if _, err := f.svc.MarkViewed(ctx, msg.ID, f.bob.ID); err != nil {
		t.Fatalf("mark viewed: %v", err)
	}

	forBob, err = f.svc.History(ctx, f.bob.ID, f.alice.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if forBob[0].Attachment != nil {
		t.Fatal("receiver must not see viewed disappearing attachment")
	}

	forAlice, err := f.svc.History(ctx, f.alice.ID, f.bob.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if forAlice[0].Attachment == nil {
		t.Fatal("sender keeps the attachment after viewing")
	}
}

func TestChatPartnersRequiresSurvivingFriendship(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Send(ctx, f.alice.ID, f.bob.ID, SendInput{Text: "hi"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	partners, err := f.svc.ChatPartners(ctx, f.alice.ID)
	if err != nil {
		t.Fatalf("partners: %v", err)
	}
	if len(partners) != 1 || partners[0].ID != f.bob.ID {
		t.Fatalf("expected bob as partner: %+v", partners)
	}

	// Drop the friendship: history stays but the partner listing excludes bob.
	f.friendships.pairs[pairKey(f.alice.ID, f.bob.ID)] = false
	partners, err = f.svc.ChatPartners(ctx, f.alice.ID)
	if err != nil {
		t.Fatalf("partners: %v", err)
	}
	if len(partners) != 0 {
		t.Fatalf("ex-friend must be excluded: %+v", partners)
	}
}
