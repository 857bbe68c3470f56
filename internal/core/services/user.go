package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"duet/internal/core/contracts"
	"duet/internal/core/domain"
)

// UserService handles account lifecycle and the decorated contact list.
type UserService struct {
	log      *slog.Logger
	users    domain.UserRepository
	requests domain.FriendRequestRepository
	friends  domain.FriendshipRepository
	lastSeen contracts.LastSeenStore
	mailer   contracts.WelcomeMailer
}

func NewUserService(
	log *slog.Logger,
	users domain.UserRepository,
	requests domain.FriendRequestRepository,
	friends domain.FriendshipRepository,
	lastSeen contracts.LastSeenStore,
	mailer contracts.WelcomeMailer,
) *UserService {
	return &UserService{
		log:      log,
		users:    users,
		requests: requests,
		friends:  friends,
		lastSeen: lastSeen,
		mailer:   mailer,
	}
}

// Signup creates an account with a bcrypt-hashed password and sends a
// welcome mail to the new address.
func (s *UserService) Signup(ctx context.Context, fullName, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" || len(password) < 6 {
		return nil, errors.New("full name, email and a password of at least 6 characters are required")
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           domain.NewUserID(),
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		s.log.ErrorContext(ctx, "user - signup - create user failed", "email", email, "err", err)
		return nil, err
	}
	// Welcome mail is best effort; a delivery failure never fails the signup.
	if err := s.mailer.SendWelcome(ctx, user.Email, user.FullName); err != nil {
		s.log.ErrorContext(ctx, "user - signup - welcome mail failed", "user_id", user.ID, "err", err)
	}
	s.log.InfoContext(ctx, "user - signup - user created", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and returns the account. The caller issues the
// token; a failed login returns the same error regardless of which check
// failed.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrBadLogin
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrBadLogin
	}
	return user, nil
}

// Contacts returns every other user decorated with the viewer's relationship
// to them: friendship and any pending request in either direction.
func (s *UserService) Contacts(ctx context.Context, viewer domain.UserID) ([]domain.Contact, error) {
	all, err := s.users.ListUsersExcept(ctx, viewer)
	if err != nil {
		s.log.ErrorContext(ctx, "user - contacts - list users failed", "user_id", viewer, "err", err)
		return nil, err
	}
	pending, err := s.requests.ListPending(ctx, viewer)
	if err != nil {
		return nil, err
	}
	contacts := make([]domain.Contact, 0, len(all))
	for _, u := range all {
		c := domain.Contact{User: u}
		friends, err := s.friends.AreFriends(ctx, viewer, u.ID)
		if err != nil {
			return nil, err
		}
		c.IsFriend = friends
		// Best effort: an unreachable store leaves the field empty rather
		// than failing the listing.
		if at, ok, err := s.lastSeen.GetLastSeen(ctx, u.ID); err == nil && ok {
			seen := at
			c.LastSeen = &seen
		}
		for _, fr := range pending {
			switch {
			case fr.SenderID == viewer && fr.ReceiverID == u.ID:
				c.RequestStatus = "sent"
				c.RequestID = fr.ID
			case fr.ReceiverID == viewer && fr.SenderID == u.ID:
				c.RequestStatus = "received"
				c.RequestID = fr.ID
			}
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}
