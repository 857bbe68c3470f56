package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"duet/internal/core/domain"
)

// SocketAuthenticator validates the credential carried by an incoming
// connection handshake and resolves it to a user identity before the
// connection is admitted into the registry. A failed authentication has no
// side effects beyond rejection.
type SocketAuthenticator struct {
	tokens *TokenService
	users  domain.UserRepository
	log    *slog.Logger
}

func NewSocketAuthenticator(log *slog.Logger, tokens *TokenService, users domain.UserRepository) *SocketAuthenticator {
	return &SocketAuthenticator{tokens: tokens, users: users, log: log}
}

// Authenticate resolves the handshake request to a user. The credential is
// the "jwt" cookie (sent automatically with credentials), with a bearer
// header fallback for non-browser clients.
func (a *SocketAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*domain.User, error) {
	cred := credentialFromRequest(r)
	if cred == "" {
		return nil, domain.ErrMissingCredential
	}
	sub, err := a.tokens.ValidateToken(cred)
	if err != nil {
		a.log.InfoContext(ctx, "socket auth - invalid credential", "err", err)
		return nil, domain.ErrInvalidCredential
	}
	id, err := domain.ParseUserID(sub)
	if err != nil {
		return nil, domain.ErrInvalidCredential
	}
	user, err := a.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}
	return user, nil
}

func credentialFromRequest(r *http.Request) string {
	if c, err := r.Cookie("jwt"); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
