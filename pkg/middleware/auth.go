package middleware

import (
	"context"
	"net/http"
	"strings"

	"duet/internal/core/domain"
	"duet/internal/core/services"
)

type userKeyType struct{}

var userKey = userKeyType{}

// UserFromContext returns the authenticated, canonicalized identity.
func UserFromContext(ctx context.Context) (domain.UserID, bool) {
	id, ok := ctx.Value(userKey).(domain.UserID)
	return id, ok
}

// AuthMiddleware validates the request credential and injects the canonical
// UserID into the context. The credential is the jwt cookie or a bearer
// header, same as the socket handshake.
func AuthMiddleware(tokenSvc *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie("jwt"); err == nil {
				token = c.Value
			}
			if token == "" {
				authHeader := r.Header.Get("Authorization")
				parts := strings.Split(authHeader, " ")
				if len(parts) == 2 && parts[0] == "Bearer" {
					token = parts[1]
				}
			}
			if token == "" {
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			}
			sub, err := tokenSvc.ValidateToken(token)
			if err != nil {
				http.Error(w, "unauthorized: "+err.Error(), http.StatusUnauthorized)
				return
			}
			id, err := domain.ParseUserID(sub)
			if err != nil {
				http.Error(w, "unauthorized: invalid subject", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
