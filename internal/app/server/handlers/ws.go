package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"duet/internal/app/registry"
	"duet/internal/app/server/ws"
	"duet/internal/core/contracts"
	"duet/internal/core/domain"
	"duet/internal/core/services"
	"duet/pkg/logging"
)

type WSHandler struct {
	hub         *registry.Registry
	auth        *services.SocketAuthenticator
	typing      *services.TypingTracker
	lastSeen    contracts.LastSeenStore
	checkOrigin func(*http.Request) bool
}

func NewWSHandler(
	hub *registry.Registry,
	auth *services.SocketAuthenticator,
	typing *services.TypingTracker,
	lastSeen contracts.LastSeenStore,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		hub:         hub,
		auth:        auth,
		typing:      typing,
		lastSeen:    lastSeen,
		checkOrigin: originChecker(allowedOrigins),
	}
}

// originChecker admits the configured origins, or any origin when the list
// is empty (development). Requests without an Origin header are non-browser
// clients and always pass.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Handler authenticates the handshake, upgrades, registers presence and runs
// the read loop. Teardown synchronously unregisters presence and clears
// typing state; that is the only mandatory cancellation path.
func (s *WSHandler) Handler(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	// Authentication happens before the upgrade; a failed handshake never
	// touches the registry.
	user, err := s.auth.Authenticate(r.Context(), r)
	if err != nil {
		log.InfoContext(r.Context(), "ws handler - handshake rejected", "reason", err)
		http.Error(w, "unauthorized: "+err.Error(), authStatus(err))
		return
	}
	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("user.id", user.ID.String()))

	sessionCtx := context.WithoutCancel(r.Context())
	ctx, cancel := context.WithCancel(sessionCtx)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.ErrorContext(r.Context(), "ws handler - upgrade failed", "err", err)
		cancel()
		return
	}
	conn.SetCloseHandler(func(code int, text string) error {
		log.Info("ws handler - ws closed", "user_id", user.ID)
		cancel()
		return nil
	})
	socket := ws.NewWebSocket(ctx, conn)

	client := ws.NewClient(ctx, socket, user.ID)
	s.hub.Register(client)
	_ = s.lastSeen.Touch(ctx, user.ID)
	log.InfoContext(r.Context(), "ws handler - connection established", "user_id", user.ID)

	defer func() {
		s.hub.Unregister(client)
		s.typing.Disconnect(sessionCtx, user.ID)
		_ = s.lastSeen.SetLastSeen(sessionCtx, user.ID, time.Now())
		client.Close()
	}()

	socket.ReadLoop(func(data []byte) {
		s.handleFrame(ctx, client, user, data)
	})
}

func (s *WSHandler) handleFrame(ctx context.Context, client contracts.Client, user *domain.User, data []byte) {
	log := logging.FromContext(ctx)
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Info("ws handler - frame - wrong format", "user_id", user.ID)
		return
	}
	switch env.Event {
	case domain.EventRequestOnlineUsers:
		s.hub.SendSnapshot(ctx, client)
	case domain.EventTypingStart, domain.EventTypingStop:
		var sig domain.TypingSignal
		if err := json.Unmarshal(env.Data, &sig); err != nil {
			return
		}
		receiver, err := domain.ParseUserID(sig.ReceiverID)
		if err != nil {
			return
		}
		if env.Event == domain.EventTypingStart {
			s.typing.Start(ctx, user.ID, user.FullName, receiver)
		} else {
			s.typing.Stop(ctx, user.ID, receiver)
		}
	default:
		log.Info("ws handler - frame - unknown event", "event", env.Event, "user_id", user.ID)
	}
}

func authStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrIdentityNotFound):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
