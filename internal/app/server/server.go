package server

import (
	"log/slog"
	"net/http"
	"time"

	"duet/internal/app/server/handlers"
	"duet/internal/core/services"
	"duet/pkg/middleware"
)

type Server struct {
	mux      *http.ServeMux
	addr     string
	name     string
	log      *slog.Logger
	authH    *handlers.AuthHandler
	wsH      *handlers.WSHandler
	friendH  *handlers.FriendHandler
	messageH *handlers.MessageHandler
	tokenSvc *services.TokenService
}

func NewServer(
	log *slog.Logger,
	name, addr string,
	tokenSvc *services.TokenService,
	authH *handlers.AuthHandler,
	wsH *handlers.WSHandler,
	friendH *handlers.FriendHandler,
	messageH *handlers.MessageHandler,
) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		addr:     addr,
		name:     name,
		log:      log,
		authH:    authH,
		wsH:      wsH,
		friendH:  friendH,
		messageH: messageH,
		tokenSvc: tokenSvc,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	auth := middleware.AuthMiddleware(s.tokenSvc)

	// Public routes
	s.mux.HandleFunc("POST /auth/signup", s.authH.Signup)
	s.mux.HandleFunc("POST /auth/login", s.authH.Login)
	s.mux.HandleFunc("POST /auth/logout", s.authH.Logout)

	// Protected REST routes. Each write below is followed by exactly one
	// dispatch per affected party, inside the service layer.
	s.mux.Handle("GET /messages/contacts", auth(http.HandlerFunc(s.messageH.Contacts)))
	s.mux.Handle("GET /messages/chats", auth(http.HandlerFunc(s.messageH.ChatPartners)))
	s.mux.Handle("GET /messages/{id}", auth(http.HandlerFunc(s.messageH.History)))
	s.mux.Handle("POST /messages/send/{id}", auth(http.HandlerFunc(s.messageH.Send)))
	s.mux.Handle("PUT /messages/view/{id}", auth(http.HandlerFunc(s.messageH.MarkViewed)))

	s.mux.Handle("POST /friends/request/{id}", auth(http.HandlerFunc(s.friendH.SendRequest)))
	s.mux.Handle("PUT /friends/accept/{id}", auth(http.HandlerFunc(s.friendH.AcceptRequest)))
	s.mux.Handle("PUT /friends/reject/{id}", auth(http.HandlerFunc(s.friendH.RejectRequest)))
	s.mux.Handle("DELETE /friends/cancel/{id}", auth(http.HandlerFunc(s.friendH.CancelRequest)))
	s.mux.Handle("GET /friends/requests", auth(http.HandlerFunc(s.friendH.ListRequests)))
	s.mux.Handle("GET /friends/friends", auth(http.HandlerFunc(s.friendH.ListFriends)))

	// The socket handshake authenticates itself (cookie credential), so it
	// is not wrapped by the REST auth middleware.
	s.mux.HandleFunc("/ws", s.wsH.Handler)
}

// Start blocks until the listener fails. Startup errors propagate to the
// caller; a degraded no-realtime mode is the caller's call, not ours.
func (s *Server) Start() error {
	handler := middleware.RequestLogger(s.log)(
		middleware.TracerMiddleware(s.name)(s.mux),
	)
	server := &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket writes manage their own deadlines
	}
	s.log.Info("server - starting", "addr", s.addr)
	return server.ListenAndServe()
}
