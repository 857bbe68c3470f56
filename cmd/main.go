package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"duet/internal/app/registry"
	"duet/internal/app/server"
	"duet/internal/app/server/handlers"
	"duet/internal/app/worker"
	"duet/internal/config"
	"duet/internal/core/contracts"
	"duet/internal/core/services"
	"duet/internal/platform/telemetry"
	"duet/internal/plugins/email"
	"duet/internal/plugins/postgres"
	redisPlugin "duet/internal/plugins/redis"
	"duet/pkg/logging"
)

func main() {
	// Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Config
	cfg := config.Load()

	// Logger
	log := logging.NewLogger(cfg.Service.Name, cfg.Service.Env)
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		if otelShutdown == nil {
			return
		}
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	var pdb *sql.DB
	if pdb, err = postgres.New(ctx, *cfg.Postgres); err != nil {
		log.Error("postgres connection failed", "err", err)
		os.Exit(1)
	}
	log.Info("postgres connected")
	var rdb *goredis.Client
	if rdb, err = redisPlugin.NewRedisClient(ctx, *cfg.Redis); err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL, "err", err)
		os.Exit(1)
	}
	log.Info("redis connected")

	// Adapters
	userRepo := postgres.NewUserRepository(pdb)
	requestRepo := postgres.NewFriendRequestRepo(pdb)
	friendshipRepo := postgres.NewFriendshipRepo(pdb)
	messageRepo := postgres.NewMessageRepo(pdb)
	lastSeen := redisPlugin.NewRedisLastSeenStore(rdb)
	var mailer contracts.WelcomeMailer = email.Noop{}
	if cfg.Email.SMTPHost != "" {
		mailer = email.NewSender(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.Username,
			cfg.Email.Password,
			cfg.Email.From,
			cfg.Email.ClientURL,
		)
	}

	// Core services
	hub := registry.NewRegistry(log)
	txManager := services.NewTxManager(pdb)
	dispatcher := services.NewDispatchService(log, hub)
	typing := services.NewTypingTracker(log, dispatcher, cfg.Typing.Expiry)
	tokenSvc := services.NewTokenService(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	userSvc := services.NewUserService(log, userRepo, requestRepo, friendshipRepo, lastSeen, mailer)
	friendSvc := services.NewFriendService(log, requestRepo, friendshipRepo, userRepo, dispatcher, txManager)
	messageSvc := services.NewMessageService(log, messageRepo, userRepo, friendshipRepo, dispatcher)
	socketAuth := services.NewSocketAuthenticator(log, tokenSvc, userRepo)

	// Background sweeper for stale typing indicators
	sweeper := worker.NewTypingSweeper(log, typing, cfg.Typing.SweepInterval)
	go sweeper.Run(ctx)

	// Server
	srv := server.NewServer(
		log,
		cfg.Service.Name,
		cfg.Service.Addr,
		tokenSvc,
		handlers.NewAuthHandler(userSvc, tokenSvc),
		handlers.NewWSHandler(hub, socketAuth, typing, lastSeen, cfg.Service.AllowedOrigins),
		handlers.NewFriendHandler(friendSvc),
		handlers.NewMessageHandler(messageSvc, userSvc),
	)
	if err := srv.Start(); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
