package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"velvethour/internal/cache"
	"velvethour/internal/config"
	"velvethour/internal/pairing"
	"velvethour/internal/presence"
	"velvethour/internal/repository"
	"velvethour/internal/service"
	"velvethour/internal/transport/rest"
	"velvethour/internal/transport/ws"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MongoDB
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal().Err(err).Msg("failed to ping MongoDB")
	}
	log.Info().Str("db", cfg.MongoDB).Msg("connected to MongoDB")
	db := mongoClient.Database(cfg.MongoDB)

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping Redis")
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")

	// Repositories
	eventRepo := repository.NewEventRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	participantRepo := repository.NewParticipantRepo(db)
	matchRepo := repository.NewMatchRepo(db)
	feedbackRepo := repository.NewFeedbackRepo(db)

	// Caches and presence
	presenceCache := cache.NewPresenceCache(rdb)
	statusCache := cache.NewStatusCache(rdb)
	tracker := presence.NewTracker(presenceCache)

	// WebSocket hub
	hub := ws.NewHub(tracker, cfg.HeartbeatTimeout)
	hub.Start(ctx)

	// Services
	clock := clockwork.NewRealClock()
	locks := service.NewEventLocks()
	authSvc := service.NewAuthService(cfg)
	sessionSvc := service.NewSessionService(cfg, eventRepo, sessionRepo, participantRepo,
		matchRepo, feedbackRepo, tracker, statusCache, pairing.NewEngine(), clock, locks)
	feedbackSvc := service.NewFeedbackService(sessionRepo, matchRepo, feedbackRepo, clock, locks)

	sessionSvc.SetBroadcaster(hub)
	feedbackSvc.SetBroadcaster(hub)

	router := rest.NewRouter(&rest.Container{
		AuthService:     authSvc,
		SessionService:  sessionSvc,
		FeedbackService: feedbackSvc,
		WSHub:           hub,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
