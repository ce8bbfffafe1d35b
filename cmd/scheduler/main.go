package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"homeboard/internal/config"
	"homeboard/internal/database"
	"homeboard/internal/handlers"
	"homeboard/internal/push"
	"homeboard/internal/repository"
	"homeboard/internal/scheduler"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to load config")
	}

	log := newLogger(cfg)

	// Validate required config
	if cfg.DatabaseURI == "" {
		log.Fatal().Msg("DATABASE_URI is required")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to database")

	// Run migrations
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrations completed")

	// Initialize push delivery (optional: falls back to log-only)
	var sender push.Sender
	if cfg.FirebaseCredentials != "" {
		fcm, err := push.NewFCM(ctx, cfg.FirebaseCredentials)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize FCM client")
		}
		sender = fcm
		log.Info().Msg("FCM push client initialized")
	} else {
		sender = push.NewLogSender(log)
		log.Info().Msg("push delivery not configured, notifications will be logged only")
	}

	// Create repositories
	itemRepo := repository.NewItemRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	// Create and start scheduler
	dispatcher := scheduler.NewDispatcher(tokenRepo, sender, rate.NewLimiter(rate.Limit(10), 10), log)
	sched := scheduler.New(itemRepo, dispatcher, cfg.CheckSchedule, cfg.ScanLimit, cfg.RunTimeout, log)
	go func() {
		if err := sched.Start(ctx); err != nil {
			log.Error().Err(err).Msg("scheduler exited")
			cancel()
		}
	}()

	// HTTP API
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handlers.NewRouter(itemRepo, tokenRepo, sched, log),
	}

	// Handle graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown error")
		}
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server error")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = os.Stdout
	logger := zerolog.New(out)
	if cfg.LogConsole {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
