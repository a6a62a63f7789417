package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/csl-racing/api/internal/auth"
	"github.com/csl-racing/api/internal/config"
	"github.com/csl-racing/api/internal/content"
	"github.com/csl-racing/api/internal/database"
	"github.com/csl-racing/api/internal/handlers"
	"github.com/csl-racing/api/internal/jobs"
	"github.com/csl-racing/api/internal/leagues"
	"github.com/csl-racing/api/internal/ledger"
	"github.com/csl-racing/api/internal/live"
	redisClient "github.com/csl-racing/api/internal/redis"
	"github.com/csl-racing/api/internal/router"
	"github.com/csl-racing/api/internal/users"
)

// changeBus publishes ledger changes and delivers them to subscribers
type changeBus interface {
	ledger.Notifier
	SubscribeLeagueChanges(ctx context.Context, handle func(ctx context.Context, leagueID int)) error
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db, err := database.NewConnection(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}

	checks := map[string]handlers.Check{"database": db.PingContext}

	// Redis backs the standings cache, token revocation and cross-instance
	// change fan-out. Without it everything stays in process.
	var (
		cache   ledger.Cache
		revoker auth.Revoker
		bus     changeBus
	)
	if cfg.RedisEnabled {
		rdb, err := redisClient.NewClient(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()

		cache = redisClient.NewStandingsCache(rdb, cfg.StandingsCacheTTL)
		revoker = rdb
		bus = rdb
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		log.Warn().Msg("redis disabled: standings uncached, revocations and live updates are local to this process")
		revoker = auth.NewMemoryRevoker(nil)
		bus = live.NewLocalBus()
	}

	userSvc := users.NewService(users.NewRepository(db), cache, bus)
	leagueSvc := leagues.NewService(leagues.NewRepository(db), cache)
	ledgerSvc := ledger.NewService(ledger.NewRepository(db), cache, bus, nil)
	contentSvc := content.NewService(content.NewRepository(db), nil)

	hub := live.NewHub(ledgerSvc, cfg.CORSAllowedOrigins)
	go func() {
		if err := bus.SubscribeLeagueChanges(ctx, hub.LeagueChanged); err != nil {
			log.Error().Err(err).Msg("league change subscription stopped")
		}
	}()

	scheduler, err := jobs.NewScheduler(contentSvc, cfg.EventsSweepSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := scheduler.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	handler := router.New(router.Deps{
		Tokens:         auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, nil),
		Revoker:        revoker,
		Users:          userSvc,
		Leagues:        leagueSvc,
		Ledger:         ledgerSvc,
		Content:        contentSvc,
		Hub:            hub,
		Health:         handlers.NewHealthHandler(nil, checks),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		SecureCookie:   cfg.CookieSecure,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.AppEnv).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	hub.Close()
	scheduler.Stop()

	log.Info().Msg("shutdown complete")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	log.Logger = log.With().Str("service", "csl-api").Logger()
}
