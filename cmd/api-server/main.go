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

	"github.com/glowdesk/scheduler/internal/api"
	"github.com/glowdesk/scheduler/internal/cache"
	"github.com/glowdesk/scheduler/internal/config"
	"github.com/glowdesk/scheduler/internal/db"
	"github.com/glowdesk/scheduler/internal/metrics"
	redisclient "github.com/glowdesk/scheduler/internal/redis"
	"github.com/glowdesk/scheduler/internal/schedule"
)

const version = "0.3.0"

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()
	logger.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	repo := schedule.NewCachedRepository(schedule.NewPgRepository(pgPool), cache.New(rdb, cfg.CacheTTL))

	business, err := repo.GetBusiness(rootCtx)
	if err != nil {
		logger.Fatal().Err(err).Msg("load business")
	}
	tz := cfg.BusinessTimezone
	if tz == "" {
		tz = business.Timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", tz).Msg("invalid business timezone")
	}

	engine := schedule.NewEngine(repo, schedule.Policy{
		MinLeadTime:                 time.Duration(cfg.MinLeadTimeHours) * time.Hour,
		MaxAdvanceBookingDays:       cfg.MaxAdvanceBookingDays,
		DefaultBufferMinutes:        cfg.DefaultBufferMinutes,
		AllowDoubleBooking:          cfg.AllowDoubleBooking,
		DoubleBookingIgnoresBuffers: cfg.DoubleBookingIgnoresBuffers,
		WeekendBookingEnabled:       cfg.WeekendBookingEnabled,
		SlotGranularity:             time.Duration(cfg.DefaultSlotDurationMinutes) * time.Minute,
		MaxAlternatives:             cfg.MaxAlternatives,
		AlternativeHorizonDays:      cfg.AlternativeSearchDays,
	}, loc, logger)

	m := metrics.New()

	router := api.NewRouter(api.RouterConfig{
		Engine:  engine,
		Holds:   redisclient.NewHoldStore(rdb),
		HoldTTL: cfg.HoldTTL,
		PgPool:  pgPool,
		Redis:   rdb,
		Metrics: m,
		Logger:  logger,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("api-server stopped")
}
