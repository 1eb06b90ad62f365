package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/glowdesk/scheduler/internal/config"
	"github.com/glowdesk/scheduler/internal/db"
	"github.com/glowdesk/scheduler/internal/metrics"
	"github.com/glowdesk/scheduler/internal/schedule"
)

// The sweep worker cancels tentative appointments whose reservation hold
// lapsed without a confirmation, so abandoned checkouts stop blocking slots.
// The Redis holds themselves expire on their own TTL.
func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "sweep-worker").Logger()
	logger.Info().Msg("sweep-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}
	logger.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("running sweep worker")

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

	loc := time.UTC
	if cfg.BusinessTimezone != "" {
		if loc, err = time.LoadLocation(cfg.BusinessTimezone); err != nil {
			logger.Fatal().Err(err).Msg("invalid business timezone")
		}
	}

	repo := schedule.NewPgRepository(pgPool)
	engine := schedule.NewEngine(repo, schedule.Policy{}, loc, logger)
	m := metrics.New()

	// Run once at startup
	runOnce(rootCtx, engine, cfg.HoldTTL, m, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping sweep worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, engine, cfg.HoldTTL, m, logger)
		}
	}
}

func runOnce(ctx context.Context, engine *schedule.Engine, holdTTL time.Duration, m *metrics.Metrics, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	expired, err := engine.ExpireStaleTentative(runCtx, holdTTL)
	if err != nil {
		logger.Error().Err(err).Msg("sweep run error")
		return
	}
	m.TentativeSwept.Add(float64(expired))
	logger.Info().Int("expired", expired).Dur("took", time.Since(start)).Msg("sweep run complete")
}
