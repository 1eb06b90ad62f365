package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/glowdesk/scheduler/internal/metrics"
	"github.com/glowdesk/scheduler/internal/schedule"
	"github.com/glowdesk/scheduler/internal/timewindow"
)

// Scheduler is the engine surface the API depends on.
type Scheduler interface {
	GetStaffAvailability(ctx context.Context, q schedule.AvailabilityQuery) ([]schedule.Slot, error)
	ValidateAppointment(ctx context.Context, req schedule.ValidationRequest) (*schedule.ValidationResult, error)
	FindNextAvailable(ctx context.Context, staffID, serviceID uuid.UUID, maxDaysAhead int) (*schedule.Slot, error)
	BusinessHours(ctx context.Context, date time.Time) (*schedule.DayHours, error)
	GetStaffSchedule(ctx context.Context, staffID uuid.UUID, win timewindow.Window) (*schedule.StaffSchedule, error)
}

// ReservationStore issues and releases exclusive slot holds.
type ReservationStore interface {
	Acquire(ctx context.Context, staffID uuid.UUID, start, end time.Time, ttl time.Duration) (string, error)
	Release(ctx context.Context, token string) error
}

type RouterConfig struct {
	Engine  Scheduler
	Holds   ReservationStore
	HoldTTL time.Duration
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	validate := validator.New()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger, cfg.Metrics))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	// Availability and validation
	r.Get("/staff/{id}/availability", staffAvailabilityHandler(cfg.Engine))
	r.Get("/staff/{id}/next-available", nextAvailableHandler(cfg.Engine))
	r.Get("/staff/{id}/schedule", staffScheduleHandler(cfg.Engine))
	r.Post("/appointments/validate", validateAppointmentHandler(cfg.Engine, validate, cfg.Metrics))
	r.Get("/businesses/hours", businessHoursHandler(cfg.Engine))

	// Reservation holds
	r.Post("/reservations", reserveSlotHandler(cfg.Holds, validate, cfg.HoldTTL, cfg.Metrics))
	r.Delete("/reservations/{token}", releaseReservationHandler(cfg.Holds))

	return r
}
