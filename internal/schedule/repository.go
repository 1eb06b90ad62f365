package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBusinessNotFound     = errors.New("business not found")
	ErrStaffNotFound        = errors.New("staff not found")
	ErrServiceNotFound      = errors.New("service not found")
	ErrAddonNotFound        = errors.New("service addon not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrNoSlotAvailable      = errors.New("no slot available within horizon")
	ErrStaffNotBookable     = errors.New("staff is not bookable")
	ErrServiceNotActive     = errors.New("service is not active")
	ErrAddonIncompatible    = errors.New("addon does not belong to service")
	ErrInvalidQueryWindow   = errors.New("query window start must be before end")
)

// Repository contains all store reads the engine needs. Implementations must
// return consistent snapshots for the duration of one call; the engine never
// writes through this interface except for the sweep-worker status update.
type Repository interface {
	GetBusiness(ctx context.Context) (*Business, error)
	GetStaffByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error)
	GetAddonsByIDs(ctx context.Context, ids []uuid.UUID) ([]ServiceAddon, error)

	// GetStaffService returns the per-staff override row, or (nil, nil) when
	// the staff member uses the service defaults.
	GetStaffService(ctx context.Context, staffID, serviceID uuid.UUID) (*StaffService, error)

	ListWorkingHours(ctx context.Context, owner Owner) ([]WorkingHours, error)
	ListApprovedTimeOff(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]TimeOff, error)
	ListActiveOverrides(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]AvailabilityOverride, error)
	ListBlockingAppointments(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]Appointment, error)

	// Sweep worker
	ListTentativeCreatedBefore(ctx context.Context, cutoff time.Time) ([]Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
}
