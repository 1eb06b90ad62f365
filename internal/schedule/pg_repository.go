package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs. Declared as an
// interface so tests can substitute a mock pool.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

func (r *PgRepository) GetBusiness(ctx context.Context) (*Business, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, timezone, is_active, created_at, updated_at
		FROM businesses
		ORDER BY created_at
		LIMIT 1
	`)

	var b Business
	err := row.Scan(&b.ID, &b.Name, &b.Timezone, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PgRepository) GetStaffByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, business_id, name, is_active, is_bookable, created_at, updated_at
		FROM staff
		WHERE id = $1
	`, id)

	var s Staff
	err := row.Scan(&s.ID, &s.BusinessID, &s.Name, &s.Active, &s.Bookable, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, business_id, name, duration_minutes,
		       buffer_before_minutes, buffer_after_minutes, is_active,
		       min_lead_time_hours, max_advance_booking_days
		FROM services
		WHERE id = $1
	`, id)

	var s Service
	err := row.Scan(
		&s.ID, &s.BusinessID, &s.Name, &s.DurationMinutes,
		&s.BufferBeforeMinutes, &s.BufferAfterMinutes, &s.Active,
		&s.MinLeadTimeHours, &s.MaxAdvanceBookingDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PgRepository) GetAddonsByIDs(ctx context.Context, ids []uuid.UUID) ([]ServiceAddon, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, service_id, name, extra_duration_minutes, is_active
		FROM service_addons
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addons []ServiceAddon
	for rows.Next() {
		var a ServiceAddon
		if err := rows.Scan(&a.ID, &a.ServiceID, &a.Name, &a.ExtraDurationMinutes, &a.Active); err != nil {
			return nil, err
		}
		addons = append(addons, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(addons) != len(ids) {
		return nil, fmt.Errorf("%w: requested %d, found %d", ErrAddonNotFound, len(ids), len(addons))
	}
	return addons, nil
}

func (r *PgRepository) GetStaffService(ctx context.Context, staffID, serviceID uuid.UUID) (*StaffService, error) {
	row := r.db.QueryRow(ctx, `
		SELECT staff_id, service_id, override_duration_minutes,
		       override_buffer_before_minutes, override_buffer_after_minutes, is_available
		FROM staff_services
		WHERE staff_id = $1 AND service_id = $2
	`, staffID, serviceID)

	var ss StaffService
	err := row.Scan(
		&ss.StaffID, &ss.ServiceID, &ss.DurationMinutes,
		&ss.BufferBeforeMinutes, &ss.BufferAfterMinutes, &ss.Available,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // staff uses the service defaults
		}
		return nil, err
	}
	return &ss, nil
}

func (r *PgRepository) ListWorkingHours(ctx context.Context, owner Owner) ([]WorkingHours, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_type, owner_id, weekday, start_time, end_time,
		       break_start_time, break_end_time, is_active, effective_from, effective_until
		FROM working_hours
		WHERE owner_type = $1 AND owner_id = $2 AND is_active
		ORDER BY weekday, start_time
	`, string(owner.Kind), owner.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WorkingHours
	for rows.Next() {
		var (
			wh                   WorkingHours
			kind                 string
			weekday              int
			start, end           string
			breakStart, breakEnd *string
		)
		err := rows.Scan(
			&wh.ID, &kind, &wh.Owner.ID, &weekday, &start, &end,
			&breakStart, &breakEnd, &wh.Active, &wh.EffectiveFrom, &wh.EffectiveUntil,
		)
		if err != nil {
			return nil, err
		}
		wh.Owner.Kind = OwnerKind(kind)
		wh.Weekday = time.Weekday(weekday)
		if wh.Start, err = ParseTimeOfDay(start); err != nil {
			return nil, err
		}
		if wh.End, err = ParseTimeOfDay(end); err != nil {
			return nil, err
		}
		if breakStart != nil && breakEnd != nil {
			bs, err := ParseTimeOfDay(*breakStart)
			if err != nil {
				return nil, err
			}
			be, err := ParseTimeOfDay(*breakEnd)
			if err != nil {
				return nil, err
			}
			wh.BreakStart, wh.BreakEnd = &bs, &be
		}
		out = append(out, wh)
	}
	return out, rows.Err()
}

func (r *PgRepository) ListApprovedTimeOff(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]TimeOff, error) {
	// Recurring rows are returned regardless of their base interval; the
	// engine expands the rule within the query range.
	rows, err := r.db.Query(ctx, `
		SELECT id, staff_id, start_datetime, end_datetime, type, status, is_all_day,
		       COALESCE(recurrence_rule, '')
		FROM time_off
		WHERE staff_id = $1
		  AND status = 'approved'
		  AND (recurrence_rule IS NOT NULL OR (start_datetime < $3 AND end_datetime > $2))
	`, staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimeOff
	for rows.Next() {
		var t TimeOff
		var typ, status string
		err := rows.Scan(&t.ID, &t.StaffID, &t.Start, &t.End, &typ, &status, &t.AllDay, &t.Recurrence)
		if err != nil {
			return nil, err
		}
		t.Type = TimeOffType(typ)
		t.Status = TimeOffStatus(status)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PgRepository) ListActiveOverrides(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]AvailabilityOverride, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, staff_id, override_type, start_datetime, end_datetime,
		       is_active, allow_new_bookings
		FROM availability_overrides
		WHERE staff_id = $1 AND is_active
		  AND start_datetime < $3 AND end_datetime > $2
	`, staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AvailabilityOverride
	for rows.Next() {
		var o AvailabilityOverride
		var kind string
		err := rows.Scan(&o.ID, &o.StaffID, &kind, &o.Start, &o.End, &o.Active, &o.AllowNewBookings)
		if err != nil {
			return nil, err
		}
		o.Kind = OverrideKind(kind)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PgRepository) ListBlockingAppointments(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, staff_id, start_datetime, end_datetime, status, created_at, updated_at
		FROM appointments
		WHERE staff_id = $1
		  AND status IN ('tentative', 'confirmed', 'completed')
		  AND start_datetime < $3 AND end_datetime > $2
		ORDER BY start_datetime
	`, staffID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAppointments(rows)
}

func (r *PgRepository) ListTentativeCreatedBefore(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, staff_id, start_datetime, end_datetime, status, created_at, updated_at
		FROM appointments
		WHERE status = 'tentative' AND created_at < $1
		ORDER BY created_at
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAppointments(rows)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING id, staff_id, start_datetime, end_datetime, status, created_at, updated_at
	`, id, string(from), string(to))

	var a Appointment
	var status string
	err := row.Scan(&a.ID, &a.StaffID, &a.Start, &a.End, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	a.Status = AppointmentStatus(status)
	return &a, nil
}

func scanAppointments(rows pgx.Rows) ([]Appointment, error) {
	var out []Appointment
	for rows.Next() {
		var a Appointment
		var status string
		err := rows.Scan(&a.ID, &a.StaffID, &a.Start, &a.End, &status, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		a.Status = AppointmentStatus(status)
		out = append(out, a)
	}
	return out, rows.Err()
}
