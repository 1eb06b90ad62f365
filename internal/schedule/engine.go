package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/glowdesk/scheduler/internal/timewindow"
)

// Policy is the engine's immutable configuration snapshot, resolved from
// business policy and environment at startup. Per-service overrides on lead
// time and advance booking still win over these defaults.
type Policy struct {
	MinLeadTime           time.Duration
	MaxAdvanceBookingDays int // 0 means unlimited
	DefaultBufferMinutes  int
	AllowDoubleBooking    bool
	// DoubleBookingIgnoresBuffers additionally relaxes the closure-fit check
	// to the unbuffered service interval when double booking is enabled.
	DoubleBookingIgnoresBuffers bool
	WeekendBookingEnabled       bool
	SlotGranularity             time.Duration
	MaxAlternatives             int
	AlternativeHorizonDays      int
}

func (p Policy) withDefaults() Policy {
	if p.SlotGranularity <= 0 {
		p.SlotGranularity = 15 * time.Minute
	}
	if p.MaxAlternatives <= 0 {
		p.MaxAlternatives = 10
	}
	if p.AlternativeHorizonDays <= 0 {
		p.AlternativeHorizonDays = 7
	}
	return p
}

// Engine is the availability and conflict-resolution core. It is a pure
// computation over snapshots read through the repository: no internal mutable
// state, safe for concurrent use across requests.
type Engine struct {
	repo Repository
	pol  Policy
	loc  *time.Location
	log  zerolog.Logger

	now func() time.Time
}

func NewEngine(repo Repository, pol Policy, loc *time.Location, log zerolog.Logger) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		repo: repo,
		pol:  pol.withDefaults(),
		loc:  loc,
		log:  log.With().Str("component", "engine").Logger(),
		now:  time.Now,
	}
}

// AvailabilityQuery describes one get-availability request.
type AvailabilityQuery struct {
	StaffID     uuid.UUID
	Window      timewindow.Window
	ServiceID   *uuid.UUID
	AddonIDs    []uuid.UUID
	SlotMinutes int
	IncludeBusy bool
}

// ValidationRequest describes one candidate appointment.
type ValidationRequest struct {
	StaffID        uuid.UUID
	ServiceID      uuid.UUID
	RequestedStart time.Time
	AddonIDs       []uuid.UUID
	CustomerID     *uuid.UUID
}

// requiredSpan is the resolved time cost of a booking: the reported service
// duration (service plus addons) and the buffers that pad it on the calendar.
type requiredSpan struct {
	serviceMinutes int
	bufferBefore   int
	bufferAfter    int
}

func (s requiredSpan) total() time.Duration {
	return time.Duration(s.serviceMinutes+s.bufferBefore+s.bufferAfter) * time.Minute
}

// GetStaffAvailability produces the ordered slot sequence for a staff member
// over a time range. Unknown or unbookable staff is an error, not a conflict.
func (e *Engine) GetStaffAvailability(ctx context.Context, q AvailabilityQuery) ([]Slot, error) {
	if !q.Window.End.After(q.Window.Start) {
		return nil, ErrInvalidQueryWindow
	}

	staff, err := e.repo.GetStaffByID(ctx, q.StaffID)
	if err != nil {
		return nil, fmt.Errorf("load staff: %w", err)
	}
	if !staff.Active || !staff.Bookable {
		return nil, ErrStaffNotBookable
	}

	step := e.pol.SlotGranularity
	if q.SlotMinutes > 0 {
		step = time.Duration(q.SlotMinutes) * time.Minute
	}

	span := step
	notBefore := e.now()
	var notAfter time.Time
	if q.ServiceID != nil {
		service, err := e.repo.GetServiceByID(ctx, *q.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("load service: %w", err)
		}
		if !service.Active {
			return nil, ErrServiceNotActive
		}
		rs, err := e.resolveSpan(ctx, q.StaffID, service, q.AddonIDs)
		if err != nil {
			return nil, err
		}
		span = rs.total()
		notBefore = notBefore.Add(e.leadTime(service))
		if days := e.advanceDays(service); days > 0 {
			notAfter = e.now().AddDate(0, 0, days)
		}
	}

	in, err := e.loadPlanInputs(ctx, staff, q.Window.Start, q.Window.End.Add(span))
	if err != nil {
		return nil, err
	}

	params := slotParams{
		rng:         q.Window,
		span:        span,
		step:        step,
		notBefore:   notBefore,
		notAfter:    notAfter,
		includeBusy: q.IncludeBusy,
	}

	slots := []Slot{}
	for date := midnight(q.Window.Start, e.loc); date.Before(q.Window.End); date = date.AddDate(0, 0, 1) {
		plan := buildDayPlan(in, date, e.loc, e.pol.WeekendBookingEnabled)
		slots = append(slots, tileDay(plan, params)...)
	}
	return slots, nil
}

// ValidateAppointment runs the staged validation pipeline against one
// candidate. Unknown staff/service/addon IDs fail fast as errors; every other
// failure mode is collected into the result as conflicts.
func (e *Engine) ValidateAppointment(ctx context.Context, req ValidationRequest) (*ValidationResult, error) {
	staff, err := e.repo.GetStaffByID(ctx, req.StaffID)
	if err != nil {
		return nil, fmt.Errorf("load staff: %w", err)
	}
	service, err := e.repo.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	addons, err := e.repo.GetAddonsByIDs(ctx, req.AddonIDs)
	if err != nil {
		return nil, fmt.Errorf("load addons: %w", err)
	}

	result := &ValidationResult{
		Conflicts:    []Conflict{},
		Alternatives: []Slot{},
		EstimatedEnd: req.RequestedStart,
	}

	// Stage 1: basic validation. A failure here means the span cannot even be
	// computed sensibly, so later stages are skipped.
	if basic := e.basicConflicts(staff, service, addons, req.RequestedStart); len(basic) > 0 {
		result.Conflicts = basic
		return e.withAlternatives(ctx, req, service, result)
	}

	rs, err := e.resolveSpan(ctx, req.StaffID, service, req.AddonIDs)
	if err != nil {
		return nil, err
	}
	result.TotalDurationMinutes = rs.serviceMinutes
	result.EstimatedEnd = req.RequestedStart.Add(time.Duration(rs.serviceMinutes) * time.Minute)

	buffered := timewindow.Window{
		Start: req.RequestedStart.Add(-time.Duration(rs.bufferBefore) * time.Minute),
		End:   result.EstimatedEnd.Add(time.Duration(rs.bufferAfter) * time.Minute),
	}
	checked := buffered
	if e.pol.AllowDoubleBooking && e.pol.DoubleBookingIgnoresBuffers {
		checked = timewindow.Window{Start: req.RequestedStart, End: result.EstimatedEnd}
	}

	in, err := e.loadPlanInputs(ctx, staff, buffered.Start, buffered.End)
	if err != nil {
		return nil, err
	}
	plan := buildDayPlan(in, req.RequestedStart.In(e.loc), e.loc, e.pol.WeekendBookingEnabled)

	// Stages 2-4 all run; a caller sees every reason the request is invalid
	// in one round trip.
	result.Conflicts = append(result.Conflicts, e.timeConstraintConflicts(plan, checked)...)
	result.Conflicts = append(result.Conflicts, e.conflictCheckConflicts(plan, in.appointments, checked)...)
	result.Conflicts = append(result.Conflicts, e.policyConflicts(service, req.RequestedStart, result.EstimatedEnd)...)

	result.Valid = len(result.Conflicts) == 0
	if result.Valid {
		return result, nil
	}
	return e.withAlternatives(ctx, req, service, result)
}

// FindNextAvailable returns the earliest bookable slot for a staff member and
// service within maxDaysAhead, or ErrNoSlotAvailable.
func (e *Engine) FindNextAvailable(ctx context.Context, staffID, serviceID uuid.UUID, maxDaysAhead int) (*Slot, error) {
	if maxDaysAhead <= 0 {
		maxDaysAhead = e.pol.AlternativeHorizonDays
	}
	now := e.now()
	sid := serviceID
	slots, err := e.GetStaffAvailability(ctx, AvailabilityQuery{
		StaffID:   staffID,
		Window:    timewindow.Window{Start: now, End: now.AddDate(0, 0, maxDaysAhead)},
		ServiceID: &sid,
	})
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, ErrNoSlotAvailable
	}
	return &slots[0], nil
}

// withAlternatives attaches forward-looking alternative slots to a failed
// validation. No alternative within the horizon is an empty list, not an
// error.
func (e *Engine) withAlternatives(ctx context.Context, req ValidationRequest, service *Service, result *ValidationResult) (*ValidationResult, error) {
	if service == nil || !service.Active {
		return result, nil
	}
	sid := service.ID
	searchStart := midnight(req.RequestedStart.In(e.loc), e.loc)
	if now := e.now(); searchStart.Before(now) {
		searchStart = now
	}
	slots, err := e.GetStaffAvailability(ctx, AvailabilityQuery{
		StaffID:   req.StaffID,
		Window:    timewindow.Window{Start: searchStart, End: searchStart.AddDate(0, 0, e.pol.AlternativeHorizonDays)},
		ServiceID: &sid,
		AddonIDs:  req.AddonIDs,
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("alternative slot search failed")
		return result, nil
	}
	for _, s := range slots {
		// Slots before the original request are never proposed.
		if s.Start.Before(req.RequestedStart) {
			continue
		}
		result.Alternatives = append(result.Alternatives, s)
		if len(result.Alternatives) >= e.pol.MaxAlternatives {
			break
		}
	}
	return result, nil
}

func (e *Engine) basicConflicts(staff *Staff, service *Service, addons []ServiceAddon, at time.Time) []Conflict {
	var out []Conflict
	add := func(msg string) {
		out = append(out, Conflict{Kind: ConflictStaffUnavailable, Message: msg, Start: at, End: at})
	}
	if !staff.Active || !staff.Bookable {
		add("staff member is not bookable")
	}
	if !service.Active {
		add("service is not active")
	}
	for _, a := range addons {
		if a.ServiceID != service.ID {
			add(fmt.Sprintf("addon %q is not compatible with service %q", a.Name, service.Name))
		} else if !a.Active {
			add(fmt.Sprintf("addon %q is not active", a.Name))
		}
	}
	return out
}

func (e *Engine) timeConstraintConflicts(plan *dayPlan, checked timewindow.Window) []Conflict {
	if plan.withinWorkingHours(checked) {
		return nil
	}
	conflict := func(kind ConflictKind, msg string) []Conflict {
		return []Conflict{{Kind: kind, Message: msg, Start: checked.Start, End: checked.End}}
	}
	if overlapsAny(plan.breaks, checked) {
		return conflict(ConflictOutsideWorkingHours, "requested time intersects a scheduled break")
	}
	if plan.startsWithinWorkingHours(checked.Start) {
		return conflict(ConflictInsufficientBuffer, "service and buffers do not fit before closing")
	}
	return conflict(ConflictOutsideWorkingHours, "requested time is outside working hours")
}

func (e *Engine) conflictCheckConflicts(plan *dayPlan, appointments []Appointment, checked timewindow.Window) []Conflict {
	var out []Conflict
	if overlapsAny(plan.timeOff, checked) {
		out = append(out, Conflict{
			Kind:    ConflictTimeOff,
			Message: "staff member has approved time off during this period",
			Start:   checked.Start,
			End:     checked.End,
		})
	}
	if overlapsAny(plan.overrideClosed, checked) || overlapsAny(plan.overrideBlocked, checked) {
		out = append(out, Conflict{
			Kind:    ConflictAvailabilityOverride,
			Message: "an availability override blocks bookings during this period",
			Start:   checked.Start,
			End:     checked.End,
		})
	}
	if !e.pol.AllowDoubleBooking {
		if appt := firstAppointmentConflict(appointments, checked); appt != nil {
			out = append(out, Conflict{
				Kind:    ConflictExistingAppointment,
				Message: "staff member already has an appointment during this period",
				Start:   appt.Start,
				End:     appt.End,
			})
		}
	}
	return out
}

func (e *Engine) policyConflicts(service *Service, start, end time.Time) []Conflict {
	var out []Conflict
	now := e.now()

	if lead := e.leadTime(service); lead > 0 && start.Before(now.Add(lead)) {
		out = append(out, Conflict{
			Kind:    ConflictLeadTimeViolation,
			Message: fmt.Sprintf("appointments require at least %s notice", lead),
			Start:   start,
			End:     end,
		})
	}
	if days := e.advanceDays(service); days > 0 && start.After(now.AddDate(0, 0, days)) {
		out = append(out, Conflict{
			Kind:    ConflictAdvanceBookingViolation,
			Message: fmt.Sprintf("appointments may be booked at most %d days ahead", days),
			Start:   start,
			End:     end,
		})
	}
	return out
}

func (e *Engine) leadTime(service *Service) time.Duration {
	if service != nil && service.MinLeadTimeHours != nil {
		return time.Duration(*service.MinLeadTimeHours) * time.Hour
	}
	return e.pol.MinLeadTime
}

func (e *Engine) advanceDays(service *Service) int {
	if service != nil && service.MaxAdvanceBookingDays != nil {
		return *service.MaxAdvanceBookingDays
	}
	return e.pol.MaxAdvanceBookingDays
}

// resolveSpan computes the full time cost of a booking: service duration plus
// addon minutes, with per-staff overrides applied, padded by buffers. The
// configured default buffer applies only when the service defines none.
func (e *Engine) resolveSpan(ctx context.Context, staffID uuid.UUID, service *Service, addonIDs []uuid.UUID) (requiredSpan, error) {
	rs := requiredSpan{
		serviceMinutes: service.DurationMinutes,
		bufferBefore:   service.BufferBeforeMinutes,
		bufferAfter:    service.BufferAfterMinutes,
	}

	ss, err := e.repo.GetStaffService(ctx, staffID, service.ID)
	if err != nil {
		return requiredSpan{}, fmt.Errorf("load staff service: %w", err)
	}
	if ss != nil {
		if ss.DurationMinutes != nil {
			rs.serviceMinutes = *ss.DurationMinutes
		}
		if ss.BufferBeforeMinutes != nil {
			rs.bufferBefore = *ss.BufferBeforeMinutes
		}
		if ss.BufferAfterMinutes != nil {
			rs.bufferAfter = *ss.BufferAfterMinutes
		}
	}

	if len(addonIDs) > 0 {
		addons, err := e.repo.GetAddonsByIDs(ctx, addonIDs)
		if err != nil {
			return requiredSpan{}, fmt.Errorf("load addons: %w", err)
		}
		for _, a := range addons {
			if a.ServiceID != service.ID {
				return requiredSpan{}, fmt.Errorf("%w: %s", ErrAddonIncompatible, a.Name)
			}
			if a.Active {
				rs.serviceMinutes += a.ExtraDurationMinutes
			}
		}
	}

	if rs.bufferBefore == 0 && rs.bufferAfter == 0 && e.pol.DefaultBufferMinutes > 0 {
		rs.bufferBefore = e.pol.DefaultBufferMinutes
		rs.bufferAfter = e.pol.DefaultBufferMinutes
	}
	return rs, nil
}

// loadPlanInputs reads one consistent snapshot of everything constraining the
// staff member's calendar between from and to. Range bounds are widened to
// midnight so all-day time off and date-bounded hours resolve correctly.
func (e *Engine) loadPlanInputs(ctx context.Context, staff *Staff, from, to time.Time) (planInputs, error) {
	from = midnight(from, e.loc)
	to = midnight(to, e.loc).AddDate(0, 0, 1)

	staffHours, err := e.repo.ListWorkingHours(ctx, Owner{Kind: OwnerStaff, ID: staff.ID})
	if err != nil {
		return planInputs{}, fmt.Errorf("load staff hours: %w", err)
	}
	businessHours, err := e.repo.ListWorkingHours(ctx, Owner{Kind: OwnerBusiness, ID: staff.BusinessID})
	if err != nil {
		return planInputs{}, fmt.Errorf("load business hours: %w", err)
	}
	timeOff, err := e.repo.ListApprovedTimeOff(ctx, staff.ID, from, to)
	if err != nil {
		return planInputs{}, fmt.Errorf("load time off: %w", err)
	}
	overrides, err := e.repo.ListActiveOverrides(ctx, staff.ID, from, to)
	if err != nil {
		return planInputs{}, fmt.Errorf("load overrides: %w", err)
	}
	appointments, err := e.repo.ListBlockingAppointments(ctx, staff.ID, from, to)
	if err != nil {
		return planInputs{}, fmt.Errorf("load appointments: %w", err)
	}

	return planInputs{
		staffHours:    staffHours,
		businessHours: businessHours,
		timeOff:       timeOff,
		overrides:     overrides,
		appointments:  appointments,
	}, nil
}

// BusinessHours resolves the business's effective hours for one date.
func (e *Engine) BusinessHours(ctx context.Context, date time.Time) (*DayHours, error) {
	business, err := e.repo.GetBusiness(ctx)
	if err != nil {
		return nil, fmt.Errorf("load business: %w", err)
	}
	rows, err := e.repo.ListWorkingHours(ctx, Owner{Kind: OwnerBusiness, ID: business.ID})
	if err != nil {
		return nil, fmt.Errorf("load business hours: %w", err)
	}
	return resolveDayHours(nil, rows, date, e.loc), nil
}

// ScheduleDay is one day of a composite staff schedule.
type ScheduleDay struct {
	Date  string   `json:"date"`
	Hours DayHours `json:"hours"`
}

// StaffSchedule is the composite view of a staff member's calendar over a
// range: effective hours per day plus the raw constraint rows.
type StaffSchedule struct {
	StaffID      uuid.UUID              `json:"staff_id"`
	Days         []ScheduleDay          `json:"days"`
	TimeOff      []TimeOff              `json:"time_off"`
	Overrides    []AvailabilityOverride `json:"availability_overrides"`
	Appointments []Appointment          `json:"appointments"`
}

// GetStaffSchedule assembles the composite schedule for a staff member.
func (e *Engine) GetStaffSchedule(ctx context.Context, staffID uuid.UUID, win timewindow.Window) (*StaffSchedule, error) {
	if !win.End.After(win.Start) {
		return nil, ErrInvalidQueryWindow
	}
	staff, err := e.repo.GetStaffByID(ctx, staffID)
	if err != nil {
		return nil, fmt.Errorf("load staff: %w", err)
	}
	in, err := e.loadPlanInputs(ctx, staff, win.Start, win.End)
	if err != nil {
		return nil, err
	}

	out := &StaffSchedule{
		StaffID:      staff.ID,
		Days:         []ScheduleDay{},
		TimeOff:      in.timeOff,
		Overrides:    in.overrides,
		Appointments: in.appointments,
	}
	for date := midnight(win.Start, e.loc); date.Before(win.End); date = date.AddDate(0, 0, 1) {
		hours := resolveDayHours(in.staffHours, in.businessHours, date, e.loc)
		out.Days = append(out.Days, ScheduleDay{Date: date.Format("2006-01-02"), Hours: *hours})
	}
	return out, nil
}

// ExpireStaleTentative cancels tentative appointments that were created
// before cutoffAge ago and never confirmed. Called periodically by the sweep
// worker; an expired reservation hold must not keep its slot blocked.
func (e *Engine) ExpireStaleTentative(ctx context.Context, cutoffAge time.Duration) (int, error) {
	cutoff := e.now().Add(-cutoffAge)
	stale, err := e.repo.ListTentativeCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale tentative appointments: %w", err)
	}

	expired := 0
	for _, appt := range stale {
		if _, err := e.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusTentative, StatusCancelled); err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				continue // confirmed or cancelled since we listed it
			}
			e.log.Error().Err(err).Stringer("appointment_id", appt.ID).Msg("failed to expire tentative appointment")
			continue
		}
		expired++
	}
	return expired, nil
}
