package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OwnerKind string

const (
	OwnerBusiness OwnerKind = "business"
	OwnerStaff    OwnerKind = "staff"
)

// Owner is the polymorphic holder of a working-hours row. Branching on the
// kind happens only inside the hours resolver.
type Owner struct {
	Kind OwnerKind
	ID   uuid.UUID
}

// TimeOfDay is a wall-clock time within a day, independent of date and zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// On anchors the time of day to a calendar date in the given location.
// Going through time.Date keeps DST transitions correct.
func (t TimeOfDay) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, loc)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid time of day %s", s)
	}
	parsed, err := ParseTimeOfDay(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return t, nil
}

type Business struct {
	ID        uuid.UUID
	Name      string
	Timezone  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Staff struct {
	ID         uuid.UUID
	BusinessID uuid.UUID
	Name       string
	Active     bool
	Bookable   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WorkingHours is one weekday row for a business or staff owner. Multiple rows
// may exist per weekday when a date-bounded row temporarily replaces the base
// schedule; EffectiveFrom/EffectiveUntil scope such rows.
type WorkingHours struct {
	ID             uuid.UUID
	Owner          Owner
	Weekday        time.Weekday
	Start          TimeOfDay
	End            TimeOfDay
	BreakStart     *TimeOfDay
	BreakEnd       *TimeOfDay
	Active         bool
	EffectiveFrom  *time.Time
	EffectiveUntil *time.Time
}

// HasBreak reports whether both break bounds are set.
func (wh WorkingHours) HasBreak() bool {
	return wh.BreakStart != nil && wh.BreakEnd != nil
}

// coversDate reports whether the row's effective range includes the date.
// Unbounded sides are open.
func (wh WorkingHours) coversDate(date time.Time) bool {
	if wh.EffectiveFrom != nil && date.Before(*wh.EffectiveFrom) {
		return false
	}
	if wh.EffectiveUntil != nil && !date.Before(*wh.EffectiveUntil) {
		return false
	}
	return true
}

type TimeOffType string

const (
	TimeOffVacation    TimeOffType = "vacation"
	TimeOffSickLeave   TimeOffType = "sick_leave"
	TimeOffPersonal    TimeOffType = "personal"
	TimeOffTraining    TimeOffType = "training"
	TimeOffHoliday     TimeOffType = "holiday"
	TimeOffMaintenance TimeOffType = "maintenance"
	TimeOffOther       TimeOffType = "other"
)

type TimeOffStatus string

const (
	TimeOffPending   TimeOffStatus = "pending"
	TimeOffApproved  TimeOffStatus = "approved"
	TimeOffDenied    TimeOffStatus = "denied"
	TimeOffCancelled TimeOffStatus = "cancelled"
)

// TimeOff blocks a staff member's availability when approved. A non-empty
// Recurrence holds an RRULE that is expanded lazily per query range.
type TimeOff struct {
	ID         uuid.UUID
	StaffID    uuid.UUID
	Start      time.Time
	End        time.Time
	Type       TimeOffType
	Status     TimeOffStatus
	AllDay     bool
	Recurrence string
}

// Blocks reports whether this row affects scheduling at all. Pending, denied
// and cancelled requests never do.
func (t TimeOff) Blocks() bool {
	return t.Status == TimeOffApproved
}

type OverrideKind string

const (
	OverrideAvailable   OverrideKind = "available"
	OverrideUnavailable OverrideKind = "unavailable"
	OverrideCustomHours OverrideKind = "custom_hours"
)

// AvailabilityOverride is a temporary directive that supersedes both working
// hours and time off for its span.
type AvailabilityOverride struct {
	ID               uuid.UUID
	StaffID          uuid.UUID
	Kind             OverrideKind
	Start            time.Time
	End              time.Time
	Active           bool
	AllowNewBookings bool
}

// opens reports whether the override forces its span open. CUSTOM_HOURS
// supplies its own window, so it behaves like a forced-open span.
func (o AvailabilityOverride) opens() bool {
	return o.Kind == OverrideAvailable || o.Kind == OverrideCustomHours
}

type Service struct {
	ID                    uuid.UUID
	BusinessID            uuid.UUID
	Name                  string
	DurationMinutes       int
	BufferBeforeMinutes   int
	BufferAfterMinutes    int
	Active                bool
	MinLeadTimeHours      *int
	MaxAdvanceBookingDays *int
}

type ServiceAddon struct {
	ID                   uuid.UUID
	ServiceID            uuid.UUID
	Name                 string
	ExtraDurationMinutes int
	Active               bool
}

// StaffService carries per-staff overrides of a service's duration and
// buffers. Nil fields fall back to the service defaults.
type StaffService struct {
	StaffID             uuid.UUID
	ServiceID           uuid.UUID
	DurationMinutes     *int
	BufferBeforeMinutes *int
	BufferAfterMinutes  *int
	Available           bool
}

type AppointmentStatus string

const (
	StatusTentative AppointmentStatus = "tentative"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

type Appointment struct {
	ID        uuid.UUID
	StaffID   uuid.UUID
	Start     time.Time
	End       time.Time
	Status    AppointmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BlocksBooking reports whether the appointment participates in conflict
// checks. Cancelled and no-show appointments free their slot.
func (a Appointment) BlocksBooking() bool {
	switch a.Status {
	case StatusTentative, StatusConfirmed, StatusCompleted:
		return true
	default:
		return false
	}
}

type SlotStatus string

const (
	SlotAvailable       SlotStatus = "available"
	SlotBusy            SlotStatus = "busy"
	SlotBreak           SlotStatus = "break"
	SlotOff             SlotStatus = "off"
	SlotOverrideBlocked SlotStatus = "override_blocked"
)

// Slot is one candidate start at the configured granularity, tagged with its
// availability status. Engine output only, never persisted.
type Slot struct {
	Start  time.Time  `json:"start"`
	End    time.Time  `json:"end"`
	Status SlotStatus `json:"status"`
}

type ConflictKind string

const (
	ConflictExistingAppointment     ConflictKind = "existing_appointment"
	ConflictTimeOff                 ConflictKind = "time_off"
	ConflictOutsideWorkingHours     ConflictKind = "outside_working_hours"
	ConflictInsufficientBuffer      ConflictKind = "insufficient_buffer"
	ConflictLeadTimeViolation       ConflictKind = "lead_time_violation"
	ConflictAdvanceBookingViolation ConflictKind = "advance_booking_violation"
	ConflictAvailabilityOverride    ConflictKind = "availability_override"
	ConflictStaffUnavailable        ConflictKind = "staff_unavailable"
)

// Conflict is a reported, non-fatal reason a request cannot be scheduled.
type Conflict struct {
	Kind    ConflictKind `json:"kind"`
	Message string       `json:"message"`
	Start   time.Time    `json:"start"`
	End     time.Time    `json:"end"`
}

// ValidationResult is the full outcome of validating one candidate
// appointment, including every conflict found and proposed alternatives.
type ValidationResult struct {
	Valid                bool       `json:"is_valid"`
	Conflicts            []Conflict `json:"conflicts"`
	TotalDurationMinutes int        `json:"total_duration_minutes"`
	EstimatedEnd         time.Time  `json:"estimated_end_time"`
	Alternatives         []Slot     `json:"alternative_slots"`
}
