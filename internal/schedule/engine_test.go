package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/scheduler/internal/timewindow"
)

var (
	testServiceID = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	testAddonID   = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

// fakeRepo is an in-memory Repository for engine tests.
type fakeRepo struct {
	business      *Business
	staff         map[uuid.UUID]*Staff
	services      map[uuid.UUID]*Service
	addons        map[uuid.UUID]*ServiceAddon
	staffServices map[[2]uuid.UUID]*StaffService
	hours         map[Owner][]WorkingHours
	timeOff       []TimeOff
	overrides     []AvailabilityOverride
	appointments  []Appointment

	statusUpdates map[uuid.UUID]AppointmentStatus
	failUpdates   map[uuid.UUID]error
}

func (f *fakeRepo) GetBusiness(context.Context) (*Business, error) {
	if f.business == nil {
		return nil, ErrBusinessNotFound
	}
	return f.business, nil
}

func (f *fakeRepo) GetStaffByID(_ context.Context, id uuid.UUID) (*Staff, error) {
	s, ok := f.staff[id]
	if !ok {
		return nil, ErrStaffNotFound
	}
	return s, nil
}

func (f *fakeRepo) GetServiceByID(_ context.Context, id uuid.UUID) (*Service, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return s, nil
}

func (f *fakeRepo) GetAddonsByIDs(_ context.Context, ids []uuid.UUID) ([]ServiceAddon, error) {
	var out []ServiceAddon
	for _, id := range ids {
		a, ok := f.addons[id]
		if !ok {
			return nil, ErrAddonNotFound
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeRepo) GetStaffService(_ context.Context, staffID, serviceID uuid.UUID) (*StaffService, error) {
	return f.staffServices[[2]uuid.UUID{staffID, serviceID}], nil
}

func (f *fakeRepo) ListWorkingHours(_ context.Context, owner Owner) ([]WorkingHours, error) {
	return f.hours[owner], nil
}

func (f *fakeRepo) ListApprovedTimeOff(_ context.Context, staffID uuid.UUID, _, _ time.Time) ([]TimeOff, error) {
	var out []TimeOff
	for _, t := range f.timeOff {
		if t.StaffID == staffID && t.Status == TimeOffApproved {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListActiveOverrides(_ context.Context, staffID uuid.UUID, _, _ time.Time) ([]AvailabilityOverride, error) {
	var out []AvailabilityOverride
	for _, o := range f.overrides {
		if o.StaffID == staffID && o.Active {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListBlockingAppointments(_ context.Context, staffID uuid.UUID, _, _ time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if a.StaffID == staffID && a.BlocksBooking() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListTentativeCreatedBefore(_ context.Context, cutoff time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if a.Status == StatusTentative && a.CreatedAt.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	if err := f.failUpdates[id]; err != nil {
		return nil, err
	}
	for i := range f.appointments {
		if f.appointments[i].ID == id && f.appointments[i].Status == from {
			f.appointments[i].Status = to
			if f.statusUpdates == nil {
				f.statusUpdates = map[uuid.UUID]AppointmentStatus{}
			}
			f.statusUpdates[id] = to
			return &f.appointments[i], nil
		}
	}
	return nil, ErrAppointmentNotFound
}

// newFixture builds a salon with Tue-Fri 09:00-18:00 business hours, a
// 12:00-13:00 lunch break, one bookable stylist, and a 30-minute haircut with
// a 10-minute cleanup buffer. The clock is pinned to Tuesday 08:00.
func newFixture(t *testing.T) (*fakeRepo, *Engine) {
	t.Helper()

	business := Owner{Kind: OwnerBusiness, ID: testBusinessID}
	repo := &fakeRepo{
		business: &Business{ID: testBusinessID, Name: "Glow Desk", Timezone: "UTC", Active: true},
		staff: map[uuid.UUID]*Staff{
			testStaffID: {ID: testStaffID, BusinessID: testBusinessID, Name: "Sam", Active: true, Bookable: true},
		},
		services: map[uuid.UUID]*Service{
			testServiceID: {
				ID: testServiceID, BusinessID: testBusinessID, Name: "Haircut",
				DurationMinutes: 30, BufferAfterMinutes: 10, Active: true,
			},
		},
		addons: map[uuid.UUID]*ServiceAddon{
			testAddonID: {ID: testAddonID, ServiceID: testServiceID, Name: "Beard Trim", ExtraDurationMinutes: 10, Active: true},
		},
		hours: map[Owner][]WorkingHours{},
	}
	for wd := time.Tuesday; wd <= time.Friday; wd++ {
		repo.hours[business] = append(repo.hours[business],
			withBreak(hoursRow(business, wd, "09:00", "18:00"), "12:00", "13:00"))
	}

	engine := NewEngine(repo, Policy{WeekendBookingEnabled: true}, time.UTC, zerolog.Nop())
	engine.now = func() time.Time { return at(8, 0) }
	return repo, engine
}

func conflictKinds(result *ValidationResult) []ConflictKind {
	kinds := make([]ConflictKind, 0, len(result.Conflicts))
	for _, c := range result.Conflicts {
		kinds = append(kinds, c.Kind)
	}
	return kinds
}

func TestValidateAppointmentValid(t *testing.T) {
	_, engine := newFixture(t)

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(10, 0),
	})
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, 30, result.TotalDurationMinutes)
	assert.Equal(t, at(10, 30), result.EstimatedEnd, "buffers pad the calendar but not the reported duration")
	assert.Empty(t, result.Alternatives, "valid results carry no alternatives")
}

func TestValidateAppointmentIsReadOnly(t *testing.T) {
	_, engine := newFixture(t)
	req := ValidationRequest{StaffID: testStaffID, ServiceID: testServiceID, RequestedStart: at(10, 0)}

	first, err := engine.ValidateAppointment(context.Background(), req)
	require.NoError(t, err)
	second, err := engine.ValidateAppointment(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second, "validation never consumes the slot")
}

func TestValidateAppointmentAddonsExtendDuration(t *testing.T) {
	_, engine := newFixture(t)

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(10, 0),
		AddonIDs:       []uuid.UUID{testAddonID},
	})
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Equal(t, 40, result.TotalDurationMinutes)
	assert.Equal(t, at(10, 40), result.EstimatedEnd)
}

func TestValidateAppointmentBreakOverlap(t *testing.T) {
	_, engine := newFixture(t)

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(11, 45),
	})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, conflictKinds(result), ConflictOutsideWorkingHours)
}

func TestValidateAppointmentInsufficientBuffer(t *testing.T) {
	_, engine := newFixture(t)

	// 17:45 + 30min service + 10min buffer ends at 18:25, past closing.
	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(17, 45),
	})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, conflictKinds(result), ConflictInsufficientBuffer)
}

func TestValidateAppointmentOutsideHours(t *testing.T) {
	_, engine := newFixture(t)

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(20, 0),
	})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, conflictKinds(result), ConflictOutsideWorkingHours)
	assert.NotContains(t, conflictKinds(result), ConflictInsufficientBuffer)
}

func TestValidateAppointmentExistingAppointment(t *testing.T) {
	repo, engine := newFixture(t)
	repo.appointments = []Appointment{
		{ID: uuid.New(), StaffID: testStaffID, Start: at(10, 0), End: at(10, 40), Status: StatusConfirmed},
	}

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(10, 15),
	})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, conflictKinds(result), ConflictExistingAppointment)
	assert.NotEmpty(t, result.Alternatives)
	for _, alt := range result.Alternatives {
		assert.False(t, alt.Start.Before(at(10, 15)), "alternatives never precede the request")
		assert.Equal(t, SlotAvailable, alt.Status)
	}
}

func TestValidateAppointmentDoubleBookingAllowed(t *testing.T) {
	repo, engine := newFixture(t)
	engine.pol.AllowDoubleBooking = true
	repo.appointments = []Appointment{
		{ID: uuid.New(), StaffID: testStaffID, Start: at(10, 0), End: at(10, 40), Status: StatusConfirmed},
	}

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(10, 15),
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidateAppointmentTimeOff(t *testing.T) {
	repo, engine := newFixture(t)
	repo.timeOff = []TimeOff{timeOffRow(at(14, 0), at(16, 0), TimeOffApproved)}

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(14, 30),
	})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, []ConflictKind{ConflictTimeOff}, conflictKinds(result),
		"time off reports once, not also as closed hours")
}

func TestValidateAppointmentTimeOffSpillReportsOnlyTimeOff(t *testing.T) {
	repo, engine := newFixture(t)
	repo.timeOff = []TimeOff{timeOffRow(at(14, 0), at(16, 0), TimeOffApproved)}

	// 13:45 + 30min service + 10min buffer runs to 14:25, overlapping the
	// time off but staying well inside working hours.
	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(13, 45),
	})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, []ConflictKind{ConflictTimeOff}, conflictKinds(result))
}

func TestValidateAppointmentDeniedTimeOffIgnored(t *testing.T) {
	repo, engine := newFixture(t)
	repo.timeOff = []TimeOff{timeOffRow(at(14, 0), at(16, 0), TimeOffDenied)}

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(14, 30),
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidateAppointmentOverrideBlocks(t *testing.T) {
	repo, engine := newFixture(t)
	repo.overrides = []AvailabilityOverride{
		overrideRow(OverrideUnavailable, at(14, 0), at(16, 0)),
	}

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(14, 30),
	})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Equal(t, []ConflictKind{ConflictAvailabilityOverride}, conflictKinds(result),
		"an unavailable override reports once, not also as closed hours")
}

func TestValidateAppointmentCustomHoursOpensSunday(t *testing.T) {
	repo, engine := newFixture(t)
	sunday := tuesday.AddDate(0, 0, 5)
	repo.overrides = []AvailabilityOverride{
		overrideRow(OverrideCustomHours, sunday.Add(10*time.Hour), sunday.Add(14*time.Hour)),
	}

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: sunday.Add(11 * time.Hour),
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestValidateAppointmentLeadTime(t *testing.T) {
	_, engine := newFixture(t)
	engine.pol.MinLeadTime = 2 * time.Hour // now is 08:00

	tooSoon, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(9, 0),
	})
	require.NoError(t, err)
	assert.False(t, tooSoon.Valid)
	assert.Contains(t, conflictKinds(tooSoon), ConflictLeadTimeViolation)

	ok, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(11, 0),
	})
	require.NoError(t, err)
	assert.True(t, ok.Valid)
}

func TestValidateAppointmentServiceLeadTimeOverride(t *testing.T) {
	repo, engine := newFixture(t)
	engine.pol.MinLeadTime = 0
	leadHours := 48
	repo.services[testServiceID].MinLeadTimeHours = &leadHours

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(10, 0),
	})
	require.NoError(t, err)
	assert.Contains(t, conflictKinds(result), ConflictLeadTimeViolation)
}

func TestValidateAppointmentAdvanceBooking(t *testing.T) {
	repo, engine := newFixture(t)
	days := 3
	repo.services[testServiceID].MaxAdvanceBookingDays = &days

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(10, 0).AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, conflictKinds(result), ConflictAdvanceBookingViolation)
}

func TestValidateAppointmentInactiveService(t *testing.T) {
	repo, engine := newFixture(t)
	repo.services[testServiceID].Active = false

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(10, 0),
	})
	require.NoError(t, err)

	assert.False(t, result.Valid)
	assert.Contains(t, conflictKinds(result), ConflictStaffUnavailable)
	assert.Zero(t, result.TotalDurationMinutes, "span is not computed when basic validation fails")
}

func TestValidateAppointmentIncompatibleAddon(t *testing.T) {
	repo, engine := newFixture(t)
	otherService := uuid.New()
	repo.addons[testAddonID].ServiceID = otherService

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(10, 0),
		AddonIDs:       []uuid.UUID{testAddonID},
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, conflictKinds(result), ConflictStaffUnavailable)
}

func TestValidateAppointmentUnknownIDs(t *testing.T) {
	_, engine := newFixture(t)

	_, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        uuid.New(),
		ServiceID:      testServiceID,
		RequestedStart: at(10, 0),
	})
	assert.ErrorIs(t, err, ErrStaffNotFound)

	_, err = engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      uuid.New(),
		RequestedStart: at(10, 0),
	})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestValidateAppointmentStaffServiceOverrides(t *testing.T) {
	repo, engine := newFixture(t)
	duration := 20
	repo.staffServices = map[[2]uuid.UUID]*StaffService{
		{testStaffID, testServiceID}: {StaffID: testStaffID, ServiceID: testServiceID, DurationMinutes: &duration, Available: true},
	}

	result, err := engine.ValidateAppointment(context.Background(), ValidationRequest{
		StaffID:        testStaffID,
		ServiceID:      testServiceID,
		RequestedStart: at(10, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, 20, result.TotalDurationMinutes)
	assert.Equal(t, at(10, 20), result.EstimatedEnd)
}

func TestGetStaffAvailability(t *testing.T) {
	_, engine := newFixture(t)

	slots, err := engine.GetStaffAvailability(context.Background(), AvailabilityQuery{
		StaffID: testStaffID,
		Window:  timewindow.Window{Start: tuesday, End: tuesday.AddDate(0, 0, 1)},
	})
	require.NoError(t, err)

	require.Len(t, slots, 32)
	assert.Equal(t, at(9, 0), slots[0].Start)
	for _, s := range slots {
		assert.Equal(t, SlotAvailable, s.Status)
		assert.False(t, timewindow.New(s.Start, s.End).Overlaps(timewindow.New(at(12, 0), at(13, 0))))
	}
}

func TestGetStaffAvailabilityPastSlotsSuppressed(t *testing.T) {
	_, engine := newFixture(t)
	engine.now = func() time.Time { return at(13, 30) }

	slots, err := engine.GetStaffAvailability(context.Background(), AvailabilityQuery{
		StaffID: testStaffID,
		Window:  timewindow.Window{Start: tuesday, End: tuesday.AddDate(0, 0, 1)},
	})
	require.NoError(t, err)

	require.NotEmpty(t, slots)
	assert.Equal(t, at(13, 30), slots[0].Start)
}

func TestGetStaffAvailabilityWithService(t *testing.T) {
	_, engine := newFixture(t)

	sid := testServiceID
	slots, err := engine.GetStaffAvailability(context.Background(), AvailabilityQuery{
		StaffID:   testStaffID,
		Window:    timewindow.Window{Start: tuesday, End: tuesday.AddDate(0, 0, 1)},
		ServiceID: &sid,
	})
	require.NoError(t, err)

	require.NotEmpty(t, slots)
	// 30min service + 10min buffer: the last fitting start is 17:15.
	assert.Equal(t, at(17, 15), slots[len(slots)-1].Start)
	for _, s := range slots {
		assert.Equal(t, 40*time.Minute, s.End.Sub(s.Start))
	}
}

func TestGetStaffAvailabilityUnbookableStaff(t *testing.T) {
	repo, engine := newFixture(t)
	repo.staff[testStaffID].Bookable = false

	_, err := engine.GetStaffAvailability(context.Background(), AvailabilityQuery{
		StaffID: testStaffID,
		Window:  timewindow.Window{Start: tuesday, End: tuesday.AddDate(0, 0, 1)},
	})
	assert.ErrorIs(t, err, ErrStaffNotBookable)
}

func TestGetStaffAvailabilityInvalidWindow(t *testing.T) {
	_, engine := newFixture(t)

	_, err := engine.GetStaffAvailability(context.Background(), AvailabilityQuery{
		StaffID: testStaffID,
		Window:  timewindow.Window{Start: tuesday.AddDate(0, 0, 1), End: tuesday},
	})
	assert.ErrorIs(t, err, ErrInvalidQueryWindow)
}

func TestFindNextAvailable(t *testing.T) {
	repo, engine := newFixture(t)

	t.Run("earliest open slot", func(t *testing.T) {
		slot, err := engine.FindNextAvailable(context.Background(), testStaffID, testServiceID, 7)
		require.NoError(t, err)
		assert.Equal(t, at(9, 0), slot.Start)
	})

	t.Run("skips a fully booked morning", func(t *testing.T) {
		repo.appointments = []Appointment{
			{ID: uuid.New(), StaffID: testStaffID, Start: at(9, 0), End: at(12, 0), Status: StatusConfirmed},
		}
		slot, err := engine.FindNextAvailable(context.Background(), testStaffID, testServiceID, 7)
		require.NoError(t, err)
		assert.Equal(t, at(13, 0), slot.Start)
	})

	t.Run("no slot within horizon", func(t *testing.T) {
		repo.timeOff = []TimeOff{{
			ID: uuid.New(), StaffID: testStaffID, Status: TimeOffApproved, AllDay: true,
			Start: tuesday, End: tuesday.AddDate(0, 0, 30),
		}}
		_, err := engine.FindNextAvailable(context.Background(), testStaffID, testServiceID, 7)
		assert.ErrorIs(t, err, ErrNoSlotAvailable)
	})
}

func TestBusinessHours(t *testing.T) {
	_, engine := newFixture(t)

	open, err := engine.BusinessHours(context.Background(), tuesday)
	require.NoError(t, err)
	assert.True(t, open.Open)
	assert.Equal(t, TimeOfDay{Hour: 9}, open.Start)

	closed, err := engine.BusinessHours(context.Background(), tuesday.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.False(t, closed.Open)
}

func TestGetStaffSchedule(t *testing.T) {
	repo, engine := newFixture(t)
	repo.timeOff = []TimeOff{timeOffRow(at(14, 0), at(16, 0), TimeOffApproved)}
	repo.appointments = []Appointment{
		{ID: uuid.New(), StaffID: testStaffID, Start: at(10, 0), End: at(10, 30), Status: StatusConfirmed},
	}

	sched, err := engine.GetStaffSchedule(context.Background(), testStaffID, timewindow.Window{
		Start: tuesday, End: tuesday.AddDate(0, 0, 3),
	})
	require.NoError(t, err)

	require.Len(t, sched.Days, 3)
	assert.Equal(t, "2026-03-10", sched.Days[0].Date)
	assert.True(t, sched.Days[0].Hours.Open)
	assert.Len(t, sched.TimeOff, 1)
	assert.Len(t, sched.Appointments, 1)
}

func TestExpireStaleTentative(t *testing.T) {
	repo, engine := newFixture(t)
	stale := uuid.New()
	raced := uuid.New()
	fresh := uuid.New()
	repo.appointments = []Appointment{
		{ID: stale, StaffID: testStaffID, Start: at(10, 0), End: at(10, 30), Status: StatusTentative, CreatedAt: at(7, 0)},
		{ID: raced, StaffID: testStaffID, Start: at(11, 0), End: at(11, 30), Status: StatusTentative, CreatedAt: at(7, 0)},
		{ID: fresh, StaffID: testStaffID, Start: at(12, 0), End: at(12, 30), Status: StatusTentative, CreatedAt: at(7, 59)},
	}
	// The raced appointment was confirmed between list and update.
	repo.failUpdates = map[uuid.UUID]error{raced: ErrAppointmentNotFound}

	expired, err := engine.ExpireStaleTentative(context.Background(), 30*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, 1, expired)
	assert.Equal(t, StatusCancelled, repo.statusUpdates[stale])
	_, racedTouched := repo.statusUpdates[raced]
	assert.False(t, racedTouched)
	_, freshTouched := repo.statusUpdates[fresh]
	assert.False(t, freshTouched)
}
