package schedule

import (
	"time"

	"github.com/glowdesk/scheduler/internal/timewindow"
)

// planInputs is one consistent snapshot of everything that constrains a staff
// member's calendar over a date range.
type planInputs struct {
	staffHours    []WorkingHours
	businessHours []WorkingHours
	timeOff       []TimeOff
	overrides     []AvailabilityOverride
	appointments  []Appointment
}

// dayPlan is the fully resolved calendar for one staff member and one day:
// every instant of the day is either bookable (open) or attributable to a
// labeled constraint.
type dayPlan struct {
	day   timewindow.Window
	hours *DayHours

	// working is the hours-only window (hours plus override-opened spans,
	// minus breaks). Time off, override-closed spans, appointments and
	// booking-blocked overrides are NOT carved out of it: each of those is
	// judged on its own so a single cause reports a single conflict kind.
	// open is working minus all of them.
	working []timewindow.Window
	open    []timewindow.Window

	breaks          []timewindow.Window
	timeOff         []timewindow.Window
	busy            []timewindow.Window
	overrideClosed  []timewindow.Window
	overrideBlocked []timewindow.Window
}

// buildDayPlan reconciles working hours, time off, overrides and existing
// appointments for one calendar day. Precedence, lowest to highest: working
// hours, time off, availability overrides, existing appointments.
func buildDayPlan(in planInputs, date time.Time, loc *time.Location, weekendEnabled bool) *dayPlan {
	dayStart := midnight(date, loc)
	day := timewindow.Window{Start: dayStart, End: dayStart.AddDate(0, 0, 1)}

	hours := resolveDayHours(in.staffHours, in.businessHours, dayStart, loc)
	if !weekendEnabled && isWeekend(hours.Weekday) {
		hours = &DayHours{Weekday: hours.Weekday}
	}

	var base, breaks []timewindow.Window
	if hours.Open {
		base = []timewindow.Window{{
			Start: hours.Start.On(dayStart, loc),
			End:   hours.End.On(dayStart, loc),
		}}
		if hours.BreakStart != nil && hours.BreakEnd != nil {
			breaks = []timewindow.Window{{
				Start: hours.BreakStart.On(dayStart, loc),
				End:   hours.BreakEnd.On(dayStart, loc),
			}}
		}
	}

	directives := applyOverrides(in.overrides, day)

	// Overrides outrank time off and breaks, so opened spans are carved out
	// of both before they are subtracted from the working window.
	off := timewindow.SubtractAll(timeOffBlocks(in.timeOff, day, loc), directives.opened)
	breaks = timewindow.SubtractAll(breaks, directives.opened)

	working := timewindow.SubtractAll(base, breaks)
	working = timewindow.Merge(append(append(working, directives.opened...), directives.blocked...))

	busy := appointmentWindows(in.appointments, day)

	blocks := append([]timewindow.Window{}, off...)
	blocks = append(blocks, directives.closed...)
	blocks = append(blocks, busy...)
	blocks = append(blocks, directives.blocked...)
	open := timewindow.SubtractAll(working, blocks)

	return &dayPlan{
		day:             day,
		hours:           hours,
		working:         working,
		open:            open,
		breaks:          breaks,
		timeOff:         off,
		busy:            busy,
		overrideClosed:  directives.closed,
		overrideBlocked: directives.blocked,
	}
}

// classify labels a rejected candidate for calendar rendering. Precedence
// mirrors how a receptionist would read the day: an explicit booking block
// first, then an existing appointment, then the lunch break, then closed.
func (p *dayPlan) classify(candidate timewindow.Window) SlotStatus {
	for _, w := range p.open {
		if w.Contains(candidate) {
			return SlotAvailable
		}
	}
	if overlapsAny(p.overrideBlocked, candidate) {
		return SlotOverrideBlocked
	}
	if overlapsAny(p.busy, candidate) {
		return SlotBusy
	}
	if overlapsAny(p.breaks, candidate) {
		return SlotBreak
	}
	return SlotOff
}

// withinWorkingHours reports whether the candidate fits entirely inside the
// hours-only working window.
func (p *dayPlan) withinWorkingHours(candidate timewindow.Window) bool {
	for _, w := range p.working {
		if w.Contains(candidate) {
			return true
		}
	}
	return false
}

// startsWithinWorkingHours reports whether the candidate's start instant falls
// inside the hours-only working window, regardless of where it ends.
func (p *dayPlan) startsWithinWorkingHours(start time.Time) bool {
	for _, w := range p.working {
		if w.ContainsInstant(start) {
			return true
		}
	}
	return false
}

func overlapsAny(windows []timewindow.Window, candidate timewindow.Window) bool {
	for _, w := range windows {
		if w.Overlaps(candidate) {
			return true
		}
	}
	return false
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
