package schedule

import "github.com/glowdesk/scheduler/internal/timewindow"

// overrideDirectives is the per-day effect of active availability overrides,
// already clamped to the day window.
type overrideDirectives struct {
	// opened spans are forced open regardless of hours and time off.
	// AVAILABLE and CUSTOM_HOURS both land here: a CUSTOM_HOURS override
	// carries its replacement window as its own span.
	opened []timewindow.Window
	// closed spans are forced unavailable regardless of anything beneath.
	closed []timewindow.Window
	// blocked spans are open for display purposes but accept no new bookings
	// (allow_new_bookings=false).
	blocked []timewindow.Window
}

// applyOverrides partitions the overrides that intersect day into directives.
// Overrides take precedence over both working hours and time off, so the plan
// builder applies these after computing the base schedule.
func applyOverrides(rows []AvailabilityOverride, day timewindow.Window) overrideDirectives {
	var d overrideDirectives
	for _, o := range rows {
		if !o.Active {
			continue
		}
		span := timewindow.Window{Start: o.Start, End: o.End}.Clamp(day)
		if span.IsEmpty() {
			continue
		}
		switch {
		case o.Kind == OverrideUnavailable:
			d.closed = append(d.closed, span)
		case o.opens() && !o.AllowNewBookings:
			d.blocked = append(d.blocked, span)
		case o.opens():
			d.opened = append(d.opened, span)
		}
	}
	d.opened = timewindow.Merge(d.opened)
	d.closed = timewindow.Merge(d.closed)
	d.blocked = timewindow.Merge(d.blocked)
	return d
}
