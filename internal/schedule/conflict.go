package schedule

import "github.com/glowdesk/scheduler/internal/timewindow"

// firstAppointmentConflict returns the first existing appointment whose
// interval overlaps the candidate, using half-open overlap semantics.
// Cancelled and no-show appointments are skipped. The slot generator reuses
// this predicate per candidate.
func firstAppointmentConflict(appointments []Appointment, candidate timewindow.Window) *Appointment {
	for i := range appointments {
		a := &appointments[i]
		if !a.BlocksBooking() {
			continue
		}
		if candidate.Overlaps(timewindow.Window{Start: a.Start, End: a.End}) {
			return a
		}
	}
	return nil
}

// appointmentWindows collects the intervals of blocking appointments clamped
// to bounds, merged for subtraction from free windows.
func appointmentWindows(appointments []Appointment, bounds timewindow.Window) []timewindow.Window {
	var out []timewindow.Window
	for _, a := range appointments {
		if !a.BlocksBooking() {
			continue
		}
		w := timewindow.Window{Start: a.Start, End: a.End}.Clamp(bounds)
		if !w.IsEmpty() {
			out = append(out, w)
		}
	}
	return timewindow.Merge(out)
}
