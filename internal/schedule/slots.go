package schedule

import (
	"sort"
	"time"

	"github.com/glowdesk/scheduler/internal/timewindow"
)

// slotParams controls one tiling pass over a day plan.
type slotParams struct {
	// rng clamps emitted slots to the requested query range.
	rng timewindow.Window
	// span is the full interval a candidate must fit, buffers included.
	span time.Duration
	// step is the tiling granularity.
	step time.Duration
	// notBefore suppresses AVAILABLE slots that start before this instant
	// ("now", pushed forward by any lead-time policy).
	notBefore time.Time
	// notAfter, when set, suppresses AVAILABLE slots past the advance-booking
	// limit.
	notAfter time.Time
	// includeBusy also emits rejected candidates with their blocking status.
	includeBusy bool
}

// tileDay walks one day plan and emits candidate slots in chronological
// order. An AVAILABLE slot's full span must fit inside a single free window;
// a candidate never straddles a break or closure.
func tileDay(plan *dayPlan, p slotParams) []Slot {
	var slots []Slot

	// Free windows tile from their own start, so slot boundaries stay
	// anchored to the schedule (09:00, 09:15, ...) rather than to the query.
	for _, w := range plan.open {
		for t := w.Start; !t.Add(p.span).After(w.End); t = t.Add(p.step) {
			candidate := timewindow.Window{Start: t, End: t.Add(p.span)}
			if !p.rng.Contains(candidate) {
				continue
			}
			if t.Before(p.notBefore) {
				continue
			}
			if !p.notAfter.IsZero() && t.After(p.notAfter) {
				continue
			}
			slots = append(slots, Slot{Start: t, End: candidate.End, Status: SlotAvailable})
		}
	}

	if p.includeBusy {
		for _, w := range timewindow.SubtractAll([]timewindow.Window{plan.day}, plan.open) {
			for t := w.Start; t.Add(p.step).Before(w.End) || t.Add(p.step).Equal(w.End); t = t.Add(p.step) {
				candidate := timewindow.Window{Start: t, End: t.Add(p.span)}
				if !p.rng.Contains(candidate) {
					continue
				}
				status := plan.classify(candidate)
				if status == SlotAvailable {
					// Straddles the edge of a free window; the available pass
					// already covers anything genuinely bookable.
					continue
				}
				slots = append(slots, Slot{Start: t, End: candidate.End, Status: status})
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots
}
