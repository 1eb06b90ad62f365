package schedule

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/glowdesk/scheduler/internal/timewindow"
)

// maxRecurrenceOccurrences caps RRULE expansion so a malformed or unbounded
// rule can never materialize an unbounded sequence.
const maxRecurrenceOccurrences = 366

// timeOffBlocks expands approved time off into concrete blocked intervals
// within rng. All-day rows block whole calendar days; recurring rows are
// expanded lazily from their rule, bounded to the range plus the safety cap.
func timeOffBlocks(rows []TimeOff, rng timewindow.Window, loc *time.Location) []timewindow.Window {
	var blocks []timewindow.Window
	for _, row := range rows {
		if !row.Blocks() {
			continue
		}
		for _, occ := range timeOffOccurrences(row, rng) {
			if row.AllDay {
				occ = fullDays(occ, loc)
			}
			occ = occ.Clamp(rng)
			if !occ.IsEmpty() {
				blocks = append(blocks, occ)
			}
		}
	}
	return timewindow.Merge(blocks)
}

func timeOffOccurrences(row TimeOff, rng timewindow.Window) []timewindow.Window {
	duration := row.End.Sub(row.Start)
	if duration <= 0 {
		return nil
	}
	if row.Recurrence == "" {
		return []timewindow.Window{{Start: row.Start, End: row.End}}
	}

	rule, err := rrule.StrToRRule(row.Recurrence)
	if err != nil {
		// A broken rule still blocks its base interval; silently dropping an
		// approved absence would double-book the staff member.
		return []timewindow.Window{{Start: row.Start, End: row.End}}
	}
	rule.DTStart(row.Start)

	starts := rule.Between(rng.Start.Add(-duration), rng.End, true)
	if len(starts) > maxRecurrenceOccurrences {
		starts = starts[:maxRecurrenceOccurrences]
	}

	occurrences := make([]timewindow.Window, 0, len(starts))
	for _, s := range starts {
		occurrences = append(occurrences, timewindow.Window{Start: s, End: s.Add(duration)})
	}
	return occurrences
}

// fullDays widens w to cover every calendar day it touches.
func fullDays(w timewindow.Window, loc *time.Location) timewindow.Window {
	start := midnight(w.Start, loc)
	end := midnight(w.End, loc)
	if end.Before(w.End) {
		end = end.AddDate(0, 0, 1)
	}
	if !end.After(start) {
		end = start.AddDate(0, 0, 1)
	}
	return timewindow.Window{Start: start, End: end}
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
