package schedule

import "time"

// DayHours is the resolved effective working window for one owner and date.
type DayHours struct {
	Weekday    time.Weekday `json:"weekday"`
	Open       bool         `json:"is_open"`
	Start      TimeOfDay    `json:"start_time,omitempty"`
	End        TimeOfDay    `json:"end_time,omitempty"`
	BreakStart *TimeOfDay   `json:"break_start,omitempty"`
	BreakEnd   *TimeOfDay   `json:"break_end,omitempty"`
	Source     OwnerKind    `json:"source,omitempty"`
}

// resolveOwnerHours picks the effective row for a date from one owner's rows.
// Exactly one active row must cover the date; when a date-bounded row and the
// base row both match, the bounded one wins. Two covering rows of the same
// specificity are ambiguous and resolve to closed rather than guessing.
func resolveOwnerHours(rows []WorkingHours, date time.Time, loc *time.Location) (row *WorkingHours, ambiguous bool) {
	weekday := date.In(loc).Weekday()

	var base, bounded []WorkingHours
	for _, r := range rows {
		if !r.Active || r.Weekday != weekday || !r.coversDate(date) {
			continue
		}
		if r.EffectiveFrom != nil || r.EffectiveUntil != nil {
			bounded = append(bounded, r)
		} else {
			base = append(base, r)
		}
	}

	switch {
	case len(bounded) == 1:
		return &bounded[0], false
	case len(bounded) > 1:
		return nil, true
	case len(base) == 1:
		return &base[0], false
	case len(base) > 1:
		return nil, true
	default:
		return nil, false
	}
}

// resolveDayHours applies the staff-overrides-business inheritance rule.
// An ambiguous staff schedule fails closed instead of falling back.
func resolveDayHours(staffRows, businessRows []WorkingHours, date time.Time, loc *time.Location) *DayHours {
	weekday := date.In(loc).Weekday()
	closed := &DayHours{Weekday: weekday}

	row, ambiguous := resolveOwnerHours(staffRows, date, loc)
	if ambiguous {
		return closed
	}
	source := OwnerStaff
	if row == nil {
		row, ambiguous = resolveOwnerHours(businessRows, date, loc)
		if ambiguous || row == nil {
			return closed
		}
		source = OwnerBusiness
	}

	return &DayHours{
		Weekday:    weekday,
		Open:       true,
		Start:      row.Start,
		End:        row.End,
		BreakStart: row.BreakStart,
		BreakEnd:   row.BreakEnd,
		Source:     source,
	}
}
