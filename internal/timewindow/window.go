package timewindow

import (
	"sort"
	"time"
)

// Window is a half-open interval [Start, End). A window with End <= Start is
// considered empty.
type Window struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

func (w Window) IsEmpty() bool {
	return !w.End.After(w.Start)
}

func (w Window) Duration() time.Duration {
	if w.IsEmpty() {
		return 0
	}
	return w.End.Sub(w.Start)
}

// Overlaps reports whether two half-open intervals share any instant:
// w.Start < o.End && o.Start < w.End.
func (w Window) Overlaps(o Window) bool {
	if w.IsEmpty() || o.IsEmpty() {
		return false
	}
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Contains reports whether o lies entirely inside w.
func (w Window) Contains(o Window) bool {
	if w.IsEmpty() || o.IsEmpty() {
		return false
	}
	return !o.Start.Before(w.Start) && !o.End.After(w.End)
}

// ContainsInstant reports whether t falls inside [Start, End).
func (w Window) ContainsInstant(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Clamp returns the intersection of w and bounds, which may be empty.
func (w Window) Clamp(bounds Window) Window {
	start := w.Start
	if bounds.Start.After(start) {
		start = bounds.Start
	}
	end := w.End
	if bounds.End.Before(end) {
		end = bounds.End
	}
	return Window{Start: start, End: end}
}

// Subtract removes o from w and returns the zero, one, or two remaining pieces.
func (w Window) Subtract(o Window) []Window {
	if w.IsEmpty() {
		return nil
	}
	if !w.Overlaps(o) {
		return []Window{w}
	}

	var out []Window
	if o.Start.After(w.Start) {
		out = append(out, Window{Start: w.Start, End: o.Start})
	}
	if o.End.Before(w.End) {
		out = append(out, Window{Start: o.End, End: w.End})
	}
	return out
}

// SubtractAll removes every block from every window and returns the remaining
// pieces in chronological order.
func SubtractAll(windows, blocks []Window) []Window {
	out := windows
	for _, b := range blocks {
		var next []Window
		for _, w := range out {
			next = append(next, w.Subtract(b)...)
		}
		out = next
	}
	sortWindows(out)
	return out
}

// Merge sorts windows and coalesces overlapping or touching neighbours.
func Merge(windows []Window) []Window {
	var nonEmpty []Window
	for _, w := range windows {
		if !w.IsEmpty() {
			nonEmpty = append(nonEmpty, w)
		}
	}
	if len(nonEmpty) == 0 {
		return nil
	}
	sortWindows(nonEmpty)

	out := []Window{nonEmpty[0]}
	for _, w := range nonEmpty[1:] {
		last := &out[len(out)-1]
		if !w.Start.After(last.End) {
			if w.End.After(last.End) {
				last.End = w.End
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

func sortWindows(ws []Window) {
	sort.Slice(ws, func(i, j int) bool { return ws[i].Start.Before(ws[j].Start) })
}
