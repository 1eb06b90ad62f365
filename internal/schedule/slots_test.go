package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/scheduler/internal/timewindow"
)

func fullDayParams(span, step time.Duration) slotParams {
	return slotParams{
		rng:  timewindow.Window{Start: tuesday, End: tuesday.AddDate(0, 0, 1)},
		span: span,
		step: step,
	}
}

func TestTileDayAvailable(t *testing.T) {
	plan := buildDayPlan(standardInputs(), tuesday, time.UTC, true)
	slots := tileDay(plan, fullDayParams(15*time.Minute, 15*time.Minute))

	// 09:00-12:00 yields 12 starts, 13:00-18:00 yields 20.
	require.Len(t, slots, 32)
	assert.Equal(t, at(9, 0), slots[0].Start)
	assert.Equal(t, at(9, 15), slots[0].End)
	assert.Equal(t, SlotAvailable, slots[0].Status)
	assert.Equal(t, at(17, 45), slots[len(slots)-1].Start)

	// Nothing starts during the break and nothing straddles it.
	for _, s := range slots {
		assert.False(t, timewindow.New(s.Start, s.End).Overlaps(timewindow.New(at(12, 0), at(13, 0))),
			"slot at %s overlaps the break", s.Start)
	}
}

func TestTileDayLongerSpan(t *testing.T) {
	plan := buildDayPlan(standardInputs(), tuesday, time.UTC, true)
	slots := tileDay(plan, fullDayParams(40*time.Minute, 15*time.Minute))

	// The last morning start that still fits 40 minutes before 12:00 is 11:15.
	var lastMorning time.Time
	for _, s := range slots {
		if s.Start.Before(at(12, 0)) {
			lastMorning = s.Start
		}
	}
	assert.Equal(t, at(11, 15), lastMorning)
}

func TestTileDayNotBefore(t *testing.T) {
	plan := buildDayPlan(standardInputs(), tuesday, time.UTC, true)
	p := fullDayParams(15*time.Minute, 15*time.Minute)
	p.notBefore = at(10, 5)

	slots := tileDay(plan, p)
	require.NotEmpty(t, slots)
	assert.Equal(t, at(10, 15), slots[0].Start, "slot grid stays anchored to opening time")
}

func TestTileDayNotAfter(t *testing.T) {
	plan := buildDayPlan(standardInputs(), tuesday, time.UTC, true)
	p := fullDayParams(15*time.Minute, 15*time.Minute)
	p.notAfter = at(10, 0)

	slots := tileDay(plan, p)
	require.NotEmpty(t, slots)
	assert.Equal(t, at(10, 0), slots[len(slots)-1].Start)
}

func TestTileDayQueryRangeClamps(t *testing.T) {
	plan := buildDayPlan(standardInputs(), tuesday, time.UTC, true)
	p := fullDayParams(15*time.Minute, 15*time.Minute)
	p.rng = timewindow.Window{Start: at(10, 0), End: at(11, 0)}

	slots := tileDay(plan, p)
	require.Len(t, slots, 4)
	assert.Equal(t, at(10, 0), slots[0].Start)
	assert.Equal(t, at(10, 45), slots[3].Start)
}

func TestTileDayIncludeBusy(t *testing.T) {
	in := standardInputs()
	in.appointments = []Appointment{
		{StaffID: testStaffID, Start: at(10, 0), End: at(10, 30), Status: StatusConfirmed},
	}
	plan := buildDayPlan(in, tuesday, time.UTC, true)

	p := fullDayParams(15*time.Minute, 15*time.Minute)
	p.rng = timewindow.Window{Start: at(9, 0), End: at(13, 30)}
	p.includeBusy = true

	slots := tileDay(plan, p)
	byStart := map[time.Time]SlotStatus{}
	for _, s := range slots {
		byStart[s.Start] = s.Status
	}

	assert.Equal(t, SlotAvailable, byStart[at(9, 0)])
	assert.Equal(t, SlotBusy, byStart[at(10, 0)])
	assert.Equal(t, SlotBusy, byStart[at(10, 15)])
	assert.Equal(t, SlotAvailable, byStart[at(10, 30)])
	assert.Equal(t, SlotBreak, byStart[at(12, 0)])
	assert.Equal(t, SlotBreak, byStart[at(12, 45)])

	// Chronological order regardless of which pass emitted the slot.
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Start.Before(slots[i].Start))
	}
}

func TestTileDayClosedDayEmitsNothingAvailable(t *testing.T) {
	plan := buildDayPlan(standardInputs(), tuesday.AddDate(0, 0, 1), time.UTC, true)
	assert.Empty(t, tileDay(plan, fullDayParams(15*time.Minute, 15*time.Minute)))
}
