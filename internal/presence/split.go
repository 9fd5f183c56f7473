// Package presence turns clock-in/clock-out records into work intervals.
package presence

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
)

// Interval is one uninterrupted stretch of work inside a presence span.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Minutes returns the interval length rounded to whole minutes.
func (i Interval) Minutes() int {
	return roundedMinutes(i.End.Sub(i.Start))
}

// SplitWorkIntervals cuts the presence span at every break. Breaks are
// processed in start order; the cursor only ever moves forward, so
// overlapping or out-of-span breaks never produce negative intervals.
// Intervals that round to zero minutes are dropped.
func SplitWorkIntervals(p domain.PresenceEntry) ([]Interval, error) {
	if p.ClockInTime == nil {
		return nil, errors.NewValidationError("Presence entry has no clock-in time", nil).
			WithContext("presence_entry_id", p.ID)
	}
	if p.ClockOutTime == nil {
		return nil, errors.NewValidationError("Presence entry has no clock-out time", nil).
			WithContext("presence_entry_id", p.ID)
	}

	breaks := make([]domain.BreakEntry, len(p.Breaks))
	copy(breaks, p.Breaks)
	sort.SliceStable(breaks, func(i, j int) bool {
		return breaks[i].StartTime.Before(breaks[j].StartTime)
	})

	var intervals []Interval
	cursor := *p.ClockInTime
	clockOut := *p.ClockOutTime

	emit := func(end time.Time) {
		if end.After(clockOut) {
			end = clockOut
		}
		if !end.After(cursor) {
			return
		}
		iv := Interval{Start: cursor, End: end}
		if iv.Minutes() > 0 {
			intervals = append(intervals, iv)
		}
	}

	for _, b := range breaks {
		if cursor.Before(b.StartTime) {
			emit(b.StartTime)
		}
		if b.EndTime.After(cursor) {
			cursor = b.EndTime
		}
	}
	if cursor.Before(clockOut) {
		emit(clockOut)
	}

	return intervals, nil
}

// TotalMinutes sums the rounded minutes of the intervals.
func TotalMinutes(intervals []Interval) int {
	total := 0
	for _, iv := range intervals {
		total += iv.Minutes()
	}
	return total
}

// Label renders the interval as wall-clock HH:MM-HH:MM in loc.
func (i Interval) Label(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return i.Start.In(loc).Format("15:04") + "-" + i.End.In(loc).Format("15:04")
}

// Describe builds the generated description for an interval: the time
// range in loc, the presence annotations and the free-text notes.
func Describe(p domain.PresenceEntry, iv Interval, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Work period %s", iv.Label(loc))

	var notes []string
	if p.Late {
		notes = append(notes, "late arrival")
	}
	if p.EarlyLeave {
		notes = append(notes, "early leave")
	}
	if p.Overtime {
		notes = append(notes, "overtime")
	}
	if len(notes) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(notes, ", "))
	}
	if n := strings.TrimSpace(p.Notes); n != "" {
		b.WriteString(" - ")
		b.WriteString(n)
	}
	return b.String()
}

func roundedMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}
