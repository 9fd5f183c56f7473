package domain

import (
	"math"
	"time"
)

// PresenceStatus is the attendance outcome recorded by the presence system.
type PresenceStatus string

const (
	PresencePresent PresenceStatus = "present"
	PresenceAbsent  PresenceStatus = "absent"
	PresenceLeave   PresenceStatus = "leave"
	PresenceHoliday PresenceStatus = "holiday"
)

// BreakEntry is a pause inside a presence span. The JSON form is what both
// presence stores keep in their breaks column.
type BreakEntry struct {
	StartTime time.Time `json:"start"`
	EndTime   time.Time `json:"end"`
}

// Minutes returns the break length in minutes, never negative.
func (b BreakEntry) Minutes() float64 {
	if !b.EndTime.After(b.StartTime) {
		return 0
	}
	return b.EndTime.Sub(b.StartTime).Minutes()
}

// PresenceEntry is a read-only clock-in/clock-out record for one day.
type PresenceEntry struct {
	ID           string         `json:"id"`
	EmployeeID   string         `json:"employee_id"`
	TenantID     string         `json:"tenant_id"`
	Date         string         `json:"date"`
	ClockInTime  *time.Time     `json:"clock_in_time,omitempty"`
	ClockOutTime *time.Time     `json:"clock_out_time,omitempty"`
	Breaks       []BreakEntry   `json:"breaks,omitempty"`
	Status       PresenceStatus `json:"status"`

	Late       bool `json:"late"`
	EarlyLeave bool `json:"early_leave"`
	Overtime   bool `json:"overtime"`

	ActualWorkHours *float64 `json:"actual_work_hours,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// Attended reports whether the record marks a working day. A record
// without a status counts as present.
func (p PresenceEntry) Attended() bool {
	return p.Status == "" || p.Status == PresencePresent
}

// HasClockTimes reports whether both clock-in and clock-out are set.
func (p PresenceEntry) HasClockTimes() bool {
	return p.ClockInTime != nil && p.ClockOutTime != nil
}

// SpanMinutes is clock-out minus clock-in, or 0 when incomplete.
func (p PresenceEntry) SpanMinutes() float64 {
	if !p.HasClockTimes() || !p.ClockOutTime.After(*p.ClockInTime) {
		return 0
	}
	return p.ClockOutTime.Sub(*p.ClockInTime).Minutes()
}

// TotalBreakMinutes sums all recorded breaks.
func (p PresenceEntry) TotalBreakMinutes() float64 {
	var total float64
	for _, b := range p.Breaks {
		total += b.Minutes()
	}
	return total
}

// ExpectedWorkMinutes is span minus breaks, rounded, never negative.
func (p PresenceEntry) ExpectedWorkMinutes() int {
	minutes := math.Round(p.SpanMinutes() - p.TotalBreakMinutes())
	if minutes < 0 {
		return 0
	}
	return int(minutes)
}

// WorkHours prefers the recorded actual hours, falling back to the
// expected minutes derived from the clock times.
func (p PresenceEntry) WorkHours() float64 {
	if p.ActualWorkHours != nil {
		return *p.ActualWorkHours
	}
	return float64(p.ExpectedWorkMinutes()) / 60
}
