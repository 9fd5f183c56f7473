package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) *time.Time {
	t := time.Date(2024, 3, 4, hour, minute, 0, 0, time.UTC)
	return &t
}

func TestPresenceEntry_ExpectedWorkMinutes(t *testing.T) {
	p := PresenceEntry{
		ClockInTime:  at(9, 0),
		ClockOutTime: at(17, 30),
		Breaks: []BreakEntry{
			{StartTime: *at(12, 0), EndTime: *at(12, 30)},
			{StartTime: *at(15, 0), EndTime: *at(15, 15)},
		},
	}

	assert.InDelta(t, 510.0, p.SpanMinutes(), 0.001)
	assert.InDelta(t, 45.0, p.TotalBreakMinutes(), 0.001)
	assert.Equal(t, 465, p.ExpectedWorkMinutes())
	assert.InDelta(t, 7.75, p.WorkHours(), 0.001)
}

func TestPresenceEntry_WorkHoursPrefersActual(t *testing.T) {
	actual := 8.0
	p := PresenceEntry{ClockInTime: at(9, 0), ClockOutTime: at(15, 0), ActualWorkHours: &actual}

	assert.Equal(t, 8.0, p.WorkHours())
}

func TestPresenceEntry_Incomplete(t *testing.T) {
	p := PresenceEntry{ClockInTime: at(9, 0)}

	assert.False(t, p.HasClockTimes())
	assert.Equal(t, 0.0, p.SpanMinutes())
	assert.Equal(t, 0, p.ExpectedWorkMinutes())
}

func TestPresenceEntry_BreaksLongerThanSpan(t *testing.T) {
	p := PresenceEntry{
		ClockInTime:  at(9, 0),
		ClockOutTime: at(10, 0),
		Breaks:       []BreakEntry{{StartTime: *at(8, 0), EndTime: *at(11, 0)}},
	}

	assert.Equal(t, 0, p.ExpectedWorkMinutes())
}

func TestBreakEntry_Minutes(t *testing.T) {
	assert.Equal(t, 30.0, BreakEntry{StartTime: *at(12, 0), EndTime: *at(12, 30)}.Minutes())
	assert.Equal(t, 0.0, BreakEntry{StartTime: *at(12, 30), EndTime: *at(12, 0)}.Minutes())
}

func TestProject_Membership(t *testing.T) {
	p := Project{Status: ProjectStatusActive, AssignedEmployeeIDs: []string{"emp-1"}}

	assert.True(t, p.IsActive())
	assert.True(t, p.HasEmployee("emp-1"))
	assert.False(t, p.HasEmployee("emp-2"))
	assert.False(t, Project{Status: "archived"}.IsActive())
}

func TestActivityCode_AppliesTo(t *testing.T) {
	assert.True(t, ActivityCode{}.AppliesTo("p1"))
	assert.True(t, ActivityCode{ProjectIDs: []string{"p1"}}.AppliesTo("p1"))
	assert.False(t, ActivityCode{ProjectIDs: []string{"p2"}}.AppliesTo("p1"))
}

func TestPresenceEntry_Attended(t *testing.T) {
	tests := []struct {
		status PresenceStatus
		want   bool
	}{
		{"", true},
		{PresencePresent, true},
		{PresenceAbsent, false},
		{PresenceLeave, false},
		{PresenceHoliday, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PresenceEntry{Status: tt.status}.Attended(), "status %q", tt.status)
	}
}
