package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"timesheet-engine/internal/domain"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestCheckProjectEligibility(t *testing.T) {
	active := &domain.Project{ID: "p1", Status: domain.ProjectStatusActive, AssignedEmployeeIDs: []string{"emp-1"}}
	code := &domain.ActivityCode{ID: "dev", Active: true, Billable: true}

	tests := []struct {
		name        string
		projectID   *string
		activityID  *string
		billable    bool
		project     *domain.Project
		activity    *domain.ActivityCode
		wantError   string
		wantWarning string
	}{
		{name: "no project", wantError: "", wantWarning: ""},
		{name: "eligible", projectID: strPtr("p1"), activityID: strPtr("dev"), project: active, activity: code},
		{name: "unknown project", projectID: strPtr("p9"), wantError: "Project not found"},
		{
			name:      "inactive project",
			projectID: strPtr("p1"),
			project:   &domain.Project{ID: "p1", Status: "archived", AssignedEmployeeIDs: []string{"emp-1"}},
			wantError: "Project is not active",
		},
		{
			name:      "not assigned",
			projectID: strPtr("p1"),
			project:   &domain.Project{ID: "p1", Status: domain.ProjectStatusActive},
			wantError: "Employee is not assigned to this project",
		},
		{
			name:      "activity required",
			projectID: strPtr("p1"),
			project:   &domain.Project{ID: "p1", Status: domain.ProjectStatusActive, AssignedEmployeeIDs: []string{"emp-1"}, RequiresActivityCode: true},
			wantError: "Activity code is required for this project",
		},
		{name: "unknown activity", activityID: strPtr("zzz"), wantError: "Activity code not found"},
		{
			name:       "inactive activity",
			activityID: strPtr("old"),
			activity:   &domain.ActivityCode{ID: "old", Active: false},
			wantError:  "Activity code is not active",
		},
		{
			name:        "billable on non-billable code",
			activityID:  strPtr("admin"),
			billable:    true,
			activity:    &domain.ActivityCode{ID: "admin", Active: true, Billable: false},
			wantWarning: "non-billable activity code",
		},
		{
			name:        "code from another project",
			projectID:   strPtr("p1"),
			activityID:  strPtr("dev"),
			project:     active,
			activity:    &domain.ActivityCode{ID: "dev", Active: true, Billable: true, ProjectIDs: []string{"p2"}},
			wantWarning: "not associated with this project",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := domain.NewTimeEntry("t1", "emp-1", "2024-01-15", 60, "Work")
			entry.ProjectID = tt.projectID
			entry.ActivityCodeID = tt.activityID
			entry.Billable = tt.billable

			result := NewValidator().CheckProjectEligibility(entry, tt.project, tt.activity)

			if tt.wantError == "" {
				assert.True(t, result.IsValid(), "errors: %v", result.ErrorMessages())
			} else {
				assert.True(t, hasMessage(result.Errors, tt.wantError), "errors: %v", result.ErrorMessages())
			}
			if tt.wantWarning != "" {
				assert.True(t, result.IsValid())
				assert.True(t, hasMessage(result.Warnings, tt.wantWarning), "warnings: %v", result.WarningMessages())
			}
		})
	}
}

func weekOfNineHourDays() []domain.TimeEntry {
	var entries []domain.TimeEntry
	for i, date := range []string{"2024-01-15", "2024-01-16", "2024-01-17", "2024-01-18", "2024-01-19"} {
		entries = append(entries, domain.TimeEntry{ID: string(rune('a' + i)), Date: date, Duration: 9 * 60})
	}
	return entries
}

func TestCheckOvertime_WeeklyWarning(t *testing.T) {
	week := weekOfNineHourDays()

	for _, minutes := range []int{15, 60, 240} {
		entry := domain.TimeEntry{ID: "new", Date: "2024-01-20", Duration: minutes}

		result := NewValidator().CheckOvertime(entry, week)

		assert.True(t, result.IsValid(), "minutes=%d errors=%v", minutes, result.ErrorMessages())
		assert.True(t, hasMessage(result.Warnings, "exceed the standard 40h"), "minutes=%d", minutes)
	}
}

func TestCheckOvertime_WeeklyError(t *testing.T) {
	week := weekOfNineHourDays()
	week = append(week, domain.TimeEntry{ID: "f", Date: "2024-01-20", Duration: 10 * 60})

	entry := domain.TimeEntry{ID: "new", Date: "2024-01-21", Duration: 6 * 60}
	result := NewValidator().CheckOvertime(entry, week)

	assert.False(t, result.IsValid())
	assert.True(t, hasMessage(result.Errors, "Weekly hours (61.0h) exceed the maximum of 60h"), "errors: %v", result.ErrorMessages())
}

func TestCheckOvertime_ExcludesItself(t *testing.T) {
	week := weekOfNineHourDays()
	entry := week[0]
	entry.Duration = 8 * 60

	result := NewValidator().CheckOvertime(entry, week)

	assert.True(t, result.IsValid())
	assert.True(t, hasMessage(result.Warnings, "Weekly hours (44.0h)"))
}

func TestCheckOvertime_DailyCap(t *testing.T) {
	entry := domain.TimeEntry{ID: "long", Date: "2024-01-15", Duration: 13 * 60}

	result := NewValidator().CheckOvertime(entry, nil)

	assert.False(t, result.IsValid())
	assert.True(t, hasMessage(result.Errors, "daily maximum of 12 hours"))
}

func TestCheckBillable(t *testing.T) {
	tests := []struct {
		name     string
		billable bool
		rate     *float64
		warning  string
	}{
		{"billable with normal rate", true, floatPtr(90), ""},
		{"billable without rate", true, nil, "no hourly rate"},
		{"non-billable with rate", false, floatPtr(90), "Non-billable entry has an hourly rate"},
		{"rate too low", true, floatPtr(2), "unusually low"},
		{"rate too high", true, floatPtr(650), "unusually high"},
		{"non-billable without rate", false, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := domain.TimeEntry{Billable: tt.billable, HourlyRate: tt.rate}

			result := NewValidator().CheckBillable(entry)

			assert.True(t, result.IsValid())
			if tt.warning == "" {
				assert.Empty(t, result.Warnings)
			} else {
				assert.True(t, hasMessage(result.Warnings, tt.warning), "warnings: %v", result.WarningMessages())
			}
		})
	}
}

func TestCheckWeekend(t *testing.T) {
	v := NewValidator()

	saturday := v.CheckWeekend(domain.TimeEntry{Date: "2024-01-20"})
	assert.True(t, saturday.IsValid())
	assert.Len(t, saturday.Warnings, 1)

	sunday := v.CheckWeekend(domain.TimeEntry{Date: "2024-01-21"})
	assert.Len(t, sunday.Warnings, 1)

	monday := v.CheckWeekend(domain.TimeEntry{Date: "2024-01-15"})
	assert.Empty(t, monday.Warnings)
}
