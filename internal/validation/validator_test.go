package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheet-engine/internal/domain"
	apperrors "timesheet-engine/internal/errors"
)

func clock(date string, hour, minute int) *time.Time {
	day, _ := domain.ParseDate(date, time.UTC)
	t := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return &t
}

func validEntry() domain.TimeEntry {
	entry := domain.NewTimeEntry("t1", "emp-1", "2024-01-15", 180, "Implement reconciliation report")
	entry.StartTime = clock("2024-01-15", 9, 0)
	entry.EndTime = clock("2024-01-15", 12, 0)
	return entry
}

func hasMessage(findings []FieldError, fragment string) bool {
	for _, f := range findings {
		if strings.Contains(f.Message, fragment) {
			return true
		}
	}
	return false
}

func TestValidateEntry_Valid(t *testing.T) {
	result := NewValidator().ValidateEntry(validEntry())

	assert.True(t, result.IsValid(), "errors: %v", result.ErrorMessages())
	assert.Empty(t, result.Warnings)
}

func TestValidateFields_ZeroDuration(t *testing.T) {
	entry := domain.NewTimeEntry("t1", "emp-1", "2024-01-15", 0, "Planning")

	result := NewValidator().ValidateEntry(entry)

	require.False(t, result.IsValid())
	assert.Equal(t, []string{"Duration must be greater than 0"}, result.ErrorMessages())
	assert.Empty(t, result.Warnings)

	err := result.Err()
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
	assert.Equal(t, "Duration must be greater than 0", apperrors.GetUserMessage(err))
}

func TestValidateFields(t *testing.T) {
	negative := -1.0
	tests := []struct {
		name    string
		mutate  func(*domain.TimeEntry)
		message string
	}{
		{"missing employee", func(e *domain.TimeEntry) { e.EmployeeID = "" }, "Employee is required"},
		{"missing tenant", func(e *domain.TimeEntry) { e.TenantID = " " }, "Tenant is required"},
		{"missing date", func(e *domain.TimeEntry) { e.Date = "" }, "Date is required"},
		{"bad date", func(e *domain.TimeEntry) { e.Date = "15/01/2024" }, "Date must be in YYYY-MM-DD format"},
		{"too long", func(e *domain.TimeEntry) { e.Duration = 1441; e.StartTime, e.EndTime = nil, nil }, "Duration cannot exceed 1440 minutes"},
		{"blank description", func(e *domain.TimeEntry) { e.Description = "   " }, "Description is required"},
		{"long description", func(e *domain.TimeEntry) { e.Description = strings.Repeat("x", 1001) }, "Description must be at most 1000 characters"},
		{"empty tag", func(e *domain.TimeEntry) { e.Tags = []string{"ok", ""} }, "Tags cannot be empty"},
		{"long tag", func(e *domain.TimeEntry) { e.Tags = []string{strings.Repeat("t", 51)} }, "must be at most 50 characters"},
		{"negative cost", func(e *domain.TimeEntry) { e.TotalCost = &negative }, "Total cost cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validEntry()
			tt.mutate(&entry)

			result := NewValidator().ValidateFields(entry)

			assert.False(t, result.IsValid())
			assert.True(t, hasMessage(result.Errors, tt.message), "errors: %v", result.ErrorMessages())
		})
	}
}

func TestValidateDurationAndRange_DurationBands(t *testing.T) {
	tests := []struct {
		name        string
		minutes     int
		wantValid   bool
		wantWarning string
	}{
		{"very short", 10, true, "very short"},
		{"normal", 240, true, ""},
		{"very long", 13 * 60, true, "very long"},
		{"beyond 16h", 16*60 + 1, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := domain.NewTimeEntry("t1", "emp-1", "2024-01-15", tt.minutes, "Work")

			result := NewValidator().ValidateDurationAndRange(entry)

			assert.Equal(t, tt.wantValid, result.IsValid())
			if tt.wantWarning != "" {
				assert.True(t, hasMessage(result.Warnings, tt.wantWarning), "warnings: %v", result.WarningMessages())
			}
			if !tt.wantValid {
				assert.Empty(t, result.Warnings, "an error must not also raise the very-long warning")
			}
		})
	}
}

func TestValidateDurationAndRange_Tolerance(t *testing.T) {
	tests := []struct {
		name      string
		duration  int
		wantValid bool
	}{
		{"exact", 180, true},
		{"one minute under", 179, true},
		{"one minute over", 181, true},
		{"two minutes off", 182, false},
		{"five minutes off", 175, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validEntry()
			entry.Duration = tt.duration

			result := NewValidator().ValidateDurationAndRange(entry)

			assert.Equal(t, tt.wantValid, result.IsValid(), "errors: %v", result.ErrorMessages())
		})
	}
}

func TestValidateDurationAndRange_TimeRange(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.TimeEntry)
		message string
	}{
		{
			name:    "end before start",
			mutate:  func(e *domain.TimeEntry) { e.StartTime, e.EndTime = e.EndTime, e.StartTime },
			message: "End time must be after start time",
		},
		{
			name:    "equal times",
			mutate:  func(e *domain.TimeEntry) { e.EndTime = e.StartTime },
			message: "End time must be after start time",
		},
		{
			name: "spans midnight",
			mutate: func(e *domain.TimeEntry) {
				e.StartTime = clock("2024-01-15", 22, 0)
				e.EndTime = clock("2024-01-16", 1, 0)
			},
			message: "same day",
		},
		{
			name: "other day than date",
			mutate: func(e *domain.TimeEntry) {
				e.StartTime = clock("2024-01-16", 9, 0)
				e.EndTime = clock("2024-01-16", 12, 0)
			},
			message: "entry date 2024-01-15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validEntry()
			tt.mutate(&entry)

			result := NewValidator().ValidateDurationAndRange(entry)

			assert.False(t, result.IsValid())
			assert.True(t, hasMessage(result.Errors, tt.message), "errors: %v", result.ErrorMessages())
		})
	}
}

func TestValidateDurationAndRange_TypicalHoursWarnings(t *testing.T) {
	early := validEntry()
	early.StartTime = clock("2024-01-15", 4, 30)
	early.EndTime = clock("2024-01-15", 5, 30)
	early.Duration = 60

	result := NewValidator().ValidateDurationAndRange(early)
	assert.True(t, result.IsValid())
	assert.True(t, hasMessage(result.Warnings, "Start time is outside typical working hours"))
	assert.True(t, hasMessage(result.Warnings, "End time is outside typical working hours"))

	late := validEntry()
	late.StartTime = clock("2024-01-15", 23, 15)
	late.EndTime = clock("2024-01-15", 23, 45)
	late.Duration = 30

	result = NewValidator().ValidateDurationAndRange(late)
	assert.True(t, hasMessage(result.Warnings, "Start time is outside typical working hours"))
	assert.False(t, hasMessage(result.Warnings, "End time"))
}

func TestValidateDurationAndRange_LongSpanWithoutBreak(t *testing.T) {
	entry := validEntry()
	entry.StartTime = clock("2024-01-15", 8, 0)
	entry.EndTime = clock("2024-01-15", 15, 0)
	entry.Duration = 420

	result := NewValidator().ValidateDurationAndRange(entry)

	assert.True(t, result.IsValid())
	assert.True(t, hasMessage(result.Warnings, "without a recorded break"))
}

func TestValidator_CustomRules(t *testing.T) {
	rules := NewValidator().Rules()
	rules.DurationToleranceMinutes = 5
	v := NewValidatorWithRules(rules)

	entry := validEntry()
	entry.Duration = 176

	assert.True(t, v.ValidateDurationAndRange(entry).IsValid())
	assert.False(t, NewValidator().ValidateDurationAndRange(entry).IsValid())
}

func TestValidateDurationAndRange_CalendarLocation(t *testing.T) {
	pacific := time.FixedZone("PST", -8*60*60)
	inPacific := NewValidatorWithCalendar(NewValidator().Rules(), zoneCalendar{loc: pacific})

	// 09:00-17:00 Pacific on 2024-01-15, recorded as UTC instants.
	entry := validEntry()
	entry.StartTime = clock("2024-01-15", 17, 0)
	entry.EndTime = clock("2024-01-16", 1, 0)
	entry.Duration = 480

	result := inPacific.ValidateDurationAndRange(entry)
	assert.True(t, result.IsValid(), "errors: %v", result.ErrorMessages())
	assert.False(t, hasMessage(result.Warnings, "typical working hours"))

	utc := NewValidator().ValidateDurationAndRange(entry)
	assert.True(t, hasMessage(utc.Errors, "Start and end time must be on the same day"))

	entry.Date = "2024-01-16"
	result = inPacific.ValidateDurationAndRange(entry)
	assert.True(t, hasMessage(result.Errors, "must fall on the entry date 2024-01-16"))
}
