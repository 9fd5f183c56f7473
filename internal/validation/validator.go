package validation

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"timesheet-engine/internal/config"
	"timesheet-engine/internal/domain"
)

// Validator applies the entry rules. It holds a copy of the thresholds
// and is safe for concurrent use. Instants are placed on calendar days and
// hours in the calendar's location.
type Validator struct {
	rules    config.RulesConfig
	calendar Calendar
}

// NewValidator creates a validator with the stock thresholds on a UTC calendar
func NewValidator() *Validator {
	return NewValidatorWithRules(config.DefaultRules())
}

// NewValidatorWithRules creates a validator with the given thresholds on a
// UTC calendar
func NewValidatorWithRules(rules config.RulesConfig) *Validator {
	return NewValidatorWithCalendar(rules, nil)
}

// NewValidatorWithCalendar creates a validator that reads days and hours
// through calendar. A nil calendar means UTC.
func NewValidatorWithCalendar(rules config.RulesConfig, calendar Calendar) *Validator {
	if calendar == nil {
		calendar = zoneCalendar{loc: time.UTC}
	}
	return &Validator{rules: rules, calendar: calendar}
}

// Rules returns the thresholds in use.
func (v *Validator) Rules() config.RulesConfig {
	return v.rules
}

// ValidateEntry runs the field and duration/range checks.
func (v *Validator) ValidateEntry(entry domain.TimeEntry) Result {
	result := v.ValidateFields(entry)
	result.Merge(v.ValidateDurationAndRange(entry))
	return result
}

// ValidateFields checks the structural invariants of an entry.
func (v *Validator) ValidateFields(entry domain.TimeEntry) Result {
	var result Result

	if strings.TrimSpace(entry.TenantID) == "" {
		result.AddError("tenant_id", ErrorTypeRequired, "Tenant is required", nil)
	}
	if strings.TrimSpace(entry.EmployeeID) == "" {
		result.AddError("employee_id", ErrorTypeRequired, "Employee is required", nil)
	}

	if entry.Date == "" {
		result.AddError("date", ErrorTypeRequired, "Date is required", nil)
	} else if _, err := domain.ParseDate(entry.Date, time.UTC); err != nil {
		result.AddError("date", ErrorTypeInvalidFormat, "Date must be in YYYY-MM-DD format", entry.Date)
	}

	if entry.Duration <= 0 {
		result.AddError("duration", ErrorTypeInvalidValue, "Duration must be greater than 0", entry.Duration)
	} else if entry.Duration > v.rules.MaxDayMinutes {
		result.AddError("duration", ErrorTypeInvalidValue,
			fmt.Sprintf("Duration cannot exceed %d minutes", v.rules.MaxDayMinutes), entry.Duration)
	}

	description := strings.TrimSpace(entry.Description)
	if description == "" {
		result.AddError("description", ErrorTypeRequired, "Description is required", nil)
	} else if utf8.RuneCountInString(entry.Description) > v.rules.MaxDescriptionLength {
		result.AddError("description", ErrorTypeInvalidLength,
			fmt.Sprintf("Description must be at most %d characters", v.rules.MaxDescriptionLength), nil)
	}

	for _, tag := range entry.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			result.AddError("tags", ErrorTypeInvalidLength, "Tags cannot be empty", nil)
			continue
		}
		if utf8.RuneCountInString(tag) > v.rules.MaxTagLength {
			result.AddError("tags", ErrorTypeInvalidLength,
				fmt.Sprintf("Tag %q must be at most %d characters", tag, v.rules.MaxTagLength), tag)
		}
	}

	if entry.HourlyRate != nil && *entry.HourlyRate < 0 {
		result.AddError("hourly_rate", ErrorTypeInvalidValue, "Hourly rate cannot be negative", *entry.HourlyRate)
	}
	if entry.TotalCost != nil && *entry.TotalCost < 0 {
		result.AddError("total_cost", ErrorTypeInvalidValue, "Total cost cannot be negative", *entry.TotalCost)
	}

	return result
}

// ValidateDurationAndRange checks the duration bounds and, when both times
// are recorded, that they agree with the duration and the entry date.
func (v *Validator) ValidateDurationAndRange(entry domain.TimeEntry) Result {
	var result Result

	if entry.Duration > 0 {
		switch {
		case entry.Duration > v.rules.MaxEntryMinutes:
			result.AddError("duration", ErrorTypeInvalidRange,
				fmt.Sprintf("Entry duration cannot exceed %s", formatHours(v.rules.MaxEntryMinutes)), entry.Duration)
		case entry.Duration > v.rules.LongEntryMinutes:
			result.AddWarning("duration", ErrorTypeInvalidRange,
				fmt.Sprintf("Entry duration is very long (more than %s)", formatHours(v.rules.LongEntryMinutes)), entry.Duration)
		case entry.Duration < v.rules.MinEntryMinutes:
			result.AddWarning("duration", ErrorTypeInvalidRange,
				fmt.Sprintf("Entry duration is very short (less than %d minutes)", v.rules.MinEntryMinutes), entry.Duration)
		}
	}

	if !entry.HasTimes() {
		return result
	}
	start, end := *entry.StartTime, *entry.EndTime

	if !end.After(start) {
		result.AddError("end_time", ErrorTypeInvalidRange, "End time must be after start time", end)
		return result
	}

	if !v.calendar.SameDay(start, end) {
		result.AddError("end_time", ErrorTypeInvalidRange, "Start and end time must be on the same day", end)
	} else if v.localDate(start) != entry.Date {
		result.AddError("start_time", ErrorTypeInvalidRange,
			fmt.Sprintf("Start and end time must fall on the entry date %s", entry.Date), start)
	}

	computed := int(math.Round(end.Sub(start).Minutes()))
	if diff := computed - entry.Duration; diff > v.rules.DurationToleranceMinutes || -diff > v.rules.DurationToleranceMinutes {
		result.AddError("duration", ErrorTypeInvalidValue,
			fmt.Sprintf("Duration of %d minutes does not match start and end times (%d minutes)", entry.Duration, computed), entry.Duration)
	}

	if h := fractionalHour(v.local(start)); h < float64(v.rules.EarliestStartHour) || h > float64(v.rules.LatestStartHour) {
		result.AddWarning("start_time", ErrorTypeInvalidRange, "Start time is outside typical working hours", start)
	}
	if h := fractionalHour(v.local(end)); h < float64(v.rules.EarliestEndHour) || h > float64(v.rules.LatestEndHour) {
		result.AddWarning("end_time", ErrorTypeInvalidRange, "End time is outside typical working hours", end)
	}

	if end.Sub(start) > time.Duration(v.rules.BreakRequiredMinutes)*time.Minute {
		result.AddWarning("end_time", ErrorTypeBusinessRule,
			fmt.Sprintf("Work span exceeds %s without a recorded break", formatHours(v.rules.BreakRequiredMinutes)), nil)
	}

	return result
}

func (v *Validator) local(t time.Time) time.Time {
	return t.In(v.calendar.Location())
}

func (v *Validator) localDate(t time.Time) string {
	return domain.FormatDate(v.local(t))
}

func fractionalHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

func formatHours(minutes int) string {
	if minutes%60 == 0 {
		return fmt.Sprintf("%d hours", minutes/60)
	}
	return fmt.Sprintf("%.1f hours", float64(minutes)/60)
}
