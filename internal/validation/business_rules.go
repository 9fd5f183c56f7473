package validation

import (
	"fmt"
	"time"

	"timesheet-engine/internal/domain"
)

// CheckProjectEligibility verifies the entry's project and activity code.
// A nil project or activity means the referenced id was not found.
func (v *Validator) CheckProjectEligibility(entry domain.TimeEntry, project *domain.Project, activity *domain.ActivityCode) Result {
	var result Result

	if entry.ProjectID != nil {
		switch {
		case project == nil:
			result.AddError("project_id", ErrorTypeInvalidValue, "Project not found", *entry.ProjectID)
		default:
			if !project.IsActive() {
				result.AddError("project_id", ErrorTypeBusinessRule, "Project is not active", project.ID)
			}
			if !project.HasEmployee(entry.EmployeeID) {
				result.AddError("employee_id", ErrorTypeBusinessRule, "Employee is not assigned to this project", entry.EmployeeID)
			}
			if project.RequiresActivityCode && entry.ActivityCodeID == nil {
				result.AddError("activity_code_id", ErrorTypeRequired, "Activity code is required for this project", nil)
			}
		}
	}

	if entry.ActivityCodeID == nil {
		return result
	}
	if activity == nil {
		result.AddError("activity_code_id", ErrorTypeInvalidValue, "Activity code not found", *entry.ActivityCodeID)
		return result
	}
	if !activity.Active {
		result.AddError("activity_code_id", ErrorTypeBusinessRule, "Activity code is not active", activity.ID)
	}
	if entry.Billable && !activity.Billable {
		result.AddWarning("activity_code_id", ErrorTypeBusinessRule, "Billable entry uses a non-billable activity code", activity.ID)
	}
	if entry.ProjectID != nil && !activity.AppliesTo(*entry.ProjectID) {
		result.AddWarning("activity_code_id", ErrorTypeBusinessRule, "Activity code is not associated with this project", activity.ID)
	}

	return result
}

// CheckOvertime applies the weekly and daily hour caps. weekEntries are the
// employee's entries in the ISO week of the entry; the entry itself is
// skipped if present so edits are not double counted.
func (v *Validator) CheckOvertime(entry domain.TimeEntry, weekEntries []domain.TimeEntry) Result {
	var result Result

	total := entry.Hours()
	for _, e := range weekEntries {
		if entry.ID != "" && e.ID == entry.ID {
			continue
		}
		total += e.Hours()
	}

	switch {
	case total > v.rules.WeeklyMaxHours:
		result.AddError("duration", ErrorTypeBusinessRule,
			fmt.Sprintf("Weekly hours (%.1fh) exceed the maximum of %.0fh", total, v.rules.WeeklyMaxHours), total)
	case total > v.rules.WeeklyWarnHours:
		result.AddWarning("duration", ErrorTypeBusinessRule,
			fmt.Sprintf("Weekly hours (%.1fh) exceed the standard %.0fh", total, v.rules.WeeklyWarnHours), total)
	}

	if entry.Hours() > v.rules.DailyMaxHours {
		result.AddError("duration", ErrorTypeBusinessRule,
			fmt.Sprintf("Entry exceeds the daily maximum of %.0f hours", v.rules.DailyMaxHours), entry.Duration)
	}

	return result
}

// CheckBillable warns about rate and billable flag combinations that make
// the cost meaningless.
func (v *Validator) CheckBillable(entry domain.TimeEntry) Result {
	var result Result

	if entry.Billable && entry.HourlyRate == nil {
		result.AddWarning("hourly_rate", ErrorTypeBusinessRule, "Billable entry has no hourly rate; cost cannot be computed", nil)
	}
	if !entry.Billable && entry.HourlyRate != nil {
		result.AddWarning("hourly_rate", ErrorTypeBusinessRule, "Non-billable entry has an hourly rate", *entry.HourlyRate)
	}
	if entry.HourlyRate != nil {
		rate := *entry.HourlyRate
		if rate < v.rules.MinHourlyRate {
			result.AddWarning("hourly_rate", ErrorTypeInvalidRange,
				fmt.Sprintf("Hourly rate %.2f is unusually low", rate), rate)
		} else if rate > v.rules.MaxHourlyRate {
			result.AddWarning("hourly_rate", ErrorTypeInvalidRange,
				fmt.Sprintf("Hourly rate %.2f is unusually high", rate), rate)
		}
	}

	return result
}

// CheckWeekend warns when the entry date is a Saturday or Sunday.
func (v *Validator) CheckWeekend(entry domain.TimeEntry) Result {
	var result Result
	day, err := domain.ParseDate(entry.Date, time.UTC)
	if err != nil {
		return result
	}
	if isWeekend(day) {
		result.AddWarning("date", ErrorTypeBusinessRule, "Entry is recorded on a weekend", entry.Date)
	}
	return result
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}
