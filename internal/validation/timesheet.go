package validation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"timesheet-engine/internal/domain"
)

// Anomaly tags returned by DetectAnomalies.
const (
	AnomalyExcessiveDuration = "excessive_duration"
	AnomalyVeryShortDuration = "very_short_duration"
	AnomalyUnusualHours      = "unusual_hours"
	AnomalyHighRate          = "high_rate"
	AnomalyLowRate           = "low_rate"
	AnomalyShortDescription  = "short_description"
	AnomalyWeekendWork       = "weekend_work"
)

// CheckTimesheetCompleteness looks for missing weekdays, unusually light or
// heavy days and stored totals that no longer match the entries.
func (v *Validator) CheckTimesheetCompleteness(ts domain.Timesheet, entries []domain.TimeEntry) Result {
	var result Result

	minutesByDay := make(map[string]int)
	for _, e := range entries {
		minutesByDay[e.Date] += e.Duration
	}

	start, errStart := domain.ParseDate(ts.PeriodStart, time.UTC)
	end, errEnd := domain.ParseDate(ts.PeriodEnd, time.UTC)
	if errStart != nil || errEnd != nil || end.Before(start) {
		result.AddError("period", ErrorTypeInvalidRange, "Timesheet period is invalid", ts.PeriodStart+".."+ts.PeriodEnd)
		return result
	}

	workdays, err := v.calendar.WorkingDays(ts.PeriodStart, ts.PeriodEnd)
	if err != nil {
		result.AddError("period", ErrorTypeInvalidRange, "Timesheet period is invalid", ts.PeriodStart+".."+ts.PeriodEnd)
		return result
	}
	for _, date := range workdays {
		if _, recorded := minutesByDay[date]; recorded {
			continue
		}
		day, _ := domain.ParseDate(date, time.UTC)
		result.AddWarning("entries", ErrorTypeRequired,
			fmt.Sprintf("No time recorded on %s %s", day.Weekday(), date), date)
	}

	days := make([]string, 0, len(minutesByDay))
	for date := range minutesByDay {
		if date >= ts.PeriodStart && date <= ts.PeriodEnd {
			days = append(days, date)
		}
	}
	sort.Strings(days)
	for _, date := range days {
		hours := float64(minutesByDay[date]) / 60
		if hours < v.rules.MinDailyHours {
			result.AddWarning("entries", ErrorTypeInvalidRange,
				fmt.Sprintf("Only %.2fh recorded on %s", hours, date), hours)
		} else if hours > v.rules.MaxDailyHours {
			result.AddWarning("entries", ErrorTypeInvalidRange,
				fmt.Sprintf("%.2fh recorded on %s exceeds %.0fh", hours, date, v.rules.MaxDailyHours), hours)
		}
	}

	totals := domain.ComputeTotals(entries, v.rules.ProductiveMinMinutes)
	if math.Abs(totals.Hours-ts.TotalHours) > v.rules.TotalsTolerance {
		result.AddError("total_hours", ErrorTypeInvalidValue,
			fmt.Sprintf("Stored total hours %.2fh do not match entries (%.2fh)", ts.TotalHours, totals.Hours), ts.TotalHours)
	}
	if math.Abs(totals.BillableHours-ts.TotalBillableHours) > v.rules.TotalsTolerance {
		result.AddError("total_billable_hours", ErrorTypeInvalidValue,
			fmt.Sprintf("Stored billable hours %.2fh do not match entries (%.2fh)", ts.TotalBillableHours, totals.BillableHours), ts.TotalBillableHours)
	}

	return result
}

// DetectAnomalies tags unusual traits of a single entry. The tags never
// block anything.
func (v *Validator) DetectAnomalies(entry domain.TimeEntry) []string {
	var tags []string

	if entry.Hours() > v.rules.DailyMaxHours {
		tags = append(tags, AnomalyExcessiveDuration)
	}
	if entry.Duration < v.rules.MinEntryMinutes {
		tags = append(tags, AnomalyVeryShortDuration)
	}
	if entry.StartTime != nil {
		hour := v.local(*entry.StartTime).Hour()
		if hour < v.rules.UnusualStartBeforeHour || hour > v.rules.UnusualStartAfterHour {
			tags = append(tags, AnomalyUnusualHours)
		}
	}
	if entry.HourlyRate != nil {
		if *entry.HourlyRate > v.rules.MaxHourlyRate {
			tags = append(tags, AnomalyHighRate)
		} else if *entry.HourlyRate < v.rules.MinHourlyRate {
			tags = append(tags, AnomalyLowRate)
		}
	}
	if utf8.RuneCountInString(strings.TrimSpace(entry.Description)) < v.rules.ShortDescriptionLength {
		tags = append(tags, AnomalyShortDescription)
	}
	if day, err := domain.ParseDate(entry.Date, time.UTC); err == nil && isWeekend(day) {
		tags = append(tags, AnomalyWeekendWork)
	}

	return tags
}
