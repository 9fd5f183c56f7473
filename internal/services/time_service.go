package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"

	"timesheet-engine/internal/config"
	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
	"timesheet-engine/internal/validation"
)

// TimeService is the clock and calendar collaborator. All calendar days are
// computed in its location.
type TimeService struct {
	now Clock
	loc *time.Location
}

var _ validation.Calendar = (*TimeService)(nil)

// NewTimeService creates a TimeService backed by the system clock
func NewTimeService(loc *time.Location) *TimeService {
	return NewTimeServiceWithClock(loc, time.Now)
}

// NewTimeServiceWithClock creates a TimeService with an injectable clock
func NewTimeServiceWithClock(loc *time.Location, now Clock) *TimeService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &TimeService{now: now, loc: loc}
}

// Location returns the calendar location
func (t *TimeService) Location() *time.Location {
	return t.loc
}

// Now returns the current time in the service location
func (t *TimeService) Now() time.Time {
	return t.now().In(t.loc)
}

// Today returns the current calendar day as YYYY-MM-DD
func (t *TimeService) Today() string {
	return domain.FormatDate(t.Now())
}

// SameDay reports whether both instants fall on the same calendar day
func (t *TimeService) SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.In(t.loc).Date()
	y2, m2, d2 := b.In(t.loc).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// WeekStart returns the Monday of the ISO week containing date
func (t *TimeService) WeekStart(date string) (string, error) {
	day, err := t.parseDate(date)
	if err != nil {
		return "", err
	}
	offset := (int(day.Weekday()) + 6) % 7
	return domain.FormatDate(day.AddDate(0, 0, -offset)), nil
}

// WeekRange returns the Monday and Sunday of the ISO week containing date
func (t *TimeService) WeekRange(date string) (string, string, error) {
	start, err := t.WeekStart(date)
	if err != nil {
		return "", "", err
	}
	day, _ := t.parseDate(start)
	return start, domain.FormatDate(day.AddDate(0, 0, 6)), nil
}

// PeriodFor returns the timesheet period containing date
func (t *TimeService) PeriodFor(date, period string) (string, string, error) {
	switch period {
	case config.PeriodWeekly:
		return t.WeekRange(date)
	case config.PeriodMonthly:
		day, err := t.parseDate(date)
		if err != nil {
			return "", "", err
		}
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, t.loc)
		return domain.FormatDate(first), domain.FormatDate(first.AddDate(0, 1, -1)), nil
	default:
		return "", "", errors.NewInvalidInputError("period", period, "must be weekly or monthly")
	}
}

// WorkingDays lists the weekdays in [from, to]
func (t *TimeService) WorkingDays(from, to string) ([]string, error) {
	start, err := t.parseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := t.parseDate(to)
	if err != nil {
		return nil, err
	}

	var days []string
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if day.Weekday() != time.Saturday && day.Weekday() != time.Sunday {
			days = append(days, domain.FormatDate(day))
		}
	}
	return days, nil
}

// ParseDay accepts YYYY-MM-DD or a natural expression such as "yesterday"
// or "last monday" and returns the calendar day it names.
func (t *TimeService) ParseDay(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.NewInvalidInputError("date", input, "cannot be empty")
	}
	if day, err := t.parseDate(input); err == nil {
		return domain.FormatDate(day), nil
	}

	parsed, err := naturaldate.Parse(input, t.Now(), naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return "", errors.NewInvalidInputError("date", input, "expected YYYY-MM-DD or a relative day")
	}
	return domain.FormatDate(parsed.In(t.loc)), nil
}

// FormatDuration formats minutes into a human-readable string
func (t *TimeService) FormatDuration(minutes int) string {
	if minutes < 0 {
		return "0h 0m"
	}

	hours := minutes / 60
	rest := minutes % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, rest)
	}
	return fmt.Sprintf("%dm", rest)
}

func (t *TimeService) parseDate(date string) (time.Time, error) {
	day, err := domain.ParseDate(date, t.loc)
	if err != nil {
		return time.Time{}, errors.NewInvalidInputError("date", date, "must be in YYYY-MM-DD format")
	}
	return day, nil
}
