package validation

import (
	"time"

	"timesheet-engine/internal/domain"
)

// Calendar places instants on the tenant's calendar days. The services
// TimeService is the production implementation.
type Calendar interface {
	Location() *time.Location
	SameDay(a, b time.Time) bool
	WorkingDays(from, to string) ([]string, error)
}

// zoneCalendar is the fallback used when no calendar is supplied.
type zoneCalendar struct {
	loc *time.Location
}

func (c zoneCalendar) Location() *time.Location {
	return c.loc
}

func (c zoneCalendar) SameDay(a, b time.Time) bool {
	return domain.FormatDate(a.In(c.loc)) == domain.FormatDate(b.In(c.loc))
}

func (c zoneCalendar) WorkingDays(from, to string) ([]string, error) {
	start, err := domain.ParseDate(from, c.loc)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseDate(to, c.loc)
	if err != nil {
		return nil, err
	}

	var days []string
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if !isWeekend(day) {
			days = append(days, domain.FormatDate(day))
		}
	}
	return days, nil
}
