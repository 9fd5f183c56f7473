package services

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"timesheet-engine/internal/config"
	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/repository/sqlite"
)

const (
	testTenant   = "tenant-1"
	testEmployee = "emp-1"
)

type testEnv struct {
	repo     *sqlite.SQLiteRepository
	cfg      *config.Config
	services *ServiceContainer
}

func setupServices(t *testing.T) *testEnv {
	t.Helper()
	return setupServicesInZone(t, "UTC")
}

// setupServicesInZone runs the engine for a tenant whose calendar is timezone.
func setupServicesInZone(t *testing.T, timezone string) *testEnv {
	t.Helper()

	repo, err := sqlite.New(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	cfg := config.NewConfig()
	cfg.Application.Timezone = timezone

	return &testEnv{
		repo: repo,
		cfg:  cfg,
		services: NewServiceContainer(Dependencies{
			Entries:        repo,
			Timesheets:     repo,
			Catalog:        repo,
			Presence:       repo,
			PresenceWriter: repo,
			Config:         cfg,
			Clock:          fixedClock,
		}),
	}
}

// at returns the UTC instant hour:minute on date.
func at(date string, hour, minute int) time.Time {
	day, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func timedEntry(employeeID, date string, startH, startM, endH, endM int, description string) domain.TimeEntry {
	start, end := at(date, startH, startM), at(date, endH, endM)
	entry := domain.NewTimeEntry(testTenant, employeeID, date, int(end.Sub(start).Minutes()), description)
	entry.StartTime = &start
	entry.EndTime = &end
	return entry
}

// seedEntry stores an entry directly, bypassing validation.
func (env *testEnv) seedEntry(t *testing.T, entry domain.TimeEntry) domain.TimeEntry {
	t.Helper()
	if entry.TimesheetID == "" {
		entry.TimesheetID = "seeded"
	}
	require.NoError(t, env.repo.CreateEntry(context.Background(), &entry))
	return entry
}

// presenceRecord builds a presence day with whole-hour clock times and
// breaks given as start/end hour pairs.
func presenceRecord(employeeID, date string, clockIn, clockOut int, breaks ...[2]int) domain.PresenceEntry {
	in, out := at(date, clockIn, 0), at(date, clockOut, 0)
	p := domain.PresenceEntry{
		TenantID:     testTenant,
		EmployeeID:   employeeID,
		Date:         date,
		ClockInTime:  &in,
		ClockOutTime: &out,
		Status:       domain.PresencePresent,
	}
	for _, b := range breaks {
		p.Breaks = append(p.Breaks, domain.BreakEntry{
			StartTime: at(date, b[0], 0),
			EndTime:   at(date, b[1], 0),
		})
	}
	return p
}

func (env *testEnv) storePresence(t *testing.T, p domain.PresenceEntry) domain.PresenceEntry {
	t.Helper()
	require.NoError(t, env.repo.UpsertPresence(context.Background(), &p))
	return p
}

func ptr[T any](v T) *T {
	return &v
}
