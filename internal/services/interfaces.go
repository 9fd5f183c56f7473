package services

import (
	"context"
	"log/slog"
	"time"

	"timesheet-engine/internal/config"
	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/validation"
)

// EntryStore persists time entries. Every call is scoped by tenant.
type EntryStore interface {
	FindEntryByID(ctx context.Context, tenantID, id string) (domain.TimeEntry, error)
	FindEntriesByEmployeeAndDateRange(ctx context.Context, tenantID, employeeID, from, to string) ([]domain.TimeEntry, error)
	FindEntriesByTimesheet(ctx context.Context, tenantID, timesheetID string) ([]domain.TimeEntry, error)
	FindEntriesByPresenceEntry(ctx context.Context, tenantID, presenceEntryID string) ([]domain.TimeEntry, error)
	SearchEntries(ctx context.Context, tenantID string, filter domain.EntryFilter) ([]domain.TimeEntry, error)
	CreateEntry(ctx context.Context, entry *domain.TimeEntry) error
	UpdateEntry(ctx context.Context, entry *domain.TimeEntry) error
	DeleteEntry(ctx context.Context, tenantID, id string) error
	BatchDeleteEntries(ctx context.Context, tenantID string, ids []string) (int, error)
}

// TimesheetStore persists timesheets. The store rejects a second timesheet
// for the same employee and period start.
type TimesheetStore interface {
	FindTimesheetByID(ctx context.Context, tenantID, id string) (domain.Timesheet, error)
	FindTimesheetForPeriod(ctx context.Context, tenantID, employeeID, periodStart string) (domain.Timesheet, error)
	CreateTimesheet(ctx context.Context, ts *domain.Timesheet) error
	UpdateTimesheet(ctx context.Context, ts *domain.Timesheet) error
	UpdateTimesheetWithEntries(ctx context.Context, ts *domain.Timesheet, entries []domain.TimeEntry) error
	DeleteTimesheet(ctx context.Context, tenantID, id string) error
}

// PresenceSource is the read-only view of clock-in/clock-out records.
type PresenceSource interface {
	FindPresenceByID(ctx context.Context, tenantID, id string) (domain.PresenceEntry, error)
	FindPresenceByEmployeeAndDate(ctx context.Context, tenantID, employeeID, date string) (domain.PresenceEntry, error)
	FindPresenceByTenantAndDateRange(ctx context.Context, tenantID, from, to string, limit, offset int) ([]domain.PresenceEntry, error)
}

// PresenceWriter loads presence records into a local presence store.
type PresenceWriter interface {
	UpsertPresence(ctx context.Context, p *domain.PresenceEntry) error
}

// CatalogLookup resolves the projects and activity codes entries refer to.
type CatalogLookup interface {
	GetProject(ctx context.Context, tenantID, id string) (domain.Project, error)
	GetActivityCode(ctx context.Context, tenantID, id string) (domain.ActivityCode, error)
}

// Clock returns the current time.
type Clock func() time.Time

// ServiceContainer wires the engine's services together
type ServiceContainer struct {
	Time           *TimeService
	Validation     *ValidationService
	Timesheets     *TimesheetService
	Entries        *EntryService
	Presence       *PresenceService
	Reconciliation *ReconciliationService
}

// Dependencies are the collaborators the services are built from.
// PresenceWriter may be nil; Clock defaults to time.Now.
type Dependencies struct {
	Entries        EntryStore
	Timesheets     TimesheetStore
	Catalog        CatalogLookup
	Presence       PresenceSource
	PresenceWriter PresenceWriter
	Config         *config.Config
	Clock          Clock
	Logger         *slog.Logger
}

// NewServiceContainer builds every service from deps.
func NewServiceContainer(deps Dependencies) *ServiceContainer {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}

	calendar := NewTimeServiceWithClock(cfg.Location(), deps.Clock)
	validator := validation.NewValidatorWithCalendar(cfg.Rules, calendar)

	validationSvc := NewValidationService(deps.Entries, deps.Catalog, validator, calendar, deps.Logger)
	timesheets := NewTimesheetService(deps.Timesheets, deps.Entries, validator, calendar, cfg.Timesheet.Period, deps.Logger)
	entries := NewEntryService(deps.Entries, timesheets, validationSvc, deps.Logger)
	presence := NewPresenceService(deps.Presence, deps.PresenceWriter, deps.Entries, timesheets, validationSvc, calendar, deps.Logger)
	reconciliation := NewReconciliationService(deps.Presence, deps.Entries, timesheets, presence, calendar, cfg.Rules, cfg.Sync, deps.Logger)

	return &ServiceContainer{
		Time:           calendar,
		Validation:     validationSvc,
		Timesheets:     timesheets,
		Entries:        entries,
		Presence:       presence,
		Reconciliation: reconciliation,
	}
}
