package api

import (
	"context"
	"strings"
	"time"

	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
	"timesheet-engine/internal/services"
)

// BusinessAPI is the operation surface of the engine. Every call is scoped
// by tenant; the CLI and any other transport talk to the engine through it.
type BusinessAPI interface {
	// ========== Validation ==========

	// ValidateTimeEntry runs the full pipeline against a candidate entry
	// without storing it.
	ValidateTimeEntry(ctx context.Context, entry domain.TimeEntry) (*ValidationReport, error)

	// CheckOverlap lists the stored entries sharing time with [start, end).
	CheckOverlap(ctx context.Context, tenantID, employeeID, date string, start, end time.Time, excludeID string) (*OverlapReport, error)

	// ParseDay turns "2024-01-15", "yesterday" or "last monday" into a day.
	ParseDay(ctx context.Context, input string) (string, error)

	// ========== Time Entries ==========

	CreateEntry(ctx context.Context, entry domain.TimeEntry) (*EntryResult, error)
	UpdateEntry(ctx context.Context, entry domain.TimeEntry) (*EntryResult, error)
	DeleteEntry(ctx context.Context, tenantID, id string) error
	GetEntry(ctx context.Context, tenantID, id string) (*domain.TimeEntry, error)
	SearchEntries(ctx context.Context, tenantID string, filter domain.EntryFilter) ([]*domain.TimeEntry, error)

	SubmitEntry(ctx context.Context, tenantID, id string) (*domain.TimeEntry, error)
	ApproveEntry(ctx context.Context, tenantID, id string) (*domain.TimeEntry, error)
	RejectEntry(ctx context.Context, tenantID, id, reason string) (*domain.TimeEntry, error)
	ReturnEntryToDraft(ctx context.Context, tenantID, id string) (*domain.TimeEntry, error)

	// DetectAnomalies tags a stored entry with its deterministic anomaly checks.
	DetectAnomalies(ctx context.Context, tenantID, id string) (*AnomalyReport, error)

	// ========== Timesheets ==========

	GetTimesheet(ctx context.Context, tenantID, id string) (*domain.Timesheet, error)

	// TimesheetForDate returns the employee's timesheet for the period
	// containing date, opening a draft when none exists.
	TimesheetForDate(ctx context.Context, tenantID, employeeID, date string) (*domain.Timesheet, error)

	CheckTimesheet(ctx context.Context, tenantID, id string) (*TimesheetCheck, error)
	RecalculateTimesheet(ctx context.Context, tenantID, id string) (*TimesheetTotals, error)

	SubmitTimesheet(ctx context.Context, tenantID, id string) (*TimesheetCheck, error)
	ApproveTimesheet(ctx context.Context, tenantID, id, approverID string) (*domain.Timesheet, error)
	RejectTimesheet(ctx context.Context, tenantID, id, reason string) (*domain.Timesheet, error)
	LockTimesheet(ctx context.Context, tenantID, id, lockedBy string) (*domain.Timesheet, error)
	UnlockTimesheet(ctx context.Context, tenantID, id string) (*domain.Timesheet, error)
	DeleteTimesheet(ctx context.Context, tenantID, id string) (*DeleteResult, error)

	// ========== Presence & Reconciliation ==========

	ConvertPresenceToEntries(ctx context.Context, tenantID, presenceEntryID string) (*ConversionResult, error)
	ImportPresence(ctx context.Context, records []domain.PresenceEntry) (*ImportResult, error)
	Reconcile(ctx context.Context, tenantID, employeeID, date string) (*services.ReconciliationReport, error)

	// SyncPresenceRange processes one page of presence records. A zero
	// limit uses the configured page size.
	SyncPresenceRange(ctx context.Context, tenantID, from, to string, limit, offset int) (*services.SyncResult, error)

	// ========== Maintenance ==========

	DatabaseStatus(ctx context.Context) (*DatabaseStatus, error)
}

// businessAPIImpl implements the BusinessAPI interface
type businessAPIImpl struct {
	svc    *services.ServiceContainer
	status StatusReporter
}

// NewBusinessAPI creates a new BusinessAPI over the given services. status
// may be nil when the store has no migrations to report.
func NewBusinessAPI(svc *services.ServiceContainer, status StatusReporter) BusinessAPI {
	return &businessAPIImpl{
		svc:    svc,
		status: status,
	}
}

// ========== Validation ==========

func (b *businessAPIImpl) ValidateTimeEntry(ctx context.Context, entry domain.TimeEntry) (*ValidationReport, error) {
	result, err := b.svc.Validation.ValidateTimeEntry(ctx, entry.NormalizeTags())
	if err != nil {
		return nil, err
	}
	return newValidationReport(result), nil
}

func (b *businessAPIImpl) CheckOverlap(ctx context.Context, tenantID, employeeID, date string, start, end time.Time, excludeID string) (*OverlapReport, error) {
	if err := requireIDs("tenant_id", tenantID, "employee_id", employeeID); err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, errors.NewInvalidInputError("end", end, "must be after start")
	}

	conflicts, err := b.svc.Validation.CheckOverlap(ctx, tenantID, employeeID, date, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	if conflicts == nil {
		conflicts = []domain.ConflictInfo{}
	}
	return &OverlapReport{HasOverlap: len(conflicts) > 0, Conflicts: conflicts}, nil
}

func (b *businessAPIImpl) ParseDay(ctx context.Context, input string) (string, error) {
	return b.svc.Time.ParseDay(input)
}

// ========== Time Entries ==========

func (b *businessAPIImpl) CreateEntry(ctx context.Context, entry domain.TimeEntry) (*EntryResult, error) {
	if err := requireIDs("tenant_id", entry.TenantID, "employee_id", entry.EmployeeID); err != nil {
		return nil, err
	}

	created, result, err := b.svc.Entries.Create(ctx, entry)
	if err != nil {
		return nil, err
	}
	return &EntryResult{Entry: &created, Validation: newValidationReport(result)}, nil
}

func (b *businessAPIImpl) UpdateEntry(ctx context.Context, entry domain.TimeEntry) (*EntryResult, error) {
	if err := requireIDs("tenant_id", entry.TenantID, "id", entry.ID); err != nil {
		return nil, err
	}

	updated, result, err := b.svc.Entries.Update(ctx, entry)
	if err != nil {
		return nil, err
	}
	return &EntryResult{Entry: &updated, Validation: newValidationReport(result)}, nil
}

func (b *businessAPIImpl) DeleteEntry(ctx context.Context, tenantID, id string) error {
	if err := requireIDs("tenant_id", tenantID, "id", id); err != nil {
		return err
	}
	return b.svc.Entries.Delete(ctx, tenantID, id)
}

func (b *businessAPIImpl) GetEntry(ctx context.Context, tenantID, id string) (*domain.TimeEntry, error) {
	return b.entryCall(tenantID, id, func() (domain.TimeEntry, error) {
		return b.svc.Entries.Get(ctx, tenantID, id)
	})
}

func (b *businessAPIImpl) SearchEntries(ctx context.Context, tenantID string, filter domain.EntryFilter) ([]*domain.TimeEntry, error) {
	if err := requireIDs("tenant_id", tenantID); err != nil {
		return nil, err
	}
	if filter.Limit < 0 {
		return nil, errors.NewInvalidInputError("limit", filter.Limit, "cannot be negative")
	}
	if filter.Offset < 0 {
		return nil, errors.NewInvalidInputError("offset", filter.Offset, "cannot be negative")
	}

	entries, err := b.svc.Entries.Search(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	return entryPtrs(entries), nil
}

func (b *businessAPIImpl) SubmitEntry(ctx context.Context, tenantID, id string) (*domain.TimeEntry, error) {
	return b.entryCall(tenantID, id, func() (domain.TimeEntry, error) {
		return b.svc.Entries.Submit(ctx, tenantID, id)
	})
}

func (b *businessAPIImpl) ApproveEntry(ctx context.Context, tenantID, id string) (*domain.TimeEntry, error) {
	return b.entryCall(tenantID, id, func() (domain.TimeEntry, error) {
		return b.svc.Entries.Approve(ctx, tenantID, id)
	})
}

func (b *businessAPIImpl) RejectEntry(ctx context.Context, tenantID, id, reason string) (*domain.TimeEntry, error) {
	return b.entryCall(tenantID, id, func() (domain.TimeEntry, error) {
		return b.svc.Entries.Reject(ctx, tenantID, id, strings.TrimSpace(reason))
	})
}

func (b *businessAPIImpl) ReturnEntryToDraft(ctx context.Context, tenantID, id string) (*domain.TimeEntry, error) {
	return b.entryCall(tenantID, id, func() (domain.TimeEntry, error) {
		return b.svc.Entries.ReturnToDraft(ctx, tenantID, id)
	})
}

func (b *businessAPIImpl) DetectAnomalies(ctx context.Context, tenantID, id string) (*AnomalyReport, error) {
	if err := requireIDs("tenant_id", tenantID, "id", id); err != nil {
		return nil, err
	}

	tags, err := b.svc.Entries.DetectAnomalies(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return &AnomalyReport{EntryID: id, Anomalies: tags}, nil
}

// ========== Timesheets ==========

func (b *businessAPIImpl) GetTimesheet(ctx context.Context, tenantID, id string) (*domain.Timesheet, error) {
	return b.timesheetCall(tenantID, id, func() (domain.Timesheet, error) {
		return b.svc.Timesheets.Get(ctx, tenantID, id)
	})
}

func (b *businessAPIImpl) TimesheetForDate(ctx context.Context, tenantID, employeeID, date string) (*domain.Timesheet, error) {
	if err := requireIDs("tenant_id", tenantID, "employee_id", employeeID); err != nil {
		return nil, err
	}

	ts, err := b.svc.Timesheets.ResolveForDate(ctx, tenantID, employeeID, date)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (b *businessAPIImpl) CheckTimesheet(ctx context.Context, tenantID, id string) (*TimesheetCheck, error) {
	ts, err := b.GetTimesheet(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	result, err := b.svc.Timesheets.Check(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &TimesheetCheck{Timesheet: ts, Validation: newValidationReport(result)}, nil
}

func (b *businessAPIImpl) RecalculateTimesheet(ctx context.Context, tenantID, id string) (*TimesheetTotals, error) {
	if err := requireIDs("tenant_id", tenantID, "id", id); err != nil {
		return nil, err
	}

	ts, totals, err := b.svc.Timesheets.RecalculateTotals(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &TimesheetTotals{Timesheet: &ts, Totals: totals}, nil
}

func (b *businessAPIImpl) SubmitTimesheet(ctx context.Context, tenantID, id string) (*TimesheetCheck, error) {
	if err := requireIDs("tenant_id", tenantID, "id", id); err != nil {
		return nil, err
	}

	ts, result, err := b.svc.Timesheets.Submit(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &TimesheetCheck{Timesheet: &ts, Validation: newValidationReport(result)}, nil
}

func (b *businessAPIImpl) ApproveTimesheet(ctx context.Context, tenantID, id, approverID string) (*domain.Timesheet, error) {
	if strings.TrimSpace(approverID) == "" {
		return nil, errors.NewInvalidInputError("approver_id", approverID, "cannot be empty")
	}
	return b.timesheetCall(tenantID, id, func() (domain.Timesheet, error) {
		return b.svc.Timesheets.Approve(ctx, tenantID, id, approverID)
	})
}

func (b *businessAPIImpl) RejectTimesheet(ctx context.Context, tenantID, id, reason string) (*domain.Timesheet, error) {
	return b.timesheetCall(tenantID, id, func() (domain.Timesheet, error) {
		return b.svc.Timesheets.Reject(ctx, tenantID, id, strings.TrimSpace(reason))
	})
}

func (b *businessAPIImpl) LockTimesheet(ctx context.Context, tenantID, id, lockedBy string) (*domain.Timesheet, error) {
	if strings.TrimSpace(lockedBy) == "" {
		return nil, errors.NewInvalidInputError("locked_by", lockedBy, "cannot be empty")
	}
	return b.timesheetCall(tenantID, id, func() (domain.Timesheet, error) {
		return b.svc.Timesheets.Lock(ctx, tenantID, id, lockedBy)
	})
}

func (b *businessAPIImpl) UnlockTimesheet(ctx context.Context, tenantID, id string) (*domain.Timesheet, error) {
	return b.timesheetCall(tenantID, id, func() (domain.Timesheet, error) {
		return b.svc.Timesheets.Unlock(ctx, tenantID, id)
	})
}

func (b *businessAPIImpl) DeleteTimesheet(ctx context.Context, tenantID, id string) (*DeleteResult, error) {
	if err := requireIDs("tenant_id", tenantID, "id", id); err != nil {
		return nil, err
	}

	deleted, err := b.svc.Timesheets.Delete(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &DeleteResult{TimesheetID: id, DeletedEntries: deleted}, nil
}

// ========== Presence & Reconciliation ==========

func (b *businessAPIImpl) ConvertPresenceToEntries(ctx context.Context, tenantID, presenceEntryID string) (*ConversionResult, error) {
	if err := requireIDs("tenant_id", tenantID, "presence_entry_id", presenceEntryID); err != nil {
		return nil, err
	}

	entries, err := b.svc.Presence.ConvertPresenceByID(ctx, tenantID, presenceEntryID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, e := range entries {
		total += e.Duration
	}
	return &ConversionResult{
		PresenceEntryID: presenceEntryID,
		Entries:         entryPtrs(entries),
		TotalMinutes:    total,
		Duration:        b.svc.Time.FormatDuration(total),
	}, nil
}

func (b *businessAPIImpl) ImportPresence(ctx context.Context, records []domain.PresenceEntry) (*ImportResult, error) {
	if len(records) == 0 {
		return nil, errors.NewInvalidInputError("records", 0, "no presence records to import")
	}

	stored, err := b.svc.Presence.ImportPresence(ctx, records)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.PresenceEntry, len(stored))
	for i := range stored {
		out[i] = &stored[i]
	}
	return &ImportResult{Imported: len(out), Records: out}, nil
}

func (b *businessAPIImpl) Reconcile(ctx context.Context, tenantID, employeeID, date string) (*services.ReconciliationReport, error) {
	if err := requireIDs("tenant_id", tenantID, "employee_id", employeeID); err != nil {
		return nil, err
	}

	report, err := b.svc.Reconciliation.Reconcile(ctx, tenantID, employeeID, date)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (b *businessAPIImpl) SyncPresenceRange(ctx context.Context, tenantID, from, to string, limit, offset int) (*services.SyncResult, error) {
	if err := requireIDs("tenant_id", tenantID); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, errors.NewInvalidInputError("limit", limit, "cannot be negative")
	}
	if offset < 0 {
		return nil, errors.NewInvalidInputError("offset", offset, "cannot be negative")
	}

	result, err := b.svc.Reconciliation.SyncPresenceRange(ctx, tenantID, from, to, limit, offset)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ========== Maintenance ==========

func (b *businessAPIImpl) DatabaseStatus(ctx context.Context) (*DatabaseStatus, error) {
	if b.status == nil {
		return nil, errors.NewUnavailableError("migration status", nil)
	}

	status, err := b.status.MigrationStatus()
	if err != nil {
		return nil, err
	}
	return &DatabaseStatus{
		CurrentVersion: status.CurrentVersion,
		LatestVersion:  status.LatestVersion,
		Dirty:          status.Dirty,
		Pending:        status.Pending,
	}, nil
}

func (b *businessAPIImpl) entryCall(tenantID, id string, fn func() (domain.TimeEntry, error)) (*domain.TimeEntry, error) {
	if err := requireIDs("tenant_id", tenantID, "id", id); err != nil {
		return nil, err
	}
	entry, err := fn()
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (b *businessAPIImpl) timesheetCall(tenantID, id string, fn func() (domain.Timesheet, error)) (*domain.Timesheet, error) {
	if err := requireIDs("tenant_id", tenantID, "id", id); err != nil {
		return nil, err
	}
	ts, err := fn()
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// requireIDs takes field/value pairs and rejects the first blank value.
func requireIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return errors.NewInvalidInputError(pairs[i], pairs[i+1], "cannot be empty")
		}
	}
	return nil
}
