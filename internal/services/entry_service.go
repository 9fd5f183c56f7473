package services

import (
	"context"
	"log/slog"

	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
	"timesheet-engine/internal/logging"
	"timesheet-engine/internal/validation"
)

// EntryService manages single time entries. Content changes go through the
// validation pipeline and keep the owning timesheet's totals current.
type EntryService struct {
	entries    EntryStore
	timesheets *TimesheetService
	validation *ValidationService
	log        *slog.Logger
}

// NewEntryService creates an EntryService
func NewEntryService(entries EntryStore, timesheets *TimesheetService, validation *ValidationService, logger *slog.Logger) *EntryService {
	return &EntryService{
		entries:    entries,
		timesheets: timesheets,
		validation: validation,
		log:        logging.OrDiscard(logger),
	}
}

// Get returns an entry by id.
func (s *EntryService) Get(ctx context.Context, tenantID, id string) (domain.TimeEntry, error) {
	return s.entries.FindEntryByID(ctx, tenantID, id)
}

// Search lists entries matching filter.
func (s *EntryService) Search(ctx context.Context, tenantID string, filter domain.EntryFilter) ([]domain.TimeEntry, error) {
	return s.entries.SearchEntries(ctx, tenantID, filter)
}

// Create validates and stores a new draft entry. Without a timesheet id the
// entry joins the employee's draft timesheet for its period.
func (s *EntryService) Create(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, validation.Result, error) {
	entry.ID = ""
	entry.Status = domain.EntryStatusDraft
	if entry.Metadata.Source == "" {
		entry.Metadata.Source = domain.SourceManual
	}
	entry = entry.NormalizeTags().WithComputedCost()

	result, err := s.validation.ValidateTimeEntry(ctx, entry)
	if err != nil {
		return entry, result, err
	}
	if !result.IsValid() {
		return entry, result, result.Err()
	}

	ts, err := s.timesheetFor(ctx, entry)
	if err != nil {
		return entry, result, err
	}
	entry.TimesheetID = ts.ID

	if err := s.entries.CreateEntry(ctx, &entry); err != nil {
		return entry, result, err
	}
	if _, _, err := s.timesheets.RecalculateTotals(ctx, entry.TenantID, ts.ID); err != nil {
		return entry, result, err
	}

	s.log.Info("time entry created",
		"entry_id", entry.ID,
		"employee_id", entry.EmployeeID,
		"date", entry.Date,
		"warnings", len(result.Warnings))
	return entry, result, nil
}

// Update replaces the content of an editable entry. Identity, owner,
// lifecycle state and provenance are kept from the stored entry.
func (s *EntryService) Update(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, validation.Result, error) {
	existing, err := s.entries.FindEntryByID(ctx, entry.TenantID, entry.ID)
	if err != nil {
		return entry, validation.Result{}, err
	}
	ts, err := s.editableTimesheet(ctx, existing)
	if err != nil {
		return existing, validation.Result{}, err
	}

	entry.EmployeeID = existing.EmployeeID
	entry.TimesheetID = existing.TimesheetID
	entry.Status = existing.Status
	entry.Metadata = existing.Metadata
	entry.CreatedAt = existing.CreatedAt
	entry = entry.NormalizeTags().WithComputedCost()

	if !ts.Contains(entry.Date) {
		return existing, validation.Result{}, errors.NewValidationError("Entry date must stay within the timesheet period", nil).
			WithContext("period_start", ts.PeriodStart).
			WithContext("period_end", ts.PeriodEnd)
	}

	result, err := s.validation.ValidateTimeEntry(ctx, entry)
	if err != nil {
		return existing, result, err
	}
	if !result.IsValid() {
		return existing, result, result.Err()
	}

	if err := s.entries.UpdateEntry(ctx, &entry); err != nil {
		return existing, result, err
	}
	if _, _, err := s.timesheets.RecalculateTotals(ctx, entry.TenantID, ts.ID); err != nil {
		return entry, result, err
	}

	s.log.Info("time entry updated", "entry_id", entry.ID)
	return entry, result, nil
}

// Delete removes an editable entry from a draft timesheet.
func (s *EntryService) Delete(ctx context.Context, tenantID, id string) error {
	existing, err := s.entries.FindEntryByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	ts, err := s.editableTimesheet(ctx, existing)
	if err != nil {
		return err
	}

	if err := s.entries.DeleteEntry(ctx, tenantID, id); err != nil {
		return err
	}
	if _, _, err := s.timesheets.RecalculateTotals(ctx, tenantID, ts.ID); err != nil {
		return err
	}

	s.log.Info("time entry deleted", "entry_id", id)
	return nil
}

// Submit moves a draft entry to submitted.
func (s *EntryService) Submit(ctx context.Context, tenantID, id string) (domain.TimeEntry, error) {
	return s.transition(ctx, tenantID, id, "submitted", domain.TimeEntry.Submit)
}

// Approve moves a submitted entry to approved.
func (s *EntryService) Approve(ctx context.Context, tenantID, id string) (domain.TimeEntry, error) {
	return s.transition(ctx, tenantID, id, "approved", domain.TimeEntry.Approve)
}

// Reject moves a submitted entry to rejected, recording the reason in the
// description.
func (s *EntryService) Reject(ctx context.Context, tenantID, id, reason string) (domain.TimeEntry, error) {
	return s.transition(ctx, tenantID, id, "rejected", func(e domain.TimeEntry) (domain.TimeEntry, error) {
		return e.Reject(reason)
	})
}

// ReturnToDraft reopens a rejected entry.
func (s *EntryService) ReturnToDraft(ctx context.Context, tenantID, id string) (domain.TimeEntry, error) {
	return s.transition(ctx, tenantID, id, "returned to draft", domain.TimeEntry.ReturnToDraft)
}

// DetectAnomalies tags unusual traits of a stored entry.
func (s *EntryService) DetectAnomalies(ctx context.Context, tenantID, id string) ([]string, error) {
	entry, err := s.entries.FindEntryByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.validation.DetectAnomalies(entry), nil
}

func (s *EntryService) transition(ctx context.Context, tenantID, id, verb string, fn func(domain.TimeEntry) (domain.TimeEntry, error)) (domain.TimeEntry, error) {
	entry, err := s.entries.FindEntryByID(ctx, tenantID, id)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	next, err := fn(entry)
	if err != nil {
		return entry, err
	}
	if err := s.entries.UpdateEntry(ctx, &next); err != nil {
		return entry, err
	}
	s.log.Info("time entry "+verb, "entry_id", id, "status", string(next.Status))
	return next, nil
}

// timesheetFor picks the timesheet a new entry belongs to.
func (s *EntryService) timesheetFor(ctx context.Context, entry domain.TimeEntry) (domain.Timesheet, error) {
	if entry.TimesheetID == "" {
		return s.timesheets.ResolveDraftForDate(ctx, entry.TenantID, entry.EmployeeID, entry.Date)
	}

	ts, err := s.timesheets.Get(ctx, entry.TenantID, entry.TimesheetID)
	if err != nil {
		return domain.Timesheet{}, err
	}
	switch {
	case ts.EmployeeID != entry.EmployeeID:
		return domain.Timesheet{}, errors.NewValidationError("Timesheet belongs to another employee", nil).
			WithContext("timesheet_id", ts.ID)
	case !ts.Contains(entry.Date):
		return domain.Timesheet{}, errors.NewValidationError("Entry date is outside the timesheet period", nil).
			WithContext("timesheet_id", ts.ID)
	case !ts.IsEditable():
		return domain.Timesheet{}, errors.NewInvalidStateError("timesheet", string(ts.Status),
			"Entries can only be added to draft timesheets")
	}
	return ts, nil
}

// editableTimesheet checks that both the entry and its timesheet may change.
func (s *EntryService) editableTimesheet(ctx context.Context, entry domain.TimeEntry) (domain.Timesheet, error) {
	if !entry.IsEditable() {
		return domain.Timesheet{}, errors.NewInvalidStateError("time entry", string(entry.Status),
			"Only draft or rejected entries can be changed")
	}
	ts, err := s.timesheets.Get(ctx, entry.TenantID, entry.TimesheetID)
	if err != nil {
		return domain.Timesheet{}, err
	}
	if !ts.IsEditable() {
		return domain.Timesheet{}, errors.NewInvalidStateError("timesheet", string(ts.Status),
			"Entries of a non-draft timesheet cannot be changed")
	}
	return ts, nil
}
