package services

import (
	"context"
	stderrors "errors"
	"log/slog"

	"timesheet-engine/internal/config"
	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
	"timesheet-engine/internal/logging"
	"timesheet-engine/internal/repository/sqlite"
	"timesheet-engine/internal/validation"
)

// TimesheetService owns timesheet aggregation and the timesheet lifecycle.
// Transitions that affect entries (submit, approve, reject) carry the
// timesheet's entries along.
type TimesheetService struct {
	timesheets TimesheetStore
	entries    EntryStore
	validator  *validation.Validator
	calendar   *TimeService
	period     string
	log        *slog.Logger
}

// NewTimesheetService creates a TimesheetService. period is one of
// config.PeriodWeekly or config.PeriodMonthly.
func NewTimesheetService(timesheets TimesheetStore, entries EntryStore, validator *validation.Validator, calendar *TimeService, period string, logger *slog.Logger) *TimesheetService {
	if validator == nil {
		validator = defaultValidator(calendar)
	}
	if period == "" {
		period = config.PeriodWeekly
	}
	return &TimesheetService{
		timesheets: timesheets,
		entries:    entries,
		validator:  validator,
		calendar:   calendar,
		period:     period,
		log:        logging.OrDiscard(logger),
	}
}

// Get returns a timesheet by id.
func (s *TimesheetService) Get(ctx context.Context, tenantID, id string) (domain.Timesheet, error) {
	return s.timesheets.FindTimesheetByID(ctx, tenantID, id)
}

// ResolveForDate returns the employee's timesheet for the period containing
// date, creating a draft one when none exists yet.
func (s *TimesheetService) ResolveForDate(ctx context.Context, tenantID, employeeID, date string) (domain.Timesheet, error) {
	start, end, err := s.calendar.PeriodFor(date, s.period)
	if err != nil {
		return domain.Timesheet{}, err
	}

	ts, err := s.timesheets.FindTimesheetForPeriod(ctx, tenantID, employeeID, start)
	if err == nil {
		return ts, nil
	}
	if !errors.IsNotFound(err) {
		return domain.Timesheet{}, err
	}

	ts = domain.NewTimesheet(tenantID, employeeID, start, end)
	if err := s.timesheets.CreateTimesheet(ctx, &ts); err != nil {
		// Another caller created it first.
		if stderrors.Is(err, sqlite.ErrDuplicateTimesheet) {
			return s.timesheets.FindTimesheetForPeriod(ctx, tenantID, employeeID, start)
		}
		return domain.Timesheet{}, err
	}

	s.log.Info("timesheet created",
		"timesheet_id", ts.ID,
		"employee_id", employeeID,
		"period_start", start,
		"period_end", end)
	return ts, nil
}

// ResolveDraftForDate is ResolveForDate restricted to editable timesheets.
func (s *TimesheetService) ResolveDraftForDate(ctx context.Context, tenantID, employeeID, date string) (domain.Timesheet, error) {
	ts, err := s.ResolveForDate(ctx, tenantID, employeeID, date)
	if err != nil {
		return domain.Timesheet{}, err
	}
	if !ts.IsEditable() {
		return domain.Timesheet{}, errors.NewInvalidStateError("timesheet", string(ts.Status),
			"Entries can only be added to draft timesheets").
			WithContext("timesheet_id", ts.ID)
	}
	return ts, nil
}

// RecalculateTotals recomputes and stores the totals of a timesheet.
func (s *TimesheetService) RecalculateTotals(ctx context.Context, tenantID, id string) (domain.Timesheet, domain.Totals, error) {
	ts, err := s.timesheets.FindTimesheetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Timesheet{}, domain.Totals{}, err
	}
	entries, err := s.entries.FindEntriesByTimesheet(ctx, tenantID, id)
	if err != nil {
		return domain.Timesheet{}, domain.Totals{}, err
	}

	totals := domain.ComputeTotals(entries, s.validator.Rules().ProductiveMinMinutes)
	ts = ts.WithTotals(totals)
	if err := s.timesheets.UpdateTimesheet(ctx, &ts); err != nil {
		return domain.Timesheet{}, domain.Totals{}, err
	}
	return ts, totals, nil
}

// Check runs the completeness check against the stored totals.
func (s *TimesheetService) Check(ctx context.Context, tenantID, id string) (validation.Result, error) {
	ts, entries, err := s.load(ctx, tenantID, id)
	if err != nil {
		return validation.Result{}, err
	}
	return s.validator.CheckTimesheetCompleteness(ts, entries), nil
}

// Submit submits a draft timesheet together with its draft entries. A
// completeness error blocks the submission; warnings do not.
func (s *TimesheetService) Submit(ctx context.Context, tenantID, id string) (domain.Timesheet, validation.Result, error) {
	ts, entries, err := s.load(ctx, tenantID, id)
	if err != nil {
		return domain.Timesheet{}, validation.Result{}, err
	}

	submitted, err := ts.Submit(s.calendar.Now())
	if err != nil {
		return ts, validation.Result{}, err
	}

	check := s.validator.CheckTimesheetCompleteness(ts, entries)
	if !check.IsValid() {
		return ts, check, check.Err()
	}

	changed, err := transitionEntries(entries, domain.EntryStatusDraft, domain.TimeEntry.Submit)
	if err != nil {
		return ts, check, err
	}
	if err := s.timesheets.UpdateTimesheetWithEntries(ctx, &submitted, changed); err != nil {
		return ts, check, err
	}

	s.log.Info("timesheet submitted", "timesheet_id", id, "entries", len(entries))
	return submitted, check, nil
}

// Approve approves a submitted timesheet and its submitted entries.
func (s *TimesheetService) Approve(ctx context.Context, tenantID, id, approverID string) (domain.Timesheet, error) {
	ts, entries, err := s.load(ctx, tenantID, id)
	if err != nil {
		return domain.Timesheet{}, err
	}

	approved, err := ts.Approve(approverID, s.calendar.Now())
	if err != nil {
		return ts, err
	}
	changed, err := transitionEntries(entries, domain.EntryStatusSubmitted, domain.TimeEntry.Approve)
	if err != nil {
		return ts, err
	}
	if err := s.timesheets.UpdateTimesheetWithEntries(ctx, &approved, changed); err != nil {
		return ts, err
	}

	s.log.Info("timesheet approved", "timesheet_id", id, "approved_by", approverID)
	return approved, nil
}

// Reject returns a submitted timesheet to draft. Its submitted entries are
// rejected with the reason so they can be corrected.
func (s *TimesheetService) Reject(ctx context.Context, tenantID, id, reason string) (domain.Timesheet, error) {
	ts, entries, err := s.load(ctx, tenantID, id)
	if err != nil {
		return domain.Timesheet{}, err
	}

	rejected, err := ts.Reject()
	if err != nil {
		return ts, err
	}
	rejectEntry := func(e domain.TimeEntry) (domain.TimeEntry, error) { return e.Reject(reason) }
	changed, err := transitionEntries(entries, domain.EntryStatusSubmitted, rejectEntry)
	if err != nil {
		return ts, err
	}
	if err := s.timesheets.UpdateTimesheetWithEntries(ctx, &rejected, changed); err != nil {
		return ts, err
	}

	s.log.Info("timesheet rejected", "timesheet_id", id)
	return rejected, nil
}

// Lock freezes an approved timesheet.
func (s *TimesheetService) Lock(ctx context.Context, tenantID, id, lockedBy string) (domain.Timesheet, error) {
	ts, err := s.timesheets.FindTimesheetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Timesheet{}, err
	}
	locked, err := ts.Lock(lockedBy, s.calendar.Now())
	if err != nil {
		return ts, err
	}
	if err := s.timesheets.UpdateTimesheet(ctx, &locked); err != nil {
		return ts, err
	}
	s.log.Info("timesheet locked", "timesheet_id", id, "locked_by", lockedBy)
	return locked, nil
}

// Unlock returns a locked timesheet to approved.
func (s *TimesheetService) Unlock(ctx context.Context, tenantID, id string) (domain.Timesheet, error) {
	ts, err := s.timesheets.FindTimesheetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Timesheet{}, err
	}
	unlocked, err := ts.Unlock()
	if err != nil {
		return ts, err
	}
	if err := s.timesheets.UpdateTimesheet(ctx, &unlocked); err != nil {
		return ts, err
	}
	s.log.Info("timesheet unlocked", "timesheet_id", id)
	return unlocked, nil
}

// Delete removes a draft timesheet and all of its entries.
func (s *TimesheetService) Delete(ctx context.Context, tenantID, id string) (int, error) {
	ts, entries, err := s.load(ctx, tenantID, id)
	if err != nil {
		return 0, err
	}
	if !ts.IsDeletable() {
		return 0, errors.NewInvalidStateError("timesheet", string(ts.Status), "Only draft timesheets can be deleted")
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	deleted, err := s.entries.BatchDeleteEntries(ctx, tenantID, ids)
	if err != nil {
		return 0, err
	}
	if err := s.timesheets.DeleteTimesheet(ctx, tenantID, id); err != nil {
		return deleted, err
	}

	s.log.Info("timesheet deleted", "timesheet_id", id, "entries_deleted", deleted)
	return deleted, nil
}

func (s *TimesheetService) load(ctx context.Context, tenantID, id string) (domain.Timesheet, []domain.TimeEntry, error) {
	ts, err := s.timesheets.FindTimesheetByID(ctx, tenantID, id)
	if err != nil {
		return domain.Timesheet{}, nil, err
	}
	entries, err := s.entries.FindEntriesByTimesheet(ctx, tenantID, id)
	if err != nil {
		return domain.Timesheet{}, nil, err
	}
	return ts, entries, nil
}

// transitionEntries applies fn to every entry currently in from and
// returns the changed entries.
func transitionEntries(entries []domain.TimeEntry, from domain.EntryStatus, fn func(domain.TimeEntry) (domain.TimeEntry, error)) ([]domain.TimeEntry, error) {
	var changed []domain.TimeEntry
	for _, e := range entries {
		if e.Status != from {
			continue
		}
		next, err := fn(e)
		if err != nil {
			return nil, err
		}
		changed = append(changed, next)
	}
	return changed, nil
}
