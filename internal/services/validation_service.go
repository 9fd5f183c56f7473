package services

import (
	"context"
	"log/slog"
	"time"

	"timesheet-engine/internal/config"
	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
	"timesheet-engine/internal/logging"
	"timesheet-engine/internal/validation"
)

// ValidationService runs the full entry pipeline: field and range checks,
// overlap detection against stored entries, catalog eligibility, weekly
// overtime, billing consistency and the weekend rule.
type ValidationService struct {
	entries   EntryStore
	catalog   CatalogLookup
	validator *validation.Validator
	calendar  *TimeService
	log       *slog.Logger
}

// NewValidationService creates a ValidationService
func NewValidationService(entries EntryStore, catalog CatalogLookup, validator *validation.Validator, calendar *TimeService, logger *slog.Logger) *ValidationService {
	if validator == nil {
		validator = defaultValidator(calendar)
	}
	return &ValidationService{
		entries:   entries,
		catalog:   catalog,
		validator: validator,
		calendar:  calendar,
		log:       logging.OrDiscard(logger),
	}
}

// Validator exposes the rule set the service applies.
func (s *ValidationService) Validator() *validation.Validator {
	return s.validator
}

// ValidateTimeEntry validates a candidate entry. Blocking findings end up in
// Result.Errors; the returned error is reserved for collaborator failures.
func (s *ValidationService) ValidateTimeEntry(ctx context.Context, entry domain.TimeEntry) (validation.Result, error) {
	result := s.validator.ValidateEntry(entry)

	// Checks below need a parseable day and an owner.
	if _, err := domain.ParseDate(entry.Date, s.calendar.Location()); err != nil || entry.EmployeeID == "" || entry.TenantID == "" {
		result.Merge(s.validator.CheckBillable(entry))
		return result, nil
	}

	if entry.HasTimes() {
		conflicts, err := s.CheckOverlap(ctx, entry.TenantID, entry.EmployeeID, entry.Date, *entry.StartTime, *entry.EndTime, entry.ID)
		if err != nil {
			return result, err
		}
		result.Merge(validation.ConflictResult(conflicts))
	}

	project, activity, err := s.lookupCatalog(ctx, entry)
	if err != nil {
		return result, err
	}
	result.Merge(s.validator.CheckProjectEligibility(entry, project, activity))

	weekStart, weekEnd, err := s.calendar.WeekRange(entry.Date)
	if err != nil {
		return result, err
	}
	weekEntries, err := s.entries.FindEntriesByEmployeeAndDateRange(ctx, entry.TenantID, entry.EmployeeID, weekStart, weekEnd)
	if err != nil {
		return result, err
	}
	result.Merge(s.validator.CheckOvertime(entry, weekEntries))

	result.Merge(s.validator.CheckBillable(entry))
	result.Merge(s.validator.CheckWeekend(entry))

	if !result.IsValid() {
		s.log.Debug("entry failed validation",
			"employee_id", entry.EmployeeID,
			"date", entry.Date,
			"errors", result.ErrorMessages())
	}
	return result, nil
}

// CheckOverlap lists the stored entries of the employee's day that share
// wall-clock time with [start, end). excludeID skips the entry being edited.
func (s *ValidationService) CheckOverlap(ctx context.Context, tenantID, employeeID, date string, start, end time.Time, excludeID string) ([]domain.ConflictInfo, error) {
	existing, err := s.entries.FindEntriesByEmployeeAndDateRange(ctx, tenantID, employeeID, date, date)
	if err != nil {
		return nil, err
	}
	return validation.FindOverlaps(start, end, existing, excludeID), nil
}

// DetectAnomalies tags unusual traits of the entry.
func (s *ValidationService) DetectAnomalies(entry domain.TimeEntry) []string {
	return s.validator.DetectAnomalies(entry)
}

// lookupCatalog resolves the referenced project and activity code. An
// unknown id yields nil so the eligibility check reports it; any other
// failure means the catalog could not be consulted.
func (s *ValidationService) lookupCatalog(ctx context.Context, entry domain.TimeEntry) (*domain.Project, *domain.ActivityCode, error) {
	var project *domain.Project
	var activity *domain.ActivityCode

	if entry.ProjectID != nil {
		p, err := s.catalog.GetProject(ctx, entry.TenantID, *entry.ProjectID)
		switch {
		case err == nil:
			project = &p
		case !errors.IsNotFound(err):
			return nil, nil, catalogUnavailable(err)
		}
	}

	if entry.ActivityCodeID != nil {
		a, err := s.catalog.GetActivityCode(ctx, entry.TenantID, *entry.ActivityCodeID)
		switch {
		case err == nil:
			activity = &a
		case !errors.IsNotFound(err):
			return nil, nil, catalogUnavailable(err)
		}
	}

	return project, activity, nil
}

// defaultValidator runs the stock rules in the calendar's location.
func defaultValidator(calendar *TimeService) *validation.Validator {
	if calendar == nil {
		return validation.NewValidator()
	}
	return validation.NewValidatorWithCalendar(config.DefaultRules(), calendar)
}

func catalogUnavailable(err error) error {
	if errors.IsErrorType(err, errors.ErrorTypeUnavailable) || errors.IsErrorType(err, errors.ErrorTypeTimeout) {
		return err
	}
	return errors.NewUnavailableError("catalog lookup", err)
}
