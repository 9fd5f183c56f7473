package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
	"timesheet-engine/internal/logging"
	"timesheet-engine/internal/presence"
)

// PresenceService turns presence records into draft time entries.
type PresenceService struct {
	source     PresenceSource
	writer     PresenceWriter
	entries    EntryStore
	timesheets *TimesheetService
	validation *ValidationService
	calendar   *TimeService
	log        *slog.Logger
}

// NewPresenceService creates a PresenceService. writer may be nil when the
// presence source is external and read-only.
func NewPresenceService(source PresenceSource, writer PresenceWriter, entries EntryStore, timesheets *TimesheetService, validation *ValidationService, calendar *TimeService, logger *slog.Logger) *PresenceService {
	return &PresenceService{
		source:     source,
		writer:     writer,
		entries:    entries,
		timesheets: timesheets,
		validation: validation,
		calendar:   calendar,
		log:        logging.OrDiscard(logger),
	}
}

// ConvertPresenceToEntries splits the presence span at its breaks and stores
// one billable draft entry per work interval. An interval that fails
// validation or persistence is logged and skipped; the others are kept.
func (s *PresenceService) ConvertPresenceToEntries(ctx context.Context, p domain.PresenceEntry) ([]domain.TimeEntry, error) {
	intervals, err := presence.SplitWorkIntervals(p)
	if err != nil {
		return nil, err
	}

	ts, err := s.timesheets.ResolveDraftForDate(ctx, p.TenantID, p.EmployeeID, p.Date)
	if err != nil {
		return nil, err
	}

	generatedAt := s.calendar.Now()
	created := make([]domain.TimeEntry, 0, len(intervals))
	for _, iv := range intervals {
		entry := s.entryFor(p, iv, ts.ID, generatedAt)
		log := s.log.With(
			"presence_entry_id", p.ID,
			"employee_id", p.EmployeeID,
			"interval", iv.Label(s.calendar.Location()))

		result, err := s.validation.ValidateTimeEntry(ctx, entry)
		if err != nil {
			if ctx.Err() != nil {
				return created, errors.FromContext("convert presence", ctx.Err())
			}
			log.Warn("skipping interval: validation unavailable", "error", err)
			continue
		}
		if !result.IsValid() {
			log.Warn("skipping interval: validation failed", "errors", strings.Join(result.ErrorMessages(), "; "))
			continue
		}

		if err := s.entries.CreateEntry(ctx, &entry); err != nil {
			if ctx.Err() != nil {
				return created, errors.FromContext("convert presence", ctx.Err())
			}
			log.Warn("skipping interval: store failed", "error", err)
			continue
		}
		created = append(created, entry)
	}

	if len(created) > 0 {
		if _, _, err := s.timesheets.RecalculateTotals(ctx, p.TenantID, ts.ID); err != nil {
			return created, err
		}
	}

	s.log.Info("presence converted",
		"presence_entry_id", p.ID,
		"intervals", len(intervals),
		"entries_created", len(created))
	return created, nil
}

// ConvertPresenceByID loads a presence record and converts it.
func (s *PresenceService) ConvertPresenceByID(ctx context.Context, tenantID, id string) ([]domain.TimeEntry, error) {
	p, err := s.source.FindPresenceByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return s.ConvertPresenceToEntries(ctx, p)
}

// ImportPresence stores presence records in the local presence store,
// replacing any record for the same employee and day.
func (s *PresenceService) ImportPresence(ctx context.Context, records []domain.PresenceEntry) ([]domain.PresenceEntry, error) {
	if s.writer == nil {
		return nil, errors.NewUnavailableError("presence store", nil)
	}

	stored := make([]domain.PresenceEntry, 0, len(records))
	for i := range records {
		p := records[i]
		if err := s.checkPresence(p); err != nil {
			return stored, err.WithContext("record", i)
		}
		if err := s.writer.UpsertPresence(ctx, &p); err != nil {
			return stored, err
		}
		stored = append(stored, p)
	}

	s.log.Info("presence imported", "records", len(stored))
	return stored, nil
}

func (s *PresenceService) checkPresence(p domain.PresenceEntry) *errors.AppError {
	switch {
	case strings.TrimSpace(p.TenantID) == "":
		return errors.NewInvalidInputError("tenant_id", p.TenantID, "cannot be empty")
	case strings.TrimSpace(p.EmployeeID) == "":
		return errors.NewInvalidInputError("employee_id", p.EmployeeID, "cannot be empty")
	}
	if _, err := domain.ParseDate(p.Date, s.calendar.Location()); err != nil {
		return errors.NewInvalidInputError("date", p.Date, "must be in YYYY-MM-DD format")
	}
	if p.HasClockTimes() && !p.ClockOutTime.After(*p.ClockInTime) {
		return errors.NewInvalidInputError("clock_out_time", p.ClockOutTime, "must be after clock-in time")
	}
	return nil
}

func (s *PresenceService) entryFor(p domain.PresenceEntry, iv presence.Interval, timesheetID string, generatedAt time.Time) domain.TimeEntry {
	start, end := iv.Start, iv.End
	entry := domain.NewTimeEntry(p.TenantID, p.EmployeeID, p.Date, iv.Minutes(), presence.Describe(p, iv, s.calendar.Location()))
	entry.TimesheetID = timesheetID
	entry.StartTime = &start
	entry.EndTime = &end
	entry.Billable = true
	entry.Metadata = domain.Metadata{
		Source: domain.SourcePresence,
		Presence: &domain.PresenceMetadata{
			PresenceEntryID: p.ID,
			GeneratedAt:     generatedAt,
		},
	}
	return entry
}
