package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"timesheet-engine/internal/config"
	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
	"timesheet-engine/internal/logging"
	"timesheet-engine/internal/presence"
)

// Reconciliation suggestions.
const (
	SuggestImportEntries   = "Import time entries from presence data"
	SuggestVerifyPresence  = "Verify presence data for this date"
	SuggestReconcileHours  = "Reconcile hours between presence and time entries"
	SuggestReviewClockTime = "Review entry times against clock-in and clock-out"
)

// ReconciliationReport compares one employee day of presence with the
// recorded time entries.
type ReconciliationReport struct {
	TenantID        string   `json:"tenant_id"`
	EmployeeID      string   `json:"employee_id"`
	Date            string   `json:"date"`
	PresenceEntryID string   `json:"presence_entry_id,omitempty"`
	PresenceHours   float64  `json:"presence_hours"`
	EntryHours      float64  `json:"entry_hours"`
	EntryCount      int      `json:"entry_count"`
	Discrepancies   []string `json:"discrepancies"`
	Suggestions     []string `json:"suggestions"`
}

// Consistent reports whether no discrepancy was found.
func (r ReconciliationReport) Consistent() bool {
	return len(r.Discrepancies) == 0
}

func (r *ReconciliationReport) flag(discrepancy, suggestion string) {
	r.Discrepancies = append(r.Discrepancies, discrepancy)
	for _, s := range r.Suggestions {
		if s == suggestion {
			return
		}
	}
	r.Suggestions = append(r.Suggestions, suggestion)
}

// SyncResult aggregates one page of a presence synchronization run.
type SyncResult struct {
	TenantID   string   `json:"tenant_id"`
	From       string   `json:"from"`
	To         string   `json:"to"`
	Processed  int      `json:"processed"`
	Created    int      `json:"created"`
	Updated    int      `json:"updated"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors"`
	HasMore    bool     `json:"has_more"`
	NextOffset int      `json:"next_offset,omitempty"`
}

type syncOutcome int

const (
	syncSkipped syncOutcome = iota
	syncCreated
	syncUpdated
)

// ReconciliationService cross-checks presence records against time entries
// and keeps presence-generated entries in step with their source.
type ReconciliationService struct {
	source     PresenceSource
	entries    EntryStore
	timesheets *TimesheetService
	presence   *PresenceService
	calendar   *TimeService
	rules      config.RulesConfig
	sync       config.SyncConfig
	log        *slog.Logger
}

// NewReconciliationService creates a ReconciliationService
func NewReconciliationService(source PresenceSource, entries EntryStore, timesheets *TimesheetService, presence *PresenceService, calendar *TimeService, rules config.RulesConfig, sync config.SyncConfig, logger *slog.Logger) *ReconciliationService {
	return &ReconciliationService{
		source:     source,
		entries:    entries,
		timesheets: timesheets,
		presence:   presence,
		calendar:   calendar,
		rules:      rules,
		sync:       sync,
		log:        logging.OrDiscard(logger),
	}
}

// Reconcile compares the employee's presence for date with the time
// entries recorded on that day.
func (s *ReconciliationService) Reconcile(ctx context.Context, tenantID, employeeID, date string) (ReconciliationReport, error) {
	report := ReconciliationReport{
		TenantID:      tenantID,
		EmployeeID:    employeeID,
		Date:          date,
		Discrepancies: []string{},
		Suggestions:   []string{},
	}
	if _, err := domain.ParseDate(date, s.calendar.Location()); err != nil {
		return report, errors.NewInvalidInputError("date", date, "must be in YYYY-MM-DD format")
	}

	var p *domain.PresenceEntry
	found, err := s.source.FindPresenceByEmployeeAndDate(ctx, tenantID, employeeID, date)
	switch {
	case err == nil:
		p = &found
	case !errors.IsNotFound(err):
		return report, err
	}

	entries, err := s.entries.FindEntriesByEmployeeAndDateRange(ctx, tenantID, employeeID, date, date)
	if err != nil {
		return report, err
	}

	report.EntryCount = len(entries)
	for _, e := range entries {
		report.EntryHours += e.Hours()
	}
	report.EntryHours = round2(report.EntryHours)

	switch {
	case p == nil && len(entries) == 0:
		return report, nil
	case p == nil:
		report.flag(fmt.Sprintf("Time entries without presence: %d entries totalling %.2fh", len(entries), report.EntryHours),
			SuggestVerifyPresence)
		return report, nil
	}

	report.PresenceEntryID = p.ID
	report.PresenceHours = round2(p.WorkHours())

	if len(entries) == 0 {
		if !p.Attended() {
			return report, nil
		}
		report.flag(fmt.Sprintf("Presence without time entries: %.2fh present", report.PresenceHours),
			SuggestImportEntries)
		return report, nil
	}

	if math.Abs(report.PresenceHours-report.EntryHours) > s.rules.HoursDiscrepancyThreshold {
		report.flag(fmt.Sprintf("Presence shows %.2fh but time entries total %.2fh", report.PresenceHours, report.EntryHours),
			SuggestReconcileHours)
	}

	s.compareClockTimes(&report, *p, entries)
	return report, nil
}

// compareClockTimes flags when the first entry starts or the last entry
// ends too far from the clock times.
func (s *ReconciliationService) compareClockTimes(report *ReconciliationReport, p domain.PresenceEntry, entries []domain.TimeEntry) {
	var earliest, latest *time.Time
	for _, e := range entries {
		if e.StartTime != nil && (earliest == nil || e.StartTime.Before(*earliest)) {
			earliest = e.StartTime
		}
		if e.EndTime != nil && (latest == nil || e.EndTime.After(*latest)) {
			latest = e.EndTime
		}
	}

	limit := float64(s.rules.TimeDeviationMinutes)
	if p.ClockInTime != nil && earliest != nil {
		if diff := math.Abs(earliest.Sub(*p.ClockInTime).Minutes()); diff > limit {
			report.flag(fmt.Sprintf("First time entry starts %.0f minutes away from clock-in at %s",
				diff, p.ClockInTime.In(s.calendar.Location()).Format("15:04")), SuggestReviewClockTime)
		}
	}
	if p.ClockOutTime != nil && latest != nil {
		if diff := math.Abs(latest.Sub(*p.ClockOutTime).Minutes()); diff > limit {
			report.flag(fmt.Sprintf("Last time entry ends %.0f minutes away from clock-out at %s",
				diff, p.ClockOutTime.In(s.calendar.Location()).Format("15:04")), SuggestReviewClockTime)
		}
	}
}

// SyncPresenceRange brings presence-generated entries in line with one page
// of the tenant's presence records dated within [from, to]. limit is capped
// at the configured maximum page size; the caller continues from NextOffset
// while HasMore is set. A failing record is reported in Errors and does not
// stop the page.
func (s *ReconciliationService) SyncPresenceRange(ctx context.Context, tenantID, from, to string, limit, offset int) (SyncResult, error) {
	result := SyncResult{TenantID: tenantID, From: from, To: to, Errors: []string{}}

	fromDay, err := domain.ParseDate(from, s.calendar.Location())
	if err != nil {
		return result, errors.NewInvalidInputError("from", from, "must be in YYYY-MM-DD format")
	}
	toDay, err := domain.ParseDate(to, s.calendar.Location())
	if err != nil {
		return result, errors.NewInvalidInputError("to", to, "must be in YYYY-MM-DD format")
	}
	if toDay.Before(fromDay) {
		return result, errors.NewInvalidInputError("to", to, "must not be before from")
	}

	limit = s.pageSize(limit)
	if offset < 0 {
		offset = 0
	}

	records, err := s.source.FindPresenceByTenantAndDateRange(ctx, tenantID, from, to, limit+1, offset)
	if err != nil {
		return result, err
	}
	if len(records) > limit {
		records = records[:limit]
		result.HasMore = true
		result.NextOffset = offset + limit
	}

	for _, p := range records {
		if err := ctx.Err(); err != nil {
			return result, errors.FromContext("sync presence", err)
		}

		result.Processed++
		outcome, err := s.syncRecord(ctx, p)
		if err != nil {
			s.log.Warn("presence sync failed",
				"presence_entry_id", p.ID,
				"employee_id", p.EmployeeID,
				"date", p.Date,
				"error", err)
			result.Errors = append(result.Errors,
				fmt.Sprintf("presence %s (%s %s): %s", p.ID, p.EmployeeID, p.Date, errors.GetUserMessage(err)))
			continue
		}

		switch outcome {
		case syncCreated:
			result.Created++
		case syncUpdated:
			result.Updated++
		default:
			result.Skipped++
		}
	}

	s.log.Info("presence sync page done",
		"tenant_id", tenantID,
		"from", from,
		"to", to,
		"processed", result.Processed,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"errors", len(result.Errors))
	return result, nil
}

func (s *ReconciliationService) syncRecord(ctx context.Context, p domain.PresenceEntry) (syncOutcome, error) {
	linked, err := s.entries.FindEntriesByPresenceEntry(ctx, p.TenantID, p.ID)
	if err != nil {
		return syncSkipped, err
	}

	if len(linked) == 0 {
		created, err := s.presence.ConvertPresenceToEntries(ctx, p)
		if err != nil {
			return syncSkipped, err
		}
		if len(created) == 0 {
			return syncSkipped, nil
		}
		return syncCreated, nil
	}

	recorded := 0
	for _, e := range linked {
		recorded += e.Duration
	}
	diff := recorded - p.ExpectedWorkMinutes()
	if diff < 0 {
		diff = -diff
	}
	if diff <= s.sync.MatchToleranceMinutes {
		return syncSkipped, nil
	}

	// A record that can no longer be split keeps its old entries.
	if _, err := presence.SplitWorkIntervals(p); err != nil {
		return syncSkipped, err
	}

	timesheetIDs, err := s.replaceableTimesheets(ctx, linked)
	if err != nil {
		return syncSkipped, err
	}

	ids := make([]string, 0, len(linked))
	for _, e := range linked {
		ids = append(ids, e.ID)
	}
	if _, err := s.entries.BatchDeleteEntries(ctx, p.TenantID, ids); err != nil {
		return syncSkipped, err
	}
	for _, id := range timesheetIDs {
		if _, _, err := s.timesheets.RecalculateTotals(ctx, p.TenantID, id); err != nil {
			return syncSkipped, err
		}
	}

	created, err := s.presence.ConvertPresenceToEntries(ctx, p)
	if err != nil {
		return syncSkipped, err
	}
	if len(created) == 0 {
		return syncSkipped, errors.NewValidationError(
			fmt.Sprintf("Removed %d outdated entries but no interval could be regenerated", len(linked)), nil).
			WithContext("presence_entry_id", p.ID)
	}
	s.log.Info("presence entries regenerated",
		"presence_entry_id", p.ID,
		"recorded_minutes", recorded,
		"expected_minutes", p.ExpectedWorkMinutes())
	return syncUpdated, nil
}

// replaceableTimesheets checks that the linked entries and their timesheets
// may still change and returns the distinct timesheet ids.
func (s *ReconciliationService) replaceableTimesheets(ctx context.Context, linked []domain.TimeEntry) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)
	for _, e := range linked {
		if !e.IsEditable() {
			return nil, errors.NewInvalidStateError("time entry", string(e.Status),
				"Presence entries can only be regenerated while their entries are draft or rejected").
				WithContext("entry_id", e.ID)
		}
		if e.TimesheetID == "" || seen[e.TimesheetID] {
			continue
		}
		seen[e.TimesheetID] = true

		ts, err := s.timesheets.Get(ctx, e.TenantID, e.TimesheetID)
		if err != nil {
			return nil, err
		}
		if !ts.IsEditable() {
			return nil, errors.NewInvalidStateError("timesheet", string(ts.Status),
				"Presence entries can only be regenerated on draft timesheets").
				WithContext("timesheet_id", ts.ID)
		}
		ids = append(ids, ts.ID)
	}
	return ids, nil
}

func (s *ReconciliationService) pageSize(limit int) int {
	if limit <= 0 {
		limit = s.sync.PageSize
	}
	if s.sync.MaxPageSize > 0 && limit > s.sync.MaxPageSize {
		limit = s.sync.MaxPageSize
	}
	if limit <= 0 {
		limit = 100
	}
	return limit
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
