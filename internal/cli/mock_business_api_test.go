package cli

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"timesheet-engine/internal/api"
	"timesheet-engine/internal/config"
	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
	"timesheet-engine/internal/services"
)

// mockBusinessAPI implements the BusinessAPI interface for testing. It keeps
// entries and timesheets in maps and records the calls the commands make.
type mockBusinessAPI struct {
	entries    map[string]*domain.TimeEntry
	timesheets map[string]*domain.Timesheet
	presence   map[string]*domain.PresenceEntry
	nextID     int

	lastFilter  domain.EntryFilter
	lastOverlap []interface{}
	imported    []domain.PresenceEntry
	syncPages   []*services.SyncResult
	syncOffsets []int

	// failWith is returned by every call when set.
	failWith error
}

// newMockBusinessAPI creates a new mock BusinessAPI instance
func newMockBusinessAPI() *mockBusinessAPI {
	return &mockBusinessAPI{
		entries:    make(map[string]*domain.TimeEntry),
		timesheets: make(map[string]*domain.Timesheet),
		presence:   make(map[string]*domain.PresenceEntry),
		nextID:     1,
	}
}

var _ api.BusinessAPI = (*mockBusinessAPI)(nil)

// setupTestAppWithMockBusinessAPI returns an App over a fresh mock, writing
// to the returned buffer in UTC.
func setupTestAppWithMockBusinessAPI(t *testing.T) (*App, *mockBusinessAPI, *bytes.Buffer) {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Application.Timezone = "UTC"
	cfg.Application.TenantID = "t1"

	mock := newMockBusinessAPI()
	out := &bytes.Buffer{}
	return NewAppWithOutput(mock, cfg, out), mock, out
}

func (m *mockBusinessAPI) id(prefix string) string {
	id := fmt.Sprintf("%s-%d", prefix, m.nextID)
	m.nextID++
	return id
}

func (m *mockBusinessAPI) report(entry domain.TimeEntry) *api.ValidationReport {
	r := &api.ValidationReport{Valid: true, Errors: []api.Finding{}, Warnings: []api.Finding{}}
	if entry.Duration <= 0 {
		r.Valid = false
		r.Errors = append(r.Errors, api.Finding{Field: "duration", Type: "invalid_value", Message: "Duration must be greater than 0"})
	}
	if strings.TrimSpace(entry.Description) == "" {
		r.Warnings = append(r.Warnings, api.Finding{Field: "description", Type: "required", Message: "Description is recommended"})
	}
	return r
}

func (m *mockBusinessAPI) entry(tenantID, id string) (*domain.TimeEntry, error) {
	e, ok := m.entries[id]
	if !ok || e.TenantID != tenantID {
		return nil, errors.NewNotFoundError("time entry", id)
	}
	return e, nil
}

func (m *mockBusinessAPI) timesheet(tenantID, id string) (*domain.Timesheet, error) {
	ts, ok := m.timesheets[id]
	if !ok || ts.TenantID != tenantID {
		return nil, errors.NewNotFoundError("timesheet", id)
	}
	return ts, nil
}

// ========== Validation ==========

func (m *mockBusinessAPI) ValidateTimeEntry(ctx context.Context, entry domain.TimeEntry) (*api.ValidationReport, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return m.report(entry), nil
}

func (m *mockBusinessAPI) CheckOverlap(ctx context.Context, tenantID, employeeID, date string, start, end time.Time, excludeID string) (*api.OverlapReport, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.lastOverlap = []interface{}{tenantID, employeeID, date, start, end, excludeID}

	report := &api.OverlapReport{Conflicts: []domain.ConflictInfo{}}
	for _, e := range m.entries {
		if e.ID == excludeID || e.EmployeeID != employeeID || e.Date != date || !e.HasTimes() {
			continue
		}
		if e.StartTime.Before(end) && start.Before(*e.EndTime) {
			report.Conflicts = append(report.Conflicts, domain.ConflictInfo{ConflictType: "overlap", ExistingEntryID: e.ID})
		}
	}
	report.HasOverlap = len(report.Conflicts) > 0
	return report, nil
}

func (m *mockBusinessAPI) ParseDay(ctx context.Context, input string) (string, error) {
	switch input {
	case "today":
		return "2024-01-17", nil
	case "yesterday":
		return "2024-01-16", nil
	}
	if _, err := time.Parse(domain.DateLayout, input); err != nil {
		return "", errors.NewInvalidInputError("date", input, "not a recognized date")
	}
	return input, nil
}

// ========== Time Entries ==========

func (m *mockBusinessAPI) CreateEntry(ctx context.Context, entry domain.TimeEntry) (*api.EntryResult, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	report := m.report(entry)
	if !report.Valid {
		return nil, errors.NewValidationError(report.Errors[0].Message, nil)
	}
	entry.ID = m.id("entry")
	stored := entry
	m.entries[stored.ID] = &stored
	return &api.EntryResult{Entry: &stored, Validation: report}, nil
}

func (m *mockBusinessAPI) UpdateEntry(ctx context.Context, entry domain.TimeEntry) (*api.EntryResult, error) {
	if _, err := m.entry(entry.TenantID, entry.ID); err != nil {
		return nil, err
	}
	stored := entry
	m.entries[stored.ID] = &stored
	return &api.EntryResult{Entry: &stored, Validation: m.report(entry)}, nil
}

func (m *mockBusinessAPI) DeleteEntry(ctx context.Context, tenantID, id string) error {
	if _, err := m.entry(tenantID, id); err != nil {
		return err
	}
	delete(m.entries, id)
	return nil
}

func (m *mockBusinessAPI) GetEntry(ctx context.Context, tenantID, id string) (*domain.TimeEntry, error) {
	e, err := m.entry(tenantID, id)
	if err != nil {
		return nil, err
	}
	copied := *e
	return &copied, nil
}

func (m *mockBusinessAPI) SearchEntries(ctx context.Context, tenantID string, filter domain.EntryFilter) ([]*domain.TimeEntry, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.lastFilter = filter

	out := []*domain.TimeEntry{}
	for _, e := range m.entries {
		if e.TenantID != tenantID {
			continue
		}
		if filter.EmployeeID != "" && e.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockBusinessAPI) transition(tenantID, id string, fn func(domain.TimeEntry) (domain.TimeEntry, error)) (*domain.TimeEntry, error) {
	e, err := m.entry(tenantID, id)
	if err != nil {
		return nil, err
	}
	next, err := fn(*e)
	if err != nil {
		return nil, err
	}
	m.entries[id] = &next
	return &next, nil
}

func (m *mockBusinessAPI) SubmitEntry(ctx context.Context, tenantID, id string) (*domain.TimeEntry, error) {
	return m.transition(tenantID, id, domain.TimeEntry.Submit)
}

func (m *mockBusinessAPI) ApproveEntry(ctx context.Context, tenantID, id string) (*domain.TimeEntry, error) {
	return m.transition(tenantID, id, domain.TimeEntry.Approve)
}

func (m *mockBusinessAPI) RejectEntry(ctx context.Context, tenantID, id, reason string) (*domain.TimeEntry, error) {
	return m.transition(tenantID, id, func(e domain.TimeEntry) (domain.TimeEntry, error) {
		return e.Reject(reason)
	})
}

func (m *mockBusinessAPI) ReturnEntryToDraft(ctx context.Context, tenantID, id string) (*domain.TimeEntry, error) {
	return m.transition(tenantID, id, domain.TimeEntry.ReturnToDraft)
}

func (m *mockBusinessAPI) DetectAnomalies(ctx context.Context, tenantID, id string) (*api.AnomalyReport, error) {
	e, err := m.entry(tenantID, id)
	if err != nil {
		return nil, err
	}
	report := &api.AnomalyReport{EntryID: id, Anomalies: []string{}}
	if e.Duration > 600 {
		report.Anomalies = append(report.Anomalies, "long_duration")
	}
	return report, nil
}

// ========== Timesheets ==========

func (m *mockBusinessAPI) GetTimesheet(ctx context.Context, tenantID, id string) (*domain.Timesheet, error) {
	return m.timesheet(tenantID, id)
}

func (m *mockBusinessAPI) TimesheetForDate(ctx context.Context, tenantID, employeeID, date string) (*domain.Timesheet, error) {
	for _, ts := range m.timesheets {
		if ts.TenantID == tenantID && ts.EmployeeID == employeeID && ts.Contains(date) {
			return ts, nil
		}
	}
	ts := domain.NewTimesheet(tenantID, employeeID, "2024-01-15", "2024-01-21")
	ts.ID = m.id("ts")
	m.timesheets[ts.ID] = &ts
	return &ts, nil
}

func (m *mockBusinessAPI) CheckTimesheet(ctx context.Context, tenantID, id string) (*api.TimesheetCheck, error) {
	ts, err := m.timesheet(tenantID, id)
	if err != nil {
		return nil, err
	}
	return &api.TimesheetCheck{Timesheet: ts, Validation: m.sheetReport(ts)}, nil
}

// sheetReport fails timesheets with no hours recorded.
func (m *mockBusinessAPI) sheetReport(ts *domain.Timesheet) *api.ValidationReport {
	r := &api.ValidationReport{Valid: true, Errors: []api.Finding{}, Warnings: []api.Finding{}}
	if ts.TotalHours == 0 {
		r.Valid = false
		r.Errors = append(r.Errors, api.Finding{Field: "entries", Type: "business_rule", Message: "Timesheet has no entries"})
	}
	return r
}

func (m *mockBusinessAPI) RecalculateTimesheet(ctx context.Context, tenantID, id string) (*api.TimesheetTotals, error) {
	ts, err := m.timesheet(tenantID, id)
	if err != nil {
		return nil, err
	}
	var entries []domain.TimeEntry
	for _, e := range m.entries {
		if e.TimesheetID == id {
			entries = append(entries, *e)
		}
	}
	totals := domain.ComputeTotals(entries, 0)
	next := ts.WithTotals(totals)
	m.timesheets[id] = &next
	return &api.TimesheetTotals{Timesheet: &next, Totals: totals}, nil
}

func (m *mockBusinessAPI) SubmitTimesheet(ctx context.Context, tenantID, id string) (*api.TimesheetCheck, error) {
	ts, err := m.timesheet(tenantID, id)
	if err != nil {
		return nil, err
	}
	report := m.sheetReport(ts)
	if !report.Valid {
		return &api.TimesheetCheck{Timesheet: ts, Validation: report}, nil
	}
	next, err := ts.Submit(time.Date(2024, 1, 17, 10, 0, 0, 0, time.UTC))
	if err != nil {
		return nil, err
	}
	m.timesheets[id] = &next
	return &api.TimesheetCheck{Timesheet: &next, Validation: report}, nil
}

func (m *mockBusinessAPI) sheetTransition(tenantID, id string, fn func(domain.Timesheet) (domain.Timesheet, error)) (*domain.Timesheet, error) {
	ts, err := m.timesheet(tenantID, id)
	if err != nil {
		return nil, err
	}
	next, err := fn(*ts)
	if err != nil {
		return nil, err
	}
	m.timesheets[id] = &next
	return &next, nil
}

func (m *mockBusinessAPI) ApproveTimesheet(ctx context.Context, tenantID, id, approverID string) (*domain.Timesheet, error) {
	if approverID == "" {
		return nil, errors.NewInvalidInputError("approver_id", approverID, "cannot be empty")
	}
	return m.sheetTransition(tenantID, id, func(ts domain.Timesheet) (domain.Timesheet, error) {
		return ts.Approve(approverID, time.Date(2024, 1, 17, 10, 0, 0, 0, time.UTC))
	})
}

func (m *mockBusinessAPI) RejectTimesheet(ctx context.Context, tenantID, id, reason string) (*domain.Timesheet, error) {
	return m.sheetTransition(tenantID, id, domain.Timesheet.Reject)
}

func (m *mockBusinessAPI) LockTimesheet(ctx context.Context, tenantID, id, lockedBy string) (*domain.Timesheet, error) {
	return m.sheetTransition(tenantID, id, func(ts domain.Timesheet) (domain.Timesheet, error) {
		return ts.Lock(lockedBy, time.Date(2024, 1, 17, 10, 0, 0, 0, time.UTC))
	})
}

func (m *mockBusinessAPI) UnlockTimesheet(ctx context.Context, tenantID, id string) (*domain.Timesheet, error) {
	return m.sheetTransition(tenantID, id, domain.Timesheet.Unlock)
}

func (m *mockBusinessAPI) DeleteTimesheet(ctx context.Context, tenantID, id string) (*api.DeleteResult, error) {
	ts, err := m.timesheet(tenantID, id)
	if err != nil {
		return nil, err
	}
	if !ts.IsDeletable() {
		return nil, errors.NewInvalidStateError("timesheet", string(ts.Status), "Only draft timesheets can be deleted")
	}
	deleted := 0
	for entryID, e := range m.entries {
		if e.TimesheetID == id {
			delete(m.entries, entryID)
			deleted++
		}
	}
	delete(m.timesheets, id)
	return &api.DeleteResult{TimesheetID: id, DeletedEntries: deleted}, nil
}

// ========== Presence & Reconciliation ==========

func (m *mockBusinessAPI) ConvertPresenceToEntries(ctx context.Context, tenantID, presenceEntryID string) (*api.ConversionResult, error) {
	p, ok := m.presence[presenceEntryID]
	if !ok || p.TenantID != tenantID {
		return nil, errors.NewNotFoundError("presence entry", presenceEntryID)
	}
	minutes := p.ExpectedWorkMinutes()
	entry := domain.NewTimeEntry(tenantID, p.EmployeeID, p.Date, minutes, "Work")
	entry.ID = m.id("entry")
	m.entries[entry.ID] = &entry
	return &api.ConversionResult{
		PresenceEntryID: presenceEntryID,
		Entries:         []*domain.TimeEntry{&entry},
		TotalMinutes:    minutes,
		Duration:        fmt.Sprintf("%dh %dm", minutes/60, minutes%60),
	}, nil
}

func (m *mockBusinessAPI) ImportPresence(ctx context.Context, records []domain.PresenceEntry) (*api.ImportResult, error) {
	if len(records) == 0 {
		return nil, errors.NewInvalidInputError("records", 0, "no presence records to import")
	}
	m.imported = append(m.imported, records...)

	out := make([]*domain.PresenceEntry, len(records))
	for i := range records {
		p := records[i]
		if p.ID == "" {
			p.ID = m.id("presence")
		}
		m.presence[p.ID] = &p
		out[i] = &p
	}
	return &api.ImportResult{Imported: len(out), Records: out}, nil
}

func (m *mockBusinessAPI) Reconcile(ctx context.Context, tenantID, employeeID, date string) (*services.ReconciliationReport, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return &services.ReconciliationReport{
		TenantID:      tenantID,
		EmployeeID:    employeeID,
		Date:          date,
		Discrepancies: []string{},
		Suggestions:   []string{},
	}, nil
}

// SyncPresenceRange hands out the queued pages in order.
func (m *mockBusinessAPI) SyncPresenceRange(ctx context.Context, tenantID, from, to string, limit, offset int) (*services.SyncResult, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.syncOffsets = append(m.syncOffsets, offset)
	if len(m.syncPages) == 0 {
		return &services.SyncResult{TenantID: tenantID, From: from, To: to, Errors: []string{}}, nil
	}
	page := m.syncPages[0]
	m.syncPages = m.syncPages[1:]
	page.TenantID, page.From, page.To = tenantID, from, to
	return page, nil
}

// ========== Maintenance ==========

func (m *mockBusinessAPI) DatabaseStatus(ctx context.Context) (*api.DatabaseStatus, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	return &api.DatabaseStatus{CurrentVersion: 3, LatestVersion: 3}, nil
}
