package api

import (
	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/repository/sqlite/migrations"
	"timesheet-engine/internal/validation"
)

// Finding is one validation error or warning as shown to callers.
type Finding struct {
	Field   string `json:"field"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ValidationReport is the outcome of running the validation pipeline.
type ValidationReport struct {
	Valid    bool      `json:"valid"`
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// EntryResult is a stored entry together with the warnings raised while
// saving it.
type EntryResult struct {
	Entry      *domain.TimeEntry `json:"entry"`
	Validation *ValidationReport `json:"validation"`
}

// OverlapReport lists the entries a candidate interval collides with.
type OverlapReport struct {
	HasOverlap bool                  `json:"has_overlap"`
	Conflicts  []domain.ConflictInfo `json:"conflicts"`
}

// TimesheetCheck is a timesheet with its completeness findings.
type TimesheetCheck struct {
	Timesheet  *domain.Timesheet `json:"timesheet"`
	Validation *ValidationReport `json:"validation"`
}

// TimesheetTotals is a timesheet after its totals were recomputed.
type TimesheetTotals struct {
	Timesheet *domain.Timesheet `json:"timesheet"`
	Totals    domain.Totals     `json:"totals"`
}

// DeleteResult reports a removed timesheet and how many entries went with it.
type DeleteResult struct {
	TimesheetID    string `json:"timesheet_id"`
	DeletedEntries int    `json:"deleted_entries"`
}

// AnomalyReport lists the anomaly tags raised for one entry.
type AnomalyReport struct {
	EntryID   string   `json:"entry_id"`
	Anomalies []string `json:"anomalies"`
}

// ConversionResult is the set of entries generated from one presence record.
type ConversionResult struct {
	PresenceEntryID string              `json:"presence_entry_id"`
	Entries         []*domain.TimeEntry `json:"entries"`
	TotalMinutes    int                 `json:"total_minutes"`
	Duration        string              `json:"duration"`
}

// ImportResult reports the presence records written by an import.
type ImportResult struct {
	Imported int                     `json:"imported"`
	Records  []*domain.PresenceEntry `json:"records"`
}

// DatabaseStatus describes the schema version of the local store.
type DatabaseStatus struct {
	CurrentVersion uint `json:"current_version"`
	LatestVersion  uint `json:"latest_version"`
	Dirty          bool `json:"dirty"`
	Pending        bool `json:"pending"`
}

// StatusReporter exposes the migration state of a store.
type StatusReporter interface {
	MigrationStatus() (*migrations.Status, error)
}

func newValidationReport(r validation.Result) *ValidationReport {
	return &ValidationReport{
		Valid:    r.IsValid(),
		Errors:   findings(r.Errors),
		Warnings: findings(r.Warnings),
	}
}

func findings(in []validation.FieldError) []Finding {
	out := make([]Finding, 0, len(in))
	for _, f := range in {
		out = append(out, Finding{Field: f.Field, Type: string(f.Type), Message: f.Message})
	}
	return out
}

func entryPtrs(entries []domain.TimeEntry) []*domain.TimeEntry {
	out := make([]*domain.TimeEntry, len(entries))
	for i := range entries {
		out[i] = &entries[i]
	}
	return out
}
