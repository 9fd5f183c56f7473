package domain

import (
	"math"
	"sort"
	"strings"
	"time"

	"timesheet-engine/internal/errors"
)

// DateLayout is the calendar-day format used for every Date field.
const DateLayout = "2006-01-02"

// EntryStatus is the lifecycle state of a time entry.
type EntryStatus string

const (
	EntryStatusDraft     EntryStatus = "draft"
	EntryStatusSubmitted EntryStatus = "submitted"
	EntryStatusApproved  EntryStatus = "approved"
	EntryStatusRejected  EntryStatus = "rejected"
)

// EntrySource records where a time entry came from.
type EntrySource string

const (
	SourceManual   EntrySource = "manual"
	SourcePresence EntrySource = "presence"
	SourceImport   EntrySource = "import"
)

// PresenceMetadata links a generated entry back to its presence record.
type PresenceMetadata struct {
	PresenceEntryID string    `json:"presence_entry_id"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// ImportMetadata describes an entry loaded from an external system.
type ImportMetadata struct {
	BatchID     string `json:"batch_id"`
	ExternalRef string `json:"external_ref,omitempty"`
}

// Metadata is the typed provenance of a time entry.
type Metadata struct {
	Source   EntrySource       `json:"source"`
	Presence *PresenceMetadata `json:"presence,omitempty"`
	Import   *ImportMetadata   `json:"import,omitempty"`
}

// PresenceEntryID returns the linked presence record id, or "".
func (m Metadata) PresenceEntryID() string {
	if m.Presence == nil {
		return ""
	}
	return m.Presence.PresenceEntryID
}

// TimeEntry represents a recorded work interval in the domain model.
// Duration is in whole minutes and is always present, even when the
// start and end times are not recorded.
type TimeEntry struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employee_id"`
	TenantID    string `json:"tenant_id"`
	TimesheetID string `json:"timesheet_id,omitempty"`

	Date      string     `json:"date"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  int        `json:"duration"`

	ProjectID      *string  `json:"project_id,omitempty"`
	ActivityCodeID *string  `json:"activity_code_id,omitempty"`
	Billable       bool     `json:"billable"`
	HourlyRate     *float64 `json:"hourly_rate,omitempty"`
	TotalCost      *float64 `json:"total_cost,omitempty"`

	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`

	Status    EntryStatus `json:"status"`
	Metadata  Metadata    `json:"metadata"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewTimeEntry creates a draft manual entry for the given day.
func NewTimeEntry(tenantID, employeeID, date string, durationMinutes int, description string) TimeEntry {
	return TimeEntry{
		TenantID:    tenantID,
		EmployeeID:  employeeID,
		Date:        date,
		Duration:    durationMinutes,
		Description: description,
		Status:      EntryStatusDraft,
		Metadata:    Metadata{Source: SourceManual},
	}
}

// HasTimes reports whether both start and end times are recorded.
func (te TimeEntry) HasTimes() bool {
	return te.StartTime != nil && te.EndTime != nil
}

// Hours returns the entry duration in hours.
func (te TimeEntry) Hours() float64 {
	return float64(te.Duration) / 60
}

// IsEditable reports whether the entry content may still change.
func (te TimeEntry) IsEditable() bool {
	return te.Status == EntryStatusDraft || te.Status == EntryStatusRejected
}

// ComputeTotalCost returns hours × rate for billable entries with a rate.
func (te TimeEntry) ComputeTotalCost() *float64 {
	if !te.Billable || te.HourlyRate == nil {
		return nil
	}
	cost := math.Round(te.Hours()**te.HourlyRate*100) / 100
	return &cost
}

// WithComputedCost returns a copy with TotalCost recomputed.
func (te TimeEntry) WithComputedCost() TimeEntry {
	te.TotalCost = te.ComputeTotalCost()
	return te
}

// NormalizeTags returns a copy with tags trimmed, lower-cased and
// deduplicated. Order of first occurrence is kept.
func (te TimeEntry) NormalizeTags() TimeEntry {
	if te.Tags == nil {
		return te
	}
	seen := make(map[string]bool, len(te.Tags))
	tags := make([]string, 0, len(te.Tags))
	for _, tag := range te.Tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	te.Tags = tags
	return te
}

// Submit moves a draft entry to submitted.
func (te TimeEntry) Submit() (TimeEntry, error) {
	if te.Status != EntryStatusDraft {
		return te, errors.NewInvalidStateError("time entry", string(te.Status), "Only draft entries can be submitted")
	}
	te.Status = EntryStatusSubmitted
	return te, nil
}

// Approve moves a submitted entry to approved.
func (te TimeEntry) Approve() (TimeEntry, error) {
	if te.Status != EntryStatusSubmitted {
		return te, errors.NewInvalidStateError("time entry", string(te.Status), "Only submitted entries can be approved")
	}
	te.Status = EntryStatusApproved
	return te, nil
}

// Reject moves a submitted entry to rejected and appends the reason to
// the description.
func (te TimeEntry) Reject(reason string) (TimeEntry, error) {
	if te.Status != EntryStatusSubmitted {
		return te, errors.NewInvalidStateError("time entry", string(te.Status), "Only submitted entries can be rejected")
	}
	te.Status = EntryStatusRejected
	if reason = strings.TrimSpace(reason); reason != "" {
		te.Description += "\n\nRejection reason: " + reason
	}
	return te, nil
}

// ReturnToDraft reopens a rejected entry.
func (te TimeEntry) ReturnToDraft() (TimeEntry, error) {
	if te.Status != EntryStatusRejected {
		return te, errors.NewInvalidStateError("time entry", string(te.Status), "Only rejected entries can be returned to draft")
	}
	te.Status = EntryStatusDraft
	return te, nil
}

// ParseDate parses a YYYY-MM-DD day in the given location.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, date, loc)
}

// FormatDate formats t as a YYYY-MM-DD day in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SortEntriesByStart orders entries by date, then start time. Entries
// without a start time sort after those with one on the same day.
func SortEntriesByStart(entries []TimeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		switch {
		case a.StartTime == nil:
			return false
		case b.StartTime == nil:
			return true
		default:
			return a.StartTime.Before(*b.StartTime)
		}
	})
}
