package domain

import (
	"math"
	"strings"
	"time"

	"timesheet-engine/internal/errors"
)

// TimesheetStatus is the lifecycle state of a timesheet.
type TimesheetStatus string

const (
	TimesheetStatusDraft     TimesheetStatus = "draft"
	TimesheetStatusSubmitted TimesheetStatus = "submitted"
	TimesheetStatusApproved  TimesheetStatus = "approved"
	TimesheetStatusLocked    TimesheetStatus = "locked"
)

// Timesheet aggregates an employee's entries for one period. The totals
// are derived from the entries and stored for reporting.
type Timesheet struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employee_id"`
	TenantID    string `json:"tenant_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`

	Status             TimesheetStatus `json:"status"`
	TotalHours         float64         `json:"total_hours"`
	TotalBillableHours float64         `json:"total_billable_hours"`
	TotalCost          float64         `json:"total_cost"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ApprovedBy  *string    `json:"approved_by,omitempty"`
	LockedBy    *string    `json:"locked_by,omitempty"`
	LockedAt    *time.Time `json:"locked_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTimesheet creates a draft timesheet for the period.
func NewTimesheet(tenantID, employeeID, periodStart, periodEnd string) Timesheet {
	return Timesheet{
		TenantID:    tenantID,
		EmployeeID:  employeeID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Status:      TimesheetStatusDraft,
	}
}

// IsEditable reports whether entries of the timesheet may change.
func (ts Timesheet) IsEditable() bool {
	return ts.Status == TimesheetStatusDraft
}

// IsDeletable reports whether the timesheet may be deleted.
func (ts Timesheet) IsDeletable() bool {
	return ts.Status == TimesheetStatusDraft
}

// Contains reports whether the YYYY-MM-DD day falls inside the period.
func (ts Timesheet) Contains(date string) bool {
	return date >= ts.PeriodStart && date <= ts.PeriodEnd
}

// Submit moves a draft timesheet to submitted.
func (ts Timesheet) Submit(at time.Time) (Timesheet, error) {
	if ts.Status != TimesheetStatusDraft {
		return ts, errors.NewInvalidStateError("timesheet", string(ts.Status), "Only draft timesheets can be submitted")
	}
	ts.Status = TimesheetStatusSubmitted
	ts.SubmittedAt = &at
	return ts, nil
}

// Approve moves a submitted timesheet to approved.
func (ts Timesheet) Approve(by string, at time.Time) (Timesheet, error) {
	if ts.Status != TimesheetStatusSubmitted {
		return ts, errors.NewInvalidStateError("timesheet", string(ts.Status), "Only submitted timesheets can be approved")
	}
	ts.Status = TimesheetStatusApproved
	ts.ApprovedAt = &at
	if by = strings.TrimSpace(by); by != "" {
		ts.ApprovedBy = &by
	}
	return ts, nil
}

// Reject sends a submitted timesheet back to draft.
func (ts Timesheet) Reject() (Timesheet, error) {
	if ts.Status != TimesheetStatusSubmitted {
		return ts, errors.NewInvalidStateError("timesheet", string(ts.Status), "Only submitted timesheets can be rejected")
	}
	ts.Status = TimesheetStatusDraft
	ts.SubmittedAt = nil
	return ts, nil
}

// Lock freezes an approved timesheet.
func (ts Timesheet) Lock(by string, at time.Time) (Timesheet, error) {
	if ts.Status != TimesheetStatusApproved {
		return ts, errors.NewInvalidStateError("timesheet", string(ts.Status), "Only approved timesheets can be locked")
	}
	ts.Status = TimesheetStatusLocked
	ts.LockedBy = &by
	ts.LockedAt = &at
	return ts, nil
}

// Unlock returns a locked timesheet to approved.
func (ts Timesheet) Unlock() (Timesheet, error) {
	if ts.Status != TimesheetStatusLocked {
		return ts, errors.NewInvalidStateError("timesheet", string(ts.Status), "Only locked timesheets can be unlocked")
	}
	ts.Status = TimesheetStatusApproved
	ts.LockedBy = nil
	ts.LockedAt = nil
	return ts, nil
}

// WithTotals returns a copy carrying the given totals.
func (ts Timesheet) WithTotals(t Totals) Timesheet {
	ts.TotalHours = t.Hours
	ts.TotalBillableHours = t.BillableHours
	ts.TotalCost = t.Cost
	return ts
}

// Totals are the figures derived from a timesheet's entries.
type Totals struct {
	Hours           float64 `json:"hours"`
	BillableHours   float64 `json:"billable_hours"`
	Cost            float64 `json:"cost"`
	ProductiveHours float64 `json:"productive_hours"`
}

// ComputeTotals sums entries. An entry counts as productive when it is
// billable, at least productiveMinMinutes long and has a description.
func ComputeTotals(entries []TimeEntry, productiveMinMinutes int) Totals {
	var t Totals
	for _, e := range entries {
		hours := e.Hours()
		t.Hours += hours
		if e.Billable {
			t.BillableHours += hours
			if e.Duration >= productiveMinMinutes && strings.TrimSpace(e.Description) != "" {
				t.ProductiveHours += hours
			}
		}
		if e.TotalCost != nil {
			t.Cost += *e.TotalCost
		}
	}
	t.Hours = round2(t.Hours)
	t.BillableHours = round2(t.BillableHours)
	t.Cost = round2(t.Cost)
	t.ProductiveHours = round2(t.ProductiveHours)
	return t
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
