package sqlite

import "database/sql"

// entryRow mirrors a time_entries row
type entryRow struct {
	ID                  string
	TenantID            string
	EmployeeID          string
	TimesheetID         string
	Date                string
	StartTime           sql.NullString
	EndTime             sql.NullString
	Duration            int
	ProjectID           sql.NullString
	ActivityCodeID      sql.NullString
	Billable            bool
	HourlyRate          sql.NullFloat64
	TotalCost           sql.NullFloat64
	Description         string
	Tags                string
	Status              string
	Source              string
	PresenceEntryID     sql.NullString
	PresenceGeneratedAt sql.NullString
	ImportBatchID       sql.NullString
	ImportExternalRef   sql.NullString
	CreatedAt           string
	UpdatedAt           string
}

// timesheetRow mirrors a timesheets row
type timesheetRow struct {
	ID                 string
	TenantID           string
	EmployeeID         string
	PeriodStart        string
	PeriodEnd          string
	Status             string
	TotalHours         float64
	TotalBillableHours float64
	TotalCost          float64
	SubmittedAt        sql.NullString
	ApprovedAt         sql.NullString
	ApprovedBy         sql.NullString
	LockedBy           sql.NullString
	LockedAt           sql.NullString
	CreatedAt          string
	UpdatedAt          string
}

// presenceRow mirrors a presence_entries row
type presenceRow struct {
	ID              string
	TenantID        string
	EmployeeID      string
	Date            string
	ClockIn         sql.NullString
	ClockOut        sql.NullString
	Breaks          string
	Status          string
	Late            bool
	EarlyLeave      bool
	Overtime        bool
	ActualWorkHours sql.NullFloat64
	Notes           string
}

const entryColumns = `id, tenant_id, employee_id, timesheet_id, entry_date, start_time, end_time,
	duration_minutes, project_id, activity_code_id, billable, hourly_rate, total_cost,
	description, tags, status, source, presence_entry_id, presence_generated_at,
	import_batch_id, import_external_ref, created_at, updated_at`

const timesheetColumns = `id, tenant_id, employee_id, period_start, period_end, status,
	total_hours, total_billable_hours, total_cost, submitted_at, approved_at, approved_by,
	locked_by, locked_at, created_at, updated_at`

const presenceColumns = `id, tenant_id, employee_id, entry_date, clock_in, clock_out, breaks,
	status, late, early_leave, overtime, actual_work_hours, notes`
