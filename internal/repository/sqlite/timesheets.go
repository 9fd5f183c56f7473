package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
)

// FindTimesheetByID retrieves a timesheet by ID
func (r *SQLiteRepository) FindTimesheetByID(ctx context.Context, tenantID, id string) (domain.Timesheet, error) {
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `SELECT ` + timesheetColumns + ` FROM timesheets WHERE tenant_id = ? AND id = ?`
	return r.queryTimesheet(ctx, query, id, tenantID, id)
}

// FindTimesheetForPeriod returns the employee's timesheet starting on periodStart.
func (r *SQLiteRepository) FindTimesheetForPeriod(ctx context.Context, tenantID, employeeID, periodStart string) (domain.Timesheet, error) {
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `SELECT ` + timesheetColumns + ` FROM timesheets
	WHERE tenant_id = ? AND employee_id = ? AND period_start = ?`
	return r.queryTimesheet(ctx, query, employeeID+"/"+periodStart, tenantID, employeeID, periodStart)
}

func (r *SQLiteRepository) queryTimesheet(ctx context.Context, query, id string, args ...interface{}) (domain.Timesheet, error) {
	row, err := QuerySingle(ctx, r.db, query, scanTimesheetRow, "timesheet", id, args...)
	if err != nil {
		return domain.Timesheet{}, err
	}
	ts, err := timesheetFromRow(row)
	if err != nil {
		return domain.Timesheet{}, HandleDatabaseError("decode timesheet", err)
	}
	return ts, nil
}

// CreateTimesheet inserts ts. A second timesheet for the same employee and
// period start fails with a validation error wrapping ErrDuplicateTimesheet.
func (r *SQLiteRepository) CreateTimesheet(ctx context.Context, ts *domain.Timesheet) error {
	if ts.ID == "" {
		ts.ID = uuid.NewString()
	}
	now := r.now()
	if ts.CreatedAt.IsZero() {
		ts.CreatedAt = now
	}
	ts.UpdatedAt = now
	if ts.Status == "" {
		ts.Status = domain.TimesheetStatusDraft
	}

	query := `INSERT INTO timesheets (` + timesheetColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return r.write(ctx, "create timesheet", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, query,
			ts.ID,
			ts.TenantID,
			ts.EmployeeID,
			ts.PeriodStart,
			ts.PeriodEnd,
			string(ts.Status),
			ts.TotalHours,
			ts.TotalBillableHours,
			ts.TotalCost,
			FormatTimePtrForDB(ts.SubmittedAt),
			FormatTimePtrForDB(ts.ApprovedAt),
			StringPtrForDB(ts.ApprovedBy),
			StringPtrForDB(ts.LockedBy),
			FormatTimePtrForDB(ts.LockedAt),
			FormatTimeForDB(ts.CreatedAt),
			FormatTimeForDB(ts.UpdatedAt),
		)
		if isUniqueViolation(err) {
			return errors.NewValidationError("A timesheet already exists for this employee and period", ErrDuplicateTimesheet).
				WithContext("employee_id", ts.EmployeeID).
				WithContext("period_start", ts.PeriodStart)
		}
		return err
	})
}

const updateTimesheetQuery = `
	UPDATE timesheets
	SET status = ?, total_hours = ?, total_billable_hours = ?, total_cost = ?,
		submitted_at = ?, approved_at = ?, approved_by = ?, locked_by = ?, locked_at = ?, updated_at = ?
	WHERE tenant_id = ? AND id = ?`

func timesheetUpdateArgs(ts *domain.Timesheet) []interface{} {
	return []interface{}{
		string(ts.Status),
		ts.TotalHours,
		ts.TotalBillableHours,
		ts.TotalCost,
		FormatTimePtrForDB(ts.SubmittedAt),
		FormatTimePtrForDB(ts.ApprovedAt),
		StringPtrForDB(ts.ApprovedBy),
		StringPtrForDB(ts.LockedBy),
		FormatTimePtrForDB(ts.LockedAt),
		FormatTimeForDB(ts.UpdatedAt),
		ts.TenantID,
		ts.ID,
	}
}

// UpdateTimesheet persists status, totals and lifecycle stamps.
func (r *SQLiteRepository) UpdateTimesheet(ctx context.Context, ts *domain.Timesheet) error {
	ts.UpdatedAt = r.now()

	return r.write(ctx, "update timesheet", func(ctx context.Context) error {
		return ExecuteWithRowsAffected(ctx, r.db, updateTimesheetQuery, "timesheet", ts.ID, timesheetUpdateArgs(ts)...)
	})
}

// UpdateTimesheetWithEntries persists a timesheet and the given entries in
// one transaction. Either every row changes or none does.
func (r *SQLiteRepository) UpdateTimesheetWithEntries(ctx context.Context, ts *domain.Timesheet, entries []domain.TimeEntry) error {
	now := r.now()
	ts.UpdatedAt = now
	for i := range entries {
		entries[i].UpdatedAt = now
	}

	return r.write(ctx, "update timesheet with entries", func(ctx context.Context) error {
		return r.inTx(ctx, func(tx *sql.Tx) error {
			if err := ExecuteWithRowsAffected(ctx, tx, updateTimesheetQuery, "timesheet", ts.ID, timesheetUpdateArgs(ts)...); err != nil {
				return err
			}
			for i := range entries {
				e := &entries[i]
				if err := ExecuteWithRowsAffected(ctx, tx, updateEntryQuery, "time entry", e.ID, entryUpdateArgs(e)...); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// DeleteTimesheet deletes a timesheet by ID
func (r *SQLiteRepository) DeleteTimesheet(ctx context.Context, tenantID, id string) error {
	query := `DELETE FROM timesheets WHERE tenant_id = ? AND id = ?`
	return r.write(ctx, "delete timesheet", func(ctx context.Context) error {
		return ExecuteWithRowsAffected(ctx, r.db, query, "timesheet", id, tenantID, id)
	})
}
