package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"timesheet-engine/internal/domain"
)

const entryOrder = ` ORDER BY entry_date ASC, start_time ASC, created_at ASC, id ASC`

// FindEntryByID retrieves a time entry by ID
func (r *SQLiteRepository) FindEntryByID(ctx context.Context, tenantID, id string) (domain.TimeEntry, error) {
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE tenant_id = ? AND id = ?`
	row, err := QuerySingle(ctx, r.db, query, scanEntryRow, "time entry", id, tenantID, id)
	if err != nil {
		return domain.TimeEntry{}, err
	}
	entry, err := entryFromRow(row)
	if err != nil {
		return domain.TimeEntry{}, HandleDatabaseError("decode time entry", err)
	}
	return entry, nil
}

// FindEntriesByEmployeeAndDateRange returns an employee's entries with dates in [from, to].
func (r *SQLiteRepository) FindEntriesByEmployeeAndDateRange(ctx context.Context, tenantID, employeeID, from, to string) ([]domain.TimeEntry, error) {
	return r.SearchEntries(ctx, tenantID, domain.EntryFilter{EmployeeID: employeeID, From: from, To: to})
}

// FindEntriesByTimesheet returns all entries attached to a timesheet.
func (r *SQLiteRepository) FindEntriesByTimesheet(ctx context.Context, tenantID, timesheetID string) ([]domain.TimeEntry, error) {
	return r.SearchEntries(ctx, tenantID, domain.EntryFilter{TimesheetID: timesheetID})
}

// FindEntriesByPresenceEntry returns the entries generated from one presence record.
func (r *SQLiteRepository) FindEntriesByPresenceEntry(ctx context.Context, tenantID, presenceEntryID string) ([]domain.TimeEntry, error) {
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE tenant_id = ? AND presence_entry_id = ?` + entryOrder
	return r.queryEntries(ctx, query, tenantID, presenceEntryID)
}

// SearchEntries returns the tenant's entries matching filter.
func (r *SQLiteRepository) SearchEntries(ctx context.Context, tenantID string, filter domain.EntryFilter) ([]domain.TimeEntry, error) {
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	conditions := []string{"tenant_id = ?"}
	args := []interface{}{tenantID}

	if filter.EmployeeID != "" {
		conditions = append(conditions, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.From != "" {
		conditions = append(conditions, "entry_date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		conditions = append(conditions, "entry_date <= ?")
		args = append(args, filter.To)
	}
	if filter.TimesheetID != "" {
		conditions = append(conditions, "timesheet_id = ?")
		args = append(args, filter.TimesheetID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.DescriptionContains != "" {
		conditions = append(conditions, "description LIKE ?")
		args = append(args, "%"+filter.DescriptionContains+"%")
	}

	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE ` + strings.Join(conditions, " AND ") + entryOrder
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	return r.queryEntries(ctx, query, args...)
}

func (r *SQLiteRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]domain.TimeEntry, error) {
	rows, err := QueryMultiple(ctx, r.db, query, scanEntryRow, "time entries", args...)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.TimeEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := entryFromRow(row)
		if err != nil {
			return nil, HandleDatabaseError("decode time entry", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CreateEntry inserts entry, assigning an ID and timestamps when missing.
func (r *SQLiteRepository) CreateEntry(ctx context.Context, entry *domain.TimeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := r.now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if entry.Status == "" {
		entry.Status = domain.EntryStatusDraft
	}

	query := `INSERT INTO time_entries (` + entryColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	return r.write(ctx, "create time entry", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, query, entryArgs(entry)...)
		return err
	})
}

const updateEntryQuery = `
	UPDATE time_entries
	SET employee_id = ?, timesheet_id = ?, entry_date = ?, start_time = ?, end_time = ?,
		duration_minutes = ?, project_id = ?, activity_code_id = ?, billable = ?, hourly_rate = ?,
		total_cost = ?, description = ?, tags = ?, status = ?, source = ?, presence_entry_id = ?,
		presence_generated_at = ?, import_batch_id = ?, import_external_ref = ?, updated_at = ?
	WHERE tenant_id = ? AND id = ?`

func entryUpdateArgs(entry *domain.TimeEntry) []interface{} {
	args := entryArgs(entry)
	// args[2:21] skips id and tenant and stops before created_at.
	updateArgs := append([]interface{}{}, args[2:21]...)
	return append(updateArgs, args[22], entry.TenantID, entry.ID)
}

// UpdateEntry overwrites every mutable column of an existing entry.
func (r *SQLiteRepository) UpdateEntry(ctx context.Context, entry *domain.TimeEntry) error {
	entry.UpdatedAt = r.now()

	return r.write(ctx, "update time entry", func(ctx context.Context) error {
		return ExecuteWithRowsAffected(ctx, r.db, updateEntryQuery, "time entry", entry.ID, entryUpdateArgs(entry)...)
	})
}

// DeleteEntry deletes a time entry by ID
func (r *SQLiteRepository) DeleteEntry(ctx context.Context, tenantID, id string) error {
	query := `DELETE FROM time_entries WHERE tenant_id = ? AND id = ?`
	return r.write(ctx, "delete time entry", func(ctx context.Context) error {
		return ExecuteWithRowsAffected(ctx, r.db, query, "time entry", id, tenantID, id)
	})
}

// BatchDeleteEntries removes ids in one transaction and returns how many rows went away.
func (r *SQLiteRepository) BatchDeleteEntries(ctx context.Context, tenantID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int
	err := r.write(ctx, "batch delete time entries", func(ctx context.Context) error {
		deleted = 0
		return r.inTx(ctx, func(tx *sql.Tx) error {
			for _, id := range ids {
				result, err := tx.ExecContext(ctx, `DELETE FROM time_entries WHERE tenant_id = ? AND id = ?`, tenantID, id)
				if err != nil {
					return err
				}
				n, err := result.RowsAffected()
				if err != nil {
					return err
				}
				deleted += int(n)
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
