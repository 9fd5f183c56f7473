package sqlite

import (
	"context"

	"github.com/google/uuid"

	"timesheet-engine/internal/domain"
)

// FindPresenceByID retrieves a presence record by ID
func (r *SQLiteRepository) FindPresenceByID(ctx context.Context, tenantID, id string) (domain.PresenceEntry, error) {
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `SELECT ` + presenceColumns + ` FROM presence_entries WHERE tenant_id = ? AND id = ?`
	return r.queryPresence(ctx, query, id, tenantID, id)
}

// FindPresenceByEmployeeAndDate returns the single presence record of an employee for a day.
func (r *SQLiteRepository) FindPresenceByEmployeeAndDate(ctx context.Context, tenantID, employeeID, date string) (domain.PresenceEntry, error) {
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `SELECT ` + presenceColumns + ` FROM presence_entries
	WHERE tenant_id = ? AND employee_id = ? AND entry_date = ?`
	return r.queryPresence(ctx, query, employeeID+"/"+date, tenantID, employeeID, date)
}

func (r *SQLiteRepository) queryPresence(ctx context.Context, query, id string, args ...interface{}) (domain.PresenceEntry, error) {
	row, err := QuerySingle(ctx, r.db, query, scanPresenceRow, "presence entry", id, args...)
	if err != nil {
		return domain.PresenceEntry{}, err
	}
	p, err := presenceFromRow(row)
	if err != nil {
		return domain.PresenceEntry{}, HandleDatabaseError("decode presence entry", err)
	}
	return p, nil
}

// FindPresenceByTenantAndDateRange pages through a tenant's presence records
// with dates in [from, to], ordered by date, employee and id.
func (r *SQLiteRepository) FindPresenceByTenantAndDateRange(ctx context.Context, tenantID, from, to string, limit, offset int) ([]domain.PresenceEntry, error) {
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `SELECT ` + presenceColumns + ` FROM presence_entries
	WHERE tenant_id = ? AND entry_date >= ? AND entry_date <= ?
	ORDER BY entry_date ASC, employee_id ASC, id ASC`
	args := []interface{}{tenantID, from, to}
	if limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}

	rows, err := QueryMultiple(ctx, r.db, query, scanPresenceRow, "presence entries", args...)
	if err != nil {
		return nil, err
	}

	records := make([]domain.PresenceEntry, 0, len(rows))
	for _, row := range rows {
		p, err := presenceFromRow(row)
		if err != nil {
			return nil, HandleDatabaseError("decode presence entry", err)
		}
		records = append(records, p)
	}
	return records, nil
}

// UpsertPresence inserts p or replaces the record for the same employee and day.
func (r *SQLiteRepository) UpsertPresence(ctx context.Context, p *domain.PresenceEntry) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = domain.PresencePresent
	}

	query := `INSERT INTO presence_entries (` + presenceColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (tenant_id, employee_id, entry_date) DO UPDATE SET
		clock_in = excluded.clock_in,
		clock_out = excluded.clock_out,
		breaks = excluded.breaks,
		status = excluded.status,
		late = excluded.late,
		early_leave = excluded.early_leave,
		overtime = excluded.overtime,
		actual_work_hours = excluded.actual_work_hours,
		notes = excluded.notes`

	err := r.write(ctx, "upsert presence entry", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, query,
			p.ID,
			p.TenantID,
			p.EmployeeID,
			p.Date,
			FormatTimePtrForDB(p.ClockInTime),
			FormatTimePtrForDB(p.ClockOutTime),
			EncodeBreaks(p.Breaks),
			string(p.Status),
			p.Late,
			p.EarlyLeave,
			p.Overtime,
			FloatPtrForDB(p.ActualWorkHours),
			p.Notes,
		)
		return err
	})
	if err != nil {
		return err
	}

	// An existing row keeps its id.
	stored, err := r.FindPresenceByEmployeeAndDate(ctx, p.TenantID, p.EmployeeID, p.Date)
	if err != nil {
		return err
	}
	p.ID = stored.ID
	return nil
}
