package sqlite

// Scanner interface defines the common scanning behavior for both sql.Row and sql.Rows
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows interface defines the common behavior for sql.Rows
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanEntryRow scans a single time_entries row
func scanEntryRow(scanner Scanner) (*entryRow, error) {
	row := &entryRow{}
	err := scanner.Scan(
		&row.ID,
		&row.TenantID,
		&row.EmployeeID,
		&row.TimesheetID,
		&row.Date,
		&row.StartTime,
		&row.EndTime,
		&row.Duration,
		&row.ProjectID,
		&row.ActivityCodeID,
		&row.Billable,
		&row.HourlyRate,
		&row.TotalCost,
		&row.Description,
		&row.Tags,
		&row.Status,
		&row.Source,
		&row.PresenceEntryID,
		&row.PresenceGeneratedAt,
		&row.ImportBatchID,
		&row.ImportExternalRef,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// scanTimesheetRow scans a single timesheets row
func scanTimesheetRow(scanner Scanner) (*timesheetRow, error) {
	row := &timesheetRow{}
	err := scanner.Scan(
		&row.ID,
		&row.TenantID,
		&row.EmployeeID,
		&row.PeriodStart,
		&row.PeriodEnd,
		&row.Status,
		&row.TotalHours,
		&row.TotalBillableHours,
		&row.TotalCost,
		&row.SubmittedAt,
		&row.ApprovedAt,
		&row.ApprovedBy,
		&row.LockedBy,
		&row.LockedAt,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// scanPresenceRow scans a single presence_entries row
func scanPresenceRow(scanner Scanner) (*presenceRow, error) {
	row := &presenceRow{}
	err := scanner.Scan(
		&row.ID,
		&row.TenantID,
		&row.EmployeeID,
		&row.Date,
		&row.ClockIn,
		&row.ClockOut,
		&row.Breaks,
		&row.Status,
		&row.Late,
		&row.EarlyLeave,
		&row.Overtime,
		&row.ActualWorkHours,
		&row.Notes,
	)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// scanAll drains rows through scan
func scanAll[T any](rows Rows, scan func(Scanner) (*T, error)) ([]*T, error) {
	var results []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
