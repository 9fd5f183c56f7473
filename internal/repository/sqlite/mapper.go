package sqlite

import (
	"encoding/json"
	"fmt"

	"timesheet-engine/internal/domain"
)

// entryFromRow converts a database row into a domain TimeEntry.
func entryFromRow(row *entryRow) (domain.TimeEntry, error) {
	start, err := ParseNullTimeFromDB(row.StartTime)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("start_time: %w", err)
	}
	end, err := ParseNullTimeFromDB(row.EndTime)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("end_time: %w", err)
	}
	tags, err := DecodeStringList(row.Tags)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("tags: %w", err)
	}
	createdAt, err := ParseTimeFromDB(row.CreatedAt)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("created_at: %w", err)
	}
	updatedAt, err := ParseTimeFromDB(row.UpdatedAt)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("updated_at: %w", err)
	}

	meta := domain.Metadata{Source: domain.EntrySource(row.Source)}
	if row.PresenceEntryID.Valid {
		generatedAt, err := ParseNullTimeFromDB(row.PresenceGeneratedAt)
		if err != nil {
			return domain.TimeEntry{}, fmt.Errorf("presence_generated_at: %w", err)
		}
		meta.Presence = &domain.PresenceMetadata{PresenceEntryID: row.PresenceEntryID.String}
		if generatedAt != nil {
			meta.Presence.GeneratedAt = *generatedAt
		}
	}
	if row.ImportBatchID.Valid || row.ImportExternalRef.Valid {
		meta.Import = &domain.ImportMetadata{
			BatchID:     row.ImportBatchID.String,
			ExternalRef: row.ImportExternalRef.String,
		}
	}

	return domain.TimeEntry{
		ID:             row.ID,
		TenantID:       row.TenantID,
		EmployeeID:     row.EmployeeID,
		TimesheetID:    row.TimesheetID,
		Date:           row.Date,
		StartTime:      start,
		EndTime:        end,
		Duration:       row.Duration,
		ProjectID:      nullString(row.ProjectID),
		ActivityCodeID: nullString(row.ActivityCodeID),
		Billable:       row.Billable,
		HourlyRate:     nullFloat(row.HourlyRate),
		TotalCost:      nullFloat(row.TotalCost),
		Description:    row.Description,
		Tags:           tags,
		Status:         domain.EntryStatus(row.Status),
		Metadata:       meta,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// entryArgs returns the column values of an entry in entryColumns order.
func entryArgs(e *domain.TimeEntry) []interface{} {
	var presenceID, generatedAt, batchID, externalRef interface{}
	if e.Metadata.Presence != nil {
		presenceID = e.Metadata.Presence.PresenceEntryID
		if !e.Metadata.Presence.GeneratedAt.IsZero() {
			generatedAt = FormatTimeForDB(e.Metadata.Presence.GeneratedAt)
		}
	}
	if e.Metadata.Import != nil {
		batchID = e.Metadata.Import.BatchID
		externalRef = e.Metadata.Import.ExternalRef
	}
	source := e.Metadata.Source
	if source == "" {
		source = domain.SourceManual
	}

	return []interface{}{
		e.ID,
		e.TenantID,
		e.EmployeeID,
		e.TimesheetID,
		e.Date,
		FormatTimePtrForDB(e.StartTime),
		FormatTimePtrForDB(e.EndTime),
		e.Duration,
		StringPtrForDB(e.ProjectID),
		StringPtrForDB(e.ActivityCodeID),
		e.Billable,
		FloatPtrForDB(e.HourlyRate),
		FloatPtrForDB(e.TotalCost),
		e.Description,
		EncodeStringList(e.Tags),
		string(e.Status),
		string(source),
		presenceID,
		generatedAt,
		batchID,
		externalRef,
		FormatTimeForDB(e.CreatedAt),
		FormatTimeForDB(e.UpdatedAt),
	}
}

// timesheetFromRow converts a database row into a domain Timesheet.
func timesheetFromRow(row *timesheetRow) (domain.Timesheet, error) {
	ts := domain.Timesheet{
		ID:                 row.ID,
		TenantID:           row.TenantID,
		EmployeeID:         row.EmployeeID,
		PeriodStart:        row.PeriodStart,
		PeriodEnd:          row.PeriodEnd,
		Status:             domain.TimesheetStatus(row.Status),
		TotalHours:         row.TotalHours,
		TotalBillableHours: row.TotalBillableHours,
		TotalCost:          row.TotalCost,
		ApprovedBy:         nullString(row.ApprovedBy),
		LockedBy:           nullString(row.LockedBy),
	}

	var err error
	if ts.SubmittedAt, err = ParseNullTimeFromDB(row.SubmittedAt); err != nil {
		return domain.Timesheet{}, fmt.Errorf("submitted_at: %w", err)
	}
	if ts.ApprovedAt, err = ParseNullTimeFromDB(row.ApprovedAt); err != nil {
		return domain.Timesheet{}, fmt.Errorf("approved_at: %w", err)
	}
	if ts.LockedAt, err = ParseNullTimeFromDB(row.LockedAt); err != nil {
		return domain.Timesheet{}, fmt.Errorf("locked_at: %w", err)
	}
	if ts.CreatedAt, err = ParseTimeFromDB(row.CreatedAt); err != nil {
		return domain.Timesheet{}, fmt.Errorf("created_at: %w", err)
	}
	if ts.UpdatedAt, err = ParseTimeFromDB(row.UpdatedAt); err != nil {
		return domain.Timesheet{}, fmt.Errorf("updated_at: %w", err)
	}
	return ts, nil
}

// presenceFromRow converts a database row into a domain PresenceEntry.
func presenceFromRow(row *presenceRow) (domain.PresenceEntry, error) {
	clockIn, err := ParseNullTimeFromDB(row.ClockIn)
	if err != nil {
		return domain.PresenceEntry{}, fmt.Errorf("clock_in: %w", err)
	}
	clockOut, err := ParseNullTimeFromDB(row.ClockOut)
	if err != nil {
		return domain.PresenceEntry{}, fmt.Errorf("clock_out: %w", err)
	}
	breaks, err := DecodeBreaks(row.Breaks)
	if err != nil {
		return domain.PresenceEntry{}, fmt.Errorf("breaks: %w", err)
	}

	return domain.PresenceEntry{
		ID:              row.ID,
		TenantID:        row.TenantID,
		EmployeeID:      row.EmployeeID,
		Date:            row.Date,
		ClockInTime:     clockIn,
		ClockOutTime:    clockOut,
		Breaks:          breaks,
		Status:          domain.PresenceStatus(row.Status),
		Late:            row.Late,
		EarlyLeave:      row.EarlyLeave,
		Overtime:        row.Overtime,
		ActualWorkHours: nullFloat(row.ActualWorkHours),
		Notes:           row.Notes,
	}, nil
}

// EncodeBreaks stores presence breaks as a JSON array.
func EncodeBreaks(breaks []domain.BreakEntry) string {
	if len(breaks) == 0 {
		return "[]"
	}
	data, err := json.Marshal(breaks)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodeBreaks is the inverse of EncodeBreaks.
func DecodeBreaks(s string) ([]domain.BreakEntry, error) {
	if s == "" {
		return nil, nil
	}
	var breaks []domain.BreakEntry
	if err := json.Unmarshal([]byte(s), &breaks); err != nil {
		return nil, err
	}
	if len(breaks) == 0 {
		return nil, nil
	}
	return breaks, nil
}
