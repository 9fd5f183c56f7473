package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
)

// OutputCommand exports time entries
type OutputCommand struct {
	app          *App
	errorHandler *ErrorHandler
}

// NewOutputCommand creates a new output command handler
func NewOutputCommand(app *App) *OutputCommand {
	return &OutputCommand{
		app:          app,
		errorHandler: NewErrorHandler(),
	}
}

// Execute writes the entries matching filter in format (csv or json).
func (c *OutputCommand) Execute(ctx context.Context, format string, filter domain.EntryFilter) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "csv" && format != "json" {
		return c.errorHandler.HandleSimple(errors.NewInvalidInputError("format", format, "unsupported format"))
	}

	entries, err := NewEntryCommand(c.app).search(ctx, filter)
	if err != nil {
		return c.errorHandler.Handle("export entries", err)
	}

	if format == "json" {
		return c.app.render(entries)
	}
	return c.outputCSV(entries)
}

func (c *OutputCommand) outputCSV(entries []*domain.TimeEntry) error {
	writer := csv.NewWriter(c.app.out)

	header := []string{"ID", "Employee", "Date", "Start Time", "End Time", "Duration (hours)", "Project", "Billable", "Total Cost", "Status", "Description", "Tags"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		row := []string{
			entry.ID,
			entry.EmployeeID,
			entry.Date,
			formatOptionalTime(entry.StartTime),
			formatOptionalTime(entry.EndTime),
			fmt.Sprintf("%.2f", entry.Hours()),
			derefString(entry.ProjectID),
			strconv.FormatBool(entry.Billable),
			formatOptionalFloat(entry.TotalCost),
			string(entry.Status),
			entry.Description,
			strings.Join(entry.Tags, ";"),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *f)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
