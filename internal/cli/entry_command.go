package cli

import (
	"context"
	"strings"
	"time"

	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
)

// EntryInput holds the entry fields given on the command line. A nil field
// was not given and leaves the current value alone.
type EntryInput struct {
	EmployeeID     *string
	Date           *string
	Start          *string
	End            *string
	Duration       *int
	Description    *string
	ProjectID      *string
	ActivityCodeID *string
	TimesheetID    *string
	Billable       *bool
	HourlyRate     *float64
	Tags           []string
}

// apply overlays the input on base. Dates go through the engine's day
// parser; clock times are read on the entry's day. When both times are
// known and no duration was given, the duration follows the times.
func (in EntryInput) apply(ctx context.Context, app *App, base domain.TimeEntry) (domain.TimeEntry, error) {
	entry := base

	if in.EmployeeID != nil {
		entry.EmployeeID = strings.TrimSpace(*in.EmployeeID)
	}
	if in.Date != nil {
		day, err := app.day(ctx, *in.Date)
		if err != nil {
			return entry, err
		}
		if day != entry.Date {
			entry.StartTime = moveToDay(entry.StartTime, day)
			entry.EndTime = moveToDay(entry.EndTime, day)
		}
		entry.Date = day
	}
	if entry.Date == "" {
		day, err := app.day(ctx, "")
		if err != nil {
			return entry, err
		}
		entry.Date = day
	}

	timesGiven := false
	if in.Start != nil {
		start, err := app.clock(entry.Date, *in.Start)
		if err != nil {
			return entry, err
		}
		entry.StartTime = &start
		timesGiven = true
	}
	if in.End != nil {
		end, err := app.clock(entry.Date, *in.End)
		if err != nil {
			return entry, err
		}
		entry.EndTime = &end
		timesGiven = true
	}

	switch {
	case in.Duration != nil:
		entry.Duration = *in.Duration
	case timesGiven && entry.HasTimes():
		entry.Duration = int(entry.EndTime.Sub(*entry.StartTime).Minutes())
	}

	if in.Description != nil {
		entry.Description = *in.Description
	}
	if in.ProjectID != nil {
		entry.ProjectID = optional(*in.ProjectID)
	}
	if in.ActivityCodeID != nil {
		entry.ActivityCodeID = optional(*in.ActivityCodeID)
	}
	if in.TimesheetID != nil {
		entry.TimesheetID = strings.TrimSpace(*in.TimesheetID)
	}
	if in.Billable != nil {
		entry.Billable = *in.Billable
	}
	if in.HourlyRate != nil {
		rate := *in.HourlyRate
		entry.HourlyRate = &rate
	}
	if in.Tags != nil {
		entry.Tags = in.Tags
	}

	return entry, nil
}

// moveToDay keeps the wall-clock time of t but places it on day.
func moveToDay(t *time.Time, day string) *time.Time {
	if t == nil {
		return nil
	}
	d, err := time.ParseInLocation(domain.DateLayout, day, t.Location())
	if err != nil {
		return t
	}
	moved := time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
	return &moved
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// EntryCommand handles the entry subcommands
type EntryCommand struct {
	app          *App
	errorHandler *ErrorHandler
}

// NewEntryCommand creates a new entry command handler
func NewEntryCommand(app *App) *EntryCommand {
	return &EntryCommand{
		app:          app,
		errorHandler: NewErrorHandler(),
	}
}

// Validate runs the validation pipeline on a candidate entry and prints
// the report. An invalid entry is reported as an error after printing.
func (c *EntryCommand) Validate(ctx context.Context, in EntryInput) error {
	entry, err := in.apply(ctx, c.app, c.newEntry())
	if err != nil {
		return c.errorHandler.Handle("validate entry", err)
	}

	report, err := c.app.businessAPI.ValidateTimeEntry(ctx, entry)
	if err != nil {
		return c.errorHandler.Handle("validate entry", err)
	}
	if err := c.app.render(report); err != nil {
		return err
	}
	if !report.Valid {
		return c.errorHandler.HandleSimple(errors.NewValidationError("entry is invalid", nil))
	}
	return nil
}

// Create stores a new draft entry.
func (c *EntryCommand) Create(ctx context.Context, in EntryInput) error {
	entry, err := in.apply(ctx, c.app, c.newEntry())
	if err != nil {
		return c.errorHandler.Handle("create entry", err)
	}

	result, err := c.app.businessAPI.CreateEntry(ctx, entry)
	if err != nil {
		return c.errorHandler.Handle("create entry", err)
	}
	return c.app.render(result)
}

// Update changes the given fields of a stored entry.
func (c *EntryCommand) Update(ctx context.Context, id string, in EntryInput) error {
	current, err := c.app.businessAPI.GetEntry(ctx, c.app.tenant(), id)
	if err != nil {
		return c.errorHandler.Handle("update entry", err)
	}

	entry, err := in.apply(ctx, c.app, *current)
	if err != nil {
		return c.errorHandler.Handle("update entry", err)
	}

	result, err := c.app.businessAPI.UpdateEntry(ctx, entry)
	if err != nil {
		return c.errorHandler.Handle("update entry", err)
	}
	return c.app.render(result)
}

// Delete removes a draft or rejected entry.
func (c *EntryCommand) Delete(ctx context.Context, id string) error {
	if err := c.app.businessAPI.DeleteEntry(ctx, c.app.tenant(), id); err != nil {
		return c.errorHandler.Handle("delete entry", err)
	}
	return c.app.render(map[string]string{"deleted": id})
}

// Show prints one entry.
func (c *EntryCommand) Show(ctx context.Context, id string) error {
	entry, err := c.app.businessAPI.GetEntry(ctx, c.app.tenant(), id)
	if err != nil {
		return c.errorHandler.Handle("show entry", err)
	}
	return c.app.render(entry)
}

// List prints the entries matching filter. From and To accept the same
// day expressions as --date.
func (c *EntryCommand) List(ctx context.Context, filter domain.EntryFilter) error {
	entries, err := c.search(ctx, filter)
	if err != nil {
		return c.errorHandler.Handle("list entries", err)
	}
	return c.app.render(entries)
}

func (c *EntryCommand) search(ctx context.Context, filter domain.EntryFilter) ([]*domain.TimeEntry, error) {
	filter, err := c.resolveRange(ctx, filter)
	if err != nil {
		return nil, err
	}
	return c.app.businessAPI.SearchEntries(ctx, c.app.tenant(), filter)
}

// Transition moves an entry through its lifecycle. action is one of
// submit, approve, reject or reopen.
func (c *EntryCommand) Transition(ctx context.Context, action, id, reason string) error {
	tenant := c.app.tenant()

	var (
		entry *domain.TimeEntry
		err   error
	)
	switch action {
	case "submit":
		entry, err = c.app.businessAPI.SubmitEntry(ctx, tenant, id)
	case "approve":
		entry, err = c.app.businessAPI.ApproveEntry(ctx, tenant, id)
	case "reject":
		entry, err = c.app.businessAPI.RejectEntry(ctx, tenant, id, reason)
	case "reopen":
		entry, err = c.app.businessAPI.ReturnEntryToDraft(ctx, tenant, id)
	default:
		return c.errorHandler.HandleSimple(errors.NewInvalidInputError("action", action, "unknown entry action"))
	}
	if err != nil {
		return c.errorHandler.Handle(action+" entry", err)
	}
	return c.app.render(entry)
}

// Anomalies prints the anomaly tags of an entry.
func (c *EntryCommand) Anomalies(ctx context.Context, id string) error {
	report, err := c.app.businessAPI.DetectAnomalies(ctx, c.app.tenant(), id)
	if err != nil {
		return c.errorHandler.Handle("detect anomalies", err)
	}
	return c.app.render(report)
}

func (c *EntryCommand) newEntry() domain.TimeEntry {
	return domain.TimeEntry{
		TenantID: c.app.tenant(),
		Status:   domain.EntryStatusDraft,
		Metadata: domain.Metadata{Source: domain.SourceManual},
	}
}

func (c *EntryCommand) resolveRange(ctx context.Context, filter domain.EntryFilter) (domain.EntryFilter, error) {
	var err error
	if filter.From != "" {
		if filter.From, err = c.app.day(ctx, filter.From); err != nil {
			return filter, err
		}
	}
	if filter.To != "" {
		if filter.To, err = c.app.day(ctx, filter.To); err != nil {
			return filter, err
		}
	}
	return filter, nil
}

// OverlapCommand handles the overlap command
type OverlapCommand struct {
	app          *App
	errorHandler *ErrorHandler
}

// NewOverlapCommand creates a new overlap command handler
func NewOverlapCommand(app *App) *OverlapCommand {
	return &OverlapCommand{
		app:          app,
		errorHandler: NewErrorHandler(),
	}
}

// Execute prints the stored entries of employee sharing time with
// start..end on date.
func (c *OverlapCommand) Execute(ctx context.Context, employeeID, date, start, end, excludeID string) error {
	day, err := c.app.day(ctx, date)
	if err != nil {
		return c.errorHandler.Handle("check overlap", err)
	}
	from, err := c.app.clock(day, start)
	if err != nil {
		return c.errorHandler.Handle("check overlap", err)
	}
	to, err := c.app.clock(day, end)
	if err != nil {
		return c.errorHandler.Handle("check overlap", err)
	}

	report, err := c.app.businessAPI.CheckOverlap(ctx, c.app.tenant(), employeeID, day, from, to, excludeID)
	if err != nil {
		return c.errorHandler.Handle("check overlap", err)
	}
	return c.app.render(report)
}
