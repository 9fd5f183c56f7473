package cli

import (
	"context"

	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
)

// TimesheetCommand handles the timesheet subcommands
type TimesheetCommand struct {
	app          *App
	errorHandler *ErrorHandler
}

// NewTimesheetCommand creates a new timesheet command handler
func NewTimesheetCommand(app *App) *TimesheetCommand {
	return &TimesheetCommand{
		app:          app,
		errorHandler: NewErrorHandler(),
	}
}

// Show prints one timesheet.
func (c *TimesheetCommand) Show(ctx context.Context, id string) error {
	ts, err := c.app.businessAPI.GetTimesheet(ctx, c.app.tenant(), id)
	if err != nil {
		return c.errorHandler.Handle("show timesheet", err)
	}
	return c.app.render(ts)
}

// ForDate prints the employee's timesheet for the period containing date,
// opening a draft one when none exists yet.
func (c *TimesheetCommand) ForDate(ctx context.Context, employeeID, date string) error {
	day, err := c.app.day(ctx, date)
	if err != nil {
		return c.errorHandler.Handle("open timesheet", err)
	}

	ts, err := c.app.businessAPI.TimesheetForDate(ctx, c.app.tenant(), employeeID, day)
	if err != nil {
		return c.errorHandler.Handle("open timesheet", err)
	}
	return c.app.render(ts)
}

// Check prints the timesheet with its validation report.
func (c *TimesheetCommand) Check(ctx context.Context, id string) error {
	check, err := c.app.businessAPI.CheckTimesheet(ctx, c.app.tenant(), id)
	if err != nil {
		return c.errorHandler.Handle("check timesheet", err)
	}
	return c.app.render(check)
}

// Recalc recomputes and stores the timesheet totals.
func (c *TimesheetCommand) Recalc(ctx context.Context, id string) error {
	totals, err := c.app.businessAPI.RecalculateTimesheet(ctx, c.app.tenant(), id)
	if err != nil {
		return c.errorHandler.Handle("recalculate timesheet", err)
	}
	return c.app.render(totals)
}

// Submit validates the timesheet and submits it when it is clean. The
// report is printed either way.
func (c *TimesheetCommand) Submit(ctx context.Context, id string) error {
	check, err := c.app.businessAPI.SubmitTimesheet(ctx, c.app.tenant(), id)
	if err != nil {
		return c.errorHandler.Handle("submit timesheet", err)
	}
	if err := c.app.render(check); err != nil {
		return err
	}
	if check.Validation != nil && !check.Validation.Valid {
		return c.errorHandler.HandleSimple(errors.NewValidationError("timesheet has validation errors", nil))
	}
	return nil
}

// Transition moves a timesheet through its lifecycle. action is one of
// approve, reject, lock or unlock; arg is the approver, the rejection
// reason or the locking user.
func (c *TimesheetCommand) Transition(ctx context.Context, action, id, arg string) error {
	tenant := c.app.tenant()

	var (
		ts  *domain.Timesheet
		err error
	)
	switch action {
	case "approve":
		ts, err = c.app.businessAPI.ApproveTimesheet(ctx, tenant, id, arg)
	case "reject":
		ts, err = c.app.businessAPI.RejectTimesheet(ctx, tenant, id, arg)
	case "lock":
		ts, err = c.app.businessAPI.LockTimesheet(ctx, tenant, id, arg)
	case "unlock":
		ts, err = c.app.businessAPI.UnlockTimesheet(ctx, tenant, id)
	default:
		return c.errorHandler.HandleSimple(errors.NewInvalidInputError("action", action, "unknown timesheet action"))
	}
	if err != nil {
		return c.errorHandler.Handle(action+" timesheet", err)
	}
	return c.app.render(ts)
}

// Delete removes a timesheet and its entries.
func (c *TimesheetCommand) Delete(ctx context.Context, id string) error {
	result, err := c.app.businessAPI.DeleteTimesheet(ctx, c.app.tenant(), id)
	if err != nil {
		return c.errorHandler.Handle("delete timesheet", err)
	}
	return c.app.render(result)
}
