package cli

import (
	"context"

	"timesheet-engine/internal/services"
)

// ReconcileCommand handles the reconcile command
type ReconcileCommand struct {
	app          *App
	errorHandler *ErrorHandler
}

// NewReconcileCommand creates a new reconcile command handler
func NewReconcileCommand(app *App) *ReconcileCommand {
	return &ReconcileCommand{
		app:          app,
		errorHandler: NewErrorHandler(),
	}
}

// Execute compares the employee's presence with their time entries on date.
func (c *ReconcileCommand) Execute(ctx context.Context, employeeID, date string) error {
	day, err := c.app.day(ctx, date)
	if err != nil {
		return c.errorHandler.Handle("reconcile", err)
	}

	report, err := c.app.businessAPI.Reconcile(ctx, c.app.tenant(), employeeID, day)
	if err != nil {
		return c.errorHandler.Handle("reconcile", err)
	}
	return c.app.render(report)
}

// SyncOptions selects the presence records a sync run covers.
type SyncOptions struct {
	From   string
	To     string
	Limit  int
	Offset int
	// All keeps requesting pages until the range is exhausted.
	All bool
}

// SyncCommand handles the sync command
type SyncCommand struct {
	app          *App
	errorHandler *ErrorHandler
}

// NewSyncCommand creates a new sync command handler
func NewSyncCommand(app *App) *SyncCommand {
	return &SyncCommand{
		app:          app,
		errorHandler: NewErrorHandler(),
	}
}

// Execute turns presence records in the range into time entries and prints
// the counts. With All set the pages are merged into one result.
func (c *SyncCommand) Execute(ctx context.Context, opts SyncOptions) error {
	from, err := c.app.day(ctx, opts.From)
	if err != nil {
		return c.errorHandler.Handle("sync presence", err)
	}
	to := from
	if opts.To != "" {
		if to, err = c.app.day(ctx, opts.To); err != nil {
			return c.errorHandler.Handle("sync presence", err)
		}
	}

	offset := opts.Offset
	var total *services.SyncResult
	for {
		page, err := c.app.businessAPI.SyncPresenceRange(ctx, c.app.tenant(), from, to, opts.Limit, offset)
		if err != nil {
			return c.errorHandler.Handle("sync presence", err)
		}
		total = mergeSync(total, page)

		if !opts.All || !page.HasMore || page.NextOffset <= offset {
			break
		}
		offset = page.NextOffset
	}
	return c.app.render(total)
}

func mergeSync(total, page *services.SyncResult) *services.SyncResult {
	if total == nil {
		merged := *page
		merged.Errors = append([]string{}, page.Errors...)
		return &merged
	}
	total.Processed += page.Processed
	total.Created += page.Created
	total.Updated += page.Updated
	total.Skipped += page.Skipped
	total.Errors = append(total.Errors, page.Errors...)
	total.HasMore = page.HasMore
	total.NextOffset = page.NextOffset
	return total
}

// DatabaseCommand handles the db subcommands
type DatabaseCommand struct {
	app          *App
	errorHandler *ErrorHandler
}

// NewDatabaseCommand creates a new db command handler
func NewDatabaseCommand(app *App) *DatabaseCommand {
	return &DatabaseCommand{
		app:          app,
		errorHandler: NewErrorHandler(),
	}
}

// Status prints the schema version of the store.
func (c *DatabaseCommand) Status(ctx context.Context) error {
	status, err := c.app.businessAPI.DatabaseStatus(ctx)
	if err != nil {
		return c.errorHandler.Handle("read database status", err)
	}
	return c.app.render(status)
}
