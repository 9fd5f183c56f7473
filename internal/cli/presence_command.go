package cli

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
)

// PresenceCommand handles the presence subcommands
type PresenceCommand struct {
	app          *App
	errorHandler *ErrorHandler
}

// NewPresenceCommand creates a new presence command handler
func NewPresenceCommand(app *App) *PresenceCommand {
	return &PresenceCommand{
		app:          app,
		errorHandler: NewErrorHandler(),
	}
}

// Import reads a JSON array of presence records from r and stores them.
// Records without a tenant are stored under the configured one.
func (c *PresenceCommand) Import(ctx context.Context, r io.Reader) error {
	var records []domain.PresenceEntry
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return c.errorHandler.Handle("import presence", errors.NewValidationError("presence file is not a JSON array of records", err))
	}

	for i := range records {
		if strings.TrimSpace(records[i].TenantID) == "" {
			records[i].TenantID = c.app.tenant()
		}
	}

	result, err := c.app.businessAPI.ImportPresence(ctx, records)
	if err != nil {
		return c.errorHandler.Handle("import presence", err)
	}
	return c.app.render(result)
}

// Convert turns a stored presence record into draft time entries.
func (c *PresenceCommand) Convert(ctx context.Context, presenceID string) error {
	result, err := c.app.businessAPI.ConvertPresenceToEntries(ctx, c.app.tenant(), presenceID)
	if err != nil {
		return c.errorHandler.Handle("convert presence", err)
	}
	return c.app.render(result)
}
