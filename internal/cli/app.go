package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"timesheet-engine/internal/api"
	"timesheet-engine/internal/config"
	"timesheet-engine/internal/domain"
	"timesheet-engine/internal/errors"
)

// App carries what every command handler needs: the engine facade, the
// resolved configuration and the writer results are printed to.
type App struct {
	businessAPI api.BusinessAPI
	config      *config.Config
	out         io.Writer
}

// NewApp creates a CLI application printing to stdout.
func NewApp(businessAPI api.BusinessAPI, cfg *config.Config) *App {
	return NewAppWithOutput(businessAPI, cfg, os.Stdout)
}

// NewAppWithOutput creates a CLI application printing to out.
func NewAppWithOutput(businessAPI api.BusinessAPI, cfg *config.Config, out io.Writer) *App {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if out == nil {
		out = os.Stdout
	}
	return &App{
		businessAPI: businessAPI,
		config:      cfg,
		out:         out,
	}
}

// tenant is the tenant every command is scoped to.
func (a *App) tenant() string {
	return a.config.Application.TenantID
}

// render prints v as indented JSON.
func (a *App) render(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// day resolves a CLI date argument. An empty argument means today.
func (a *App) day(ctx context.Context, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		input = "today"
	}
	return a.businessAPI.ParseDay(ctx, input)
}

// clock parses an HH:MM wall-clock time on date in the configured zone.
func (a *App) clock(date, hhmm string) (time.Time, error) {
	t, err := time.ParseInLocation(domain.DateLayout+" 15:04", date+" "+strings.TrimSpace(hhmm), a.config.Location())
	if err != nil {
		return time.Time{}, errors.NewInvalidInputError("time", hhmm, "must be HH:MM")
	}
	return t, nil
}
