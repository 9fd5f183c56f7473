package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"timesheet-engine/internal/adapter/mysql"
	"timesheet-engine/internal/api"
	"timesheet-engine/internal/config"
	"timesheet-engine/internal/services"
)

// closers releases every store the engine opened, last opened first.
type closers []io.Closer

func (c closers) Close() error {
	var first error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// newEngine opens the SQLite store and the configured presence source and
// builds the engine over them.
func newEngine(cfg *config.Config, logger *slog.Logger) (api.BusinessAPI, io.Closer, error) {
	repo, err := config.CreateRepository(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	opened := closers{repo}

	deps := services.Dependencies{
		Entries:        repo,
		Timesheets:     repo,
		Catalog:        repo,
		Presence:       repo,
		PresenceWriter: repo,
		Config:         cfg,
		Logger:         logger,
	}

	if cfg.Presence.Source == config.PresenceSourceMySQL {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.GetTimeout())
		defer cancel()

		source, err := mysql.NewPresenceSource(ctx, cfg.Presence.DSN, logger)
		if err != nil {
			_ = opened.Close()
			return nil, nil, fmt.Errorf("failed to connect presence database: %w", err)
		}
		opened = append(opened, source)
		deps.Presence = source
		// The external attendance database is read-only.
		deps.PresenceWriter = nil
	}

	svc := services.NewServiceContainer(deps)
	return api.NewBusinessAPI(svc, repo), opened, nil
}
