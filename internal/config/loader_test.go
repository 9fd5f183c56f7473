package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoaderWithPath(filepath.Join(t.TempDir(), "none.toml")).Load()
	require.NoError(t, err)

	assert.Equal(t, PresenceSourceSQLite, cfg.Presence.Source)
	assert.Equal(t, PeriodWeekly, cfg.Timesheet.Period)
	assert.Equal(t, DefaultRules(), cfg.Rules)
}

func TestLoader_FileThenEnvironment(t *testing.T) {
	path := writeConfig(t, `
[database]
dir = "/var/lib/tse"

[rules]
duration_tolerance_minutes = 5
weekly_max_hours = 50.0

[timesheet]
period = "monthly"

[application]
tenant_id = "acme"
`)
	t.Setenv("TSE_TENANT", "globex")

	cfg, err := NewLoaderWithPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/tse", cfg.Database.Dir)
	assert.Equal(t, 5, cfg.Rules.DurationToleranceMinutes)
	assert.Equal(t, 50.0, cfg.Rules.WeeklyMaxHours)
	assert.Equal(t, 40.0, cfg.Rules.WeeklyWarnHours)
	assert.Equal(t, PeriodMonthly, cfg.Timesheet.Period)
	assert.Equal(t, "globex", cfg.Application.TenantID)
}

func TestLoader_InvalidFile(t *testing.T) {
	path := writeConfig(t, "[database\n")
	_, err := NewLoaderWithPath(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoader_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
[presence]
source = "mysql"
`)
	_, err := NewLoaderWithPath(path).Load()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "presence.dsn", cfgErr.Field)
}

func TestLoader_LoadWithOverrides(t *testing.T) {
	dir := t.TempDir()
	tenant := "initech"
	format := "json"
	pageSize := 250

	cfg, err := NewLoaderWithPath("").LoadWithOverrides(&ConfigOverrides{
		DBDir:        &dir,
		TenantID:     &tenant,
		LogFormat:    &format,
		SyncPageSize: &pageSize,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tse.db"), cfg.GetDatabasePath())
	assert.Equal(t, "initech", cfg.Application.TenantID)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 250, cfg.Sync.PageSize)

	tooBig := 1000
	_, err = NewLoaderWithPath("").LoadWithOverrides(&ConfigOverrides{SyncPageSize: &tooBig})
	assert.Error(t, err)
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("TSE_CONFIG", "/etc/tse.toml")
	assert.Equal(t, "/etc/tse.toml", DefaultConfigPath())
}
