package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunMigrations_CreatesSchema(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, RunMigrations(db))

	for _, table := range []string{"timesheets", "time_entries", "presence_entries", "projects", "activity_codes"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, RunMigrations(db))
	require.NoError(t, RunMigrations(db))

	status, err := GetStatus(db)
	require.NoError(t, err)
	assert.Equal(t, uint(3), status.CurrentVersion)
	assert.Equal(t, uint(3), status.LatestVersion)
	assert.False(t, status.Dirty)
	assert.False(t, status.Pending)
}

func TestGetStatus_BeforeMigrating(t *testing.T) {
	db := openTestDB(t)

	status, err := GetStatus(db)
	require.NoError(t, err)
	assert.Equal(t, uint(0), status.CurrentVersion)
	assert.True(t, status.Pending)
}

func TestUniqueTimesheetPerPeriod(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, RunMigrations(db))

	insert := `INSERT INTO timesheets (id, tenant_id, employee_id, period_start, period_end, created_at, updated_at)
		VALUES (?, 't1', 'emp-1', '2024-01-15', '2024-01-21', '', '')`
	_, err := db.Exec(insert, "a")
	require.NoError(t, err)

	_, err = db.Exec(insert, "b")
	assert.Error(t, err)
}
