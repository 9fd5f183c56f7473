package sqlite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"timesheet-engine/internal/errors"
	"timesheet-engine/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Options tunes a SQLiteRepository. Zero values disable the matching limit.
type Options struct {
	MaxRetries   int
	QueryTimeout time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

// SQLiteRepository stores timesheets, time entries, presence records and the
// project catalog in a single SQLite database.
type SQLiteRepository struct {
	db           *sql.DB
	retry        retryConfig
	queryTimeout time.Duration
	writeTimeout time.Duration
	logger       *slog.Logger
}

// New creates a new SQLite repository instance
func New(dbPath string) (*SQLiteRepository, error) {
	return NewWithOptions(dbPath, Options{MaxRetries: defaultRetryConfig.maxRetries})
}

// NewWithOptions opens dbPath, applies migrations and returns a repository
// configured with opts.
func NewWithOptions(dbPath string, opts Options) (*SQLiteRepository, error) {
	dsn := dbPath
	if dbPath != MemoryPath {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewDatabaseError("open database", err)
	}

	// Every connection to :memory: gets its own database.
	if dbPath == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := migrations.RunMigrations(db); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("run migrations", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	retry := defaultRetryConfig
	if opts.MaxRetries >= 0 {
		retry.maxRetries = opts.MaxRetries
	}

	logger.Debug("database opened", "path", dbPath)

	return &SQLiteRepository{
		db:           db,
		retry:        retry,
		queryTimeout: opts.QueryTimeout,
		writeTimeout: opts.WriteTimeout,
		logger:       logger,
	}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// MigrationStatus reports the schema version of the open database.
func (r *SQLiteRepository) MigrationStatus() (*migrations.Status, error) {
	status, err := migrations.GetStatus(r.db)
	if err != nil {
		return nil, errors.NewDatabaseError("migration status", err)
	}
	return status, nil
}

func (r *SQLiteRepository) readContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

func (r *SQLiteRepository) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.writeTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.writeTimeout)
}

// write runs fn with the write timeout and transient-error retries.
func (r *SQLiteRepository) write(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, cancel := r.writeContext(ctx)
	defer cancel()

	err := retryOp(ctx, r.retry, func() error { return fn(ctx) })
	if err != nil && !errors.IsAppError(err) {
		r.logger.Warn("database write failed", "operation", operation, "error", err)
	}
	return HandleDatabaseError(operation, err)
}

// inTx runs fn inside a transaction, rolling back on error.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
