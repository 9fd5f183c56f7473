// Package mysql reads presence records from an external attendance database.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"timesheet-engine/internal/domain"
	apperrors "timesheet-engine/internal/errors"
	"timesheet-engine/internal/logging"
)

const presenceColumns = `id, tenant_id, employee_id, DATE_FORMAT(entry_date, '%Y-%m-%d'), clock_in, clock_out,
	COALESCE(breaks, '[]'), status, late, early_leave, overtime, actual_work_hours, COALESCE(notes, '')`

// PresenceSource implements the presence collaborator against MySQL. It never writes.
type PresenceSource struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPresenceSource opens a MySQL connection using the provided DSN.
// The DSN must enable parseTime, e.g. user:pass@tcp(host:3306)/hr?parseTime=true
func NewPresenceSource(ctx context.Context, dsn string, log *slog.Logger) (*PresenceSource, error) {
	if dsn == "" {
		return nil, errors.New("mysql: DSN is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, apperrors.NewUnavailableError("presence database", err)
	}
	return &PresenceSource{db: db, log: logging.OrDiscard(log)}, nil
}

// Close releases the connection pool.
func (s *PresenceSource) Close() error {
	return s.db.Close()
}

// FindPresenceByID returns a single record.
func (s *PresenceSource) FindPresenceByID(ctx context.Context, tenantID, id string) (domain.PresenceEntry, error) {
	q := `SELECT ` + presenceColumns + ` FROM presence_entries WHERE tenant_id = ? AND id = ?`
	return s.findOne(ctx, q, id, tenantID, id)
}

// FindPresenceByEmployeeAndDate returns the employee's record for a day.
func (s *PresenceSource) FindPresenceByEmployeeAndDate(ctx context.Context, tenantID, employeeID, date string) (domain.PresenceEntry, error) {
	q := `SELECT ` + presenceColumns + ` FROM presence_entries
WHERE tenant_id = ? AND employee_id = ? AND entry_date = ?`
	return s.findOne(ctx, q, employeeID+"/"+date, tenantID, employeeID, date)
}

func (s *PresenceSource) findOne(ctx context.Context, q, id string, args ...interface{}) (domain.PresenceEntry, error) {
	p, err := scanPresence(s.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PresenceEntry{}, apperrors.NewNotFoundError("presence entry", id)
	}
	if err != nil {
		return domain.PresenceEntry{}, s.unavailable("find presence", err)
	}
	return p, nil
}

// FindPresenceByTenantAndDateRange pages through a tenant's records in [from, to].
func (s *PresenceSource) FindPresenceByTenantAndDateRange(ctx context.Context, tenantID, from, to string, limit, offset int) ([]domain.PresenceEntry, error) {
	q := `SELECT ` + presenceColumns + ` FROM presence_entries
WHERE tenant_id = ? AND entry_date BETWEEN ? AND ?
ORDER BY entry_date, employee_id, id`
	args := []interface{}{tenantID, from, to}
	if limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, s.unavailable("list presence", err)
	}
	defer rows.Close()

	var out []domain.PresenceEntry
	for rows.Next() {
		p, err := scanPresence(rows)
		if err != nil {
			return nil, s.unavailable("scan presence", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.unavailable("list presence", err)
	}
	s.log.Debug("mysql presence page read", slog.String("tenant_id", tenantID), slog.Int("count", len(out)))
	return out, nil
}

func (s *PresenceSource) unavailable(op string, err error) error {
	if ctxErr := apperrors.FromContext(op, err); ctxErr != err {
		return ctxErr
	}
	s.log.Warn("mysql presence query failed", slog.String("op", op), slog.String("error", err.Error()))
	return apperrors.NewUnavailableError("presence database", err)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPresence(sc scanner) (domain.PresenceEntry, error) {
	var (
		p           domain.PresenceEntry
		clockIn     sql.NullTime
		clockOut    sql.NullTime
		breaksJSON  string
		status      string
		actualHours sql.NullFloat64
	)
	err := sc.Scan(&p.ID, &p.TenantID, &p.EmployeeID, &p.Date, &clockIn, &clockOut,
		&breaksJSON, &status, &p.Late, &p.EarlyLeave, &p.Overtime, &actualHours, &p.Notes)
	if err != nil {
		return domain.PresenceEntry{}, err
	}

	if clockIn.Valid {
		t := clockIn.Time
		p.ClockInTime = &t
	}
	if clockOut.Valid {
		t := clockOut.Time
		p.ClockOutTime = &t
	}
	if actualHours.Valid {
		h := actualHours.Float64
		p.ActualWorkHours = &h
	}
	if breaksJSON != "" {
		if err := json.Unmarshal([]byte(breaksJSON), &p.Breaks); err != nil {
			return domain.PresenceEntry{}, err
		}
	}
	p.Status = domain.PresenceStatus(status)
	return p, nil
}
