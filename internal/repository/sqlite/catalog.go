package sqlite

import (
	"context"

	"timesheet-engine/internal/domain"
)

type projectRow struct {
	TenantID             string
	ID                   string
	Name                 string
	Status               string
	AssignedEmployeeIDs  string
	RequiresActivityCode bool
}

type activityCodeRow struct {
	TenantID   string
	ID         string
	Code       string
	Name       string
	Active     bool
	Billable   bool
	ProjectIDs string
}

func scanProjectRow(scanner Scanner) (*projectRow, error) {
	row := &projectRow{}
	if err := scanner.Scan(&row.TenantID, &row.ID, &row.Name, &row.Status, &row.AssignedEmployeeIDs, &row.RequiresActivityCode); err != nil {
		return nil, err
	}
	return row, nil
}

func scanActivityCodeRow(scanner Scanner) (*activityCodeRow, error) {
	row := &activityCodeRow{}
	if err := scanner.Scan(&row.TenantID, &row.ID, &row.Code, &row.Name, &row.Active, &row.Billable, &row.ProjectIDs); err != nil {
		return nil, err
	}
	return row, nil
}

// GetProject retrieves a project by ID
func (r *SQLiteRepository) GetProject(ctx context.Context, tenantID, id string) (domain.Project, error) {
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `SELECT tenant_id, id, name, status, assigned_employee_ids, requires_activity_code
	FROM projects WHERE tenant_id = ? AND id = ?`
	row, err := QuerySingle(ctx, r.db, query, scanProjectRow, "project", id, tenantID, id)
	if err != nil {
		return domain.Project{}, err
	}

	employees, err := DecodeStringList(row.AssignedEmployeeIDs)
	if err != nil {
		return domain.Project{}, HandleDatabaseError("decode project", err)
	}
	return domain.Project{
		ID:                   row.ID,
		TenantID:             row.TenantID,
		Name:                 row.Name,
		Status:               row.Status,
		AssignedEmployeeIDs:  employees,
		RequiresActivityCode: row.RequiresActivityCode,
	}, nil
}

// GetActivityCode retrieves an activity code by ID
func (r *SQLiteRepository) GetActivityCode(ctx context.Context, tenantID, id string) (domain.ActivityCode, error) {
	ctx, cancel := r.readContext(ctx)
	defer cancel()

	query := `SELECT tenant_id, id, code, name, active, billable, project_ids
	FROM activity_codes WHERE tenant_id = ? AND id = ?`
	row, err := QuerySingle(ctx, r.db, query, scanActivityCodeRow, "activity code", id, tenantID, id)
	if err != nil {
		return domain.ActivityCode{}, err
	}

	projects, err := DecodeStringList(row.ProjectIDs)
	if err != nil {
		return domain.ActivityCode{}, HandleDatabaseError("decode activity code", err)
	}
	return domain.ActivityCode{
		ID:         row.ID,
		TenantID:   row.TenantID,
		Code:       row.Code,
		Name:       row.Name,
		Active:     row.Active,
		Billable:   row.Billable,
		ProjectIDs: projects,
	}, nil
}

// SaveProject inserts or replaces a project.
func (r *SQLiteRepository) SaveProject(ctx context.Context, p domain.Project) error {
	query := `INSERT INTO projects (tenant_id, id, name, status, assigned_employee_ids, requires_activity_code)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (tenant_id, id) DO UPDATE SET
		name = excluded.name,
		status = excluded.status,
		assigned_employee_ids = excluded.assigned_employee_ids,
		requires_activity_code = excluded.requires_activity_code`

	return r.write(ctx, "save project", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, query, p.TenantID, p.ID, p.Name, p.Status, EncodeStringList(p.AssignedEmployeeIDs), p.RequiresActivityCode)
		return err
	})
}

// SaveActivityCode inserts or replaces an activity code.
func (r *SQLiteRepository) SaveActivityCode(ctx context.Context, a domain.ActivityCode) error {
	query := `INSERT INTO activity_codes (tenant_id, id, code, name, active, billable, project_ids)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (tenant_id, id) DO UPDATE SET
		code = excluded.code,
		name = excluded.name,
		active = excluded.active,
		billable = excluded.billable,
		project_ids = excluded.project_ids`

	return r.write(ctx, "save activity code", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, query, a.TenantID, a.ID, a.Code, a.Name, a.Active, a.Billable, EncodeStringList(a.ProjectIDs))
		return err
	})
}
