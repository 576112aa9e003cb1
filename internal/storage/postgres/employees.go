package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"kaizen/internal/employee"
	"kaizen/internal/models"
	"kaizen/internal/storage"
)

// CreateEmployee inserts a new employee.
func (s *Store) CreateEmployee(ctx context.Context, e models.Employee) (*models.Employee, error) {
	row := s.pool.QueryRow(ctx, `
        INSERT INTO employees (employee_id, first_name, last_name, department, role, approver, active, kaizen_team, kaizen_team_date, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING `+storage.EmployeeColumns,
		e.ID, e.FirstName, e.LastName, e.Department, string(e.Role), e.Approver,
		e.Active, e.KaizenTeam, e.KaizenTeamDate, e.CreatedAt.UTC(),
	)
	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateError(err, "insert employee")
	}
	return &created, nil
}

// FindEmployee fetches a single employee by id.
func (s *Store) FindEmployee(ctx context.Context, id string) (*models.Employee, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+storage.EmployeeColumns+` FROM employees WHERE employee_id = $1`, id)
	e, err := scanEmployee(row)
	if err != nil {
		return nil, translateError(err, "get employee")
	}
	return &e, nil
}

// UpdateEmployee applies a column patch to an employee.
func (s *Store) UpdateEmployee(ctx context.Context, id string, patch storage.Patch) (*models.Employee, error) {
	if err := patch.CheckEmployee(); err != nil {
		return nil, err
	}
	set, args := setClause(patch)
	args = append(args, id)

	row := s.pool.QueryRow(ctx, `UPDATE employees SET `+set+`, updated_at = now() WHERE employee_id = `+placeholder(len(args))+
		` RETURNING `+storage.EmployeeColumns, args...)
	e, err := scanEmployee(row)
	if err != nil {
		return nil, translateError(err, "update employee")
	}
	return &e, nil
}

// ListEmployees returns employees ordered by id.
func (s *Store) ListEmployees(ctx context.Context, f employee.Filter) ([]models.Employee, error) {
	var (
		where []string
		args  []any
	)
	if f.Department != "" {
		args = append(args, f.Department)
		where = append(where, "department = "+placeholder(len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		where = append(where, "active = "+placeholder(len(args)))
	}
	q := `SELECT ` + storage.EmployeeColumns + ` FROM employees`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	return s.queryEmployees(ctx, q+` ORDER BY employee_id`, args...)
}

// ListActiveEmployees returns every active employee.
func (s *Store) ListActiveEmployees(ctx context.Context) ([]models.Employee, error) {
	return s.queryEmployees(ctx, `SELECT `+storage.EmployeeColumns+` FROM employees WHERE active ORDER BY employee_id`)
}

// ListByApprover returns the ids of employees whose approver is approverID.
func (s *Store) ListByApprover(ctx context.Context, approverID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT employee_id FROM employees WHERE approver = $1 ORDER BY employee_id`, approverID)
	if err != nil {
		return nil, fmt.Errorf("list by approver: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan employee id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListDepartments returns every department ordered by code.
func (s *Store) ListDepartments(ctx context.Context) ([]models.Department, error) {
	rows, err := s.pool.Query(ctx, `SELECT code, name, active FROM departments ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var out []models.Department
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.Code, &d.Name, &d.Active); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SaveDepartment inserts a department or updates an existing one.
func (s *Store) SaveDepartment(ctx context.Context, d models.Department) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO departments (code, name, active) VALUES ($1, $2, $3)
        ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, active = EXCLUDED.active`,
		d.Code, d.Name, d.Active)
	return translateError(err, "save department")
}

func (s *Store) queryEmployees(ctx context.Context, q string, args ...any) ([]models.Employee, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []models.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEmployee(row pgx.Row) (models.Employee, error) {
	var (
		e        models.Employee
		role     string
		approver sql.NullString
		teamDate sql.NullString
	)
	if err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Department, &role, &approver,
		&e.Active, &e.KaizenTeam, &teamDate, &e.CreatedAt); err != nil {
		return models.Employee{}, err
	}
	e.Role = models.Role(role)
	if approver.Valid {
		e.Approver = &approver.String
	}
	if teamDate.Valid {
		e.KaizenTeamDate = &teamDate.String
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}
