package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kaizen/internal/models"
	"kaizen/internal/query"
	"kaizen/internal/storage"
)

// Insert persists a new project and returns it with its id.
func (s *Store) Insert(ctx context.Context, p models.Project) (models.Project, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO projects(employee_id, department, project_name, project_area, group_name,
            start_date, end_date, problem_description, solution, results, five_s_type, five_s_area, improvement_topic,
            sgs_smart, sgs_green, sgs_safety, before_image_url, after_image_url, form_type, status, created_at,
            submitted_at, submitted_date)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.EmployeeID, p.Department, p.ProjectName, p.ProjectArea, p.GroupName,
		p.StartDate, p.EndDate, p.ProblemDescription, p.Solution, p.Results, p.FiveSType, p.FiveSArea, p.ImprovementTopic,
		p.SGSSmart, p.SGSGreen, p.SGSSafety, p.BeforeImage, p.AfterImage, string(p.FormType), string(p.Status), p.CreatedAt.UTC(),
		utcOrNil(p.SubmittedAt), p.SubmittedDate)
	if err != nil {
		return models.Project{}, translateError(err, "insert project")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Project{}, fmt.Errorf("project id: %w", err)
	}
	return s.FindByID(ctx, id)
}

// FindByID fetches a single project by id, whatever its status.
func (s *Store) FindByID(ctx context.Context, id int64) (models.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+storage.ProjectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err != nil {
		return models.Project{}, translateError(err, "get project")
	}
	return p, nil
}

// Update applies a column patch to a project and returns the stored row.
func (s *Store) Update(ctx context.Context, id int64, patch storage.Patch) (models.Project, error) {
	if err := patch.CheckProject(); err != nil {
		return models.Project{}, err
	}
	for col, v := range patch {
		if t, ok := v.(time.Time); ok {
			patch[col] = t.UTC()
		}
	}
	set, args := setClause(patch)
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE projects SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return models.Project{}, translateError(err, "update project")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Project{}, err
	}
	if affected == 0 {
		return models.Project{}, fmt.Errorf("update project %d: %w", id, storage.ErrNotFound)
	}
	return s.FindByID(ctx, id)
}

// Find returns one page of projects and the total number of matches.
func (s *Store) Find(ctx context.Context, q query.Query) ([]models.Project, int, error) {
	where, args := q.Where(query.Question)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	pageArgs := append(append([]any{}, args...), q.Limit, q.Offset)
	rows, err := s.db.QueryContext(ctx, `SELECT `+storage.ProjectColumns+` FROM projects`+where+q.OrderClause()+` LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, total, rows.Err()
}

// ListSubmissions returns non-deleted projects in the given statuses whose
// submission time falls in [from, to).
func (s *Store) ListSubmissions(ctx context.Context, from, to time.Time, statuses []models.Status) ([]models.Submission, error) {
	if len(statuses) == 0 {
		return []models.Submission{}, nil
	}
	args := []any{from.UTC(), to.UTC(), string(models.StatusDeleted)}
	holders := ""
	for i, st := range statuses {
		if i > 0 {
			holders += ", "
		}
		holders += "?"
		args = append(args, string(st))
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, employee_id, department, status, submitted_at FROM projects
        WHERE submitted_at >= ? AND submitted_at < ? AND status <> ? AND status IN (`+holders+`)
        ORDER BY submitted_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []models.Submission
	for rows.Next() {
		var (
			sub    models.Submission
			status string
		)
		if err := rows.Scan(&sub.ProjectID, &sub.EmployeeID, &sub.Department, &status, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.Status = models.Status(status)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func scanProject(row scanner) (models.Project, error) {
	var (
		p         models.Project
		before    sql.NullString
		after     sql.NullString
		formType  string
		status    string
		submitted sql.NullTime
	)
	if err := row.Scan(&p.ID, &p.EmployeeID, &p.Department, &p.ProjectName, &p.ProjectArea, &p.GroupName,
		&p.StartDate, &p.EndDate, &p.ProblemDescription, &p.Solution, &p.Results, &p.FiveSType, &p.FiveSArea,
		&p.ImprovementTopic, &p.SGSSmart, &p.SGSGreen, &p.SGSSafety, &before, &after,
		&formType, &status, &p.CreatedAt, &submitted, &p.SubmittedDate); err != nil {
		return models.Project{}, err
	}
	p.FormType = models.FormType(formType)
	p.Status = models.Status(status)
	if before.Valid {
		p.BeforeImage = &before.String
	}
	if after.Valid {
		p.AfterImage = &after.String
	}
	if submitted.Valid {
		at := submitted.Time.UTC()
		p.SubmittedAt = &at
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func utcOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
