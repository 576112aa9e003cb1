// Package employee implements employee and department administration.
package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kaizen/internal/models"
	"kaizen/internal/storage"
)

var (
	ErrNotFound         = errors.New("employee: not found")
	ErrForbidden        = errors.New("employee: forbidden")
	ErrInvalidInput     = errors.New("employee: invalid input")
	ErrDuplicate        = errors.New("employee: already exists")
	ErrApproverNotFound = errors.New("employee: approver not found")
)

// Filter narrows an employee listing.
type Filter struct {
	Department string
	Active     *bool
}

// Repository is the employee record store.
type Repository interface {
	CreateEmployee(ctx context.Context, e models.Employee) (*models.Employee, error)
	FindEmployee(ctx context.Context, id string) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, id string, patch storage.Patch) (*models.Employee, error)
	ListEmployees(ctx context.Context, f Filter) ([]models.Employee, error)
	ListDepartments(ctx context.Context) ([]models.Department, error)
	SaveDepartment(ctx context.Context, d models.Department) error
}

// CreateInput carries a new employee.
type CreateInput struct {
	EmployeeID     string
	FirstName      string
	LastName       string
	Department     string
	Role           string
	Approver       *string
	Active         *bool
	KaizenTeam     bool
	KaizenTeamDate *string
}

// UpdateInput carries a partial employee update. Nil fields are left alone.
type UpdateInput struct {
	FirstName      *string
	LastName       *string
	Department     *string
	Role           *string
	Approver       *string
	ClearApprover  bool
	Active         *bool
	KaizenTeam     *bool
	KaizenTeamDate *string
}

func (in UpdateInput) namesOnly() bool {
	return in.Department == nil && in.Role == nil && in.Approver == nil && !in.ClearApprover &&
		in.Active == nil && in.KaizenTeam == nil && in.KaizenTeamDate == nil
}

// Service implements the employee use cases.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the employee service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create registers a new employee. Admin only.
func (s *Service) Create(ctx context.Context, id models.Identity, in CreateInput) (*models.Employee, error) {
	if !id.IsAdmin() {
		return nil, fmt.Errorf("%w: only an admin may create employees", ErrForbidden)
	}

	e := models.Employee{
		ID:             strings.TrimSpace(in.EmployeeID),
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Department:     strings.TrimSpace(in.Department),
		Active:         true,
		KaizenTeam:     in.KaizenTeam,
		KaizenTeamDate: in.KaizenTeamDate,
		CreatedAt:      s.now().UTC(),
	}
	for name, v := range map[string]string{"employeeId": e.ID, "firstName": e.FirstName, "lastName": e.LastName, "department": e.Department} {
		if v == "" {
			return nil, fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
		}
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	e.Role = role
	if in.Active != nil {
		e.Active = *in.Active
	}
	if in.Approver != nil && *in.Approver != "" {
		if err := s.checkApprover(ctx, e.ID, *in.Approver); err != nil {
			return nil, err
		}
		e.Approver = in.Approver
	}

	created, err := s.repo.CreateEmployee(ctx, e)
	if errors.Is(err, storage.ErrConflict) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicate, e.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("employee: create: %w", err)
	}
	return created, nil
}

// Get returns an employee visible to the requester: self, an admin, or the
// employee's approver.
func (s *Service) Get(ctx context.Context, id models.Identity, employeeID string) (*models.Employee, error) {
	e, err := s.load(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if e.ID == id.EmployeeID || id.IsAdmin() {
		return e, nil
	}
	if e.Approver != nil && *e.Approver == id.EmployeeID {
		return e, nil
	}
	return nil, fmt.Errorf("%w: employee %s", ErrForbidden, employeeID)
}

// Update changes an employee. Admins may change every field, employees only
// their own names.
func (s *Service) Update(ctx context.Context, id models.Identity, employeeID string, in UpdateInput) (*models.Employee, error) {
	self := employeeID == id.EmployeeID
	switch {
	case id.IsAdmin():
	case self && in.namesOnly():
	default:
		return nil, fmt.Errorf("%w: cannot update employee %s", ErrForbidden, employeeID)
	}

	if _, err := s.load(ctx, employeeID); err != nil {
		return nil, err
	}

	patch := storage.Patch{}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return nil, fmt.Errorf("%w: firstName must not be empty", ErrInvalidInput)
		}
		patch["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		if strings.TrimSpace(*in.LastName) == "" {
			return nil, fmt.Errorf("%w: lastName must not be empty", ErrInvalidInput)
		}
		patch["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Department != nil {
		if strings.TrimSpace(*in.Department) == "" {
			return nil, fmt.Errorf("%w: department must not be empty", ErrInvalidInput)
		}
		patch["department"] = strings.TrimSpace(*in.Department)
	}
	if in.Role != nil {
		role, err := models.ParseRole(*in.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		patch["role"] = string(role)
	}
	switch {
	case in.ClearApprover:
		patch["approver"] = nil
	case in.Approver != nil:
		if err := s.checkApprover(ctx, employeeID, *in.Approver); err != nil {
			return nil, err
		}
		patch["approver"] = *in.Approver
	}
	if in.Active != nil {
		patch["active"] = *in.Active
	}
	if in.KaizenTeam != nil {
		patch["kaizen_team"] = *in.KaizenTeam
	}
	if in.KaizenTeamDate != nil {
		patch["kaizen_team_date"] = *in.KaizenTeamDate
	}
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: empty update", ErrInvalidInput)
	}

	updated, err := s.repo.UpdateEmployee(ctx, employeeID, patch)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, employeeID)
	}
	if err != nil {
		return nil, fmt.Errorf("employee: update: %w", err)
	}
	return updated, nil
}

// List returns employees matching the filter. Admin only.
func (s *Service) List(ctx context.Context, id models.Identity, f Filter) ([]models.Employee, error) {
	if !id.IsAdmin() {
		return nil, fmt.Errorf("%w: only an admin may list employees", ErrForbidden)
	}
	out, err := s.repo.ListEmployees(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("employee: list: %w", err)
	}
	if out == nil {
		out = []models.Employee{}
	}
	return out, nil
}

// Departments returns every known department.
func (s *Service) Departments(ctx context.Context) ([]models.Department, error) {
	out, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("employee: list departments: %w", err)
	}
	if out == nil {
		out = []models.Department{}
	}
	return out, nil
}

// SaveDepartment creates a department or updates its name and active flag.
// Admin only.
func (s *Service) SaveDepartment(ctx context.Context, id models.Identity, d models.Department) (models.Department, error) {
	if !id.IsAdmin() {
		return models.Department{}, fmt.Errorf("%w: only an admin may change departments", ErrForbidden)
	}
	d.Code = strings.TrimSpace(d.Code)
	d.Name = strings.TrimSpace(d.Name)
	if d.Code == "" || d.Name == "" {
		return models.Department{}, fmt.Errorf("%w: department code and name are required", ErrInvalidInput)
	}
	if err := s.repo.SaveDepartment(ctx, d); err != nil {
		return models.Department{}, fmt.Errorf("employee: save department: %w", err)
	}
	return d, nil
}

func (s *Service) load(ctx context.Context, employeeID string) (*models.Employee, error) {
	e, err := s.repo.FindEmployee(ctx, employeeID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, employeeID)
	}
	if err != nil {
		return nil, fmt.Errorf("employee: find: %w", err)
	}
	return e, nil
}

func (s *Service) checkApprover(ctx context.Context, employeeID, approverID string) error {
	if approverID == employeeID {
		return fmt.Errorf("%w: an employee cannot approve their own submissions", ErrInvalidInput)
	}
	_, err := s.repo.FindEmployee(ctx, approverID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrApproverNotFound, approverID)
	}
	if err != nil {
		return fmt.Errorf("employee: find approver: %w", err)
	}
	return nil
}
