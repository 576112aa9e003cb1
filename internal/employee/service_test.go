package employee

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaizen/internal/models"
	"kaizen/internal/storage"
)

type fakeRepo struct {
	employees   map[string]models.Employee
	departments []models.Department
	lastFilter  Filter
	lastPatch   storage.Patch
	listErr     error
}

func newFakeRepo() *fakeRepo {
	approver := "s1"
	return &fakeRepo{
		employees: map[string]models.Employee{
			"u1": {ID: "u1", FirstName: "Ana", LastName: "Lim", Department: "ASM", Role: models.RoleUser, Approver: &approver, Active: true},
			"s1": {ID: "s1", FirstName: "Sam", LastName: "Ong", Department: "ASM", Role: models.RoleSupervisor, Active: true},
			"a1": {ID: "a1", FirstName: "Ada", LastName: "Tan", Department: "ADM", Role: models.RoleAdmin, Active: true},
		},
		departments: []models.Department{{Code: "ASM", Name: "Assembly", Active: true}},
	}
}

func (r *fakeRepo) CreateEmployee(_ context.Context, e models.Employee) (*models.Employee, error) {
	if _, ok := r.employees[e.ID]; ok {
		return nil, storage.ErrConflict
	}
	r.employees[e.ID] = e
	return &e, nil
}

func (r *fakeRepo) FindEmployee(_ context.Context, id string) (*models.Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &e, nil
}

func (r *fakeRepo) UpdateEmployee(_ context.Context, id string, patch storage.Patch) (*models.Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	r.lastPatch = patch
	for col, v := range patch {
		switch col {
		case "first_name":
			e.FirstName = v.(string)
		case "last_name":
			e.LastName = v.(string)
		case "role":
			e.Role = models.Role(v.(string))
		case "active":
			e.Active = v.(bool)
		case "approver":
			if v == nil {
				e.Approver = nil
			} else {
				s := v.(string)
				e.Approver = &s
			}
		}
	}
	r.employees[id] = e
	return &e, nil
}

func (r *fakeRepo) ListEmployees(_ context.Context, f Filter) ([]models.Employee, error) {
	r.lastFilter = f
	if r.listErr != nil {
		return nil, r.listErr
	}
	return nil, nil
}

func (r *fakeRepo) ListDepartments(context.Context) ([]models.Department, error) {
	return r.departments, nil
}

func (r *fakeRepo) SaveDepartment(_ context.Context, d models.Department) error {
	r.departments = append(r.departments, d)
	return nil
}

var (
	admin      = models.Identity{EmployeeID: "a1", Role: models.RoleAdmin}
	user       = models.Identity{EmployeeID: "u1", Role: models.RoleUser}
	supervisor = models.Identity{EmployeeID: "s1", Role: models.RoleSupervisor}
)

func strPtr(s string) *string { return &s }

func TestService_Create(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := CreateInput{EmployeeID: "n1", FirstName: "Nia", LastName: "Goh", Department: "ASM", Role: "User"}

	t.Run("admin creates", func(t *testing.T) {
		svc := NewService(newFakeRepo())
		in := base
		in.Approver = strPtr("s1")
		e, err := svc.Create(ctx, admin, in)
		require.NoError(t, err)
		assert.True(t, e.Active)
		assert.Equal(t, models.RoleUser, e.Role)
		require.NotNil(t, e.Approver)
		assert.Equal(t, "s1", *e.Approver)
	})

	t.Run("errors", func(t *testing.T) {
		cases := []struct {
			name string
			id   models.Identity
			edit func(*CreateInput)
			want error
		}{
			{"not admin", user, func(*CreateInput) {}, ErrForbidden},
			{"duplicate", admin, func(in *CreateInput) { in.EmployeeID = "u1" }, ErrDuplicate},
			{"missing name", admin, func(in *CreateInput) { in.FirstName = " " }, ErrInvalidInput},
			{"bad role", admin, func(in *CreateInput) { in.Role = "Boss" }, ErrInvalidInput},
			{"unknown approver", admin, func(in *CreateInput) { in.Approver = strPtr("ghost") }, ErrApproverNotFound},
			{"self approver", admin, func(in *CreateInput) { in.Approver = strPtr("n1") }, ErrInvalidInput},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				in := base
				tc.edit(&in)
				_, err := NewService(newFakeRepo()).Create(ctx, tc.id, in)
				assert.ErrorIs(t, err, tc.want)
			})
		}
	})
}

func TestService_Get(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewService(newFakeRepo())

	for _, id := range []models.Identity{user, supervisor, admin} {
		e, err := svc.Get(ctx, id, "u1")
		require.NoError(t, err, id.EmployeeID)
		assert.Equal(t, "u1", e.ID)
	}

	_, err := svc.Get(ctx, user, "s1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(ctx, admin, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Update(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("self renames", func(t *testing.T) {
		svc := NewService(newFakeRepo())
		e, err := svc.Update(ctx, user, "u1", UpdateInput{FirstName: strPtr(" Anna ")})
		require.NoError(t, err)
		assert.Equal(t, "Anna", e.FirstName)
	})

	t.Run("self cannot change role", func(t *testing.T) {
		svc := NewService(newFakeRepo())
		_, err := svc.Update(ctx, user, "u1", UpdateInput{Role: strPtr("Admin")})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("others cannot rename", func(t *testing.T) {
		svc := NewService(newFakeRepo())
		_, err := svc.Update(ctx, supervisor, "u1", UpdateInput{FirstName: strPtr("X")})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin changes role and clears approver", func(t *testing.T) {
		repo := newFakeRepo()
		svc := NewService(repo)
		inactive := false
		e, err := svc.Update(ctx, admin, "u1", UpdateInput{Role: strPtr("Supervisor"), ClearApprover: true, Active: &inactive})
		require.NoError(t, err)
		assert.Equal(t, models.RoleSupervisor, e.Role)
		assert.Nil(t, e.Approver)
		assert.False(t, e.Active)
		assert.Contains(t, repo.lastPatch, "approver")
	})

	t.Run("admin validation", func(t *testing.T) {
		svc := NewService(newFakeRepo())
		_, err := svc.Update(ctx, admin, "u1", UpdateInput{Approver: strPtr("u1")})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Update(ctx, admin, "u1", UpdateInput{Approver: strPtr("ghost")})
		assert.ErrorIs(t, err, ErrApproverNotFound)

		_, err = svc.Update(ctx, admin, "u1", UpdateInput{})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Update(ctx, admin, "ghost", UpdateInput{FirstName: strPtr("x")})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_ListAndDepartments(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.List(ctx, user, Filter{})
	assert.ErrorIs(t, err, ErrForbidden)

	active := true
	got, err := svc.List(ctx, admin, Filter{Department: "ASM", Active: &active})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, "ASM", repo.lastFilter.Department)

	repo.listErr = errors.New("connection reset")
	_, err = svc.List(ctx, admin, Filter{})
	assert.ErrorIs(t, err, repo.listErr)

	deps, err := svc.Departments(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Assembly", deps[0].Name)
}

func TestService_SaveDepartment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.SaveDepartment(ctx, user, models.Department{Code: "QA", Name: "Quality"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.SaveDepartment(ctx, admin, models.Department{Code: " ", Name: "Quality"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	d, err := svc.SaveDepartment(ctx, admin, models.Department{Code: " QA ", Name: "Quality", Active: true})
	require.NoError(t, err)
	assert.Equal(t, "QA", d.Code)
	assert.Len(t, repo.departments, 2)
}
