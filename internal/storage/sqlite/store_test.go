package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaizen/internal/employee"
	"kaizen/internal/models"
	"kaizen/internal/query"
	"kaizen/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "kaizen.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedEmployees(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	created := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	sup := "s1"
	for _, e := range []models.Employee{
		{ID: "s1", FirstName: "Sam", LastName: "Ong", Department: "ASM", Role: models.RoleSupervisor, Active: true, CreatedAt: created},
		{ID: "u1", FirstName: "Ana", LastName: "Lim", Department: "ASM", Role: models.RoleUser, Approver: &sup, Active: true, CreatedAt: created},
		{ID: "u2", FirstName: "Ben", LastName: "Koh", Department: "QA", Role: models.RoleUser, Approver: &sup, Active: false, CreatedAt: created},
	} {
		_, err := s.CreateEmployee(ctx, e)
		require.NoError(t, err)
	}
}

func newProject(owner, name string, status models.Status, created time.Time, submitted *time.Time) models.Project {
	return models.Project{
		EmployeeID:  owner,
		Department:  "ASM",
		ProjectName: name,
		FormType:    models.FormGenba,
		Status:      status,
		CreatedAt:   created,
		SubmittedAt: submitted,
	}
}

func TestStore_Employees(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)
	seedEmployees(t, s)

	got, err := s.FindEmployee(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.FirstName)
	require.NotNil(t, got.Approver)
	assert.Equal(t, "s1", *got.Approver)
	assert.True(t, got.Active)

	_, err = s.FindEmployee(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.CreateEmployee(ctx, models.Employee{ID: "u1", FirstName: "Dup", LastName: "Dup", Department: "ASM", Role: models.RoleUser, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, storage.ErrConflict)

	ghost := "ghost"
	_, err = s.CreateEmployee(ctx, models.Employee{ID: "u9", FirstName: "No", LastName: "Boss", Department: "ASM", Role: models.RoleUser, Approver: &ghost, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	ids, err := s.ListByApprover(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, ids)

	active, err := s.ListActiveEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	yes := true
	filtered, err := s.ListEmployees(ctx, employee.Filter{Department: "ASM", Active: &yes})
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "s1", filtered[0].ID)

	updated, err := s.UpdateEmployee(ctx, "u1", storage.Patch{"first_name": "Anna", "approver": nil})
	require.NoError(t, err)
	assert.Equal(t, "Anna", updated.FirstName)
	assert.Nil(t, updated.Approver)

	_, err = s.UpdateEmployee(ctx, "ghost", storage.Patch{"first_name": "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.UpdateEmployee(ctx, "u1", storage.Patch{"employee_id": "u7"})
	assert.Error(t, err)
}

func TestStore_Departments(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveDepartment(ctx, models.Department{Code: "QA", Name: "Quality", Active: true}))
	require.NoError(t, s.SaveDepartment(ctx, models.Department{Code: "ASM", Name: "Assembly", Active: true}))
	require.NoError(t, s.SaveDepartment(ctx, models.Department{Code: "QA", Name: "Quality Assurance", Active: false}))

	deps, err := s.ListDepartments(ctx)
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, models.Department{Code: "ASM", Name: "Assembly", Active: true}, deps[0])
	assert.Equal(t, models.Department{Code: "QA", Name: "Quality Assurance", Active: false}, deps[1])
}

func TestStore_Projects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)
	seedEmployees(t, s)

	created := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	p, err := s.Insert(ctx, newProject("u1", "Shadow board", models.StatusEdit, created, nil))
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.True(t, created.Equal(p.CreatedAt))
	assert.Nil(t, p.SubmittedAt)
	assert.Nil(t, p.BeforeImage)

	_, err = s.Insert(ctx, newProject("ghost", "Orphan", models.StatusEdit, created, nil))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	submitted := created.Add(time.Hour)
	url := "/uploads/projects/1/before.png"
	updated, err := s.Update(ctx, p.ID, storage.Patch{
		"status":           string(models.StatusWaiting),
		"submitted_at":     submitted,
		"submitted_date":   "2024-03-05",
		"before_image_url": url,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, updated.Status)
	require.NotNil(t, updated.SubmittedAt)
	assert.True(t, submitted.Equal(*updated.SubmittedAt))
	require.NotNil(t, updated.BeforeImage)
	assert.Equal(t, url, *updated.BeforeImage)

	_, err = s.Update(ctx, 9999, storage.Patch{"status": string(models.StatusEdit)})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.Update(ctx, p.ID, storage.Patch{"employee_id": "u2"})
	assert.Error(t, err)

	_, err = s.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_Find(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)
	seedEmployees(t, s)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, tc := range []struct {
		owner  string
		name   string
		status models.Status
	}{
		{"u1", "Shadow board", models.StatusEdit},
		{"u1", "Kanban 50% faster", models.StatusWaiting},
		{"u2", "Label rack", models.StatusApproved},
		{"u2", "Old idea", models.StatusDeleted},
		{"s1", "Tool wall", models.StatusWaiting},
	} {
		_, err := s.Insert(ctx, newProject(tc.owner, tc.name, tc.status, base.Add(time.Duration(i)*time.Hour), nil))
		require.NoError(t, err)
	}

	find := func(p query.Params) ([]models.Project, int) {
		t.Helper()
		q, err := query.Assemble(p)
		require.NoError(t, err)
		items, total, err := s.Find(ctx, q)
		require.NoError(t, err)
		return items, total
	}

	items, total := find(query.Params{})
	assert.Equal(t, 4, total)
	require.Len(t, items, 4)
	assert.Equal(t, "Tool wall", items[0].ProjectName)

	items, total = find(query.Params{PageSize: 2, Page: 2, SortOrder: "asc"})
	assert.Equal(t, 4, total)
	require.Len(t, items, 2)
	assert.Equal(t, "Label rack", items[0].ProjectName)

	_, total = find(query.Params{Status: "WAITING"})
	assert.Equal(t, 2, total)

	items, total = find(query.Params{Search: "50%"})
	assert.Equal(t, 1, total)
	assert.Equal(t, "Kanban 50% faster", items[0].ProjectName)

	_, total = find(query.Params{Search: "BOARD"})
	assert.Equal(t, 1, total)

	_, total = find(query.Params{Scoped: true, Scope: []string{"u1", "u2"}})
	assert.Equal(t, 3, total)

	items, total = find(query.Params{EmployeeID: "u2", Status: "DELETED"})
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestStore_FindSortsUnsubmittedLast(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)
	seedEmployees(t, s)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	early, late := base.Add(24*time.Hour), base.Add(48*time.Hour)
	for _, p := range []models.Project{
		newProject("u1", "Draft", models.StatusEdit, base, nil),
		newProject("u1", "Late", models.StatusWaiting, base, &late),
		newProject("u1", "Early", models.StatusApproved, base, &early),
	} {
		_, err := s.Insert(ctx, p)
		require.NoError(t, err)
	}

	names := func(order string) []string {
		t.Helper()
		q, err := query.Assemble(query.Params{SortBy: "submittedAt", SortOrder: order})
		require.NoError(t, err)
		items, _, err := s.Find(ctx, q)
		require.NoError(t, err)
		out := make([]string, 0, len(items))
		for _, p := range items {
			out = append(out, p.ProjectName)
		}
		return out
	}

	assert.Equal(t, []string{"Early", "Late", "Draft"}, names("asc"))
	assert.Equal(t, []string{"Late", "Early", "Draft"}, names("desc"))
}

func TestStore_ListSubmissions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t)
	seedEmployees(t, s)

	created := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	at := func(d int) *time.Time {
		v := time.Date(2024, 3, d, 10, 0, 0, 0, time.UTC)
		return &v
	}
	for _, p := range []models.Project{
		newProject("u1", "a", models.StatusApproved, created, at(1)),
		newProject("u1", "b", models.StatusWaiting, created, at(15)),
		newProject("u2", "c", models.StatusRejected, created, at(20)),
		newProject("u2", "d", models.StatusDeleted, created, at(21)),
		newProject("s1", "e", models.StatusApproved, created, nil),
	} {
		_, err := s.Insert(ctx, p)
		require.NoError(t, err)
	}

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	subs, err := s.ListSubmissions(ctx, from, to, models.SubmittedStatuses)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "u1", subs[0].EmployeeID)
	assert.Equal(t, models.StatusApproved, subs[0].Status)
	assert.True(t, at(15).Equal(subs[1].SubmittedAt))

	subs, err = s.ListSubmissions(ctx, from, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), models.SubmittedStatuses)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	subs, err = s.ListSubmissions(ctx, from, to, nil)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
