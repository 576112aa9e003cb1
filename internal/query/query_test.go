package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaizen/internal/models"
)

func TestAssemble_Defaults(t *testing.T) {
	t.Parallel()

	q, err := Assemble(Params{})
	require.NoError(t, err)

	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.Limit)
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, "created_at", q.OrderBy)
	assert.True(t, q.Desc)
	assert.False(t, q.Empty())

	where, args := q.Where(Question)
	assert.Equal(t, " WHERE status <> ?", where)
	assert.Equal(t, []any{"DELETED"}, args)
	assert.Equal(t, " ORDER BY created_at DESC, id DESC", q.OrderClause())
}

func TestOrderClause_NullsLast(t *testing.T) {
	t.Parallel()

	q, err := Assemble(Params{SortBy: "submittedAt", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY (submitted_at IS NULL), submitted_at ASC, id ASC", q.OrderClause())

	q, err = Assemble(Params{SortBy: "submittedDate"})
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY (submitted_at IS NULL), submitted_at DESC, id DESC", q.OrderClause())

	q, err = Assemble(Params{SortBy: "projectName"})
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY project_name DESC, id DESC", q.OrderClause())
}

func TestAssemble_PageSize(t *testing.T) {
	t.Parallel()

	q, err := Assemble(Params{Page: 3, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 40, q.Offset)
	assert.Equal(t, 20, q.Limit)

	_, err = Assemble(Params{PageSize: MaxPageSize + 1})
	assert.ErrorIs(t, err, ErrInvalidPageSize)
}

func TestAssemble_Sort(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"projectName":   "project_name",
		"submittedDate": "submitted_at",
		"status":        "status",
		"createdAt":     "created_at",
		"solution":      "created_at",
		"id; DROP":      "created_at",
	}
	for in, want := range cases {
		q, err := Assemble(Params{SortBy: in, SortOrder: "ASC"})
		require.NoError(t, err)
		assert.Equal(t, want, q.OrderBy, in)
		assert.False(t, q.Desc)
	}

	q, err := Assemble(Params{SortOrder: "sideways"})
	require.NoError(t, err)
	assert.True(t, q.Desc)
}

func TestAssemble_InvalidFilters(t *testing.T) {
	t.Parallel()

	_, err := Assemble(Params{Status: "DONE"})
	assert.ErrorIs(t, err, models.ErrInvalidStatus)

	_, err = Assemble(Params{FormType: "other"})
	assert.ErrorIs(t, err, models.ErrInvalidFormType)
}

func TestWhere_FiltersAndSearch(t *testing.T) {
	t.Parallel()

	q, err := Assemble(Params{
		Status:     "WAITING",
		FormType:   "genba",
		Department: "QA",
		EmployeeID: "E001",
		Search:     "  50%_Off ",
	})
	require.NoError(t, err)

	where, args := q.Where(Dollar)
	assert.Equal(t,
		" WHERE status <> $1 AND status = $2 AND form_type = $3 AND department = $4 AND employee_id = $5"+
			` AND (LOWER(project_name) LIKE $6 ESCAPE '\' OR LOWER(problem_description) LIKE $7 ESCAPE '\' OR LOWER(solution) LIKE $8 ESCAPE '\')`,
		where)
	pattern := `%50\%\_off%`
	assert.Equal(t, []any{"DELETED", "WAITING", "genba", "QA", "E001", pattern, pattern, pattern}, args)
}

func TestWhere_Scope(t *testing.T) {
	t.Parallel()

	q, err := Assemble(Params{Scoped: true, Scope: []string{"E1", "E2"}})
	require.NoError(t, err)
	assert.False(t, q.Empty())

	where, args := q.Where(Question)
	assert.Equal(t, " WHERE status <> ? AND employee_id IN (?, ?)", where)
	assert.Equal(t, []any{"DELETED", "E1", "E2"}, args)
}

func TestWhere_EmptyScopeMatchesNothing(t *testing.T) {
	t.Parallel()

	q, err := Assemble(Params{Scoped: true})
	require.NoError(t, err)
	assert.True(t, q.Empty())

	where, _ := q.Where(Dollar)
	assert.Contains(t, where, "1 = 0")
}

func TestNewPagination(t *testing.T) {
	t.Parallel()

	p := NewPagination(1, 10, 25)
	assert.Equal(t, Pagination{CurrentPage: 1, TotalPages: 3, TotalItems: 25, ItemsPerPage: 10}, p)

	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
	assert.Equal(t, 1, NewPagination(1, 10, 10).TotalPages)
	assert.Equal(t, 2, NewPagination(2, 10, 11).TotalPages)
}
