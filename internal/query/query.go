// Package query turns list parameters into a bounded, validated project query
// and renders it for the supported SQL dialects.
package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"kaizen/internal/models"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var ErrInvalidPageSize = errors.New("query: invalid page size")

// Dialect selects the placeholder style used when rendering.
type Dialect int

const (
	// Question renders `?` placeholders (sqlite).
	Question Dialect = iota
	// Dollar renders `$n` placeholders (postgres).
	Dollar
)

var sortColumns = map[string]string{
	"createdAt":     "created_at",
	"created_at":    "created_at",
	"submittedDate": "submitted_at",
	"submittedAt":   "submitted_at",
	"submitted_at":  "submitted_at",
	"projectName":   "project_name",
	"project_name":  "project_name",
	"status":        "status",
}

// nullableSort lists sort columns whose NULLs are ordered last on every driver.
var nullableSort = map[string]bool{"submitted_at": true}

var searchColumns = []string{"project_name", "problem_description", "solution"}

// Params are the raw list parameters of a request.
type Params struct {
	Page       int
	PageSize   int
	Status     string
	FormType   string
	Department string
	EmployeeID string
	Search     string
	SortBy     string
	SortOrder  string

	// Scope restricts results to these owners when Scoped is set. An empty
	// scope matches nothing.
	Scope  []string
	Scoped bool
}

// Condition is an equality or membership predicate on one column.
type Condition struct {
	Column string
	Values []any
	In     bool
}

// Query is an assembled, validated project query.
type Query struct {
	Conditions []Condition
	Search     string
	OrderBy    string
	Desc       bool
	Page       int
	Limit      int
	Offset     int
	empty      bool
}

// Assemble validates params and builds the query. DELETED projects are always
// excluded.
func Assemble(p Params) (Query, error) {
	page := p.Page
	if page < 1 {
		page = 1
	}

	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		return Query{}, fmt.Errorf("%w: %d exceeds %d", ErrInvalidPageSize, size, MaxPageSize)
	}

	q := Query{
		Page:   page,
		Limit:  size,
		Offset: (page - 1) * size,
		Search: strings.TrimSpace(p.Search),
	}

	if p.Status != "" {
		st, err := models.ParseStatus(p.Status)
		if err != nil {
			return Query{}, err
		}
		q.Conditions = append(q.Conditions, Condition{Column: "status", Values: []any{string(st)}})
	}
	if p.FormType != "" {
		ft, err := models.ParseFormType(p.FormType)
		if err != nil {
			return Query{}, err
		}
		q.Conditions = append(q.Conditions, Condition{Column: "form_type", Values: []any{string(ft)}})
	}
	if p.Department != "" {
		q.Conditions = append(q.Conditions, Condition{Column: "department", Values: []any{p.Department}})
	}
	if p.EmployeeID != "" {
		q.Conditions = append(q.Conditions, Condition{Column: "employee_id", Values: []any{p.EmployeeID}})
	}
	if p.Scoped {
		if len(p.Scope) == 0 {
			q.empty = true
		}
		values := make([]any, 0, len(p.Scope))
		for _, id := range p.Scope {
			values = append(values, id)
		}
		q.Conditions = append(q.Conditions, Condition{Column: "employee_id", Values: values, In: true})
	}

	q.OrderBy = "created_at"
	if col, ok := sortColumns[p.SortBy]; ok {
		q.OrderBy = col
	}
	q.Desc = !strings.EqualFold(p.SortOrder, "asc")

	return q, nil
}

// Empty reports whether the query can match nothing, so callers can skip the
// store round trip.
func (q Query) Empty() bool {
	return q.empty
}

// Where renders the WHERE clause and its arguments. Placeholders are numbered
// from 1.
func (q Query) Where(d Dialect) (string, []any) {
	var (
		parts []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		if d == Dollar {
			return "$" + strconv.Itoa(len(args))
		}
		return "?"
	}

	parts = append(parts, "status <> "+next(string(models.StatusDeleted)))

	for _, c := range q.Conditions {
		if !c.In {
			parts = append(parts, c.Column+" = "+next(c.Values[0]))
			continue
		}
		if len(c.Values) == 0 {
			parts = append(parts, "1 = 0")
			continue
		}
		holders := make([]string, 0, len(c.Values))
		for _, v := range c.Values {
			holders = append(holders, next(v))
		}
		parts = append(parts, c.Column+" IN ("+strings.Join(holders, ", ")+")")
	}

	if q.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		ors := make([]string, 0, len(searchColumns))
		for _, col := range searchColumns {
			ors = append(ors, "LOWER("+col+") LIKE "+next(pattern)+` ESCAPE '\'`)
		}
		parts = append(parts, "("+strings.Join(ors, " OR ")+")")
	}

	return " WHERE " + strings.Join(parts, " AND "), args
}

// OrderClause renders ORDER BY with an id tie-breaker. Nullable columns get
// a leading IS NULL key so unset values sort last in both directions.
func (q Query) OrderClause() string {
	dir := "DESC"
	if !q.Desc {
		dir = "ASC"
	}
	nulls := ""
	if nullableSort[q.OrderBy] {
		nulls = "(" + q.OrderBy + " IS NULL), "
	}
	return " ORDER BY " + nulls + q.OrderBy + " " + dir + ", id " + dir
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Pagination is the metadata returned with every page.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// NewPagination derives page metadata from the total row count.
func NewPagination(page, pageSize, total int) Pagination {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   pages,
		TotalItems:   total,
		ItemsPerPage: pageSize,
	}
}
