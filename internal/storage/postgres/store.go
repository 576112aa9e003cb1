package postgres

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"kaizen/internal/storage"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// Store implements the record store interfaces on PostgreSQL. The schema is
// owned by the migrations under migrations/postgres.
type Store struct {
	pool Queryer
}

// New wraps a pool.
func New(pool Queryer) *Store {
	return &Store{pool: pool}
}

func translateError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			return fmt.Errorf("%s: %w: %s", op, storage.ErrConflict, pgErr.ConstraintName)
		case foreignKeyViolationCode:
			return fmt.Errorf("%s: %w: %s", op, storage.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// setClause renders "col = $n" pairs in a stable column order, numbering from 1.
func setClause(patch storage.Patch) (string, []any) {
	cols := patch.Columns()
	parts := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		args = append(args, patch[c])
		parts = append(parts, c+" = $"+strconv.Itoa(len(args)))
	}
	return strings.Join(parts, ", "), args
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
