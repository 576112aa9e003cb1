// Package sqlite is the embedded record store used for development, tests and
// single node deployments.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"kaizen/internal/storage"
)

// Store wraps access to the SQLite database and exposes high level helpers.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes a new SQLite store and runs the required migrations.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{db: conn, logger: logger}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logger.Debug("sqlite store ready", slog.String("path", dbPath))
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS departments (
            code TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            active INTEGER NOT NULL DEFAULT 1
        );`,
		`CREATE TABLE IF NOT EXISTS employees (
            employee_id TEXT PRIMARY KEY,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            department TEXT NOT NULL,
            role TEXT NOT NULL CHECK (role IN ('User', 'Supervisor', 'Manager', 'Admin')),
            approver TEXT NULL REFERENCES employees(employee_id) ON DELETE SET NULL,
            active INTEGER NOT NULL DEFAULT 1,
            kaizen_team INTEGER NOT NULL DEFAULT 0,
            kaizen_team_date TEXT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_employees_approver ON employees(approver);`,
		`CREATE INDEX IF NOT EXISTS idx_employees_department ON employees(department, active);`,
		`CREATE TABLE IF NOT EXISTS projects (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            employee_id TEXT NOT NULL REFERENCES employees(employee_id),
            department TEXT NOT NULL,
            project_name TEXT NOT NULL,
            project_area TEXT NOT NULL DEFAULT '',
            group_name TEXT NOT NULL DEFAULT '',
            start_date TEXT NOT NULL DEFAULT '',
            end_date TEXT NOT NULL DEFAULT '',
            problem_description TEXT NOT NULL DEFAULT '',
            solution TEXT NOT NULL DEFAULT '',
            results TEXT NOT NULL DEFAULT '',
            five_s_type TEXT NOT NULL DEFAULT '',
            five_s_area TEXT NOT NULL DEFAULT '',
            improvement_topic TEXT NOT NULL DEFAULT '',
            sgs_smart TEXT NOT NULL DEFAULT '',
            sgs_green TEXT NOT NULL DEFAULT '',
            sgs_safety TEXT NOT NULL DEFAULT '',
            before_image_url TEXT NULL,
            after_image_url TEXT NULL,
            form_type TEXT NOT NULL CHECK (form_type IN ('genba', 'suggestion', 'best_kaizen')),
            status TEXT NOT NULL CHECK (status IN ('EDIT', 'WAITING', 'APPROVED', 'REJECTED', 'DELETED', 'BEST_KAIZEN')),
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            submitted_at DATETIME NULL,
            submitted_date TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE INDEX IF NOT EXISTS idx_projects_employee ON projects(employee_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_projects_submitted ON projects(status, submitted_at);`,
		`CREATE TRIGGER IF NOT EXISTS trg_employees_updated
            AFTER UPDATE ON employees
            FOR EACH ROW BEGIN
                UPDATE employees SET updated_at = CURRENT_TIMESTAMP WHERE employee_id = OLD.employee_id;
            END;`,
		`CREATE TRIGGER IF NOT EXISTS trg_projects_updated
            AFTER UPDATE ON projects
            FOR EACH ROW BEGIN
                UPDATE projects SET updated_at = CURRENT_TIMESTAMP WHERE id = OLD.id;
            END;`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// translateError maps driver constraint failures onto the shared sentinels.
func translateError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w: %v", op, storage.ErrConflict, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%s: %w: referenced record missing", op, storage.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

type scanner interface {
	Scan(dest ...any) error
}
