package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"followup/internal/models"
	"followup/internal/storage"
)

// Store implements storage.Store on an embedded SQLite database. Intended
// for local development and tests; production deployments point at the
// managed postgres store instead.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open initializes the SQLite store and bootstraps its schema.
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
		`CREATE TABLE IF NOT EXISTS applications (
            id TEXT PRIMARY KEY,
            tenant_id TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id TEXT PRIMARY KEY,
            tenant_id TEXT NOT NULL,
            application_id TEXT NOT NULL,
            type TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'open',
            due_at DATETIME NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            FOREIGN KEY(application_id) REFERENCES applications(id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due_status ON tasks(due_at, status);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_application ON tasks(application_id);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// LookupApplication fetches the id and tenant of an application.
func (s *Store) LookupApplication(ctx context.Context, id string) (models.Application, error) {
	var app models.Application
	err := s.db.QueryRowContext(ctx, `SELECT id, tenant_id FROM applications WHERE id = ?`, id).
		Scan(&app.ID, &app.TenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Application{}, storage.ErrApplicationNotFound
	}
	if err != nil {
		return models.Application{}, fmt.Errorf("lookup application: %w", err)
	}
	return app, nil
}

// CreateApplication persists an application row, assigning an id when absent.
func (s *Store) CreateApplication(ctx context.Context, app models.Application) (models.Application, error) {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.TenantID == "" {
		return models.Application{}, fmt.Errorf("application tenant_id must not be empty")
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO applications(id, tenant_id) VALUES(?, ?)`, app.ID, app.TenantID)
	if err != nil {
		return models.Application{}, fmt.Errorf("insert application: %w", err)
	}
	return app, nil
}

// CreateTask inserts a task and returns the stored row.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	t.ID = uuid.NewString()
	if t.Status == "" {
		t.Status = models.StatusOpen
	}
	t.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks(id, tenant_id, application_id, type, status, due_at, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.TenantID, t.ApplicationID, t.Type, t.Status, t.DueAt.UTC(), t.CreatedAt)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, t.ID)
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	var t models.Task
	err := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, application_id, type, status, due_at, created_at FROM tasks WHERE id = ?`, id).
		Scan(&t.ID, &t.TenantID, &t.ApplicationID, &t.Type, &t.Status, &t.DueAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, storage.ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasksDue returns non-completed tasks with due_at in [start, end),
// ordered ascending by due_at.
func (s *Store) ListTasksDue(ctx context.Context, start, end time.Time) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, application_id, type, status, due_at, created_at
        FROM tasks WHERE due_at >= ? AND due_at < ? AND status != ? ORDER BY due_at ASC`,
		start.UTC(), end.UTC(), models.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.TenantID, &t.ApplicationID, &t.Type, &t.Status, &t.DueAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CompleteTask marks a task completed. Completing an already completed task
// succeeds; an unknown id reports storage.ErrTaskNotFound.
func (s *Store) CompleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = ? WHERE id = ?`, models.StatusCompleted, id)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrTaskNotFound
	}
	return nil
}
