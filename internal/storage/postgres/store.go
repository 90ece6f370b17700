package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"followup/internal/models"
	"followup/internal/storage"
)

// Store implements storage.Store against the managed PostgreSQL service that
// owns the applications and tasks tables. The schema is provisioned by the
// service; this package issues no DDL.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the database and verifies the connection.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty database DSN")
	}
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// LookupApplication fetches the id and tenant of an application.
func (s *Store) LookupApplication(ctx context.Context, id string) (models.Application, error) {
	var app models.Application
	err := s.db.QueryRowContext(ctx, `SELECT id, tenant_id FROM applications WHERE id = $1`, id).
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

	_, err := s.db.ExecContext(ctx, `INSERT INTO applications(id, tenant_id) VALUES($1, $2)`, app.ID, app.TenantID)
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
		`INSERT INTO tasks(id, tenant_id, application_id, type, status, due_at, created_at)
        VALUES($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.TenantID, t.ApplicationID, t.Type, t.Status, t.DueAt.UTC(), t.CreatedAt)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// ListTasksDue returns non-completed tasks with due_at in [start, end),
// ordered ascending by due_at.
func (s *Store) ListTasksDue(ctx context.Context, start, end time.Time) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, tenant_id, application_id, type, status, due_at, created_at
        FROM tasks WHERE due_at >= $1 AND due_at < $2 AND status != $3 ORDER BY due_at ASC`,
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
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = $1 WHERE id = $2`, models.StatusCompleted, id)
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
