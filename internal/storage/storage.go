package storage

import (
	"context"
	"errors"
	"time"

	"followup/internal/models"
)

// Sentinel errors shared by all store implementations.
var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrTaskNotFound        = errors.New("task not found")
)

// Store is the capability surface the handlers need from the task store.
// Implementations live in the sqlite and postgres subpackages; tests
// substitute a double.
type Store interface {
	// LookupApplication fetches the id and tenant of an application.
	// Returns ErrApplicationNotFound when no row matches.
	LookupApplication(ctx context.Context, id string) (models.Application, error)

	// CreateApplication persists an application row. Applications are
	// normally owned by the admissions system; this exists for seeding
	// and tests only.
	CreateApplication(ctx context.Context, app models.Application) (models.Application, error)

	// CreateTask inserts a task, assigning its id, and returns the stored row.
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)

	// ListTasksDue returns tasks with due_at in the half-open interval
	// [start, end) whose status is not completed, ordered ascending by due_at.
	ListTasksDue(ctx context.Context, start, end time.Time) ([]models.Task, error)

	// CompleteTask sets a task's status to completed. Returns ErrTaskNotFound
	// when no row matches the id; completing an already completed task is a
	// harmless no-op that succeeds.
	CompleteTask(ctx context.Context, id string) error

	Close() error
}
