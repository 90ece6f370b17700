package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"followup/internal/models"
	"followup/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := Open(filepath.Join(t.TempDir(), "followup.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedApplication(t *testing.T, store *Store, tenantID string) models.Application {
	t.Helper()
	app, err := store.CreateApplication(context.Background(), models.Application{TenantID: tenantID})
	require.NoError(t, err)
	require.NotEmpty(t, app.ID)
	return app
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("", nil)
	assert.Error(t, err)
}

func TestLookupApplication(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	app := seedApplication(t, store, "t-1")

	got, err := store.LookupApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ID, got.ID)
	assert.Equal(t, "t-1", got.TenantID)

	_, err = store.LookupApplication(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrApplicationNotFound)
}

func TestCreateTaskAssignsIDAndDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	app := seedApplication(t, store, "t-1")
	dueAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	task, err := store.CreateTask(ctx, models.Task{
		TenantID:      app.TenantID,
		ApplicationID: app.ID,
		Type:          "call",
		DueAt:         dueAt,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "t-1", task.TenantID)
	assert.Equal(t, app.ID, task.ApplicationID)
	assert.Equal(t, "call", task.Type)
	assert.Equal(t, models.StatusOpen, task.Status)
	assert.True(t, task.DueAt.Equal(dueAt))
	assert.False(t, task.CreatedAt.IsZero())
}

func TestListTasksDueWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	app := seedApplication(t, store, "t-1")
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	createTask := func(dueAt time.Time, taskType string) models.Task {
		task, err := store.CreateTask(ctx, models.Task{
			TenantID:      app.TenantID,
			ApplicationID: app.ID,
			Type:          taskType,
			DueAt:         dueAt,
		})
		require.NoError(t, err)
		return task
	}

	// Insert out of due order to prove the query sorts.
	noon := createTask(start.Add(12*time.Hour), "review")
	atStart := createTask(start, "call")                     // inclusive boundary
	createTask(end, "email")                                 // exclusive boundary, out
	createTask(start.Add(-time.Second), "call")              // yesterday, out
	morning := createTask(start.Add(9*time.Hour), "email")   // in
	completed := createTask(start.Add(10*time.Hour), "call") // will be completed, out
	require.NoError(t, store.CompleteTask(ctx, completed.ID))

	tasks, err := store.ListTasksDue(ctx, start, end)
	require.NoError(t, err)

	require.Len(t, tasks, 3)
	assert.Equal(t, atStart.ID, tasks[0].ID)
	assert.Equal(t, morning.ID, tasks[1].ID)
	assert.Equal(t, noon.ID, tasks[2].ID)
}

func TestCompleteTask(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	app := seedApplication(t, store, "t-1")
	task, err := store.CreateTask(ctx, models.Task{
		TenantID:      app.TenantID,
		ApplicationID: app.ID,
		Type:          "email",
		DueAt:         time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, store.CompleteTask(ctx, task.ID))

	got, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	// Completing again is a harmless no-op.
	assert.NoError(t, store.CompleteTask(ctx, task.ID))

	assert.ErrorIs(t, store.CompleteTask(ctx, "missing"), storage.ErrTaskNotFound)
}
