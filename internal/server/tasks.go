package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"followup/internal/models"
	"followup/internal/storage"
)

type createTaskRequest struct {
	ApplicationID string `json:"application_id"`
	TaskType      string `json:"task_type"`
	DueAt         string `json:"due_at"`
}

// handleCreateTask creates a follow-up task for an application. The tenant is
// derived from the application row, never from the caller; the service is
// expected to sit behind an authorization layer that has already verified the
// caller may act on that application.
//
// Validation runs in order and short-circuits on the first failure.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON payload"})
		return
	}

	if req.ApplicationID == "" || req.TaskType == "" || req.DueAt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	taskType, ok := models.ParseTaskType(req.TaskType)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Invalid task_type. Must be one of %s", strings.Join(models.TaskTypeList(), ", ")),
		})
		return
	}

	// An unparsable due_at answers the same message as a past one: an
	// invalid timestamp is never in the future.
	dueAt, err := time.Parse(time.RFC3339, req.DueAt)
	if err != nil || !dueAt.After(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_at must be a valid future timestamp"})
		return
	}

	app, err := s.store.LookupApplication(c.Request.Context(), req.ApplicationID)
	if errors.Is(err, storage.ErrApplicationNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid application_id or application not found"})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}

	task, err := s.store.CreateTask(c.Request.Context(), models.Task{
		TenantID:      app.TenantID,
		ApplicationID: app.ID,
		Type:          taskType,
		Status:        models.StatusOpen,
		DueAt:         dueAt,
	})
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "task_id": task.ID})
}

// handleTasksDueToday returns open tasks due within the current calendar day
// in the configured timezone, ordered ascending by due date. The window is
// half-open: today's midnight inclusive through tomorrow's midnight exclusive.
func (s *Server) handleTasksDueToday(c *gin.Context) {
	now := time.Now().In(s.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	end := start.AddDate(0, 0, 1)

	tasks, err := s.store.ListTasksDue(c.Request.Context(), start, end)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// handleCompleteTask marks a task completed. Completing a task that is
// already completed succeeds; the dashboard treats concurrent completions as
// harmless no-ops.
func (s *Server) handleCompleteTask(c *gin.Context) {
	id := c.Param("id")

	err := s.store.CompleteTask(c.Request.Context(), id)
	if errors.Is(err, storage.ErrTaskNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusCompleted})
}
