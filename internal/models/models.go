package models

import (
	"strings"
	"time"
)

// Application is a recruiting application record owned by a tenant. Only the
// identifier and tenant are consumed here; the rest of the record lives in
// the admissions system.
type Application struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
}

// Task represents a single follow-up action attached to an application.
type Task struct {
	ID            string    `json:"id"`
	TenantID      string    `json:"tenant_id"`
	ApplicationID string    `json:"application_id"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	DueAt         time.Time `json:"due_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// Task statuses. A task is created open and moves to completed exactly once;
// no other transitions are defined.
const (
	StatusOpen      = "open"
	StatusCompleted = "completed"
)

// ValidTaskTypes enumerates the follow-up kinds a task may carry.
var ValidTaskTypes = map[string]struct{}{
	"call":   {},
	"email":  {},
	"review": {},
}

// TaskTypeList returns the valid types in a stable order for error messages.
func TaskTypeList() []string {
	return []string{"call", "email", "review"}
}

// ParseTaskType normalizes a caller-supplied type to lower case and reports
// whether it belongs to the valid set.
func ParseTaskType(raw string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	_, ok := ValidTaskTypes[normalized]
	return normalized, ok
}
