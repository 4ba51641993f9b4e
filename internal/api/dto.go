package api

import (
	"strings"

	"github.com/gurkanbulca/focusflow/internal/models"
	"github.com/gurkanbulca/focusflow/internal/view"
)

// CreateTaskRequest is the HTTP request for creating a task.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"dueDate"`
}

// UpdateTaskRequest is the HTTP request for editing a task. Omitted or null
// fields stay unchanged; an empty dueDate clears it.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
}

// ListTasksResponse is the HTTP response for plain task lists.
type ListTasksResponse struct {
	Tasks []*models.Task `json:"tasks"`
	Total int            `json:"total"`
}

// ProjectionResponse is what the task list screen renders.
type ProjectionResponse struct {
	Tasks  []*models.Task `json:"tasks"`
	Counts view.Counts    `json:"counts"`
	Search string         `json:"search"`
	Filter view.Filter    `json:"filter"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorResponse is the HTTP response for errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (r CreateTaskRequest) toInput() (models.TaskInput, error) {
	in := models.TaskInput{Title: r.Title, Description: r.Description}
	if p := strings.TrimSpace(r.Priority); p != "" {
		priority, err := models.ParsePriority(p)
		if err != nil {
			return in, err
		}
		in.Priority = priority
	}
	if d := strings.TrimSpace(r.DueDate); d != "" {
		due, err := models.ParseDate(d)
		if err != nil {
			return in, err
		}
		in.DueDate = &due
	}
	return in, nil
}

func (r UpdateTaskRequest) toPatch() (models.TaskPatch, error) {
	patch := models.TaskPatch{Title: r.Title, Description: r.Description}
	if r.Priority != nil {
		priority, err := models.ParsePriority(*r.Priority)
		if err != nil {
			return patch, err
		}
		patch.Priority = &priority
	}
	if r.DueDate != nil {
		if strings.TrimSpace(*r.DueDate) == "" {
			patch.ClearDueDate = true
		} else {
			due, err := models.ParseDate(strings.TrimSpace(*r.DueDate))
			if err != nil {
				return patch, err
			}
			patch.DueDate = &due
		}
	}
	return patch, nil
}

func listResponse(tasks []*models.Task) ListTasksResponse {
	if tasks == nil {
		tasks = []*models.Task{}
	}
	return ListTasksResponse{Tasks: tasks, Total: len(tasks)}
}
