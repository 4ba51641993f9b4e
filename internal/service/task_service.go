// internal/service/task_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gurkanbulca/focusflow/internal/models"
	"github.com/gurkanbulca/focusflow/internal/repository"
	"github.com/gurkanbulca/focusflow/internal/view"
)

// Operation names used in logs and user messages.
const (
	OpLoad   = "load tasks"
	OpGet    = "load task"
	OpCreate = "create task"
	OpUpdate = "update task"
	OpToggle = "update task status"
	OpDelete = "delete task"
)

// TaskService is what the presentation layer talks to. It trims input,
// enforces the title rule and turns store results into projections.
type TaskService struct {
	repo   repository.TaskRepository
	logger *log.Logger
	now    func() time.Time
}

// Option configures a TaskService.
type Option func(*TaskService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

func NewTaskService(repo repository.TaskRepository, logger *log.Logger, opts ...Option) *TaskService {
	s := &TaskService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTask creates a new task
func (s *TaskService) CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", models.ErrValidationFailed)
	}
	in.Priority = in.Priority.Normalize()

	task, err := s.repo.Create(ctx, in)
	if err != nil {
		s.logger.Error("Failed to create task", "err", err)
		return nil, err
	}
	s.logger.Info("Task created", "id", task.ID, "priority", task.Priority)
	return task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", models.ErrValidationFailed)
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateTask edits title, description, priority and due date. Completion
// changes go through ToggleComplete.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id must be positive", models.ErrValidationFailed)
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title is required", models.ErrValidationFailed)
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		patch.Description = &desc
	}
	patch.Completed = nil
	patch.CompletedAt = nil

	task, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.logger.Error("Failed to update task", "id", id, "err", err)
		return nil, err
	}
	s.logger.Info("Task updated", "id", id)
	return task, nil
}

// ToggleComplete flips completion. Completing always stamps the current
// time, even when the task was completed before.
func (s *TaskService) ToggleComplete(ctx context.Context, id int64) (*models.Task, error) {
	current, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	completed := !current.Completed
	patch := models.TaskPatch{Completed: &completed}
	if completed {
		at := s.now()
		patch.CompletedAt = &at
	}

	task, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.logger.Error("Failed to toggle task", "id", id, "err", err)
		return nil, err
	}
	s.logger.Info("Task toggled", "id", id, "completed", task.Completed)
	return task, nil
}

// DeleteTask deletes a task
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive", models.ErrValidationFailed)
	}
	if _, err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete task", "id", id, "err", err)
		return err
	}
	s.logger.Info("Task deleted", "id", id)
	return nil
}

// ListTasks returns the full collection, newest first.
func (s *TaskService) ListTasks(ctx context.Context) ([]*models.Task, error) {
	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("Failed to load tasks", "err", err)
		return nil, err
	}
	return tasks, nil
}

// View loads the collection and projects it for state.
func (s *TaskService) View(ctx context.Context, state view.State) (view.Projection, error) {
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return view.Projection{}, err
	}
	return view.Project(tasks, state), nil
}

// Stats summarizes the collection for the statistics panel.
func (s *TaskService) Stats(ctx context.Context) (view.Summary, error) {
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return view.Summary{}, err
	}
	return view.Stats(tasks, s.now()), nil
}

func (s *TaskService) TasksByStatus(ctx context.Context, completed bool) []*models.Task {
	return s.repo.GetByStatus(ctx, completed)
}

func (s *TaskService) TasksByPriority(ctx context.Context, priority models.Priority) []*models.Task {
	return s.repo.GetByPriority(ctx, priority)
}

func (s *TaskService) SearchTasks(ctx context.Context, query string) []*models.Task {
	if strings.TrimSpace(query) == "" {
		return []*models.Task{}
	}
	return s.repo.Search(ctx, query)
}

// UserMessage turns an operation failure into one short line fit for a
// notification. Backend detail never leaks into it.
func UserMessage(op string, err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrNotFound):
		return "Task not found. It may have been deleted."
	case errors.Is(err, models.ErrValidationFailed):
		if strings.Contains(err.Error(), "title") {
			return "Task title is required."
		}
		return "Some task details are invalid."
	case errors.Is(err, models.ErrPartialBatchFailure):
		return fmt.Sprintf("Some changes could not be saved while trying to %s.", op)
	case errors.Is(err, models.ErrStorageUnavailable):
		return fmt.Sprintf("Failed to %s. Storage is unavailable, please try again.", op)
	default:
		return fmt.Sprintf("Failed to %s.", op)
	}
}
