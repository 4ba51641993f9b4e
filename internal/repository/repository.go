// internal/repository/repository.go
package repository

import (
	"context"

	"github.com/gurkanbulca/focusflow/internal/models"
)

// TaskRepository is the CRUD contract both backends satisfy.
//
// GetAll, GetByID, Create, Update and Delete propagate failures. GetByStatus,
// GetByPriority and Search log backend failures and return an empty slice.
type TaskRepository interface {
	GetAll(ctx context.Context) ([]*models.Task, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	Create(ctx context.Context, in models.TaskInput) (*models.Task, error)
	Update(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error)
	// Delete returns models.ErrNotFound for an unknown id.
	Delete(ctx context.Context, id int64) (bool, error)

	GetByStatus(ctx context.Context, completed bool) []*models.Task
	GetByPriority(ctx context.Context, priority models.Priority) []*models.Task
	Search(ctx context.Context, query string) []*models.Task
}
