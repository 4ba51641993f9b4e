// internal/repository/local_task_repository.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gurkanbulca/focusflow/internal/localstore"
	"github.com/gurkanbulca/focusflow/internal/models"
)

// LocalTaskRepository keeps the collection in memory and mirrors every
// mutation to a localstore.Store before returning.
type LocalTaskRepository struct {
	store  localstore.Store
	logger *log.Logger
	now    func() time.Time

	mu    sync.RWMutex
	tasks []*models.Task
}

// LocalOption configures a LocalTaskRepository.
type LocalOption func(*LocalTaskRepository)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) LocalOption {
	return func(r *LocalTaskRepository) { r.now = now }
}

// NewLocalTaskRepository reads the snapshot once. A missing or corrupt payload
// falls back to the seed dataset; an unreachable store is ErrStorageUnavailable.
func NewLocalTaskRepository(ctx context.Context, store localstore.Store, logger *log.Logger, opts ...LocalOption) (*LocalTaskRepository, error) {
	r := &LocalTaskRepository{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	payload, err := store.Load(ctx)
	switch {
	case errors.Is(err, localstore.ErrNoSnapshot):
		logger.Info("No saved tasks found, loading seed data")
		r.tasks = SeedTasks(r.now())
		return r, nil
	case err != nil:
		return nil, fmt.Errorf("%w: load snapshot: %v", models.ErrStorageUnavailable, err)
	}

	var tasks []*models.Task
	if err := json.Unmarshal(payload, &tasks); err != nil {
		logger.Warn("Saved tasks are corrupt, loading seed data", "err", err)
		r.tasks = SeedTasks(r.now())
		return r, nil
	}

	now := r.now()
	kept := tasks[:0]
	for _, t := range tasks {
		if t == nil {
			continue
		}
		t.Normalize(now)
		kept = append(kept, t)
	}
	r.tasks = kept
	logger.Debug("Loaded tasks from snapshot", "count", len(r.tasks))
	return r, nil
}

// GetAll returns every task, newest first.
func (r *LocalTaskRepository) GetAll(_ context.Context) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedCopy(func(*models.Task) bool { return true }), nil
}

func (r *LocalTaskRepository) GetByID(_ context.Context, id int64) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.tasks[i].Clone(), nil
	}
	return nil, fmt.Errorf("%w: id %d", models.ErrNotFound, id)
}

func (r *LocalTaskRepository) Create(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, err := models.NewTask(r.nextID(), in, r.now())
	if err != nil {
		return nil, err
	}

	prev := r.tasks
	r.tasks = append(append(make([]*models.Task, 0, len(prev)+1), prev...), task)
	if err := r.persist(ctx); err != nil {
		r.tasks = prev
		return nil, err
	}
	return task.Clone(), nil
}

func (r *LocalTaskRepository) Update(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: id %d", models.ErrNotFound, id)
	}

	updated := r.tasks[i].Clone()
	if err := updated.Apply(patch, r.now()); err != nil {
		return nil, err
	}

	prev := r.tasks[i]
	r.tasks[i] = updated
	if err := r.persist(ctx); err != nil {
		r.tasks[i] = prev
		return nil, err
	}
	return updated.Clone(), nil
}

func (r *LocalTaskRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false, fmt.Errorf("%w: id %d", models.ErrNotFound, id)
	}

	prev := r.tasks
	next := make([]*models.Task, 0, len(prev)-1)
	next = append(next, prev[:i]...)
	next = append(next, prev[i+1:]...)
	r.tasks = next
	if err := r.persist(ctx); err != nil {
		r.tasks = prev
		return false, err
	}
	return true, nil
}

func (r *LocalTaskRepository) GetByStatus(_ context.Context, completed bool) []*models.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedCopy(func(t *models.Task) bool { return t.Completed == completed })
}

func (r *LocalTaskRepository) GetByPriority(_ context.Context, priority models.Priority) []*models.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedCopy(func(t *models.Task) bool { return t.Priority == priority })
}

func (r *LocalTaskRepository) Search(_ context.Context, query string) []*models.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.TrimSpace(query)
	return r.sortedCopy(func(t *models.Task) bool { return t.Matches(q) })
}

// persist writes the full collection. Caller holds the write lock.
func (r *LocalTaskRepository) persist(ctx context.Context) error {
	payload, err := json.Marshal(r.tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := r.store.Save(ctx, payload); err != nil {
		r.logger.Error("Failed to persist tasks", "err", err)
		return fmt.Errorf("%w: save snapshot: %v", models.ErrStorageUnavailable, err)
	}
	return nil
}

func (r *LocalTaskRepository) nextID() int64 {
	var maxID int64
	for _, t := range r.tasks {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID + 1
}

func (r *LocalTaskRepository) indexOf(id int64) int {
	for i, t := range r.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// sortedCopy clones the matching tasks ordered by creation time descending.
func (r *LocalTaskRepository) sortedCopy(keep func(*models.Task) bool) []*models.Task {
	out := make([]*models.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
