// internal/repository/remote_task_repository.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gurkanbulca/focusflow/internal/models"
	"github.com/gurkanbulca/focusflow/pkg/recordapi"
)

// RecordClient is the subset of recordapi.Client the remote backend uses.
type RecordClient interface {
	FetchRecords(ctx context.Context, table string, params recordapi.FetchParams) (*recordapi.Response, error)
	GetRecordByID(ctx context.Context, table string, id int64, params recordapi.FetchParams) (*recordapi.Response, error)
	CreateRecord(ctx context.Context, table string, records ...any) (*recordapi.Response, error)
	UpdateRecord(ctx context.Context, table string, records ...any) (*recordapi.Response, error)
	DeleteRecord(ctx context.Context, table string, ids ...int64) (*recordapi.Response, error)
}

// RemoteTaskRepository stores tasks through the record-storage service,
// one round trip per operation.
type RemoteTaskRepository struct {
	client     RecordClient
	table      string
	fetchLimit int
	logger     *log.Logger
	now        func() time.Time
}

// RemoteOption configures a RemoteTaskRepository.
type RemoteOption func(*RemoteTaskRepository)

// WithRemoteClock overrides time.Now for completion stamps.
func WithRemoteClock(now func() time.Time) RemoteOption {
	return func(r *RemoteTaskRepository) { r.now = now }
}

func NewRemoteTaskRepository(client RecordClient, table string, fetchLimit int, logger *log.Logger, opts ...RemoteOption) *RemoteTaskRepository {
	if fetchLimit <= 0 {
		fetchLimit = 100
	}
	r := &RemoteTaskRepository{
		client:     client,
		table:      table,
		fetchLimit: fetchLimit,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RemoteTaskRepository) GetAll(ctx context.Context) ([]*models.Task, error) {
	tasks, err := r.fetch(ctx, recordapi.FetchParams{
		PagingInfo: &recordapi.PagingInfo{Limit: r.fetchLimit, Offset: 0},
	})
	if err != nil {
		r.logger.Error("Failed to fetch tasks", "err", err)
		return nil, err
	}
	return tasks, nil
}

func (r *RemoteTaskRepository) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	resp, err := r.client.GetRecordByID(ctx, r.table, id, recordapi.FetchParams{
		Fields: recordapi.Fields(taskFields...),
	})
	if err != nil {
		return nil, r.classify(fmt.Sprintf("get task %d", id), err)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, fmt.Errorf("%w: id %d", models.ErrNotFound, id)
	}
	return r.decodeTask(resp.Data)
}

func (r *RemoteTaskRepository) Create(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	draft, err := models.NewTask(0, in, r.now())
	if err != nil {
		return nil, err
	}

	resp, err := r.client.CreateRecord(ctx, r.table, ToStorage(draft))
	if err != nil {
		return nil, r.classify("create task", err)
	}
	data, err := r.firstSuccess("create", resp)
	if err != nil {
		return nil, err
	}
	return r.decodeTask(data)
}

func (r *RemoteTaskRepository) Update(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.Completed != nil && *patch.Completed && patch.CompletedAt == nil {
		// completedAt only moves on a false -> true transition
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Completed {
			patch.CompletedAt = current.CompletedAt
		}
	}

	resp, err := r.client.UpdateRecord(ctx, r.table, ToStoragePatch(id, patch, r.now()))
	if err != nil {
		return nil, r.classify(fmt.Sprintf("update task %d", id), err)
	}
	data, err := r.firstSuccess("update", resp)
	if err != nil {
		return nil, err
	}
	return r.decodeTask(data)
}

func (r *RemoteTaskRepository) Delete(ctx context.Context, id int64) (bool, error) {
	resp, err := r.client.DeleteRecord(ctx, r.table, id)
	if err != nil {
		return false, r.classify(fmt.Sprintf("delete task %d", id), err)
	}
	if len(resp.Results) == 0 {
		return true, nil
	}
	if _, err := r.firstSuccess("delete", resp); err != nil {
		return false, err
	}
	return true, nil
}

// GetByStatus, GetByPriority and Search narrow the fetch on both spellings of
// each field, then keep only tasks whose reconciled value matches.
func (r *RemoteTaskRepository) GetByStatus(ctx context.Context, completed bool) []*models.Task {
	values := []any{completed}
	if !completed {
		values = append(values, nil)
	}
	params := recordapi.FetchParams{
		WhereGroups: []recordapi.WhereGroup{anyOf(recordapi.OperatorExactMatch, values,
			recordapi.FieldCompleted, recordapi.FieldCompletedC)},
	}
	tasks, err := r.fetchMatching(ctx, params, func(t *models.Task) bool { return t.Completed == completed })
	if err != nil {
		r.logger.Error("Failed to fetch tasks by status", "completed", completed, "err", err)
		return []*models.Task{}
	}
	return tasks
}

// GetByPriority treats unknown priorities as medium, so a medium query can't
// be narrowed on the service side.
func (r *RemoteTaskRepository) GetByPriority(ctx context.Context, priority models.Priority) []*models.Task {
	priority = priority.Normalize()

	var params recordapi.FetchParams
	if priority != models.PriorityMedium {
		params.WhereGroups = []recordapi.WhereGroup{anyOf(recordapi.OperatorExactMatch, []any{string(priority)},
			recordapi.FieldPriority, recordapi.FieldPriorityC)}
	}
	tasks, err := r.fetchMatching(ctx, params, func(t *models.Task) bool { return t.Priority == priority })
	if err != nil {
		r.logger.Error("Failed to fetch tasks by priority", "priority", priority, "err", err)
		return []*models.Task{}
	}
	return tasks
}

func (r *RemoteTaskRepository) Search(ctx context.Context, query string) []*models.Task {
	term := strings.ToLower(strings.TrimSpace(query))
	params := recordapi.FetchParams{
		WhereGroups: []recordapi.WhereGroup{anyOf(recordapi.OperatorContains, []any{term},
			recordapi.FieldTitle, recordapi.FieldName, recordapi.FieldTitleC,
			recordapi.FieldDescription, recordapi.FieldDescriptionC)},
	}
	tasks, err := r.fetchMatching(ctx, params, func(t *models.Task) bool { return t.Matches(term) })
	if err != nil {
		r.logger.Error("Failed to search tasks", "query", query, "err", err)
		return []*models.Task{}
	}
	return tasks
}

func (r *RemoteTaskRepository) fetchMatching(ctx context.Context, params recordapi.FetchParams, keep func(*models.Task) bool) ([]*models.Task, error) {
	tasks, err := r.fetch(ctx, params)
	if err != nil {
		return nil, err
	}
	kept := tasks[:0]
	for _, t := range tasks {
		if keep(t) {
			kept = append(kept, t)
		}
	}
	return kept, nil
}

// anyOf matches records where any of fields satisfies op against values.
func anyOf(op string, values []any, fields ...string) recordapi.WhereGroup {
	conds := make([]recordapi.GroupCondition, len(fields))
	for i, f := range fields {
		conds[i] = recordapi.GroupCondition{FieldName: f, Operator: op, Values: values}
	}
	return recordapi.WhereGroup{
		Operator:  recordapi.GroupOr,
		SubGroups: []recordapi.SubGroup{{Operator: recordapi.GroupOr, Conditions: conds}},
	}
}

// fetch fills in the field list and creation-time ordering shared by all reads.
func (r *RemoteTaskRepository) fetch(ctx context.Context, params recordapi.FetchParams) ([]*models.Task, error) {
	params.Fields = recordapi.Fields(taskFields...)
	params.OrderBy = []recordapi.OrderBy{{FieldName: recordapi.FieldCreatedOn, SortType: recordapi.SortDesc}}

	resp, err := r.client.FetchRecords(ctx, r.table, params)
	if err != nil {
		return nil, r.classify("fetch tasks", err)
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return []*models.Task{}, nil
	}

	var records []StorageRecord
	if err := json.Unmarshal(resp.Data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode records: %v", models.ErrStorageUnavailable, err)
	}

	now := r.now()
	tasks := make([]*models.Task, 0, len(records))
	for _, rec := range records {
		t := FromStorage(rec)
		t.Normalize(now)
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (r *RemoteTaskRepository) decodeTask(data json.RawMessage) (*models.Task, error) {
	var rec StorageRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: decode record: %v", models.ErrStorageUnavailable, err)
	}
	t := FromStorage(rec)
	t.Normalize(r.now())
	return t, nil
}

// firstSuccess returns the first successful record of a batch write. Failed
// records are logged with their field errors; they only fail the call when
// nothing succeeded.
func (r *RemoteTaskRepository) firstSuccess(op string, resp *recordapi.Response) (json.RawMessage, error) {
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: %s returned no results", models.ErrStorageUnavailable, op)
	}

	var (
		first    json.RawMessage
		found    bool
		ok       int
		failures []models.RecordFailure
		notFound = true
		rejected = true
	)
	for i, res := range resp.Results {
		if res.Success {
			if !found {
				first, found = res.Data, true
			}
			ok++
			continue
		}

		failure := models.RecordFailure{Index: i, Message: res.Message}
		for _, fe := range res.Errors {
			failure.Fields = append(failure.Fields, models.FieldError{Field: fe.FieldLabel, Message: fe.Message})
		}
		failures = append(failures, failure)
		if res.StatusCode != http.StatusNotFound {
			notFound = false
		}
		if res.StatusCode != http.StatusBadRequest && res.StatusCode != http.StatusUnprocessableEntity {
			rejected = false
		}
	}

	if len(failures) > 0 {
		batchErr := &models.BatchError{Op: op, Succeeded: ok, Failures: failures}
		r.logger.Error(fmt.Sprintf("Failed to %s %d tasks", op, len(failures)), "err", batchErr)
		for _, f := range failures {
			for _, fe := range f.Fields {
				r.logger.Error("Field rejected", "index", f.Index, "field", fe.Field, "message", fe.Message)
			}
			if f.Message != "" {
				r.logger.Error("Record rejected", "index", f.Index, "message", f.Message)
			}
		}
		if !found {
			if notFound {
				return nil, fmt.Errorf("%w: %s", models.ErrNotFound, failures[0].Message)
			}
			if rejected {
				return nil, fmt.Errorf("%w: %s", models.ErrValidationFailed, batchErr.Error())
			}
			return nil, batchErr
		}
	}
	return first, nil
}

// classify maps client errors onto the store error taxonomy.
func (r *RemoteTaskRepository) classify(op string, err error) error {
	var apiErr *recordapi.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %v", models.ErrNotFound, op, err)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %s: %v", models.ErrValidationFailed, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %v", models.ErrStorageUnavailable, op, err)
}
