package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/focusflow/internal/localstore"
	"github.com/gurkanbulca/focusflow/internal/logging"
	"github.com/gurkanbulca/focusflow/internal/models"
	"github.com/gurkanbulca/focusflow/internal/repository"
	"github.com/gurkanbulca/focusflow/internal/service"
	"github.com/gurkanbulca/focusflow/internal/view"
)

const fixture = `[
	{"id":1,"title":"Pay rent","priority":"high","dueDate":"2024-01-05","createdAt":"2024-01-01T00:00:00Z"},
	{"id":2,"title":"Groceries","description":"milk and eggs","priority":"low","createdAt":"2024-01-02T00:00:00Z"},
	{"id":3,"title":"Call plumber","priority":"medium","completed":true,"completedAt":"2024-01-03T00:00:00Z","createdAt":"2024-01-03T00:00:00Z"}
]`

func setupServer(t *testing.T, payload string) (*Server, *localstore.MemoryStore) {
	t.Helper()
	now := func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }
	store := localstore.NewMemoryStoreWith([]byte(payload))

	repo, err := repository.NewLocalTaskRepository(context.Background(), store, logging.Discard(), repository.WithClock(now))
	require.NoError(t, err)
	svc := service.NewTaskService(repo, logging.Discard(), service.WithClock(now))
	return NewServer(svc, logging.Discard(), "local"), store
}

func do(t *testing.T, s *Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestHealth(t *testing.T) {
	s, _ := setupServer(t, "[]")
	resp, body := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy","details":{"backend":"local"}}`, string(body))
}

func TestListTasks_Projection(t *testing.T) {
	s, _ := setupServer(t, fixture)

	tests := []struct {
		name    string
		path    string
		wantIDs []int64
	}{
		{"all", "/api/v1/tasks", []int64{1, 2, 3}},
		{"active", "/api/v1/tasks?filter=active", []int64{1, 2}},
		{"completed", "/api/v1/tasks?filter=completed", []int64{3}},
		{"search", "/api/v1/tasks?search=EGGS", []int64{2}},
		{"unknown filter", "/api/v1/tasks?filter=nope", []int64{1, 2, 3}},
		{"no hits", "/api/v1/tasks?search=zebra", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, s, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var got ProjectionResponse
			require.NoError(t, json.Unmarshal(body, &got))
			ids := make([]int64, 0, len(got.Tasks))
			for _, task := range got.Tasks {
				ids = append(ids, task.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, 3, got.Counts[view.FilterAll], "counts ignore search and filter")
			assert.Equal(t, 1, got.Counts[view.FilterCompleted])
		})
	}
}

func TestStats(t *testing.T) {
	s, _ := setupServer(t, fixture)
	resp, body := do(t, s, http.MethodGet, "/api/v1/tasks/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"total":3,"completed":1,"active":2,"overdue":1,"completionRate":33}`, string(body))
}

func TestConvenienceRoutes(t *testing.T) {
	s, _ := setupServer(t, fixture)

	tests := []struct {
		path       string
		wantStatus int
		wantTotal  int
	}{
		{"/api/v1/tasks/status/active", http.StatusOK, 2},
		{"/api/v1/tasks/status/completed", http.StatusOK, 1},
		{"/api/v1/tasks/status/sleeping", http.StatusBadRequest, 0},
		{"/api/v1/tasks/priority/HIGH", http.StatusOK, 1},
		{"/api/v1/tasks/priority/urgent", http.StatusBadRequest, 0},
		{"/api/v1/tasks/search?q=plumb", http.StatusOK, 1},
		{"/api/v1/tasks/search", http.StatusOK, 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := do(t, s, http.MethodGet, tt.path, "")
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var got ListTasksResponse
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.wantTotal, got.Total)
			assert.Len(t, got.Tasks, tt.wantTotal)
		})
	}
}

func TestTaskLifecycle(t *testing.T) {
	s, store := setupServer(t, "[]")

	resp, body := do(t, s, http.MethodPost, "/api/v1/tasks", `{"title":"  Book flights ","priority":"high","dueDate":"2024-02-01"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Task
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "Book flights", created.Title)
	assert.Equal(t, models.PriorityHigh, created.Priority)

	resp, body = do(t, s, http.MethodPut, "/api/v1/tasks/1", `{"description":"window seat","dueDate":""}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Task
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "window seat", updated.Description)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, "Book flights", updated.Title)

	resp, body = do(t, s, http.MethodPost, "/api/v1/tasks/1/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var toggled models.Task
	require.NoError(t, json.Unmarshal(body, &toggled))
	assert.True(t, toggled.Completed)
	assert.NotNil(t, toggled.CompletedAt)

	resp, _ = do(t, s, http.MethodGet, "/api/v1/tasks/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, s, http.MethodDelete, "/api/v1/tasks/1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	payload, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(payload))
}

func TestErrorMapping(t *testing.T) {
	s, store := setupServer(t, fixture)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantError  string
		wantMsg    string
	}{
		{"missing task", http.MethodGet, "/api/v1/tasks/99", "", http.StatusNotFound, "not_found", "Task not found. It may have been deleted."},
		{"delete missing", http.MethodDelete, "/api/v1/tasks/99", "", http.StatusNotFound, "not_found", ""},
		{"bad id", http.MethodGet, "/api/v1/tasks/abc", "", http.StatusBadRequest, "validation_error", ""},
		{"empty title", http.MethodPost, "/api/v1/tasks", `{"title":"   "}`, http.StatusBadRequest, "validation_error", "Task title is required."},
		{"bad priority", http.MethodPost, "/api/v1/tasks", `{"title":"x","priority":"urgent"}`, http.StatusBadRequest, "validation_error", ""},
		{"bad date", http.MethodPut, "/api/v1/tasks/1", `{"dueDate":"tomorrow"}`, http.StatusBadRequest, "validation_error", ""},
		{"bad body", http.MethodPost, "/api/v1/tasks", `{"title":`, http.StatusBadRequest, "invalid_request", ""},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound, "server_error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, s, tt.method, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, resp.StatusCode)

			var got ErrorResponse
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.wantError, got.Error)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, got.Message)
			}
		})
	}

	t.Run("storage failure", func(t *testing.T) {
		store.SaveErr = errors.New("disk full: /var/lib/focusflow")
		defer func() { store.SaveErr = nil }()

		resp, body := do(t, s, http.MethodPost, "/api/v1/tasks", `{"title":"x"}`)
		require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.NotContains(t, string(body), "disk full")
	})
}
