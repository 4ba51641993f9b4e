package recordstore_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/focusflow/internal/config"
	"github.com/gurkanbulca/focusflow/internal/database"
	"github.com/gurkanbulca/focusflow/internal/logging"
	"github.com/gurkanbulca/focusflow/internal/models"
	"github.com/gurkanbulca/focusflow/internal/recordstore"
	"github.com/gurkanbulca/focusflow/internal/repository"
	"github.com/gurkanbulca/focusflow/pkg/recordapi"
)

// newRemoteStack wires a RemoteTaskRepository through the HTTP client to a
// record store on in-memory SQLite.
func newRemoteStack(t *testing.T) (*repository.RemoteTaskRepository, *recordstore.Store) {
	t.Helper()
	ctx := context.Background()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.Open(ctx, config.DatabaseConfig{
		Driver:       dialect.SQLite,
		DSN:          fmt.Sprintf("file:e2e_%s?mode=memory&cache=shared&_fk=1", name),
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, recordstore.Migrate(ctx, db, dialect.SQLite, "tasks"))

	store, err := recordstore.NewStore(db, dialect.SQLite, "tasks")
	require.NoError(t, err)

	creds := recordstore.Credentials{ProjectID: "proj", PublicKey: "key"}
	srv := recordstore.NewServer(store, creds, logging.Discard())
	httpSrv := httptest.NewServer(adaptor.FiberApp(srv.App()))
	t.Cleanup(httpSrv.Close)

	client, err := recordapi.NewClient(recordapi.ClientConfig{
		BaseURL:   httpSrv.URL,
		ProjectID: creds.ProjectID,
		PublicKey: creds.PublicKey,
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)

	clock := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return repository.NewRemoteTaskRepository(client, "tasks", 50, logging.Discard(), repository.WithRemoteClock(tick)), store
}

func TestRemoteRepository_AgainstRecordStore(t *testing.T) {
	repo, _ := newRemoteStack(t)
	ctx := context.Background()

	due := models.NewDate(2024, 6, 10)
	first, err := repo.Create(ctx, models.TaskInput{Title: "Buy coffee", Priority: models.PriorityHigh, DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "Buy coffee", first.Title)
	require.NotNil(t, first.DueDate)
	assert.Equal(t, "2024-06-10", first.DueDate.String())

	second, err := repo.Create(ctx, models.TaskInput{Title: "Call mom", Description: "ask about coffee maker"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, models.PriorityMedium, second.Priority)

	_, err = repo.Create(ctx, models.TaskInput{Title: "  "})
	assert.ErrorIs(t, err, models.ErrValidationFailed)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(2), all[0].ID, "newest first")

	done := true
	updated, err := repo.Update(ctx, first.ID, models.TaskPatch{Completed: &done, ClearDueDate: true})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	require.NotNil(t, updated.CompletedAt)
	assert.Nil(t, updated.DueDate)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)

	assert.Len(t, repo.GetByStatus(ctx, true), 1)
	assert.Len(t, repo.GetByPriority(ctx, models.PriorityHigh), 1)
	assert.Len(t, repo.Search(ctx, "COFFEE"), 2)

	_, err = repo.Update(ctx, 99, models.TaskPatch{Title: strPtr("ghost")})
	assert.ErrorIs(t, err, models.ErrNotFound)

	ok, err := repo.Delete(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.GetByID(ctx, second.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = repo.Delete(ctx, second.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRemoteRepository_CompletingTwiceKeepsTimestamp(t *testing.T) {
	repo, _ := newRemoteStack(t)
	ctx := context.Background()

	task, err := repo.Create(ctx, models.TaskInput{Title: "a"})
	require.NoError(t, err)

	done := true
	completed, err := repo.Update(ctx, task.ID, models.TaskPatch{Completed: &done})
	require.NoError(t, err)
	require.NotNil(t, completed.CompletedAt)

	renamed, err := repo.Update(ctx, task.ID, models.TaskPatch{Completed: &done, Title: strPtr("b")})
	require.NoError(t, err)
	assert.Equal(t, "b", renamed.Title)
	require.NotNil(t, renamed.CompletedAt)
	assert.True(t, completed.CompletedAt.Equal(*renamed.CompletedAt))

	reopened, err := repo.Update(ctx, task.ID, models.TaskPatch{Completed: new(bool)})
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)

	again, err := repo.Update(ctx, task.ID, models.TaskPatch{Completed: &done})
	require.NoError(t, err)
	require.NotNil(t, again.CompletedAt)
	assert.True(t, again.CompletedAt.After(*completed.CompletedAt), "a fresh completion is stamped anew")
}

func TestRemoteRepository_QueriesReadEitherSpelling(t *testing.T) {
	repo, store := newRemoteStack(t)
	ctx := context.Background()

	results := store.Create(ctx, []json.RawMessage{
		json.RawMessage(`{"title":"Plain","completed":true,"priority":"high","description":"weekly review"}`),
		json.RawMessage(`{"title_c":"Suffixed","completed_c":true,"priority_c":"low","description_c":"weekly groceries"}`),
		json.RawMessage(`{"Name":"Legacy","priority":"someday"}`),
	})
	for _, res := range results {
		require.True(t, res.Success, res.Message)
	}

	titles := func(tasks []*models.Task) []string {
		out := make([]string, len(tasks))
		for i, task := range tasks {
			out[i] = task.Title
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Plain", "Suffixed"}, titles(repo.GetByStatus(ctx, true)))
	assert.ElementsMatch(t, []string{"Legacy"}, titles(repo.GetByStatus(ctx, false)))
	assert.ElementsMatch(t, []string{"Plain"}, titles(repo.GetByPriority(ctx, models.PriorityHigh)))
	assert.ElementsMatch(t, []string{"Suffixed"}, titles(repo.GetByPriority(ctx, models.PriorityLow)))
	assert.ElementsMatch(t, []string{"Legacy"}, titles(repo.GetByPriority(ctx, models.PriorityMedium)))
	assert.ElementsMatch(t, []string{"Plain", "Suffixed"}, titles(repo.Search(ctx, "WEEKLY")))
	assert.ElementsMatch(t, []string{"Legacy"}, titles(repo.Search(ctx, "legacy")))
}

func TestRemoteRepository_RejectedCredentials(t *testing.T) {
	ctx := context.Background()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.Open(ctx, config.DatabaseConfig{
		Driver:       dialect.SQLite,
		DSN:          fmt.Sprintf("file:e2e_%s?mode=memory&cache=shared", name),
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, recordstore.Migrate(ctx, db, dialect.SQLite, "tasks"))

	store, err := recordstore.NewStore(db, dialect.SQLite, "tasks")
	require.NoError(t, err)
	srv := recordstore.NewServer(store, recordstore.Credentials{PublicKey: "secret"}, logging.Discard())
	httpSrv := httptest.NewServer(adaptor.FiberApp(srv.App()))
	defer httpSrv.Close()

	client, err := recordapi.NewClient(recordapi.ClientConfig{BaseURL: httpSrv.URL, PublicKey: "wrong"})
	require.NoError(t, err)
	repo := repository.NewRemoteTaskRepository(client, "tasks", 0, logging.Discard())

	_, err = repo.GetAll(ctx)
	assert.ErrorIs(t, err, models.ErrStorageUnavailable)
	assert.Empty(t, repo.Search(ctx, "anything"))
}

func strPtr(s string) *string { return &s }
