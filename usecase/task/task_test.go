package task

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
	"github.com/fastygo/taskboard/repository/bolt"
)

func strPtr(s string) *string { return &s }

func newUseCase(t *testing.T) (*UseCase, *observer.ObservedLogs) {
	t.Helper()
	store, err := bolt.Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	return New(store, zap.New(core)), logs
}

func TestLifecycleScenario(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	a, err := uc.CreateTask(ctx, "u1", "Buy milk", "")
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "u1", a.Owner)
	assert.False(t, a.CreatedAt.IsZero())

	tasks, err := uc.ListTasks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, a.ID, tasks[0].ID)

	updated, err := uc.UpdateTask(ctx, "u1", a.ID, domain.TaskPatch{Description: strPtr("2%")})
	require.NoError(t, err)
	assert.Equal(t, "2%", updated.Description)
	assert.Equal(t, "Buy milk", updated.Title)
	assert.True(t, a.CreatedAt.Equal(updated.CreatedAt))

	id, err := uc.DeleteTask(ctx, "u1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)

	tasks, err = uc.ListTasks(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	_, err = uc.UpdateTask(ctx, "u1", a.ID, domain.TaskPatch{Title: strPtr("again")})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = uc.DeleteTask(ctx, "u1", a.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestUpdate_ForeignOwner(t *testing.T) {
	uc, logs := newUseCase(t)
	ctx := context.Background()

	b, err := uc.CreateTask(ctx, "u1", "X", "")
	require.NoError(t, err)

	_, err = uc.UpdateTask(ctx, "u2", b.ID, domain.TaskPatch{Title: strPtr("hack")})
	assert.ErrorIs(t, err, domain.ErrNotOwner)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	_, err = uc.DeleteTask(ctx, "u2", b.ID)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	tasks, err := uc.ListTasks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "X", tasks[0].Title)

	assert.Equal(t, 2, logs.FilterMessage("task ownership mismatch").Len())
}

func TestUpdate_ForeignOwnerCannotProbeValidation(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	b, err := uc.CreateTask(ctx, "u1", "X", "")
	require.NoError(t, err)

	_, err = uc.UpdateTask(ctx, "u2", b.ID, domain.TaskPatch{Title: strPtr("")})
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestCreate_Validation(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	for _, title := range []string{"", "   "} {
		_, err := uc.CreateTask(ctx, "u1", title, "desc")
		assert.ErrorIs(t, err, domain.ErrTitleRequired)
	}

	tasks, err := uc.ListTasks(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestUpdate_RejectsEmptyTitle(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	a, err := uc.CreateTask(ctx, "u1", "Keep me", "")
	require.NoError(t, err)

	_, err = uc.UpdateTask(ctx, "u1", a.ID, domain.TaskPatch{Title: strPtr("")})
	assert.ErrorIs(t, err, domain.ErrTitleRequired)

	tasks, err := uc.ListTasks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Keep me", tasks[0].Title)
}

func TestUpdate_EmptyPatchReturnsCurrent(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	a, err := uc.CreateTask(ctx, "u1", "X", "y")
	require.NoError(t, err)

	got, err := uc.UpdateTask(ctx, "u1", a.ID, domain.TaskPatch{})
	require.NoError(t, err)
	assert.Equal(t, a.Title, got.Title)
	assert.Equal(t, a.Description, got.Description)
}

func TestMissingIdentity(t *testing.T) {
	uc, _ := newUseCase(t)
	ctx := context.Background()

	_, err := uc.ListTasks(ctx, "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = uc.CreateTask(ctx, "", "x", "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = uc.UpdateTask(ctx, "", "id", domain.TaskPatch{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = uc.DeleteTask(ctx, "", "id")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

type failingStore struct {
	repository.TaskStore
	err error
}

func (f failingStore) ListByOwner(context.Context, string) ([]domain.Task, error) {
	return nil, f.err
}

func (f failingStore) GetByID(context.Context, string) (*domain.Task, error) {
	return nil, f.err
}

func TestStoreFailuresAreInternal(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cause := errors.New("connection reset")
	uc := New(failingStore{err: cause}, zap.New(core))

	_, err := uc.ListTasks(context.Background(), "u1")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
	assert.ErrorIs(t, err, cause)

	_, err = uc.DeleteTask(context.Background(), "u1", "id")
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, 2, logs.FilterMessage("task store failure").Len())
}
