// Package storetest holds the behaviour every repository.TaskStore must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

// Factory returns an empty store; cleanup is registered on t.
type Factory func(t *testing.T) repository.TaskStore

// Run exercises a TaskStore implementation. MissingID must be an id the
// backend accepts syntactically but has never issued.
func Run(t *testing.T, newStore Factory, missingID string) {
	t.Run("CreateAssignsID", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		in := newTask(t, "u1", "Buy milk", "")
		a, err := store.Create(ctx, in)
		require.NoError(t, err)
		b, err := store.Create(ctx, newTask(t, "u1", "Buy bread", "wholegrain"))
		require.NoError(t, err)

		assert.NotEmpty(t, a.ID)
		assert.NotEqual(t, a.ID, b.ID)
		assert.Empty(t, in.ID, "input task must not be mutated")
		assert.Equal(t, "u1", a.Owner)
		assert.WithinDuration(t, in.CreatedAt, a.CreatedAt, time.Millisecond)

		got, err := store.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.Title, got.Title)
		assert.Equal(t, a.Owner, got.Owner)
	})

	t.Run("ListScopedToOwner", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		mine, err := store.Create(ctx, newTask(t, "u1", "mine", ""))
		require.NoError(t, err)
		_, err = store.Create(ctx, newTask(t, "u2", "theirs", ""))
		require.NoError(t, err)

		tasks, err := store.ListByOwner(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, mine.ID, tasks[0].ID)

		none, err := store.ListByOwner(ctx, "nobody")
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("UpdateAppliesPatch", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, newTask(t, "u1", "Buy milk", ""))
		require.NoError(t, err)

		desc := "2%"
		updated, err := store.Update(ctx, created.ID, domain.TaskPatch{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, "Buy milk", updated.Title)
		assert.Equal(t, "2%", updated.Description)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "u1", updated.Owner)

		same, err := store.Update(ctx, created.ID, domain.TaskPatch{})
		require.NoError(t, err)
		assert.Equal(t, "2%", same.Description)

		got, err := store.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "2%", got.Description)
	})

	t.Run("DeleteIsNotIdempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.Create(ctx, newTask(t, "u1", "X", ""))
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, created.ID))
		assert.ErrorIs(t, store.Delete(ctx, created.ID), domain.ErrTaskNotFound)

		tasks, err := store.ListByOwner(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("MissingIDs", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		title := "x"

		for _, id := range []string{missingID, "not-an-id", ""} {
			_, err := store.GetByID(ctx, id)
			assert.ErrorIs(t, err, domain.ErrTaskNotFound, "get %q", id)
			_, err = store.Update(ctx, id, domain.TaskPatch{Title: &title})
			assert.ErrorIs(t, err, domain.ErrTaskNotFound, "update %q", id)
			assert.ErrorIs(t, store.Delete(ctx, id), domain.ErrTaskNotFound, "delete %q", id)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(context.Background()))
	})
}

func newTask(t *testing.T, owner, title, description string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(owner, title, description, time.Now())
	require.NoError(t, err)
	return task
}
