package run

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	internaldb "github.com/metalagman/openainodes/internal/db"
	"github.com/metalagman/openainodes/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := internaldb.Open(filepath.Join(t.TempDir(), "openainodes.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestStoreStartFinishGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(openTestDB(t))

	require.NoError(t, store.Start(ctx, "inv-1", "text_generation", node.Inputs{"prompt": "Write a haiku"}))
	inv, err := store.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, inv.Status)
	assert.Nil(t, inv.EndedAt)
	assert.Equal(t, map[string]any{"prompt": "Write a haiku"}, inv.Inputs)

	require.NoError(t, store.Finish(ctx, "inv-1", node.Succeeded(node.Outputs{"generated_text": "cherry blossoms fall"})))
	inv, err = store.Get(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, inv.Status)
	assert.Empty(t, inv.ErrorKind)
	assert.Equal(t, map[string]any{"generated_text": "cherry blossoms fall"}, inv.Outputs)
	require.NotNil(t, inv.EndedAt)
	assert.False(t, inv.EndedAt.Before(inv.StartedAt))

	events, err := store.Events(ctx, "inv-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "invocation_started", events[0].Type)
	assert.Equal(t, 1, events[0].Seq)
	assert.Equal(t, "invocation_finished", events[1].Type)
	assert.Equal(t, 2, events[1].Seq)
}

func TestStoreFinishFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(openTestDB(t))

	require.NoError(t, store.Start(ctx, "inv-2", "speech_to_text", nil))
	require.NoError(t, store.Finish(ctx, "inv-2", node.Failed(node.KindFilesystem, "Speech to text conversion failed: open x: no such file")))

	inv, err := store.Get(ctx, "inv-2")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, inv.Status)
	assert.Equal(t, "filesystem", inv.ErrorKind)
	assert.Contains(t, inv.Message, "Speech to text conversion failed")
	assert.Nil(t, inv.Inputs)

	events, err := store.Events(ctx, "inv-2")
	require.NoError(t, err)
	assert.Equal(t, inv.Message, events[len(events)-1].Message)
}

func TestStoreNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(openTestDB(t))

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, store.Finish(ctx, "missing", node.Succeeded(nil)), ErrNotFound)
}

func TestStoreList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(openTestDB(t))

	for _, inv := range []struct{ id, node string }{
		{"a", "text_generation"},
		{"b", "image_generation"},
		{"c", "text_generation"},
	} {
		require.NoError(t, store.Start(ctx, inv.id, inv.node, nil))
	}

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)

	text, err := store.List(ctx, Filter{Node: "text_generation"})
	require.NoError(t, err)
	assert.Len(t, text, 2)

	limited, err := store.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].ID)
}
