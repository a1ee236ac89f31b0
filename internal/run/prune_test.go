package run

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrune(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := openTestDB(t)
	store := NewStore(database)

	now := time.Now().UTC()
	seed := []struct {
		id     string
		age    time.Duration
		status string
	}{
		{"fresh", time.Hour, StatusSucceeded},
		{"old-running", 40 * 24 * time.Hour, StatusRunning},
		{"old-failed", 30 * 24 * time.Hour, StatusFailed},
		{"ancient", 90 * 24 * time.Hour, StatusSucceeded},
	}
	for _, s := range seed {
		require.NoError(t, store.Start(ctx, s.id, "text_generation", nil))
		_, err := database.ExecContext(ctx, `UPDATE invocations SET started_at=?, status=? WHERE invocation_id=?`,
			now.Add(-s.age).Format(timeLayout), s.status, s.id)
		require.NoError(t, err)
	}

	res, err := Prune(ctx, database, RetentionPolicy{KeepDays: 7}, true)
	require.NoError(t, err)
	assert.Equal(t, PruneResult{Considered: 4, Kept: 2, Deleted: 2}, res)
	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4, "dry run must not delete")

	res, err = Prune(ctx, database, RetentionPolicy{KeepLast: 3, KeepDays: 7}, false)
	require.NoError(t, err)
	assert.Equal(t, PruneResult{Considered: 4, Kept: 3, Deleted: 1}, res)

	_, err = store.Get(ctx, "ancient")
	require.ErrorIs(t, err, ErrNotFound)
	events, err := store.Events(ctx, "ancient")
	require.NoError(t, err)
	assert.Empty(t, events)

	res, err = Prune(ctx, database, RetentionPolicy{}, false)
	require.NoError(t, err)
	assert.Equal(t, PruneResult{}, res)
}
