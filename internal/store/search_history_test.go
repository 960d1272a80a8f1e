package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistory() *SearchHistory {
	h := NewSearchHistory(NewMemoryStore())
	clock := time.Unix(1700000000, 0)
	h.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return h
}

func TestSearchHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory()

	require.NoError(t, h.Add(ctx, "alice"))
	require.NoError(t, h.Add(ctx, "bob"))
	require.NoError(t, h.Add(ctx, "  "))

	list, err := h.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice"}, list)
}

func TestSearchHistoryMovesDuplicateToFront(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory()

	require.NoError(t, h.Add(ctx, "alice"))
	require.NoError(t, h.Add(ctx, "bob"))
	require.NoError(t, h.Add(ctx, "alice"))

	list, err := h.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, list)
}

func TestSearchHistoryIsBounded(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory()

	for i := 0; i < MaxSearchHistory+5; i++ {
		require.NoError(t, h.Add(ctx, fmt.Sprintf("q%d", i)))
	}

	list, err := h.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, MaxSearchHistory)
	assert.Equal(t, "q14", list[0])
	assert.Equal(t, "q5", list[MaxSearchHistory-1])
}

func TestSearchHistoryQueryWithUnderscore(t *testing.T) {
	ctx := context.Background()
	h := newTestHistory()

	require.NoError(t, h.Add(ctx, "snake_case"))
	require.NoError(t, h.Remove(ctx, "snake_case"))

	list, err := h.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
