package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedRanking struct {
	StudentID uint    `json:"student_id"`
	Marks     float64 `json:"marks"`
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, RankingKey(4), []cachedRanking{{StudentID: 1, Marks: 12}}, time.Minute))

	var got []cachedRanking
	require.NoError(t, c.Get(ctx, RankingKey(4), &got))
	assert.Equal(t, []cachedRanking{{StudentID: 1, Marks: 12}}, got)

	require.NoError(t, c.Delete(ctx, RankingKey(4)))
	assert.ErrorIs(t, c.Get(ctx, RankingKey(4), &got), ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", 1, time.Second))
	now = now.Add(2 * time.Second)

	var v int
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrCacheMiss)
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, RankingKey(1), 1, 0))
	require.NoError(t, c.Set(ctx, RankingKey(2), 2, 0))
	require.NoError(t, c.Set(ctx, "other", 3, 0))

	require.NoError(t, c.DeletePattern(ctx, "ranking:batch:*"))

	var v int
	assert.ErrorIs(t, c.Get(ctx, RankingKey(1), &v), ErrCacheMiss)
	assert.ErrorIs(t, c.Get(ctx, RankingKey(2), &v), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "other", &v))
}

func TestMemoryRunLocker(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryRunLocker()

	token, ok, err := l.Acquire(ctx, 7, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.Acquire(ctx, 7, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must be refused while held")

	_, ok, err = l.Acquire(ctx, 8, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "other batches are independent")

	// A stale token does not release somebody else's lock.
	require.NoError(t, l.Release(ctx, 7, "stale"))
	_, ok, _ = l.Acquire(ctx, 7, time.Minute)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, 7, token))
	_, ok, _ = l.Acquire(ctx, 7, time.Minute)
	assert.True(t, ok)
}

func TestMemoryRunLocker_ExpiredLockCanBeTaken(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryRunLocker()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_, ok, _ := l.Acquire(ctx, 1, time.Second)
	require.True(t, ok)

	now = now.Add(time.Minute)
	_, ok, _ = l.Acquire(ctx, 1, time.Second)
	assert.True(t, ok)
}
