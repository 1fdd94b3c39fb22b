package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/hyresense/internal/analysis"
)

func TestCachedFallsBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	inner := newTestSQLite(t)

	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})

	core, logs := observer.New(zap.WarnLevel)
	cached := NewCached(inner, rdb, 0, zap.New(core))
	t.Cleanup(func() { rdb.Close() })

	require.NoError(t, cached.Save(ctx, completedRecord("rec-1", "job-1", "cand-1", 77, time.Now())))

	got, err := cached.Get(ctx, "job-1", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", got.ID)

	_, err = cached.Get(ctx, "job-1", "missing")
	assert.ErrorIs(t, err, analysis.ErrRecordNotFound)

	assert.NotZero(t, logs.FilterMessage("cache read failed").Len())
	assert.Equal(t, DefaultCacheTTL, cached.ttl)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "hyresense:analysis:job-1:cand-1", cacheKey("job-1", "cand-1"))
}

func newTestCached(t *testing.T) (*Cached, *SQLite, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inner := newTestSQLite(t)

	cached := NewCached(inner, rdb, time.Minute, zap.NewNop())
	t.Cleanup(func() { rdb.Close() })
	return cached, inner, mr
}

func TestCachedServesCompletedRecordFromRedis(t *testing.T) {
	ctx := context.Background()
	cached, inner, mr := newTestCached(t)
	key := cacheKey("job-1", "cand-1")

	require.NoError(t, cached.Save(ctx, completedRecord("rec-1", "job-1", "cand-1", 77, time.Now())))
	assert.False(t, mr.Exists(key))

	got, err := cached.Get(ctx, "job-1", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, 77.0, got.Score())
	require.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	// a write behind the cache is not seen until the entry is invalidated
	require.NoError(t, inner.Save(ctx, completedRecord("rec-1", "job-1", "cand-1", 40, time.Now())))
	got, err = cached.Get(ctx, "job-1", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, 77.0, got.Score())

	require.NoError(t, cached.Save(ctx, completedRecord("rec-1", "job-1", "cand-1", 55, time.Now())))
	assert.False(t, mr.Exists(key))

	got, err = cached.Get(ctx, "job-1", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, 55.0, got.Score())
}

func TestCachedDoesNotCacheUnfinishedRecords(t *testing.T) {
	ctx := context.Background()
	cached, _, mr := newTestCached(t)

	pending := completedRecord("rec-1", "job-1", "cand-1", 77, time.Now())
	pending.Status = analysis.StatusPending
	require.NoError(t, cached.Save(ctx, pending))

	got, err := cached.Get(ctx, "job-1", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, analysis.StatusPending, got.Status)
	assert.False(t, mr.Exists(cacheKey("job-1", "cand-1")))
}

func TestCachedDropsFillAfterConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	cached, inner, mr := newTestCached(t)
	key := cacheKey("job-1", "cand-1")

	stale := completedRecord("rec-1", "job-1", "cand-1", 77, time.Now())
	require.NoError(t, inner.Save(ctx, stale))

	// a reader loads the completed row, then a writer stores pending before the reader fills
	gen, err := cached.generation(ctx, key)
	require.NoError(t, err)

	pending := completedRecord("rec-1", "job-1", "cand-1", 77, time.Now())
	pending.Status = analysis.StatusPending
	require.NoError(t, cached.Save(ctx, pending))

	cached.fill(ctx, key, gen, stale)
	assert.False(t, mr.Exists(key))

	got, err := cached.Get(ctx, "job-1", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, analysis.StatusPending, got.Status)
}

func TestCachedSaveReviewInvalidates(t *testing.T) {
	ctx := context.Background()
	cached, _, mr := newTestCached(t)
	key := cacheKey("job-1", "cand-1")

	require.NoError(t, cached.Save(ctx, completedRecord("rec-1", "job-1", "cand-1", 77, time.Now())))
	_, err := cached.Get(ctx, "job-1", "cand-1")
	require.NoError(t, err)
	require.True(t, mr.Exists(key))

	require.NoError(t, cached.SaveReview(ctx, "job-1", "cand-1", analysis.Review{ReviewedByHuman: true, HumanRemarks: "ok"}))
	assert.False(t, mr.Exists(key))

	got, err := cached.Get(ctx, "job-1", "cand-1")
	require.NoError(t, err)
	assert.True(t, got.ReviewedByHuman)
	assert.Equal(t, "ok", got.HumanRemarks)
}
