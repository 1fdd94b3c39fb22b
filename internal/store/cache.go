package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/hyresense/internal/analysis"
	"github.com/spigell/hyresense/internal/logger"
)

const (
	DefaultCacheTTL = 15 * time.Minute
	cachePrefix     = "hyresense:analysis:"
)

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

// Cached keeps completed records in redis in front of another store.
// Redis errors are logged and the underlying store answers instead.
type Cached struct {
	Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCached wraps s. A non-positive ttl falls back to DefaultCacheTTL.
func NewCached(s Store, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		Store:  s,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.WithFields(log, zap.String("component", "record-cache")),
	}
}

func cacheKey(jobID, candidateID string) string {
	return cachePrefix + jobID + ":" + candidateID
}

// generationKey counts the writes of a pair. A read-through fill is dropped when it moved.
func generationKey(key string) string {
	return key + ":gen"
}

func (c *Cached) Get(ctx context.Context, jobID, candidateID string) (*analysis.Record, error) {
	key := cacheKey(jobID, candidateID)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var r analysis.Record
		if err := json.Unmarshal(data, &r); err == nil {
			c.logger.Debug("cache hit", zap.String("key", key))
			return &r, nil
		}
		c.logger.Warn("dropping corrupt cache entry", zap.String("key", key))
		c.invalidate(ctx, key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return c.Store.Get(ctx, jobID, candidateID)
	}

	gen, err := c.generation(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return c.Store.Get(ctx, jobID, candidateID)
	}

	r, err := c.Store.Get(ctx, jobID, candidateID)
	if err != nil {
		return nil, err
	}

	// only terminal successes are stable enough to cache
	if r.Status == analysis.StatusCompleted {
		c.fill(ctx, key, gen, r)
	}

	return r, nil
}

func (c *Cached) Save(ctx context.Context, r *analysis.Record) error {
	if err := c.Store.Save(ctx, r); err != nil {
		return err
	}
	c.invalidate(ctx, cacheKey(r.JobID, r.CandidateID))
	return nil
}

func (c *Cached) SaveReview(ctx context.Context, jobID, candidateID string, review analysis.Review) error {
	if err := c.Store.SaveReview(ctx, jobID, candidateID, review); err != nil {
		return err
	}
	c.invalidate(ctx, cacheKey(jobID, candidateID))
	return nil
}

func (c *Cached) Close() error {
	return errors.Join(c.Store.Close(), c.rdb.Close())
}

func (c *Cached) generation(ctx context.Context, key string) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// fill caches r unless the pair was written since gen was read.
func (c *Cached) fill(ctx context.Context, key string, gen int64, r *analysis.Record) {
	data, err := json.Marshal(r)
	if err != nil {
		return
	}

	genKey := generationKey(key)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return redis.TxFailedErr
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("skipping cache fill after concurrent write", zap.String("key", key))
	case err != nil:
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidate drops the entry and moves the generation so in-flight fills are discarded.
func (c *Cached) invalidate(ctx context.Context, key string) {
	genKey := generationKey(key)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, 2*c.ttl)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		c.logger.Warn("cache eviction failed", zap.String("key", key), zap.Error(err))
	}
}
