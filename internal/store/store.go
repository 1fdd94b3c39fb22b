// Package store persists analysis records.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hyresense/internal/analysis"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is the persisted record API. Save upserts on the (job, candidate) pair and keeps
// the record id, its creation time and the human review untouched.
type Store interface {
	analysis.Repository
	// ListByJob returns the job's records, best fit first. Records without a score come last.
	ListByJob(ctx context.Context, jobID string) ([]*analysis.Record, error)
	// ListByCandidate returns the candidate's records, newest first.
	ListByCandidate(ctx context.Context, candidateID string) ([]*analysis.Record, error)
	ListByStatus(ctx context.Context, status analysis.Status) ([]*analysis.Record, error)
	// SaveReview writes the human overlay without touching the analysis status.
	SaveReview(ctx context.Context, jobID, candidateID string, review analysis.Review) error
	Close() error
}

// Config selects and tunes the backend.
type Config struct {
	Driver   string        `mapstructure:"driver"`
	DSN      string        `mapstructure:"dsn"`
	RedisURL string        `mapstructure:"redis-url"`
	CacheTTL time.Duration `mapstructure:"cache-ttl"`
}

// Open connects to the configured backend and wraps it with the redis cache when configured.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	var (
		s   Store
		err error
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = DefaultSQLitePath
		}
		s, err = OpenSQLite(ctx, dsn)
	case DriverPostgres, "postgresql", "pgx":
		s, err = OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.RedisURL == "" {
		return s, nil
	}

	rdb, err := NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		s.Close()
		return nil, err
	}

	return NewCached(s, rdb, cfg.CacheTTL, logger), nil
}
