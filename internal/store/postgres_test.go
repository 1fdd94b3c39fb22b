package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/hyresense/internal/analysis"
)

// Runs only against a real server: DATABASE_URL=postgres://... go test ./internal/store
func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is not set")
	}

	ctx := context.Background()
	s, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	jobID := "job-" + uuid.NewString()
	created := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, s.Save(ctx, completedRecord(uuid.NewString(), jobID, "cand-1", 64, created)))
	require.NoError(t, s.Save(ctx, completedRecord(uuid.NewString(), jobID, "cand-2", 88, created)))
	require.NoError(t, s.SaveReview(ctx, jobID, "cand-1", analysis.Review{ReviewedByHuman: true}))

	got, err := s.Get(ctx, jobID, "cand-1")
	require.NoError(t, err)
	assert.True(t, got.ReviewedByHuman)
	assert.Equal(t, []string{"Python"}, got.MatchingSkills)

	byJob, err := s.ListByJob(ctx, jobID)
	require.NoError(t, err)
	require.Len(t, byJob, 2)
	assert.Equal(t, "cand-2", byJob[0].CandidateID)
}
