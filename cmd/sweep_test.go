package cmd

import (
	"testing"
	"time"

	"github.com/spigell/hyresense/internal/analysis"
)

func TestStalePending(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []*analysis.Record{
		{ID: "old", Status: analysis.StatusPending, UpdatedAt: now.Add(-time.Hour)},
		{ID: "fresh", Status: analysis.StatusPending, UpdatedAt: now.Add(-time.Minute)},
		{ID: "edge", Status: analysis.StatusPending, UpdatedAt: now.Add(-10 * time.Minute)},
		{ID: "done", Status: analysis.StatusCompleted, UpdatedAt: now.Add(-time.Hour)},
	}

	stale := stalePending(records, now, 10*time.Minute)
	if len(stale) != 2 || stale[0].ID != "old" || stale[1].ID != "edge" {
		ids := make([]string, 0, len(stale))
		for _, r := range stale {
			ids = append(ids, r.ID)
		}
		t.Fatalf("unexpected stale records: %v", ids)
	}
}
