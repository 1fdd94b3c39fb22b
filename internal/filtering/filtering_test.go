package filtering

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/hyresense/internal/analysis"
	"github.com/spigell/hyresense/internal/jobboard"
)

func candidates(ids ...string) []analysis.Candidate {
	out := make([]analysis.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, analysis.Candidate{Profile: &jobboard.Profile{ID: id}})
	}
	return out
}

func TestRunAppliesStepsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.txt")
	if err := os.WriteFile(path, []byte("# blocked\ncand-2\n\n"), 0o600); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	core, logs := observer.New(zap.InfoLevel)
	in := append(candidates("cand-1", "cand-2", "cand-3"), analysis.Candidate{})

	res, err := Run(context.Background(), Deps{Logger: zap.New(core)},
		[]Filter{NewMissingProfile(), NewInactiveJob(), NewExcludeFile(path)},
		&jobboard.Job{ID: "job-1"}, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Kept) != 2 || res.Kept[0].Profile.ID != "cand-1" || res.Kept[1].Profile.ID != "cand-3" {
		t.Fatalf("unexpected kept candidates: %+v", res.Kept)
	}
	if len(res.Dropped) != 1 || res.Dropped[0].Candidate.Profile.ID != "cand-2" {
		t.Fatalf("unexpected dropped candidates: %+v", res.Dropped)
	}
	if len(res.Steps) != 3 || res.Steps[0].Initial != 4 || res.Steps[0].Left != 3 {
		t.Fatalf("unexpected steps: %+v", res.Steps)
	}
	if logs.FilterMessage("filter step").Len() != 3 {
		t.Fatalf("expected a log entry per step")
	}
	if logs.FilterMessage("excluding candidates based on exclude file").Len() != 1 {
		t.Fatalf("expected exclusion to be logged")
	}
}

func TestInactiveJobDropsEveryone(t *testing.T) {
	inactive := false
	job := &jobboard.Job{ID: "job-1", IsActive: &inactive}

	res, err := Run(context.Background(), Deps{}, []Filter{NewInactiveJob()}, job, candidates("a", "b"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Kept) != 0 || len(res.Dropped) != 2 {
		t.Fatalf("expected all candidates dropped, got %+v", res)
	}
	if res.Dropped[0].Reason == "" {
		t.Fatalf("expected a reason")
	}
}

func TestExcludeFileMissingOrDisabled(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.txt")} {
		res, err := Run(context.Background(), Deps{}, []Filter{NewExcludeFile(path)}, &jobboard.Job{}, candidates("a"))
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", path, err)
		}
		if len(res.Kept) != 1 {
			t.Fatalf("expected candidate to be kept for %q", path)
		}
	}
}
