package analysis

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/hyresense/internal/jobboard"
	"github.com/spigell/hyresense/internal/logger"
)

// Candidate is a profile with the resume to analyse it with.
type Candidate struct {
	Profile *jobboard.Profile
	Resume  *jobboard.Resume
}

func (c Candidate) id() string {
	if c.Profile == nil {
		return ""
	}
	return c.Profile.ID
}

// AnalyzeMany analyses every candidate against the job. Failed candidates are logged and left out,
// so the result keeps the input order and is never longer than the input.
func (a *Analyzer) AnalyzeMany(ctx context.Context, job *jobboard.Job, candidates []Candidate) []*Record {
	results := make([]*Record, len(candidates))

	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i, c := range candidates {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			record, err := a.Analyze(ctx, Request{Job: job, Candidate: c.Profile, Resume: c.Resume})
			if err != nil {
				jobID := ""
				if job != nil {
					jobID = job.ID
				}
				logger.WithPair(a.logger, jobID, c.id()).Error("failed to analyze candidate", zap.Error(err))
				return nil
			}

			results[i] = record
			return nil
		})
	}
	// goroutines never return errors
	_ = g.Wait()

	out := make([]*Record, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// TopMatches returns the completed analyses sorted by fit score, best first.
// Equal scores keep the input order. A non-positive limit returns everything.
func (a *Analyzer) TopMatches(ctx context.Context, job *jobboard.Job, candidates []Candidate, limit int) []*Record {
	records := a.AnalyzeMany(ctx, job, candidates)

	completed := make([]*Record, 0, len(records))
	for _, r := range records {
		if r.Status == StatusCompleted {
			completed = append(completed, r)
		}
	}

	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].Score() > completed[j].Score()
	})

	if limit > 0 && len(completed) > limit {
		completed = completed[:limit]
	}
	return completed
}
