// Package filtering screens candidates before they are sent to the model.
package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/hyresense/internal/analysis"
	"github.com/spigell/hyresense/internal/jobboard"
)

// Filter represents a single screening step applied to the candidates of a job.
type Filter interface {
	Name() string
	Apply(ctx context.Context, deps Deps, job *jobboard.Job, candidates []analysis.Candidate) ([]analysis.Candidate, []Dropped, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
}

// Dropped is a candidate removed by a step, with the reason recorded on its skipped analysis.
type Dropped struct {
	Candidate analysis.Candidate
	Reason    string
}

// Step describes the result of executing a filtering step.
type Step struct {
	Name    string
	Initial int
	Dropped int
	Left    int
}

// Result is the outcome of Run.
type Result struct {
	Kept    []analysis.Candidate
	Dropped []Dropped
	Steps   []Step
}

// Run executes the supplied filters sequentially.
func Run(ctx context.Context, deps Deps, steps []Filter, job *jobboard.Job, candidates []analysis.Candidate) (*Result, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	res := &Result{Kept: candidates}
	for _, step := range steps {
		initial := len(res.Kept)

		kept, dropped, err := step.Apply(ctx, deps, job, res.Kept)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		info := Step{Name: step.Name(), Initial: initial, Dropped: len(dropped), Left: len(kept)}
		deps.Logger.Info("filter step",
			zap.String("name", info.Name),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		res.Kept = kept
		res.Dropped = append(res.Dropped, dropped...)
		res.Steps = append(res.Steps, info)
	}

	return res, nil
}

// partition keeps candidates for which reason returns "".
func partition(candidates []analysis.Candidate, reason func(analysis.Candidate) string) ([]analysis.Candidate, []Dropped) {
	kept := make([]analysis.Candidate, 0, len(candidates))
	var dropped []Dropped
	for _, c := range candidates {
		if r := reason(c); r != "" {
			dropped = append(dropped, Dropped{Candidate: c, Reason: r})
			continue
		}
		kept = append(kept, c)
	}
	return kept, dropped
}
