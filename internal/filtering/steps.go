package filtering

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hyresense/internal/analysis"
	"github.com/spigell/hyresense/internal/jobboard"
)

type inactiveJobFilter struct{}

// NewInactiveJob creates a filter that drops every candidate when the job post is closed.
func NewInactiveJob() Filter {
	return inactiveJobFilter{}
}

func (inactiveJobFilter) Name() string { return "inactive_job" }

func (inactiveJobFilter) Apply(_ context.Context, _ Deps, job *jobboard.Job, candidates []analysis.Candidate) ([]analysis.Candidate, []Dropped, error) {
	if job == nil || job.IsActive == nil || *job.IsActive {
		return candidates, nil, nil
	}

	kept, dropped := partition(candidates, func(analysis.Candidate) string {
		return "job post is not active"
	})
	return kept, dropped, nil
}

type missingProfileFilter struct{}

// NewMissingProfile creates a filter that drops entries without a profile.
func NewMissingProfile() Filter {
	return missingProfileFilter{}
}

func (missingProfileFilter) Name() string { return "missing_profile" }

func (missingProfileFilter) Apply(_ context.Context, _ Deps, _ *jobboard.Job, candidates []analysis.Candidate) ([]analysis.Candidate, []Dropped, error) {
	kept := make([]analysis.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Profile != nil {
			kept = append(kept, c)
		}
	}
	// nothing to record a skipped analysis for
	return kept, nil, nil
}

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that drops candidates listed in a file, one profile id per line.
// Empty lines and lines starting with # are ignored. An empty path disables the filter.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{path: strings.TrimSpace(path)}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, _ *jobboard.Job, candidates []analysis.Candidate) ([]analysis.Candidate, []Dropped, error) {
	if f.path == "" {
		return candidates, nil, nil
	}

	excluded, err := readExcluded(f.path)
	if err != nil {
		return nil, nil, fmt.Errorf("getting excluded candidates from file: %w", err)
	}

	kept, dropped := partition(candidates, func(c analysis.Candidate) string {
		if c.Profile != nil && excluded[c.Profile.ID] {
			return "candidate is listed in exclude file"
		}
		return ""
	})

	if len(dropped) > 0 {
		ids := make([]string, 0, len(dropped))
		for _, d := range dropped {
			ids = append(ids, d.Candidate.Profile.ID)
		}
		deps.Logger.Info("excluding candidates based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_candidates", ids),
			zap.Int("candidates_left", len(kept)),
		)
	}

	return kept, dropped, nil
}

func readExcluded(path string) (map[string]bool, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	ids := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids[line] = true
	}
	return ids, scanner.Err()
}
