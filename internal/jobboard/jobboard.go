package jobboard

import (
	"context"
	"errors"
)

// ErrNotFound is returned by sources when the requested object does not exist.
var ErrNotFound = errors.New("not found")

// Source provides read access to job-board records.
type Source interface {
	Job(ctx context.Context, id string) (*Job, error)
	Profile(ctx context.Context, id string) (*Profile, error)
	Resume(ctx context.Context, id string) (*Resume, error)
	// DefaultResume returns the profile's default resume, or nil when the profile has none.
	DefaultResume(ctx context.Context, profileID string) (*Resume, error)
}

// PickDefault returns the resume flagged as default, or nil.
func PickDefault(resumes []*Resume) *Resume {
	for _, r := range resumes {
		if r != nil && r.IsDefault {
			return r
		}
	}
	return nil
}
