package jobboard

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Catalog is the on-disk export format consumed by FileSource.
type Catalog struct {
	Jobs     []*Job     `json:"jobs"`
	Profiles []*Profile `json:"profiles"`
	Resumes  []*Resume  `json:"resumes"`
}

// FileSource serves records from a JSON catalog exported by the job board.
type FileSource struct {
	jobs     map[string]*Job
	profiles map[string]*Profile
	resumes  map[string]*Resume
	owned    map[string][]*Resume
}

// LoadFile reads a catalog from path.
func LoadFile(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var catalog Catalog
	if err := json.NewDecoder(file).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode catalog %q: %w", path, err)
	}

	return NewFileSource(&catalog), nil
}

// NewFileSource indexes an in-memory catalog.
func NewFileSource(catalog *Catalog) *FileSource {
	s := &FileSource{
		jobs:     make(map[string]*Job),
		profiles: make(map[string]*Profile),
		resumes:  make(map[string]*Resume),
		owned:    make(map[string][]*Resume),
	}
	if catalog == nil {
		return s
	}

	for _, j := range catalog.Jobs {
		if j != nil {
			s.jobs[j.ID] = j
		}
	}
	for _, p := range catalog.Profiles {
		if p != nil {
			s.profiles[p.ID] = p
		}
	}
	for _, r := range catalog.Resumes {
		if r != nil {
			s.resumes[r.ID] = r
			s.owned[r.ProfileID] = append(s.owned[r.ProfileID], r)
		}
	}

	return s
}

func (s *FileSource) Job(_ context.Context, id string) (*Job, error) {
	if j, ok := s.jobs[id]; ok {
		return j, nil
	}
	return nil, fmt.Errorf("job %q: %w", id, ErrNotFound)
}

func (s *FileSource) Profile(_ context.Context, id string) (*Profile, error) {
	if p, ok := s.profiles[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("profile %q: %w", id, ErrNotFound)
}

func (s *FileSource) Resume(_ context.Context, id string) (*Resume, error) {
	if r, ok := s.resumes[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("resume %q: %w", id, ErrNotFound)
}

func (s *FileSource) DefaultResume(_ context.Context, profileID string) (*Resume, error) {
	return PickDefault(s.owned[profileID]), nil
}
