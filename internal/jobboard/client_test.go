package jobboard

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestClientJobSendsTokenAndDecodesGzip(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/jobs/job-1/" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		fmt.Fprint(gz, `{"id": "job-1", "title": "Backend Engineer", "description": "Build APIs", "required_skills": ["Python"]}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "secret", zap.NewNop())

	job, err := client.Job(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Title != "Backend Engineer" || len(job.RequiredSkills) != 1 {
		t.Fatalf("unexpected job: %+v", job)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
}

func TestClientNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client := NewClient(srv.URL, "", nil)

	if _, err := client.Profile(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientDefaultResumeFollowsPages(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("page") {
		case "":
			if r.URL.Query().Get("is_default") != "true" {
				t.Errorf("expected is_default filter, got %q", r.URL.RawQuery)
			}
			fmt.Fprintf(w, `{"count": 2, "next": "%s/api/profiles/cand-1/resumes/?page=2", "results": [{"id": "r1", "profile_id": "cand-1", "is_default": false}]}`, srv.URL)
		case "2":
			fmt.Fprint(w, `{"count": 2, "next": "", "results": [{"id": "r2", "profile_id": "cand-1", "is_default": true, "total_experience_years": 4, "skills_data": ["Go"]}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", zap.NewNop())

	resume, err := client.DefaultResume(context.Background(), "cand-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resume == nil || resume.ID != "r2" {
		t.Fatalf("expected r2, got %+v", resume)
	}
	if resume.TotalExperienceYears != 4 {
		t.Fatalf("expected experience to be decoded, got %d", resume.TotalExperienceYears)
	}
	if names := resume.SkillNames(); len(names) != 1 || names[0] != "Go" {
		t.Fatalf("unexpected skills: %v", names)
	}
}
