package jobboard

import (
	"reflect"
	"testing"
)

func TestResumeSkillNames(t *testing.T) {
	resume := &Resume{SkillsData: []any{
		"Python",
		map[string]any{"name": "Django", "level": "advanced"},
		map[string]any{"skill": " SQL "},
		map[string]any{"years": 3.0},
		42.0,
		"",
	}}

	got := resume.SkillNames()
	want := []string{"Python", "Django", "SQL"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAccessorsAreNilSafe(t *testing.T) {
	var resume *Resume
	var profile *Profile

	if resume.SkillNames() != nil {
		t.Fatalf("expected nil skills for nil resume")
	}
	if resume.ExperienceYears() != 0 {
		t.Fatalf("expected zero experience for nil resume")
	}
	if profile.FullName() != "" || profile.Location() != "" {
		t.Fatalf("expected empty strings for nil profile")
	}
}

func TestProfileNameAndLocation(t *testing.T) {
	p := &Profile{FirstName: " Ada ", LastName: "Lovelace", City: "London", Country: "UK"}

	if got := p.FullName(); got != "Ada Lovelace" {
		t.Fatalf("unexpected full name: %q", got)
	}
	if got := p.Location(); got != "London, UK" {
		t.Fatalf("unexpected location: %q", got)
	}
}

func TestPickDefault(t *testing.T) {
	first := &Resume{ID: "r1"}
	def := &Resume{ID: "r2", IsDefault: true}

	if got := PickDefault([]*Resume{first, nil, def}); got != def {
		t.Fatalf("expected default resume, got %+v", got)
	}
	if got := PickDefault([]*Resume{first}); got != nil {
		t.Fatalf("expected nil without default, got %+v", got)
	}
}
