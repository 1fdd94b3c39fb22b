package jobboard

import (
	"fmt"
	"strings"
)

// Job is a job post as exposed by the job-board API.
type Job struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	RequiredSkills  []string `json:"required_skills"`
	Location        string   `json:"location"`
	ExperienceLevel string   `json:"experience_level"`
	SalaryMin       *int     `json:"salary_min"`
	SalaryMax       *int     `json:"salary_max"`
	EmploymentType  string   `json:"employment_type"`
	WorkingMode     string   `json:"working_mode"`
	CompanyName     string   `json:"company_name"`
	IsActive        *bool    `json:"is_active,omitempty"`
}

// Profile is a job seeker profile.
type Profile struct {
	ID                 string   `json:"id"`
	FirstName          string   `json:"first_name"`
	LastName           string   `json:"last_name"`
	City               string   `json:"city"`
	State              string   `json:"state"`
	Country            string   `json:"country"`
	Headline           string   `json:"headline"`
	Summary            string   `json:"summary"`
	JobStatus          string   `json:"job_status"`
	PreferredJobTypes  []string `json:"preferred_job_types"`
	PreferredLocations []string `json:"preferred_locations"`
	ExpectedSalary     *int     `json:"expected_salary"`
	WillingToRelocate  bool     `json:"willing_to_relocate"`
}

// Resume is a structured resume owned by a profile. The *_data lists are free-form JSON
// maintained by the resume editor, so their entries are kept loose.
type Resume struct {
	ID                   string `json:"id"`
	ProfileID            string `json:"profile_id"`
	Title                string `json:"title"`
	IsDefault            bool   `json:"is_default"`
	IsActive             bool   `json:"is_active"`
	ExperienceLevel      string `json:"experience_level"`
	TotalExperienceYears int    `json:"total_experience_years"`
	CurrentCompany       string `json:"current_company"`
	CurrentDesignation   string `json:"current_designation"`
	CurrentSalary        *int   `json:"current_salary"`
	NoticePeriod         string `json:"notice_period"`

	SkillsData         []any `json:"skills_data"`
	EducationData      []any `json:"education_data"`
	WorkExperienceData []any `json:"work_experience_data"`
	CertificationsData []any `json:"certifications_data"`
	ProjectsData       []any `json:"projects_data"`
	LanguagesData      []any `json:"languages_data"`
}

// FullName joins first and last name, skipping empty parts.
func (p *Profile) FullName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(strings.Fields(p.FirstName+" "+p.LastName), " "))
}

// Location returns the most specific location the profile carries.
func (p *Profile) Location() string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, part := range []string{p.City, p.State, p.Country} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

// ExperienceYears returns the declared total experience, or zero without a resume.
func (r *Resume) ExperienceYears() int {
	if r == nil {
		return 0
	}
	return r.TotalExperienceYears
}

// SkillNames flattens skills_data into plain names. Entries can be strings or objects with
// a "name" or "skill" key; anything else is skipped.
func (r *Resume) SkillNames() []string {
	if r == nil {
		return nil
	}

	names := make([]string, 0, len(r.SkillsData))
	for _, entry := range r.SkillsData {
		if name := entryName(entry, "name", "skill", "title"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func entryName(entry any, keys ...string) string {
	switch v := entry.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		for _, key := range keys {
			if raw, ok := v[key]; ok && raw != nil {
				return strings.TrimSpace(fmt.Sprintf("%v", raw))
			}
		}
	}
	return ""
}
