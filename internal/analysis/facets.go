package analysis

import (
	"strings"

	"github.com/spigell/hyresense/internal/jobboard"
)

const (
	DefaultMaxSkills  = 50
	DefaultMaxEntries = 10
)

// Limits bound the candidate lists that go into a prompt. Job data is never truncated.
type Limits struct {
	MaxSkills  int
	MaxEntries int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxSkills: DefaultMaxSkills, MaxEntries: DefaultMaxEntries}
}

func (l Limits) withDefaults() Limits {
	if l.MaxSkills <= 0 {
		l.MaxSkills = DefaultMaxSkills
	}
	if l.MaxEntries <= 0 {
		l.MaxEntries = DefaultMaxEntries
	}
	return l
}

// JobFacet is the job slice of the prompt.
type JobFacet struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	RequiredSkills  []string `json:"required_skills"`
	Location        string   `json:"location"`
	ExperienceLevel string   `json:"experience_level"`
	SalaryMin       *int     `json:"salary_min"`
	SalaryMax       *int     `json:"salary_max"`
	JobType         string   `json:"job_type"`
	WorkingMode     string   `json:"working_mode"`
	Company         string   `json:"company"`
}

// ProfileFacet is the candidate slice of the prompt.
type ProfileFacet struct {
	Name               string   `json:"name"`
	City               string   `json:"city"`
	Location           string   `json:"location"`
	Headline           string   `json:"headline"`
	PreferredRoles     []string `json:"preferred_roles"`
	PreferredLocations []string `json:"preferred_locations"`
	ExpectedSalary     *int     `json:"expected_salary"`
	ExperienceYears    int      `json:"experience_years"`
	Availability       string   `json:"availability"`
	WillingToRelocate  bool     `json:"willing_to_relocate"`
}

// ResumeFacet is the resume slice of the prompt. Lists are never null.
type ResumeFacet struct {
	Title              string   `json:"title"`
	ExperienceLevel    string   `json:"experience_level"`
	CurrentDesignation string   `json:"current_designation"`
	CurrentCompany     string   `json:"current_company"`
	Skills             []string `json:"skills_data"`
	Education          []any    `json:"education_data"`
	WorkExperience     []any    `json:"work_experience_data"`
	Certifications     []any    `json:"certifications_data"`
	Projects           []any    `json:"projects_data"`
	Languages          []any    `json:"languages_data"`
}

// AssembleJob extracts the fields relevant for matching from a job.
func AssembleJob(job *jobboard.Job) JobFacet {
	if job == nil {
		return JobFacet{RequiredSkills: []string{}}
	}

	return JobFacet{
		Title:           strings.TrimSpace(job.Title),
		Description:     strings.TrimSpace(job.Description),
		RequiredSkills:  nonNil(job.RequiredSkills),
		Location:        job.Location,
		ExperienceLevel: job.ExperienceLevel,
		SalaryMin:       job.SalaryMin,
		SalaryMax:       job.SalaryMax,
		JobType:         job.EmploymentType,
		WorkingMode:     job.WorkingMode,
		Company:         job.CompanyName,
	}
}

// AssembleProfile extracts candidate preferences. Experience comes from the resume when there is one.
func AssembleProfile(profile *jobboard.Profile, resume *jobboard.Resume, limits Limits) ProfileFacet {
	limits = limits.withDefaults()

	facet := ProfileFacet{
		PreferredRoles:     []string{},
		PreferredLocations: []string{},
		ExperienceYears:    resume.ExperienceYears(),
	}
	if profile == nil {
		return facet
	}

	facet.Name = profile.FullName()
	facet.City = profile.City
	facet.Location = profile.Location()
	facet.Headline = profile.Headline
	facet.PreferredRoles = head(nonNil(profile.PreferredJobTypes), limits.MaxEntries)
	facet.PreferredLocations = head(nonNil(profile.PreferredLocations), limits.MaxEntries)
	facet.ExpectedSalary = profile.ExpectedSalary
	facet.Availability = profile.JobStatus
	facet.WillingToRelocate = profile.WillingToRelocate

	return facet
}

// AssembleResume flattens a resume. A nil resume yields empty lists.
func AssembleResume(resume *jobboard.Resume, limits Limits) ResumeFacet {
	limits = limits.withDefaults()

	facet := ResumeFacet{
		Skills:         []string{},
		Education:      []any{},
		WorkExperience: []any{},
		Certifications: []any{},
		Projects:       []any{},
		Languages:      []any{},
	}
	if resume == nil {
		return facet
	}

	facet.Title = resume.Title
	facet.ExperienceLevel = resume.ExperienceLevel
	facet.CurrentDesignation = resume.CurrentDesignation
	facet.CurrentCompany = resume.CurrentCompany
	facet.Skills = head(nonNil(resume.SkillNames()), limits.MaxSkills)
	facet.Education = head(nonNil(resume.EducationData), limits.MaxEntries)
	facet.WorkExperience = head(nonNil(resume.WorkExperienceData), limits.MaxEntries)
	facet.Certifications = head(nonNil(resume.CertificationsData), limits.MaxEntries)
	facet.Projects = head(nonNil(resume.ProjectsData), limits.MaxEntries)
	facet.Languages = head(nonNil(resume.LanguagesData), limits.MaxEntries)

	return facet
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// head keeps the first n entries.
func head[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
