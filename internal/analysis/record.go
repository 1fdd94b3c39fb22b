package analysis

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an analysis record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// FitLevel is the categorical fit estimate.
type FitLevel string

const (
	FitExcellent FitLevel = "excellent"
	FitGood      FitLevel = "good"
	FitModerate  FitLevel = "moderate"
	FitPoor      FitLevel = "poor"
	FitUnknown   FitLevel = "unknown"
)

// SalaryAlignment compares the candidate's expectation with the offered range.
type SalaryAlignment string

const (
	SalaryAligned SalaryAlignment = "aligned"
	SalaryTooHigh SalaryAlignment = "too_high"
	SalaryTooLow  SalaryAlignment = "too_low"
	SalaryUnknown SalaryAlignment = "unknown"
)

// DefaultConfidence is recorded for every completed analysis.
const DefaultConfidence = 95

// Record is the persisted outcome of analysing one candidate against one job.
// Scores and flags stay nil until the analysis completes.
type Record struct {
	ID          string `json:"id"`
	JobID       string `json:"job_id"`
	CandidateID string `json:"candidate_id"`
	ResumeID    string `json:"resume_id,omitempty"`

	FitScore             *float64 `json:"fit_score"`
	FitLevel             FitLevel `json:"fit_level"`
	IsFit                *bool    `json:"is_fit"`
	SkillsMatchScore     *float64 `json:"skills_match_score"`
	ExperienceMatchScore *float64 `json:"experience_match_score"`
	EducationMatchScore  *float64 `json:"education_match_score"`
	LocationMatchScore   *float64 `json:"location_match_score"`

	Remarks                     string          `json:"remarks"`
	Strengths                   []string        `json:"strengths"`
	Weaknesses                  []string        `json:"weaknesses"`
	MissingSkills               []string        `json:"missing_skills"`
	MatchingSkills              []string        `json:"matching_skills"`
	Recommendations             []string        `json:"recommendations"`
	InterviewRecommendation     *bool           `json:"interview_recommendation"`
	SuggestedInterviewQuestions []string        `json:"suggested_interview_questions"`
	PotentialConcerns           []string        `json:"potential_concerns"`
	SalaryAlignment             SalaryAlignment `json:"salary_expectation_alignment"`

	Status          Status     `json:"analysis_status"`
	ModelVersion    string     `json:"ai_model_version"`
	ConfidenceScore *float64   `json:"confidence_score"`
	DurationSeconds int        `json:"analysis_duration_seconds"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	AnalyzedAt      *time.Time `json:"analyzed_at"`

	Review
}

// Review is the human overlay of a record. The pipeline never writes it.
type Review struct {
	ReviewedByHuman bool   `json:"reviewed_by_human"`
	HumanOverride   bool   `json:"human_override"`
	HumanRemarks    string `json:"human_remarks"`
}

func newRecord(jobID, candidateID, resumeID, model string, now time.Time) *Record {
	return &Record{
		ID:           uuid.NewString(),
		JobID:        jobID,
		CandidateID:  candidateID,
		ResumeID:     resumeID,
		FitLevel:     FitUnknown,
		Status:       StatusPending,
		ModelVersion: model,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// complete copies a validated response into the record.
func (r *Record) complete(resp *FitResponse, now time.Time, duration time.Duration) {
	confidence := float64(DefaultConfidence)

	r.FitScore = float64Ptr(resp.FitScore)
	r.FitLevel = resp.FitLevel
	r.IsFit = boolPtr(resp.IsFit)
	r.SkillsMatchScore = float64Ptr(resp.SkillsMatchScore)
	r.ExperienceMatchScore = float64Ptr(resp.ExperienceMatchScore)
	r.EducationMatchScore = float64Ptr(resp.EducationMatchScore)
	r.LocationMatchScore = float64Ptr(resp.LocationMatchScore)
	r.Remarks = resp.Remarks
	r.Strengths = resp.Strengths
	r.Weaknesses = resp.Weaknesses
	r.MissingSkills = resp.MissingSkills
	r.MatchingSkills = resp.MatchingSkills
	r.Recommendations = resp.Recommendations
	r.InterviewRecommendation = boolPtr(resp.InterviewRecommendation)
	r.SuggestedInterviewQuestions = resp.SuggestedInterviewQuestions
	r.PotentialConcerns = resp.PotentialConcerns
	r.SalaryAlignment = resp.SalaryAlignment

	r.Status = StatusCompleted
	r.ConfidenceScore = &confidence
	r.DurationSeconds = int(duration / time.Second)
	r.ErrorMessage = ""
	r.UpdatedAt = now
	r.AnalyzedAt = &now
}

// fail marks the record failed and drops anything a previous run left behind.
func (r *Record) fail(err error, now time.Time, duration time.Duration) {
	*r = Record{
		ID:              r.ID,
		JobID:           r.JobID,
		CandidateID:     r.CandidateID,
		ResumeID:        r.ResumeID,
		FitLevel:        FitUnknown,
		Status:          StatusFailed,
		ModelVersion:    r.ModelVersion,
		DurationSeconds: int(duration / time.Second),
		ErrorMessage:    err.Error(),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       now,
		Review:          r.Review,
	}
}

// Score returns the fit score or -1 when the record has none.
func (r *Record) Score() float64 {
	if r == nil || r.FitScore == nil {
		return -1
	}
	return *r.FitScore
}

func float64Ptr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }
