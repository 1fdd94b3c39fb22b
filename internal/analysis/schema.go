package analysis

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"
)

// FitResponse is a validated model answer.
type FitResponse struct {
	FitScore                    float64         `json:"fit_score"`
	FitLevel                    FitLevel        `json:"fit_level"`
	IsFit                       bool            `json:"is_fit"`
	SkillsMatchScore            float64         `json:"skills_match_score"`
	ExperienceMatchScore        float64         `json:"experience_match_score"`
	EducationMatchScore         float64         `json:"education_match_score"`
	LocationMatchScore          float64         `json:"location_match_score"`
	Remarks                     string          `json:"remarks"`
	Strengths                   []string        `json:"strengths"`
	Weaknesses                  []string        `json:"weaknesses"`
	MissingSkills               []string        `json:"missing_skills"`
	MatchingSkills              []string        `json:"matching_skills"`
	Recommendations             []string        `json:"recommendations"`
	InterviewRecommendation     bool            `json:"interview_recommendation"`
	SuggestedInterviewQuestions []string        `json:"suggested_interview_questions"`
	PotentialConcerns           []string        `json:"potential_concerns"`
	SalaryAlignment             SalaryAlignment `json:"salary_expectation_alignment"`
}

// RequiredFields lists every key a model response must carry.
var RequiredFields = []string{
	"fit_score",
	"fit_level",
	"is_fit",
	"skills_match_score",
	"experience_match_score",
	"education_match_score",
	"location_match_score",
	"remarks",
	"strengths",
	"weaknesses",
	"missing_skills",
	"matching_skills",
	"recommendations",
	"interview_recommendation",
	"suggested_interview_questions",
	"potential_concerns",
	"salary_expectation_alignment",
}

var scoreFields = []string{
	"fit_score",
	"skills_match_score",
	"experience_match_score",
	"education_match_score",
	"location_match_score",
}

var boolFields = []string{"is_fit", "interview_recommendation"}

var listFields = []string{
	"strengths",
	"weaknesses",
	"missing_skills",
	"matching_skills",
	"recommendations",
	"suggested_interview_questions",
	"potential_concerns",
}

var fitLevels = map[FitLevel]bool{
	FitExcellent: true,
	FitGood:      true,
	FitModerate:  true,
	FitPoor:      true,
	FitUnknown:   true,
}

var salaryAlignments = map[SalaryAlignment]bool{
	SalaryAligned: true,
	SalaryTooHigh: true,
	SalaryTooLow:  true,
	SalaryUnknown: true,
}

// Parse decodes normalized model text and validates it.
func Parse(text string) (*FitResponse, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, &SchemaError{Reason: "is not a JSON object", Err: err}
	}
	return Validate(data)
}

// Validate checks a decoded response and stops at the first violation.
func Validate(data map[string]any) (*FitResponse, error) {
	if data == nil {
		return nil, &SchemaError{Reason: "is empty"}
	}

	for _, field := range RequiredFields {
		if _, ok := data[field]; !ok {
			return nil, &SchemaError{Field: field, Reason: "is missing"}
		}
	}

	for _, field := range scoreFields {
		score, ok := data[field].(float64)
		if !ok {
			return nil, &SchemaError{Field: field, Reason: fmt.Sprintf("must be a number, got %T", data[field])}
		}
		if math.IsNaN(score) || score < 0 || score > 100 {
			return nil, &SchemaError{Field: field, Reason: fmt.Sprintf("must be within [0, 100], got %v", score)}
		}
	}

	level, ok := data["fit_level"].(string)
	if !ok || !fitLevels[FitLevel(level)] {
		return nil, &SchemaError{Field: "fit_level", Reason: fmt.Sprintf("has unsupported value %v", data["fit_level"])}
	}

	for _, field := range boolFields {
		if _, ok := data[field].(bool); !ok {
			return nil, &SchemaError{Field: field, Reason: fmt.Sprintf("must be a boolean, got %T", data[field])}
		}
	}

	if _, ok := data["remarks"].(string); !ok {
		return nil, &SchemaError{Field: "remarks", Reason: fmt.Sprintf("must be a string, got %T", data["remarks"])}
	}

	for _, field := range listFields {
		if err := checkStrings(field, data[field]); err != nil {
			return nil, err
		}
	}

	score := data["fit_score"].(float64)
	if err := checkConsistency(score, FitLevel(level)); err != nil {
		return nil, err
	}

	normalized := make(map[string]any, len(data))
	for k, v := range data {
		normalized[k] = v
	}
	if alignment, ok := data["salary_expectation_alignment"].(string); !ok || !salaryAlignments[SalaryAlignment(alignment)] {
		normalized["salary_expectation_alignment"] = string(SalaryUnknown)
	}

	var resp FitResponse
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &resp,
		TagName: "json",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(normalized); err != nil {
		return nil, &SchemaError{Reason: "cannot be decoded", Err: err}
	}

	return &resp, nil
}

func checkStrings(field string, v any) error {
	items, ok := v.([]any)
	if !ok {
		return &SchemaError{Field: field, Reason: fmt.Sprintf("must be an array, got %T", v)}
	}
	for i, item := range items {
		if _, ok := item.(string); !ok {
			return &SchemaError{Field: field, Reason: fmt.Sprintf("item %d must be a string, got %T", i, item)}
		}
	}
	return nil
}

func checkConsistency(score float64, level FitLevel) error {
	if score >= 80 && level != FitExcellent && level != FitGood {
		return &SchemaError{Field: "fit_level", Reason: fmt.Sprintf("%q contradicts fit_score %v", level, score)}
	}
	if score < 40 && level == FitExcellent {
		return &SchemaError{Field: "fit_level", Reason: fmt.Sprintf("%q contradicts fit_score %v", level, score)}
	}
	return nil
}
