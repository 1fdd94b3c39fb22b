package analysis

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed prompt.md
var promptTemplate string

// SystemInstruction is sent with every request.
const SystemInstruction = "You are a professional recruitment assistant. Always return ONLY valid JSON without any markdown formatting, code blocks, or additional text."

const fallbackTemplate = "Job post:\n{{JOB_JSON}}\n\nCandidate profile:\n{{PROFILE_JSON}}\n\nResume:\n{{RESUME_JSON}}\n\nJSON response:"

// BuildPrompt renders the instruction template with the facets embedded as indented JSON.
func BuildPrompt(job JobFacet, profile ProfileFacet, resume ResumeFacet) (string, error) {
	jobJSON, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal job facet: %w", err)
	}
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile facet: %w", err)
	}
	resumeJSON, err := json.MarshalIndent(resume, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal resume facet: %w", err)
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = fallbackTemplate
	}

	r := strings.NewReplacer(
		"{{JOB_JSON}}", string(jobJSON),
		"{{PROFILE_JSON}}", string(profileJSON),
		"{{RESUME_JSON}}", string(resumeJSON),
	)
	return r.Replace(template), nil
}
