package analysis

import (
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

// Normalize strips code fences and stray prose around the JSON object in a model response.
// It does not check that the result is valid JSON. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)

	if !strings.HasPrefix(s, "{") {
		if m := fencedBlock.FindStringSubmatch(s); m != nil {
			s = strings.TrimSpace(m[1])
		}
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}

	return strings.TrimSpace(strings.Trim(s, "` \t\r\n"))
}
