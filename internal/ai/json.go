package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Models wrap JSON in markdown fences or chat around it more often than
// they should; these patterns recover the object.
var (
	codeFenceRegex = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")
	objectRegex    = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON parses a JSON object out of model output, tolerating code
// fences and surrounding prose.
func ExtractJSON[T any](text string) (T, error) {
	var out T

	candidates := []string{strings.TrimSpace(text)}
	if m := codeFenceRegex.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := objectRegex.FindString(text); m != "" {
		candidates = append(candidates, m)
	}

	var lastErr error
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), &out); err == nil {
			return out, nil
		} else {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON object found")
	}
	return out, fmt.Errorf("extracting JSON: %w", lastErr)
}
