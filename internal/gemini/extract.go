package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"cv_matcher/internal/app"
)

// ExtractJSON recovers a JSON object from free-text model output. Despite
// the prompt's instructions, models routinely wrap the object in prose or
// code fences, so the substring from the first '{' to the last '}' is
// treated as authoritative. Best-effort: a stray brace in surrounding
// prose can still defeat it.
func ExtractJSON(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, app.ErrNoJSON
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", app.ErrNoJSON, err)
	}
	return parsed, nil
}
