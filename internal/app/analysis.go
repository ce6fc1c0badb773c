package app

import (
	"math"
	"strconv"
	"strings"
)

// MaxSkills caps each rendered skill list, matching the cap requested in the
// model prompt. Responses that ignore the prompt are truncated here.
const MaxSkills = 10

// CoerceAnalysis turns a raw parsed model response into a render-safe
// Analysis. The model client returns whatever parsed, shape unchecked;
// this is the single place defaults are applied so malformed responses
// never propagate past it.
func CoerceAnalysis(raw map[string]any) Analysis {
	return Analysis{
		MatchPercentage:    coerceScore(raw["matchPercentage"]),
		MatchingSkills:     coerceStrings(raw["matchingSkills"], MaxSkills),
		MissingSkills:      coerceStrings(raw["missingSkills"], MaxSkills),
		ExperienceAnalysis: coerceText(raw["experienceAnalysis"], "No analysis provided."),
		Summary:            coerceText(raw["summary"], "No summary provided."),
	}
}

// coerceScore clamps any plausible score representation to an integer in
// [0,100]. The prompt asks for an integer but models return strings,
// floats and percent-suffixed values in practice.
func coerceScore(v any) int {
	var n float64
	switch s := v.(type) {
	case float64:
		n = s
	case int:
		n = float64(s)
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(s), "%")
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0
		}
		n = f
	default:
		return 0
	}

	score := int(math.Round(n))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// coerceStrings extracts up to max string entries, dropping non-string
// elements. Anything that is not a sequence yields nil.
func coerceStrings(v any, max int) []string {
	seq, ok := v.([]any)
	if !ok {
		return nil
	}

	var out []string
	for _, item := range seq {
		if len(out) >= max {
			break
		}
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func coerceText(v any, fallback string) string {
	if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return fallback
}
