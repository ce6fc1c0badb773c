package gemini

import (
	"errors"
	"testing"

	"cv_matcher/internal/app"
)

func TestExtractJSONClean(t *testing.T) {
	parsed, err := ExtractJSON(`{"matchPercentage": 80}`)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if parsed["matchPercentage"] != float64(80) {
		t.Errorf("matchPercentage = %v, want 80", parsed["matchPercentage"])
	}
}

func TestExtractJSONProseWrapped(t *testing.T) {
	text := "Here is the result:\n{\"matchPercentage\":80,\"summary\":\"ok\"}\nThanks"
	parsed, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if parsed["summary"] != "ok" {
		t.Errorf("summary = %v, want ok", parsed["summary"])
	}
}

func TestExtractJSONCodeFence(t *testing.T) {
	text := "```json\n{\"matchPercentage\": 55}\n```"
	parsed, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if parsed["matchPercentage"] != float64(55) {
		t.Errorf("matchPercentage = %v, want 55", parsed["matchPercentage"])
	}
}

func TestExtractJSONNestedBracesInStrings(t *testing.T) {
	text := `Result: {"summary": "uses {braces} in text", "matchPercentage": 40} done`
	parsed, err := ExtractJSON(text)
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if parsed["summary"] != "uses {braces} in text" {
		t.Errorf("summary = %v", parsed["summary"])
	}
}

func TestExtractJSONNoBraces(t *testing.T) {
	_, err := ExtractJSON("the model refused to answer")
	if !errors.Is(err, app.ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}
}

func TestExtractJSONUnparseableSlice(t *testing.T) {
	_, err := ExtractJSON("prefix { not json } suffix")
	if !errors.Is(err, app.ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}
}

func TestExtractJSONReversedBraces(t *testing.T) {
	_, err := ExtractJSON("} backwards {")
	if !errors.Is(err, app.ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}
}

func TestExtractJSONEmptyObject(t *testing.T) {
	// The prompt tells the model to return {} when it cannot fit the
	// constraints; that must parse, with defaults applied downstream.
	parsed, err := ExtractJSON("{}")
	if err != nil {
		t.Fatalf("ExtractJSON failed: %v", err)
	}
	if len(parsed) != 0 {
		t.Errorf("expected empty object, got %v", parsed)
	}
}
