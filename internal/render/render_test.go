package render

import (
	"bytes"
	"strings"
	"testing"

	"cv_matcher/internal/app"
)

func TestAnalysisZeroValue(t *testing.T) {
	var buf bytes.Buffer
	r := &Renderer{}

	r.Analysis(&buf, app.Analysis{}, app.JobMetadata{})

	out := buf.String()
	if !strings.Contains(out, "0%") {
		t.Errorf("output missing the zero score:\n%s", out)
	}
	if strings.Count(out, "None") != 2 {
		t.Errorf("empty skill lists should both render as None:\n%s", out)
	}
}

func TestAnalysisFullReport(t *testing.T) {
	var buf bytes.Buffer
	r := &Renderer{}

	a := app.Analysis{
		MatchPercentage:    85,
		MatchingSkills:     []string{"Go", "SQL"},
		MissingSkills:      []string{"Kubernetes"},
		ExperienceAnalysis: "Deep backend background.",
		Summary:            "Strong candidate.",
	}
	meta := app.JobMetadata{Title: "Engineer", Company: "Acme", URL: "https://example.com/job"}

	r.Analysis(&buf, a, meta)
	out := buf.String()

	for _, want := range []string{"85%", "Go, SQL", "Kubernetes", "Strong candidate.", "Deep backend background.", "Engineer", "Acme", "https://example.com/job"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("color disabled but output contains ANSI escapes")
	}
}

func TestScoreBands(t *testing.T) {
	r := &Renderer{Color: true}

	tests := []struct {
		pct  int
		want string
	}{
		{85, ansiGreen},
		{70, ansiGreen},
		{55, ansiYellow},
		{40, ansiYellow},
		{20, ansiRed},
		{0, ansiRed},
	}
	for _, tt := range tests {
		got := r.score(tt.pct)
		if !strings.HasPrefix(got, tt.want) {
			t.Errorf("score(%d) = %q, want prefix %q", tt.pct, got, tt.want)
		}
	}
}

func TestScorePlainWithoutColor(t *testing.T) {
	r := &Renderer{}
	if got := r.score(85); got != "85%" {
		t.Errorf("score(85) = %q, want plain text", got)
	}
}
