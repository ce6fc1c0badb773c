// Package render prints an analysis result for the terminal. It is the
// presentation half of the pipeline and must never fail on malformed
// input: every field has a safe default.
package render

import (
	"fmt"
	"io"
	"strings"

	"cv_matcher/internal/app"
)

const (
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiBold   = "\033[1m"
	ansiReset  = "\033[0m"
)

// Renderer writes analysis reports. Color off emits plain text.
type Renderer struct {
	Color bool
}

// Analysis writes the full match report for one job.
func (r *Renderer) Analysis(w io.Writer, a app.Analysis, meta app.JobMetadata) {
	fmt.Fprintf(w, "%s  %s\n", r.bold("CV Match Analysis"), r.score(a.MatchPercentage))
	fmt.Fprintf(w, "%s — %s\n", meta.Title, meta.Company)
	if meta.URL != "" {
		fmt.Fprintf(w, "%s\n", meta.URL)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s\n%s\n\n", r.bold("Summary"), a.Summary)
	fmt.Fprintf(w, "%s\n%s\n\n", r.bold("Matching Skills"), tags(a.MatchingSkills))
	fmt.Fprintf(w, "%s\n%s\n\n", r.bold("Missing Skills"), tags(a.MissingSkills))
	fmt.Fprintf(w, "%s\n%s\n", r.bold("Experience Analysis"), a.ExperienceAnalysis)
}

// score renders the percentage in its band color: green from 70, yellow
// from 40, red below.
func (r *Renderer) score(pct int) string {
	text := fmt.Sprintf("%d%%", pct)
	if !r.Color {
		return text
	}
	color := ansiRed
	switch {
	case pct >= 70:
		color = ansiGreen
	case pct >= 40:
		color = ansiYellow
	}
	return color + text + ansiReset
}

func (r *Renderer) bold(s string) string {
	if !r.Color {
		return s
	}
	return ansiBold + s + ansiReset
}

// tags joins a skill list, rendering the "None" placeholder for an empty
// or absent list.
func tags(skills []string) string {
	if len(skills) == 0 {
		return "None"
	}
	return strings.Join(skills, ", ")
}
