package app

// MinDescriptionLength is the shortest job description worth analyzing.
// Anything shorter is treated as a scrape miss rather than a real posting.
const MinDescriptionLength = 50

// JobMetadata identifies the posting a description was scraped from.
type JobMetadata struct {
	Title   string `json:"title"`
	Company string `json:"company"`
	URL     string `json:"url"`
}

// JobPage is the result of scraping one job posting page.
type JobPage struct {
	Description string      `json:"jobDescription"`
	Meta        JobMetadata `json:"jobMetadata"`
}

// AnalysisRequest carries everything the model needs for one match analysis.
// Built once per command and passed by value.
type AnalysisRequest struct {
	APIKey         string
	CVText         string
	ModelName      string
	JobDescription string
	Meta           JobMetadata
}

// Analysis is the coerced, render-safe form of a model response.
// See CoerceAnalysis for the defaulting rules.
type Analysis struct {
	MatchPercentage    int      `json:"matchPercentage"`
	MatchingSkills     []string `json:"matchingSkills"`
	MissingSkills      []string `json:"missingSkills"`
	ExperienceAnalysis string   `json:"experienceAnalysis"`
	Summary            string   `json:"summary"`
}

// TrackerRowInput is one job to append to the tracker spreadsheet.
// A nil MatchScore renders as "N/A".
type TrackerRowInput struct {
	Company    string `json:"company"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	MatchScore *int   `json:"matchScore"`
	Notes      string `json:"notes"`
}
