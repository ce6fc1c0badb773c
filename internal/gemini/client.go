// Package gemini submits match-analysis prompts to the Gemini API and
// recovers the structured result from the model's text output.
package gemini

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"cv_matcher/internal/app"
)

const DefaultModel = "gemini-2.5-flash"

// Low temperature: this is extraction, not creative writing.
const (
	temperature     = float32(0.2)
	maxOutputTokens = int32(10000)
)

// Client calls the Gemini generation endpoint. The API key travels with
// each request because it is user-configured and can change between calls.
type Client struct {
	httpOptions *genai.HTTPOptions
}

// Option customizes a Client, used by tests to point at a local endpoint.
type Option func(*Client)

func WithHTTPOptions(opts genai.HTTPOptions) Option {
	return func(c *Client) { c.httpOptions = &opts }
}

func NewClient(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze runs one match analysis. It fails before any network call when
// the API key is empty, and returns the parsed response object as-is:
// field-shape defaults are the renderer's concern, not this client's.
func (c *Client) Analyze(ctx context.Context, req app.AnalysisRequest) (map[string]any, error) {
	if req.APIKey == "" {
		return nil, app.ErrMissingAPIKey
	}

	model := req.ModelName
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  req.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.httpOptions != nil {
		cfg.HTTPOptions = *c.httpOptions
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	prompt := buildPrompt(req.CVText, req.JobDescription)
	temp := temperature
	genCfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: maxOutputTokens,
	}

	log.Debug().
		Str("model", model).
		Int("prompt_chars", len(prompt)).
		Msg("Submitting analysis prompt")

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), genCfg)
	if err != nil {
		return nil, &app.RemoteError{Op: "gemini", Message: err.Error()}
	}

	text := resp.Text()
	if text == "" {
		return nil, &app.RemoteError{Op: "gemini", Message: "empty response from model"}
	}

	log.Debug().Int("response_chars", len(text)).Msg("Received model response")

	return ExtractJSON(text)
}

// buildPrompt embeds the job description and CV verbatim with strict
// output-format instructions. The caps on string length and list size keep
// the response inside the token ceiling.
func buildPrompt(cvText, jobDescription string) string {
	return fmt.Sprintf(`You are an expert ATS (Applicant Tracking System) and Career Coach.

I will provide you with a Candidate's CV and a Job Description.
Your task is to analyze the match between them.

JOB DESCRIPTION:
%s

CANDIDATE CV:
%s

STRICT OUTPUT RULES:
    - Output MUST be valid JSON
    - Output MUST start with { and end with }
    - Do NOT include explanations or markdown
    - Keep ALL string values under 30 words
    - matchingSkills and missingSkills must each have MAX 10 items
    - If output cannot fit, return {} only

Please provide the output in the following JSON format ONLY (no markdown code blocks):
{
    "matchPercentage": "Integer between 0 and 100",
    "matchingSkills": ["List of skills present in both"],
    "missingSkills": ["List of skills required but missing in CV"],
    "experienceAnalysis": "Brief analysis of experience match (1-2 sentences)",
    "summary": "Brief summary of the compatibility"
}`, jobDescription, cvText)
}
