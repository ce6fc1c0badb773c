// Package bridge is the coordination core: it dispatches the user
// commands across the scraper, the model client and the sheet client,
// reifying every failure into a response envelope.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cv_matcher/internal/app"
	"cv_matcher/internal/config"
	"cv_matcher/internal/retry"
	"cv_matcher/internal/store"
)

// Command actions. triggerAnalysis is the URL-level entry point; it
// scrapes first and then runs the analyzeCV path.
const (
	ActionAnalyze = "analyzeCV"
	ActionSave    = "saveToSheet"
	ActionTrigger = "triggerAnalysis"
)

// Request is one command envelope.
type Request struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// Response is the envelope every command resolves to, exactly once.
// Failures are carried in Error; nothing propagates past the bridge.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AnalyzePayload is the data for analyzeCV.
type AnalyzePayload struct {
	JobDescription string          `json:"jobDescription"`
	JobMetadata    app.JobMetadata `json:"jobMetadata"`
}

// TriggerPayload is the data for triggerAnalysis.
type TriggerPayload struct {
	URL string `json:"url"`
}

// AnalysisReport is the success data for analyzeCV and triggerAnalysis.
type AnalysisReport struct {
	Result app.Analysis    `json:"result"`
	Job    app.JobMetadata `json:"job"`
}

// SaveReceipt is the success data for saveToSheet.
type SaveReceipt struct {
	SpreadsheetID string `json:"spreadsheetId"`
}

// Analyzer runs one model analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req app.AnalysisRequest) (map[string]any, error)
}

// Scraper extracts a job posting from a URL.
type Scraper interface {
	Scrape(ctx context.Context, rawURL string) (*app.JobPage, error)
}

// TrackerClient resolves and appends to the tracker spreadsheet.
type TrackerClient interface {
	GetOrCreateTracker(ctx context.Context, token, account string) (string, error)
	AppendJob(ctx context.Context, token, spreadsheetID string, job app.TrackerRowInput) error
}

// TokenProvider supplies bearer tokens and the account identity.
type TokenProvider interface {
	CachedToken(ctx context.Context) (string, error)
	UserEmail(ctx context.Context, token string) (string, error)
}

// Bridge dispatches command envelopes. Per action, at most one request is
// in flight at a time; duplicates fail fast rather than queue.
type Bridge struct {
	store    *store.Store
	scraper  Scraper
	analyzer Analyzer
	tracker  TrackerClient
	tokens   TokenProvider
	res      config.Resilience

	inflight sync.Map
}

func New(st *store.Store, scraper Scraper, analyzer Analyzer, tracker TrackerClient, tokens TokenProvider, res config.Resilience) *Bridge {
	return &Bridge{
		store:    st,
		scraper:  scraper,
		analyzer: analyzer,
		tracker:  tracker,
		tokens:   tokens,
		res:      res,
	}
}

// Dispatch resolves one command to its envelope. State machine per
// request: Idle -> Dispatched -> Succeeded|Failed, terminal either way,
// no automatic retries.
func (b *Bridge) Dispatch(ctx context.Context, req Request) Response {
	logger := log.With().
		Str("request_id", uuid.New().String()).
		Str("action", req.Action).
		Logger()

	if !b.acquire(req.Action) {
		logger.Warn().Msg("Duplicate command rejected")
		return failure(app.ErrBusy)
	}
	defer b.release(req.Action)

	logger.Debug().Msg("Command dispatched")
	resp := b.run(ctx, &logger, req)
	if resp.Success {
		logger.Info().Msg("Command succeeded")
	} else {
		logger.Warn().Str("error", resp.Error).Msg("Command failed")
	}
	return resp
}

// run executes the handler, converting errors and panics into envelopes.
// The message boundary cannot transport exceptions, so nothing is allowed
// to escape.
func (b *Bridge) run(ctx context.Context, logger *zerolog.Logger, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Command handler panicked")
			resp = Response{Success: false, Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	switch req.Action {
	case ActionAnalyze:
		var payload AnalyzePayload
		if err := json.Unmarshal(req.Data, &payload); err != nil {
			return failure(fmt.Errorf("decode %s payload: %w", req.Action, err))
		}
		report, err := b.analyze(ctx, payload)
		if err != nil {
			return failure(err)
		}
		return Response{Success: true, Data: report}

	case ActionTrigger:
		var payload TriggerPayload
		if err := json.Unmarshal(req.Data, &payload); err != nil {
			return failure(fmt.Errorf("decode %s payload: %w", req.Action, err))
		}
		report, err := b.trigger(ctx, payload.URL)
		if err != nil {
			return failure(err)
		}
		return Response{Success: true, Data: report}

	case ActionSave:
		var payload app.TrackerRowInput
		if err := json.Unmarshal(req.Data, &payload); err != nil {
			return failure(fmt.Errorf("decode %s payload: %w", req.Action, err))
		}
		receipt, err := b.save(ctx, payload)
		if err != nil {
			return failure(err)
		}
		return Response{Success: true, Data: receipt}

	default:
		return failure(fmt.Errorf("unknown action %q", req.Action))
	}
}

// analyze validates configuration and the scrape precondition before any
// network call, then runs the model under its timeout.
func (b *Bridge) analyze(ctx context.Context, payload AnalyzePayload) (*AnalysisReport, error) {
	settings, err := b.store.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if settings.APIKey == "" {
		return nil, app.ErrMissingAPIKey
	}
	if settings.CVText == "" {
		return nil, app.ErrMissingCV
	}
	if len(payload.JobDescription) < app.MinDescriptionLength {
		return nil, app.ErrNoDescription
	}

	raw, err := retry.WithRetry(ctx, b.res.Analyze, func(ctx context.Context) (map[string]any, error) {
		return b.analyzer.Analyze(ctx, app.AnalysisRequest{
			APIKey:         settings.APIKey,
			CVText:         settings.CVText,
			ModelName:      settings.ModelName,
			JobDescription: payload.JobDescription,
			Meta:           payload.JobMetadata,
		})
	})
	if err != nil {
		return nil, err
	}

	return &AnalysisReport{
		Result: app.CoerceAnalysis(raw),
		Job:    payload.JobMetadata,
	}, nil
}

// trigger scrapes the URL and delegates to the analyze path.
func (b *Bridge) trigger(ctx context.Context, rawURL string) (*AnalysisReport, error) {
	page, err := retry.WithRetry(ctx, b.res.Scrape, func(ctx context.Context) (*app.JobPage, error) {
		return b.scraper.Scrape(ctx, rawURL)
	})
	if err != nil {
		return nil, err
	}

	return b.analyze(ctx, AnalyzePayload{
		JobDescription: page.Description,
		JobMetadata:    page.Meta,
	})
}

// save acquires a token non-interactively, resolves the tracker and
// appends the row.
func (b *Bridge) save(ctx context.Context, job app.TrackerRowInput) (*SaveReceipt, error) {
	token, err := retry.WithRetry(ctx, b.res.Token, func(ctx context.Context) (string, error) {
		return b.tokens.CachedToken(ctx)
	})
	if err != nil {
		return nil, err
	}

	account, err := retry.WithRetry(ctx, b.res.Token, func(ctx context.Context) (string, error) {
		return b.tokens.UserEmail(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	spreadsheetID, err := retry.WithRetry(ctx, b.res.Sheet, func(ctx context.Context) (string, error) {
		return b.tracker.GetOrCreateTracker(ctx, token, account)
	})
	if err != nil {
		return nil, err
	}

	_, err = retry.WithRetry(ctx, b.res.Sheet, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.tracker.AppendJob(ctx, token, spreadsheetID, job)
	})
	if err != nil {
		return nil, err
	}

	return &SaveReceipt{SpreadsheetID: spreadsheetID}, nil
}

// acquire claims the per-action in-flight slot.
func (b *Bridge) acquire(action string) bool {
	_, loaded := b.inflight.LoadOrStore(action, struct{}{})
	return !loaded
}

func (b *Bridge) release(action string) {
	b.inflight.Delete(action)
}

func failure(err error) Response {
	return Response{Success: false, Error: err.Error()}
}
