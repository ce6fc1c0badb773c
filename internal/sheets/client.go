// Package sheets finds or creates the per-account tracker spreadsheet and
// appends analyzed jobs to it.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"cv_matcher/internal/app"
	"cv_matcher/internal/store"
)

// TrackerTitle is the fixed name of the tracker spreadsheet. Resolution
// searches by exact title, so changing this orphans existing trackers.
const TrackerTitle = "Job Application Tracker - CV Matcher"

const appendRange = "Sheet1!A:G"

var headerTitles = []string{"Date", "Company", "Job Title", "Job URL", "Match Score", "Status", "Notes"}

// Client wraps the Sheets and Drive APIs. Services are built per call
// because each call is authorized with the caller's current bearer token.
type Client struct {
	store *store.Store
	extra []option.ClientOption
}

// NewClient builds a sheet client backed by the given store for the
// per-account tracker id cache. extra options are for tests.
func NewClient(st *store.Store, extra ...option.ClientOption) *Client {
	return &Client{store: st, extra: extra}
}

func (c *Client) services(ctx context.Context, token string) (*sheets.Service, *drive.Service, error) {
	opts := append([]option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})),
	}, c.extra...)

	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create drive service: %w", err)
	}
	return sheetsSvc, driveSvc, nil
}

// AppendJob appends one row for an analyzed job. Company and title default
// to "Unknown", the match score renders as "NN%" or "N/A", and the status
// column always starts as "Analyzed".
func (c *Client) AppendJob(ctx context.Context, token, spreadsheetID string, job app.TrackerRowInput) error {
	sheetsSvc, _, err := c.services(ctx, token)
	if err != nil {
		return err
	}

	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{FormatRow(job, time.Now())},
	}

	_, err = sheetsSvc.Spreadsheets.Values.Append(spreadsheetID, appendRange, valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return &app.RemoteError{Op: "sheets.append", Message: remoteMessage(err)}
	}

	return nil
}

// FormatRow builds the seven tracker columns for one job.
func FormatRow(job app.TrackerRowInput, now time.Time) []interface{} {
	company := job.Company
	if company == "" {
		company = "Unknown"
	}
	title := job.Title
	if title == "" {
		title = "Unknown"
	}
	score := "N/A"
	if job.MatchScore != nil {
		score = fmt.Sprintf("%d%%", *job.MatchScore)
	}

	return []interface{}{
		now.Format("1/2/2006"),
		company,
		title,
		job.URL,
		score,
		"Analyzed",
		job.Notes,
	}
}

// remoteMessage prefers the server's own error message when one exists.
func remoteMessage(err error) string {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
