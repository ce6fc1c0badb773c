package sheets

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"

	"cv_matcher/internal/app"
)

// GetOrCreateTracker resolves the tracker spreadsheet for an account.
// Resolution order, first success wins:
//  1. cached id, verified server-side; a stale id is dropped and resolution continues
//  2. Drive search by exact title, so a reinstall or cache wipe never creates a duplicate
//  3. create a new tracker with the frozen header row
//
// Two concurrent first-time saves can still race past the search and both
// create; that window is accepted.
func (c *Client) GetOrCreateTracker(ctx context.Context, token, account string) (string, error) {
	sheetsSvc, driveSvc, err := c.services(ctx, token)
	if err != nil {
		return "", err
	}

	cached, err := c.store.TrackerID(ctx, account)
	if err != nil {
		return "", err
	}
	if cached != "" {
		_, verifyErr := sheetsSvc.Spreadsheets.Get(cached).Fields("spreadsheetId").Context(ctx).Do()
		if verifyErr == nil {
			return cached, nil
		}
		log.Warn().
			Err(verifyErr).
			Str("account", account).
			Str("spreadsheet_id", cached).
			Msg("Cached tracker id no longer resolves, discarding")
		if err := c.store.DeleteTrackerID(ctx, account); err != nil {
			return "", err
		}
	}

	if id := searchByTitle(ctx, driveSvc); id != "" {
		log.Info().
			Str("account", account).
			Str("spreadsheet_id", id).
			Msg("Found existing tracker by title")
		if err := c.store.SetTrackerID(ctx, account, id); err != nil {
			return "", err
		}
		return id, nil
	}

	id, err := createTracker(ctx, sheetsSvc)
	if err != nil {
		return "", err
	}
	log.Info().
		Str("account", account).
		Str("spreadsheet_id", id).
		Msg("Created new tracker spreadsheet")
	if err := c.store.SetTrackerID(ctx, account, id); err != nil {
		return "", err
	}
	return id, nil
}

// searchByTitle looks for an existing tracker by exact title. Search
// failure is treated as "not found" so resolution can still create one.
func searchByTitle(ctx context.Context, driveSvc *drive.Service) string {
	query := fmt.Sprintf("name = '%s' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false", TrackerTitle)

	list, err := driveSvc.Files.List().
		Q(query).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		log.Warn().Err(err).Msg("Tracker title search failed, falling through to create")
		return ""
	}
	if len(list.Files) == 0 {
		return ""
	}
	return list.Files[0].Id
}

// createTracker creates the spreadsheet with a single frozen header row of
// seven bold column titles.
func createTracker(ctx context.Context, sheetsSvc *sheets.Service) (string, error) {
	cells := make([]*sheets.CellData, 0, len(headerTitles))
	for _, title := range headerTitles {
		t := title
		cells = append(cells, &sheets.CellData{
			UserEnteredValue:  &sheets.ExtendedValue{StringValue: &t},
			UserEnteredFormat: &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true}},
		})
	}

	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: TrackerTitle},
		Sheets: []*sheets.Sheet{{
			Properties: &sheets.SheetProperties{
				GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
			},
			Data: []*sheets.GridData{{
				StartRow:    0,
				StartColumn: 0,
				RowData:     []*sheets.RowData{{Values: cells}},
			}},
		}},
	}

	created, err := sheetsSvc.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return "", &app.RemoteError{Op: "sheets.create", Message: remoteMessage(err)}
	}
	return created.SpreadsheetId, nil
}
