package sheets

import (
	"testing"
	"time"

	"cv_matcher/internal/app"
)

func trackerRow(company, title, url string, score *int, notes string) app.TrackerRowInput {
	return app.TrackerRowInput{
		Company:    company,
		Title:      title,
		URL:        url,
		MatchScore: score,
		Notes:      notes,
	}
}

func TestFormatRow(t *testing.T) {
	score := 72
	now := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)

	row := FormatRow(trackerRow("Acme", "Engineer", "http://x", &score, "looks good"), now)

	want := []interface{}{"3/5/2026", "Acme", "Engineer", "http://x", "72%", "Analyzed", "looks good"}
	if len(row) != len(want) {
		t.Fatalf("row has %d columns, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestFormatRowNoScore(t *testing.T) {
	row := FormatRow(trackerRow("Acme", "Engineer", "http://x", nil, ""), time.Now())

	if row[4] != "N/A" {
		t.Errorf("score column = %v, want N/A", row[4])
	}
}

func TestFormatRowDefaults(t *testing.T) {
	row := FormatRow(trackerRow("", "", "", nil, ""), time.Now())

	if row[1] != "Unknown" || row[2] != "Unknown" {
		t.Errorf("company/title = %v/%v, want Unknown/Unknown", row[1], row[2])
	}
	if row[3] != "" {
		t.Errorf("url = %v, want empty", row[3])
	}
	if row[5] != "Analyzed" {
		t.Errorf("status = %v, want Analyzed", row[5])
	}
}
