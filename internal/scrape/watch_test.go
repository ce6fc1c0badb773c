package scrape

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cv_matcher/internal/app"
)

// scriptedFetcher plays back a fixed sequence of probe results.
type scriptedFetcher struct {
	results []probeResult
	calls   int
}

type probeResult struct {
	description string
	err         error
}

func (f *scriptedFetcher) Scrape(ctx context.Context, rawURL string) (*app.JobPage, error) {
	result := f.results[len(f.results)-1]
	if f.calls < len(f.results) {
		result = f.results[f.calls]
	}
	f.calls++

	if result.err != nil {
		return nil, result.err
	}
	return &app.JobPage{
		Description: result.description,
		Meta:        app.JobMetadata{URL: rawURL},
	}, nil
}

func longDescription(seed string) string {
	return seed + strings.Repeat(" filler", app.MinDescriptionLength)
}

func TestWaitReturnsStableDescription(t *testing.T) {
	desc := longDescription("full posting")
	fetcher := &scriptedFetcher{results: []probeResult{
		{description: "loading"},
		{description: desc},
		{description: desc},
	}}

	watcher := NewWatcher(fetcher).WithInterval(time.Millisecond)
	page, err := watcher.Wait(context.Background(), "https://example.com/job")
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if page.Description != desc {
		t.Errorf("returned description does not match the stable probe")
	}
	if fetcher.calls != 3 {
		t.Errorf("probes = %d, want 3", fetcher.calls)
	}
}

func TestWaitIgnoresFetchErrors(t *testing.T) {
	desc := longDescription("posting")
	fetcher := &scriptedFetcher{results: []probeResult{
		{err: errors.New("connection refused")},
		{description: desc},
		{description: desc},
	}}

	watcher := NewWatcher(fetcher).WithInterval(time.Millisecond)
	if _, err := watcher.Wait(context.Background(), "https://example.com/job"); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}

func TestWaitRequiresTwoIdenticalProbes(t *testing.T) {
	fetcher := &scriptedFetcher{results: []probeResult{
		{description: longDescription("draft one")},
		{description: longDescription("draft two")},
		{description: longDescription("draft two")},
	}}

	watcher := NewWatcher(fetcher).WithInterval(time.Millisecond)
	page, err := watcher.Wait(context.Background(), "https://example.com/job")
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if page.Description != longDescription("draft two") {
		t.Errorf("returned the unstable description")
	}
	if fetcher.calls != 3 {
		t.Errorf("probes = %d, want 3", fetcher.calls)
	}
}

func TestWaitStopsOnContextCancel(t *testing.T) {
	fetcher := &scriptedFetcher{results: []probeResult{
		{description: "never long enough"},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	watcher := NewWatcher(fetcher).WithInterval(time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := watcher.Wait(ctx, "https://example.com/job")
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}
