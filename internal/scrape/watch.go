package scrape

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"cv_matcher/internal/app"
)

// DefaultWatchInterval matches the readiness probe cadence used for
// single-page apps that swap content in without navigation.
const DefaultWatchInterval = 2 * time.Second

// PageFetcher is the probe the watcher re-runs. *Scraper satisfies it.
type PageFetcher interface {
	Scrape(ctx context.Context, rawURL string) (*app.JobPage, error)
}

// Watcher repeatedly probes a URL until a usable job description is
// present and stable, then returns it. The loop is tied to ctx: cancel
// the context and the watcher stops. Probes run strictly one at a time.
type Watcher struct {
	fetcher  PageFetcher
	interval time.Duration
}

func NewWatcher(fetcher PageFetcher) *Watcher {
	return &Watcher{fetcher: fetcher, interval: DefaultWatchInterval}
}

// WithInterval overrides the probe cadence, mainly for tests.
func (w *Watcher) WithInterval(d time.Duration) *Watcher {
	w.interval = d
	return w
}

// Wait probes until the page yields a description of at least
// app.MinDescriptionLength that is identical across two consecutive
// probes, then returns that page. Fetch errors are treated as
// "not ready yet" and retried on the next tick.
func (w *Watcher) Wait(ctx context.Context, rawURL string) (*app.JobPage, error) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var lastDescription string

	for {
		page, err := w.fetcher.Scrape(ctx, rawURL)
		switch {
		case err != nil:
			log.Debug().Err(err).Str("url", rawURL).Msg("Probe failed, page not ready")
			lastDescription = ""
		case len(page.Description) < app.MinDescriptionLength:
			log.Debug().
				Int("length", len(page.Description)).
				Str("url", rawURL).
				Msg("Description too short, waiting for page to settle")
			lastDescription = ""
		case page.Description == lastDescription:
			log.Debug().Str("url", rawURL).Msg("Description stable across probes")
			return page, nil
		default:
			lastDescription = page.Description
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
