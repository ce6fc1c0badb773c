package config

import (
	"time"

	"cv_matcher/internal/retry"
)

// Resilience holds the per-operation bounds for every remote seam. All
// entries use MaxRetries 0: each user command makes exactly one attempt
// per remote call, the configs exist for the timeouts.
type Resilience struct {
	Scrape  retry.Config
	Analyze retry.Config
	Sheet   retry.Config
	Token   retry.Config
}

var DefaultResilience = Resilience{
	Scrape: retry.Config{
		MaxRetries: 0,
		BaseDelay:  time.Second,
		MaxDelay:   time.Second,
		Timeout:    30 * time.Second,
	},
	Analyze: retry.Config{
		MaxRetries: 0,
		BaseDelay:  time.Second,
		MaxDelay:   time.Second,
		Timeout:    90 * time.Second,
	},
	Sheet: retry.Config{
		MaxRetries: 0,
		BaseDelay:  time.Second,
		MaxDelay:   time.Second,
		Timeout:    30 * time.Second,
	},
	Token: retry.Config{
		MaxRetries: 0,
		BaseDelay:  time.Second,
		MaxDelay:   time.Second,
		Timeout:    15 * time.Second,
	},
}
