// Package notify pushes optional completion notices to an ntfy topic.
// Watch mode uses it to reach the user when an analysis finishes while
// they are not looking at the terminal.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"cv_matcher/internal/app"
)

// Client posts plain-text messages to one ntfy topic. Disabled clients
// swallow every send, so call sites never need to check.
type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
}

// NewFromEnv reads NTFY_ENABLED, NTFY_URL and NTFY_TOPIC.
func NewFromEnv() *Client {
	return NewClient(
		app.GetEnvWithDefault("NTFY_URL", "https://ntfy.sh"),
		app.GetEnvWithDefault("NTFY_TOPIC", "cvmatch"),
		app.GetEnvWithDefault("NTFY_ENABLED", "false") == "true",
	)
}

func NewClient(baseURL, topic string, enabled bool) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		topic:      topic,
		enabled:    enabled,
	}
}

// Send posts one message. A single attempt: a missed notification is not
// worth retry traffic.
func (c *Client) Send(ctx context.Context, title, message string) error {
	if !c.enabled {
		return nil
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(message))
	if err != nil {
		return fmt.Errorf("create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	if title != "" {
		req.Header.Set("Title", title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification rejected: HTTP %d", resp.StatusCode)
	}

	log.Debug().Str("topic", c.topic).Msg("Notification sent")
	return nil
}

// SendAsync fires Send on a goroutine, logging failures instead of
// returning them.
func (c *Client) SendAsync(ctx context.Context, title, message string) {
	if !c.enabled {
		return
	}
	go func() {
		if err := c.Send(ctx, title, message); err != nil {
			log.Warn().Err(err).Msg("Async notification failed")
		}
	}()
}
