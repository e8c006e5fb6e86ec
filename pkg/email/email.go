// Package email posts the daily analytics report to the external email
// service.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/jkrumm/fpp-analytics/pkg/analytics"
	"github.com/jkrumm/fpp-analytics/pkg/config"
)

// ErrEmailService marks failures of the downstream email service so
// handlers can map them to a 502.
var ErrEmailService = errors.New("email service")

// Client talks to the email service. A client with an empty base URL is
// valid and skips sending, so deployments without the service stay
// functional.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
	log     *zap.Logger
}

// New returns a Client for the service at baseURL, authenticated with
// key. An empty baseURL disables sending.
func New(baseURL, key string, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		key:     key,
		http:    &http.Client{Timeout: config.EmailRequestTimeout},
		log:     log,
	}
}

// Enabled reports whether a service URL is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// SendDailyReport posts the daily summary to the email service. When no
// service is configured it logs and returns nil.
func (c *Client) SendDailyReport(ctx context.Context, stats analytics.DailyStats) error {
	if !c.Enabled() {
		c.log.Info("email service not configured, skipping daily report")
		return nil
	}

	body, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal daily report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/daily-analytics", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmailService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrEmailService, resp.StatusCode, bytes.TrimSpace(detail))
	}

	c.log.Info("daily report sent", zap.Int("votes", stats.Votes), zap.Int("page_views", stats.PageViews))
	return nil
}
