// Package heartbeat pushes sync-cycle status to an uptime monitor.
package heartbeat

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/jkrumm/fpp-analytics/pkg/config"
)

// Pusher reports cycle outcomes via the monitor's push URL. An empty
// URL disables pushing; push failures are logged, never propagated, so
// monitoring can never break the sync itself.
type Pusher struct {
	pushURL string
	http    *http.Client
	log     *zap.Logger
}

// New returns a Pusher for the given push URL. An empty URL disables it.
func New(pushURL string, log *zap.Logger) *Pusher {
	return &Pusher{
		pushURL: pushURL,
		http:    &http.Client{Timeout: config.HeartbeatPushTimeout},
		log:     log,
	}
}

// Up reports a successful cycle.
func (p *Pusher) Up(ctx context.Context, msg string) {
	p.push(ctx, "up", msg)
}

// Down reports a failed cycle.
func (p *Pusher) Down(ctx context.Context, msg string) {
	p.push(ctx, "down", msg)
}

func (p *Pusher) push(ctx context.Context, status, msg string) {
	if p.pushURL == "" {
		return
	}

	query := url.Values{}
	query.Set("status", status)
	query.Set("msg", msg)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.pushURL+"?"+query.Encode(), nil)
	if err != nil {
		p.log.Warn("build heartbeat request", zap.Error(err))
		return
	}

	resp, err := p.http.Do(req)
	if err != nil {
		p.log.Warn("heartbeat push failed", zap.String("status", status), zap.Error(err))
		return
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		p.log.Warn("heartbeat push rejected", zap.String("status", status), zap.Int("code", resp.StatusCode))
	}
}
