package shortlinks

import (
	"context"
	"net/http"
	"time"

	"github.com/IgorGrieder/guardiao-url/pkg/httpclient"
)

// HTTPProber decides destination liveness with a HEAD request. Anything
// that answers below 400 is LIVE; transport errors and 4xx/5xx are DEAD.
type HTTPProber struct {
	client  *httpclient.Client
	timeout time.Duration
}

func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProber{
		client:  httpclient.NewClient(timeout, 5, time.Minute),
		timeout: timeout,
	}
}

func (p *HTTPProber) Probe(ctx context.Context, rawURL string) string {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Head(probeCtx, rawURL)
	if err != nil {
		return URLStatusDead
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return URLStatusDead
	}
	return URLStatusLive
}
