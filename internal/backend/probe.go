package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrNotReady is returned when the backend never answered its health check.
var ErrNotReady = errors.New("backend not ready")

// Prober polls the backend's health endpoint until it answers 200.
// The caller's context bounds how long it keeps trying.
type Prober struct {
	url    string
	client *retryablehttp.Client
}

// ProberOption configures a Prober.
type ProberOption func(*retryablehttp.Client)

// WithRetryWait sets the minimum and maximum wait between attempts.
// Default is 100ms to 1s.
func WithRetryWait(minWait, maxWait time.Duration) ProberOption {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMin = minWait
		c.RetryWaitMax = maxWait
	}
}

// WithAttemptTimeout bounds each individual health request. Default is 2s.
func WithAttemptTimeout(d time.Duration) ProberOption {
	return func(c *retryablehttp.Client) {
		c.HTTPClient.Timeout = d
	}
}

// NewProber creates a prober for url.
func NewProber(url string, logger *slog.Logger, opts ...ProberOption) *Prober {
	client := retryablehttp.NewClient()
	client.RetryMax = math.MaxInt32
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = 2 * time.Second
	client.CheckRetry = retryUntilOK
	client.Logger = nil
	if logger != nil {
		client.Logger = logger
	}
	for _, opt := range opts {
		opt(client)
	}

	return &Prober{url: url, client: client}
}

// URL returns the probed URL.
func (p *Prober) URL() string {
	return p.url
}

// WaitReady blocks until the backend answers 200 or ctx is done.
func (p *Prober) WaitReady(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrNotReady, resp.StatusCode)
	}
	return nil
}

// retryUntilOK retries connection errors and any non-200 answer until the
// request context ends.
func retryUntilOK(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	return resp.StatusCode != http.StatusOK, nil
}
