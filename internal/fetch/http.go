package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"golang.org/x/time/rate"
)

// maxBodyBytes bounds a single document download.
const maxBodyBytes = 32 << 20

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// Rate is the sustained request rate in requests per second.
	Rate float64
	// BaseBackoff is the first retry delay; it doubles up to MaxBackoff.
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// HTTPFetcher fetches documents over HTTP with rate limiting and retries on
// transport errors, 429 and 5xx responses.
type HTTPFetcher struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewHTTPFetcher creates an HTTP fetcher.
func NewHTTPFetcher(opts HTTPOptions, logger *slog.Logger) *HTTPFetcher {
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 5 * time.Second
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Fetch downloads rawURL and returns its body as UTF-8.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	backoff := f.opts.BaseBackoff
	var lastErr error

	for attempt := 0; attempt <= f.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if !retry.SleepWithContext(ctx, backoff) {
				return nil, ctx.Err()
			}
			backoff = retry.NextBackoff(backoff, f.opts.MaxBackoff)
		}

		body, transient, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if !transient || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
		f.logger.Warn("fetch failed, retrying",
			"url", rawURL,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return nil, fmt.Errorf("fetch: all retries exhausted: %w", lastErr)
}

// fetchOnce performs a single request. transient reports whether the
// failure is worth retrying.
func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL string) (body []byte, transient bool, err error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("fetch: rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("fetch: create request: %w", err)
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("fetch: get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("fetch: %s: %w", rawURL, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("fetch: %s: status %d", rawURL, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("fetch: %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("fetch: read body: %w", err)
	}
	body, err = toUTF8(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, false, fmt.Errorf("fetch: decode body: %w", err)
	}
	return body, false, nil
}
