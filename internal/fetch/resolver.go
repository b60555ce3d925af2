package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/store-locator-etl/internal/cache"
)

// maxRedirects bounds a redirect chain.
const maxRedirects = 10

// ResolverOptions configures the redirect resolver.
type ResolverOptions struct {
	UserAgent string
	Timeout   time.Duration
	CacheSize int
	// OnCache is called with "hit" or "miss" for every lookup.
	OnCache func(result string)
}

// Resolver follows HTTP redirects of shortened links and caches the final
// URL of each.
type Resolver struct {
	client *http.Client
	opts   ResolverOptions
	cache  *cache.LRU[string]
	logger *slog.Logger
}

// NewResolver creates a redirect resolver.
func NewResolver(opts ResolverOptions, logger *slog.Logger) *Resolver {
	client := &http.Client{
		Timeout: opts.Timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
	return &Resolver{
		client: client,
		opts:   opts,
		cache:  cache.NewLRU[string](opts.CacheSize),
		logger: logger,
	}
}

// Resolve returns the URL rawURL finally redirects to.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	if final, ok := r.cache.Get(rawURL); ok {
		r.observe("hit")
		return final, nil
	}
	r.observe("miss")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("resolve: create request: %w", err)
	}
	if r.opts.UserAgent != "" {
		req.Header.Set("User-Agent", r.opts.UserAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("resolve: %s: status %d", rawURL, resp.StatusCode)
	}

	final := resp.Request.URL.String()
	r.logger.Debug("resolved short link", "url", rawURL, "final", final)
	r.cache.Put(rawURL, final)
	return final, nil
}

func (r *Resolver) observe(result string) {
	if r.opts.OnCache != nil {
		r.opts.OnCache(result)
	}
}
