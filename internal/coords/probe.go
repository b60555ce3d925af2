package coords

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/couchcryptid/store-locator-etl/internal/domain"
)

// shortLinkHosts serve map links that only reveal coordinates after a redirect.
var shortLinkHosts = []string{"maps.app.goo.gl", "goo.gl", "g.co", "bit.ly"}

// Resolver follows redirects of a shortened URL and returns the final URL.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}

// IsShortLink reports whether text is a shortened map URL.
func IsShortLink(text string) bool {
	u, err := url.Parse(strings.TrimSpace(text))
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	for _, h := range shortLinkHosts {
		if host == h {
			return true
		}
	}
	return false
}

// Probe inspects a free-form map field (link, embed snippet or DMS text) and
// returns the coordinate token it carries and its kind. Query parameters are
// tried first, then tile parameters, then DMS text. A shortened link is
// resolved through resolver before the DMS attempt. CoordNone with a nil
// error means the field carries no coordinate.
func Probe(ctx context.Context, field string, resolver Resolver) (string, domain.CoordKind, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return "", domain.CoordNone, nil
	}

	for _, kind := range probeOrder[:2] {
		if _, ok := Normalize(field, kind); ok {
			return field, kind, nil
		}
	}

	target := field
	if IsShortLink(field) && resolver != nil {
		resolved, err := resolver.Resolve(ctx, field)
		if err != nil {
			return "", domain.CoordNone, fmt.Errorf("coords: resolve %s: %w", field, err)
		}
		target = resolved
		if kind := Detect(target); kind != domain.CoordNone {
			return target, kind, nil
		}
		return "", domain.CoordNone, nil
	}

	if _, ok := Normalize(target, domain.CoordDMS); ok {
		return target, domain.CoordDMS, nil
	}
	return "", domain.CoordNone, nil
}
