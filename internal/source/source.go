package source

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/couchcryptid/store-locator-etl/internal/coords"
	"github.com/couchcryptid/store-locator-etl/internal/domain"
)

// Adapter turns one chain's fetched document into raw listings.
type Adapter interface {
	// Name is the lower-case source identifier, e.g. "bravo".
	Name() string
	// DefaultURL is the document location used when no override is configured.
	DefaultURL() string
	Extract(ctx context.Context, doc []byte) ([]domain.RawListing, error)
}

// Env carries the collaborators shared by all adapters.
type Env struct {
	Logger *slog.Logger
	// Resolver follows shortened map links. Nil disables resolution.
	Resolver coords.Resolver
	// OnSkip is called once for every listing dropped by a per-item failure.
	OnSkip func(source string)
}

var errMissingName = errors.New("listing has no name")

// base holds the identity and collaborators common to every adapter.
type base struct {
	name string
	url  string
	env  Env
}

func newBase(name, url string, env Env) base {
	if env.Logger == nil {
		env.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return base{name: name, url: url, env: env}
}

func (b base) Name() string       { return b.name }
func (b base) DefaultURL() string { return b.url }

func (b base) skip(item int, err error) {
	b.env.Logger.Warn("skipping listing",
		"source", b.name,
		"item", item,
		"error", err,
	)
	if b.env.OnSkip != nil {
		b.env.OnSkip(b.name)
	}
}

// strategy is one named way of reading a document.
type strategy struct {
	name    string
	extract func() []domain.RawListing
}

// firstSuccess runs strategies in order and returns the listings of the first
// one that produces any.
func (b base) firstSuccess(strategies ...strategy) []domain.RawListing {
	for _, s := range strategies {
		listings := s.extract()
		if len(listings) > 0 {
			b.env.Logger.Debug("extraction strategy matched",
				"source", b.name,
				"strategy", s.name,
				"count", len(listings),
			)
			return listings
		}
		b.env.Logger.Debug("extraction strategy yielded no listings",
			"source", b.name,
			"strategy", s.name,
		)
	}
	return nil
}

// dedupe drops listings whose (name, address) pair was already seen,
// keeping the first occurrence.
func dedupe(listings []domain.RawListing) []domain.RawListing {
	seen := make(map[[2]string]bool, len(listings))
	out := listings[:0:0]
	for _, l := range listings {
		key := [2]string{l.Name, l.Address}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}
