package source

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/store-locator-etl/internal/coords"
	"github.com/couchcryptid/store-locator-etl/internal/domain"
)

const obaURL = "https://oba.az/branches/"

// OBA reads the branch map markers of oba.az. The page publishes neither
// phone numbers nor opening hours.
type OBA struct {
	base
}

// NewOBA creates the OBA adapter.
func NewOBA(env Env) *OBA {
	return &OBA{base: newBase("oba", obaURL, env)}
}

func (o *OBA) Extract(_ context.Context, doc []byte) ([]domain.RawListing, error) {
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("oba: parse html: %w", err)
	}

	var out []domain.RawListing
	parsed.Find("div.js-map-coordinates").Each(func(i int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find("h3.fs-16").First().Text())
		if name == "" {
			o.skip(i, errMissingName)
			return
		}
		address := strings.TrimSpace(s.Find("p.color-gray").First().Text())
		if address == name {
			address = ""
		}

		l := domain.RawListing{Name: name, Address: address}
		if tok := coords.PairToken(s.AttrOr("data-lat", ""), s.AttrOr("data-lng", "")); tok != "" {
			l.CoordToken, l.CoordKind = tok, domain.CoordPair
		}
		out = append(out, l)
	})
	return dedupe(out), nil
}
