package source

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/store-locator-etl/internal/coords"
	"github.com/couchcryptid/store-locator-etl/internal/domain"
)

const (
	rahatURL      = "https://rahatmarket.az/az/map"
	rahatBrand    = "Rahat Market"
	rahatScriptID = "var locations"
)

var (
	// [new google.maps.LatLng(lat, lng), 'name', '<a ...>address</a>']
	rahatMarkerPattern = regexp.MustCompile(`(?s)\[new google\.maps\.LatLng\(([\d.]+),\s*([\d.]+)\),\s*["']([^"']+)["'],\s*["']<a[^>]*>([^<]+)</a>["']`)
	// [new google.maps.LatLng(lat, lng), 'Rahat Market (address)'
	rahatShortPattern = regexp.MustCompile(`\[new google\.maps\.LatLng\(([\d.]+),\s*([\d.]+)\),\s*["']([^"']+)["']`)
	rahatParenPattern = regexp.MustCompile(`Rahat Market\s*\(([^)]*)\)`)
)

// Rahat reads the marker array literal embedded in the rahatmarket.az map
// page script.
type Rahat struct {
	base
}

// NewRahat creates the Rahat Market adapter.
func NewRahat(env Env) *Rahat {
	return &Rahat{base: newBase("rahat", rahatURL, env)}
}

func (r *Rahat) Extract(_ context.Context, doc []byte) ([]domain.RawListing, error) {
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("rahat: parse html: %w", err)
	}

	var script string
	parsed.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := s.Text(); strings.Contains(text, rahatScriptID) {
			script = text
			return false
		}
		return true
	})

	listings := r.firstSuccess(
		strategy{name: "marker_triple", extract: func() []domain.RawListing { return r.fromTriples(script) }},
		strategy{name: "marker_pair", extract: func() []domain.RawListing { return r.fromPairs(script) }},
		strategy{name: "marker_links", extract: func() []domain.RawListing { return r.fromLinks(parsed) }},
	)
	return dedupe(listings), nil
}

func (r *Rahat) fromTriples(script string) []domain.RawListing {
	var out []domain.RawListing
	for _, m := range rahatMarkerPattern.FindAllStringSubmatch(script, -1) {
		name := stripBackslashes(m[3])
		if name == "" {
			name = rahatBrand
		}
		out = append(out, domain.RawListing{
			Name:       name,
			Address:    stripBackslashes(m[4]),
			CoordToken: coords.PairToken(m[1], m[2]),
			CoordKind:  domain.CoordPair,
		})
	}
	return out
}

func (r *Rahat) fromPairs(script string) []domain.RawListing {
	var out []domain.RawListing
	for _, m := range rahatShortPattern.FindAllStringSubmatch(script, -1) {
		out = append(out, domain.RawListing{
			Name:       rahatBrand,
			Address:    splitRahatLabel(stripBackslashes(m[3])),
			CoordToken: coords.PairToken(m[1], m[2]),
			CoordKind:  domain.CoordPair,
		})
	}
	return out
}

// splitRahatLabel extracts the address from a "Rahat Market (address)"
// marker label. Labels without the brand prefix are taken as the address.
func splitRahatLabel(text string) string {
	if !strings.HasPrefix(text, rahatBrand) {
		return text
	}
	if m := rahatParenPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(strings.Replace(text, rahatBrand, "", 1))
}

// fromLinks reads the sidebar marker links. They carry names only.
func (r *Rahat) fromLinks(doc *goquery.Document) []domain.RawListing {
	var out []domain.RawListing
	doc.Find("a.marker-link").Each(func(_ int, a *goquery.Selection) {
		name := strings.TrimSpace(a.Text())
		if name == "" || name == rahatBrand {
			return
		}
		out = append(out, domain.RawListing{
			Name:     name,
			SourceID: a.AttrOr("data-markerid", ""),
		})
	})
	return out
}

func stripBackslashes(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `\`, ""))
}
