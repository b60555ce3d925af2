package source

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/store-locator-etl/internal/coords"
	"github.com/couchcryptid/store-locator-etl/internal/domain"
)

const bravoURL = "https://www.bravosupermarket.az/branches/"

// bravoFormats are store format words that may appear in the location line.
var bravoFormats = []string{"Hiper", "Super", "Market", "Ekspres", "Premium"}

// bravoCategories maps data-category codes to store formats.
var bravoCategories = map[string]string{
	"2237": "Hiper",
	"2236": "Super",
	"2235": "Market",
	"2238": "Ekspres",
}

// Extra columns contributed by Bravo.
const (
	ColCategoryID    = "category_id"
	ColGoogleMapsURL = "google_maps_url"
)

// Bravo reads branch <article> elements carrying coordinates as data
// attributes.
type Bravo struct {
	base
}

// NewBravo creates the Bravo Supermarket adapter.
func NewBravo(env Env) *Bravo {
	return &Bravo{base: newBase("bravo", bravoURL, env)}
}

func (b *Bravo) Extract(_ context.Context, doc []byte) ([]domain.RawListing, error) {
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("bravo: parse html: %w", err)
	}

	var out []domain.RawListing
	parsed.Find("article[data-lat][data-lng]").Each(func(i int, article *goquery.Selection) {
		l, err := b.parseArticle(article)
		if err != nil {
			b.skip(i, err)
			return
		}
		out = append(out, l)
	})
	return dedupe(out), nil
}

func (b *Bravo) parseArticle(article *goquery.Selection) (domain.RawListing, error) {
	name := strings.TrimSpace(article.Find("h3").First().Text())
	if name == "" {
		return domain.RawListing{}, errMissingName
	}
	l := domain.RawListing{Name: name}

	// Sub-fields are identified by the <li> class, not by position.
	article.Find("li").Each(func(_ int, li *goquery.Selection) {
		span := li.Find("span").First()
		if span.Length() == 0 {
			return
		}
		text := strings.TrimSpace(span.Text())
		switch {
		case li.HasClass("location"):
			if l.Type == "" && slices.Contains(bravoFormats, text) {
				l.Type = text
			} else {
				l.Address = text
			}
		case li.HasClass("phone"):
			l.Phone = text
		case li.HasClass("time"):
			l.Hours = text
		}
	})

	lat, _ := article.Attr("data-lat")
	lng, _ := article.Attr("data-lng")
	if tok := coords.PairToken(lat, lng); tok != "" {
		l.CoordToken, l.CoordKind = tok, domain.CoordPair
	}

	category := strings.TrimSpace(article.AttrOr("data-category", ""))
	if l.Type == "" {
		l.Type = bravoCategories[category]
	}

	// The type column is declared for every branch; its value travels in Type.
	l.Extras = map[string]string{
		domain.ColType:   "",
		ColCategoryID:    category,
		ColGoogleMapsURL: article.Find("a.google-maps-link").First().AttrOr("href", ""),
	}
	return l, nil
}
