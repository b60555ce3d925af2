package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/store-locator-etl/internal/coords"
	"github.com/couchcryptid/store-locator-etl/internal/domain"
)

const arazURL = "https://arazmarket.az/az/stores"

var (
	arazPushPattern = regexp.MustCompile(`self\.__next_f\.push\((\[.*?\])\)`)
	// Fields must appear in exactly this order; reordered objects are not matched.
	arazStorePattern = regexp.MustCompile(`\{"id":(\d+),"title":"([^"]+)","address":"([^"]+)","work_time":"([^"]+)","phone_number":"([^"]+)","lat":"([^"]+)","lon":"([^"]+)"[^}]*\}`)
	arazMarkers      = []string{`"title"`, `"address"`, `"phone_number"`}
)

// Candidate keys in the __NEXT_DATA__ page props.
var (
	arazPagePropsKeys = []string{"stores", "branches", "locations", "data", "storesList"}
	arazNextFields    = struct {
		name, address, phone, hours, lat, lng aliases
	}{
		name:    aliases{"name", "title"},
		address: aliases{"address", "location"},
		phone:   aliases{"phone", "tel"},
		hours:   aliases{"hours", "workingHours", "working_hours"},
		lat:     aliases{"latitude", "lat"},
		lng:     aliases{"longitude", "lng", "lon"},
	}
)

// Class-name prefixes of the rendered store accordion. The hashed suffixes
// change between deployments.
const (
	arazListClass    = "page_list__"
	arazItemClass    = "accardion_accardionItem__"
	arazTitleClass   = "accardion_accardionTitleToggle__"
	arazContentClass = "accardion_accardionContent__"
	arazOptionClass  = "page_list_option__"
)

// Araz reads the Next.js streaming payload of arazmarket.az, falling back to
// the __NEXT_DATA__ blob and then to the rendered accordion markup.
type Araz struct {
	base
}

// NewAraz creates the Araz Market adapter.
func NewAraz(env Env) *Araz {
	return &Araz{base: newBase("araz", arazURL, env)}
}

func (a *Araz) Extract(_ context.Context, doc []byte) ([]domain.RawListing, error) {
	if listings := a.fromStream(doc); len(listings) > 0 {
		a.env.Logger.Debug("extraction strategy matched", "source", a.name, "strategy", "stream", "count", len(listings))
		return dedupe(listings), nil
	}

	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("araz: parse html: %w", err)
	}

	listings := a.firstSuccess(
		strategy{name: "next_data", extract: func() []domain.RawListing { return a.fromNextData(parsed) }},
		strategy{name: "accordion", extract: func() []domain.RawListing { return a.fromAccordion(parsed) }},
	)
	return dedupe(listings), nil
}

// fromStream scans self.__next_f.push([index, payload]) calls for payloads
// carrying store objects.
func (a *Araz) fromStream(doc []byte) []domain.RawListing {
	var out []domain.RawListing
	for _, m := range arazPushPattern.FindAllSubmatch(doc, -1) {
		var chunk []json.RawMessage
		if err := json.Unmarshal(m[1], &chunk); err != nil || len(chunk) < 2 {
			continue
		}
		var payload string
		if err := json.Unmarshal(chunk[1], &payload); err != nil {
			continue
		}
		if !isStorePayload(payload) {
			continue
		}
		for _, s := range arazStorePattern.FindAllStringSubmatch(payload, -1) {
			out = append(out, domain.RawListing{
				SourceID:   s[1],
				Name:       unescapeBackslashes(s[2]),
				Address:    unescapeBackslashes(s[3]),
				Hours:      unescapeBackslashes(s[4]),
				Phone:      unescapeBackslashes(s[5]),
				CoordToken: coords.PairToken(s[6], s[7]),
				CoordKind:  domain.CoordPair,
			})
		}
	}
	return out
}

// isStorePayload reports whether payload contains every store marker key.
func isStorePayload(payload string) bool {
	for _, marker := range arazMarkers {
		if !strings.Contains(payload, marker) {
			return false
		}
	}
	return true
}

func unescapeBackslashes(s string) string {
	return strings.ReplaceAll(s, `\\`, `\`)
}

func (a *Araz) fromNextData(doc *goquery.Document) []domain.RawListing {
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return nil
	}

	var data struct {
		Props struct {
			PageProps map[string]json.RawMessage `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(script.Text()), &data); err != nil {
		a.env.Logger.Warn("decode __NEXT_DATA__ failed", "source", a.name, "error", err)
		return nil
	}

	var raw json.RawMessage
	for _, key := range arazPagePropsKeys {
		if v, ok := data.Props.PageProps[key]; ok {
			raw = v
			break
		}
	}
	if raw == nil {
		return nil
	}

	decoded, err := decodeJSON(raw)
	if err != nil {
		return nil
	}
	items, ok := decoded.([]any)
	if !ok {
		return nil
	}

	out := make([]domain.RawListing, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			a.skip(i, fmt.Errorf("store entry is %T, not an object", item))
			continue
		}
		l := domain.RawListing{
			Name:    arazNextFields.name.lookup(obj),
			Address: arazNextFields.address.lookup(obj),
			Phone:   arazNextFields.phone.lookup(obj),
			Hours:   arazNextFields.hours.lookup(obj),
		}
		if l.Name == "" {
			a.skip(i, errMissingName)
			continue
		}
		if tok := coords.PairToken(arazNextFields.lat.lookup(obj), arazNextFields.lng.lookup(obj)); tok != "" {
			l.CoordToken, l.CoordKind = tok, domain.CoordPair
		}
		out = append(out, l)
	}
	return out
}

func (a *Araz) fromAccordion(doc *goquery.Document) []domain.RawListing {
	containers := doc.Find(classPrefix("div", arazListClass))
	if containers.Length() == 0 {
		containers = doc.Find(classPrefix("div", arazItemClass))
	}

	var out []domain.RawListing
	containers.Each(func(i int, container *goquery.Selection) {
		item := container
		if !hasClassPrefix(container, arazItemClass) {
			item = container.Find(classPrefix("div", arazItemClass)).First()
		}
		if item.Length() == 0 {
			return
		}

		name := strings.TrimSpace(item.Find(classPrefix("div", arazTitleClass)).First().Find("span").First().Text())
		if name == "" {
			a.skip(i, errMissingName)
			return
		}
		content := item.Find(classPrefix("div", arazContentClass)).First()
		if content.Length() == 0 {
			a.skip(i, fmt.Errorf("store %q has no content block", name))
			return
		}

		l := domain.RawListing{
			Name:    name,
			Address: strings.TrimSpace(content.Find("p").First().Text()),
		}
		if options := content.Find(classPrefix("div", arazOptionClass)).First(); options.Length() > 0 {
			l.Phone = strings.TrimSpace(options.Find(`a[href^="tel:"]`).First().Text())
			l.Hours = strings.TrimSpace(options.Find("small").First().Text())
		}
		out = append(out, l)
	})
	return out
}

// classPrefix builds a selector for elements carrying a class that starts
// with prefix.
func classPrefix(tag, prefix string) string {
	return fmt.Sprintf(`%s[class^=%q], %s[class*=" %s"]`, tag, prefix, tag, prefix)
}

func hasClassPrefix(s *goquery.Selection, prefix string) bool {
	for _, c := range strings.Fields(s.AttrOr("class", "")) {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
