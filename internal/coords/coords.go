// Package coords turns coordinate tokens scraped from store listings into
// decimal WGS84 points.
//
// Normalization never fails loudly: a token that does not match its kind's
// pattern, or that yields a point outside the valid range, is reported as
// unresolved and the record keeps empty coordinate fields.
package coords

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/couchcryptid/store-locator-etl/internal/domain"
)

var (
	pairPattern  = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*(?:[,;]|\s)\s*(-?\d+(?:\.\d+)?)\s*$`)
	queryPattern = regexp.MustCompile(`(?:^|[?&#])(?:q|ll)=(-?\d+(?:\.\d+)?)(?:\s|\+|%20)*(?:,|%2C|%2c)(?:\s|\+|%20)*(-?\d+(?:\.\d+)?)`)
	tileLat      = regexp.MustCompile(`!3d(-?\d+(?:\.\d+)?)`)
	tileLng      = regexp.MustCompile(`!2d(-?\d+(?:\.\d+)?)`)
	dmsPattern   = regexp.MustCompile(`(\d{1,3})\s*°\s*(\d{1,2})\s*['′]\s*(\d{1,2}(?:\.\d+)?)\s*(?:"|″|'')\s*([NSEWnsew])`)
)

// probeOrder is the order in which map fields are tried.
var probeOrder = []domain.CoordKind{domain.CoordQuery, domain.CoordTile, domain.CoordDMS}

// Normalize parses token according to kind. The boolean is false when the
// token is unresolvable.
func Normalize(token string, kind domain.CoordKind) (domain.Coordinate, bool) {
	var (
		c  domain.Coordinate
		ok bool
	)
	switch kind {
	case domain.CoordPair:
		c, ok = parsePair(token)
	case domain.CoordQuery:
		c, ok = parseQuery(token)
	case domain.CoordTile:
		c, ok = parseTile(token)
	case domain.CoordDMS:
		c, ok = ParseDMS(token)
	}
	if !ok || !c.Valid() {
		return domain.Coordinate{}, false
	}
	return c, true
}

// Detect returns the first kind, in query, tile, DMS order, under which text
// normalizes, or CoordNone.
func Detect(text string) domain.CoordKind {
	for _, kind := range probeOrder {
		if _, ok := Normalize(text, kind); ok {
			return kind
		}
	}
	return domain.CoordNone
}

// DMSToDecimal converts degrees, minutes and seconds to decimal degrees.
// The sign is negative for the S and W hemispheres.
func DMSToDecimal(degrees, minutes, seconds float64, hemisphere string) float64 {
	v := degrees + minutes/60 + seconds/3600
	switch strings.ToUpper(hemisphere) {
	case "S", "W":
		return -v
	}
	return v
}

// ParseDMS reads a latitude and a longitude in degrees-minutes-seconds
// notation from text. URL-escaped text is unescaped first.
func ParseDMS(text string) (domain.Coordinate, bool) {
	if unescaped, err := url.QueryUnescape(text); err == nil {
		text = unescaped
	}

	var lat, lng *float64
	for _, m := range dmsPattern.FindAllStringSubmatch(text, -1) {
		d, err1 := strconv.ParseFloat(m[1], 64)
		mi, err2 := strconv.ParseFloat(m[2], 64)
		s, err3 := strconv.ParseFloat(m[3], 64)
		if err1 != nil || err2 != nil || err3 != nil || mi >= 60 || s >= 60 {
			return domain.Coordinate{}, false
		}
		v := DMSToDecimal(d, mi, s, m[4])
		switch strings.ToUpper(m[4]) {
		case "N", "S":
			if lat == nil {
				lat = &v
			}
		default:
			if lng == nil {
				lng = &v
			}
		}
	}
	if lat == nil || lng == nil {
		return domain.Coordinate{}, false
	}
	return domain.Coordinate{Latitude: *lat, Longitude: *lng}, true
}

func parsePair(token string) (domain.Coordinate, bool) {
	m := pairPattern.FindStringSubmatch(token)
	if m == nil {
		return domain.Coordinate{}, false
	}
	return parseLatLng(m[1], m[2])
}

// parseQuery matches q= or ll= in a URL. Embed snippets escape the
// separators as &amp;, so entities are decoded first.
func parseQuery(token string) (domain.Coordinate, bool) {
	m := queryPattern.FindStringSubmatch(html.UnescapeString(token))
	if m == nil {
		return domain.Coordinate{}, false
	}
	return parseLatLng(m[1], m[2])
}

func parseTile(token string) (domain.Coordinate, bool) {
	lat := tileLat.FindStringSubmatch(token)
	lng := tileLng.FindStringSubmatch(token)
	if lat == nil || lng == nil {
		return domain.Coordinate{}, false
	}
	return parseLatLng(lat[1], lng[1])
}

func parseLatLng(latText, lngText string) (domain.Coordinate, bool) {
	lat, err := strconv.ParseFloat(latText, 64)
	if err != nil {
		return domain.Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(lngText, 64)
	if err != nil {
		return domain.Coordinate{}, false
	}
	return domain.Coordinate{Latitude: lat, Longitude: lng}, true
}

// PairToken renders separate latitude and longitude strings as a CoordPair
// token. It returns "" when either side is blank.
func PairToken(lat, lng string) string {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" || lng == "" {
		return ""
	}
	return lat + "," + lng
}
