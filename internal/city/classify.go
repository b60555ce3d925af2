// Package city assigns a locality label to store records from their address
// text, falling back to the nearest reference center.
package city

import (
	"math"
	"regexp"
	"strings"

	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Method names the rule that produced a label.
type Method string

const (
	MethodMajorCity  Method = "major_city"
	MethodDistrict   Method = "district"
	MethodSettlement Method = "settlement"
	MethodKeyword    Method = "keyword"
	MethodNearest    Method = "nearest"
	MethodCapitalBox Method = "capital_box"
	MethodRegional   Method = "regional"
	MethodUnknown    Method = "unknown"
)

var (
	districtPattern   = regexp.MustCompile(`(?i)([\p{L}\p{N}_]+)\s+ray`)
	settlementPattern = regexp.MustCompile(`(?i)([\p{L}\p{N}_]+)\s+(?:şəh|qəs)`)
)

// majorCityKeys holds MajorCities lower-cased, index-aligned.
var majorCityKeys = lowerAll(MajorCities)

func lowerAll(names []string) []string {
	lower := cases.Lower(language.Azerbaijani)
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = lower.String(name)
	}
	return keys
}

// Result is a label together with the rule that chose it.
type Result struct {
	City   string
	Method Method
}

// Classify returns the locality label for an address and optional coordinate.
func Classify(address string, coord *domain.Coordinate) string {
	return ClassifyDetailed(address, coord).City
}

// ClassifyDetailed is Classify reporting which rule matched. Rules are tried
// in order: major city substring, district suffix, settlement suffix, capital
// keywords, nearest center.
func ClassifyDetailed(address string, coord *domain.Coordinate) Result {
	if coord != nil && !coord.Valid() {
		coord = nil
	}

	if strings.TrimSpace(address) == "" {
		if coord == nil {
			return Result{City: Unknown, Method: MethodUnknown}
		}
		return Locate(*coord)
	}

	lower := cases.Lower(language.Azerbaijani).String(address)
	for i, key := range majorCityKeys {
		if strings.Contains(lower, key) {
			return Result{City: MajorCities[i], Method: MethodMajorCity}
		}
	}

	if m := districtPattern.FindStringSubmatch(address); m != nil {
		district := capitalize(m[1])
		if capitalDistricts[district] {
			return Result{City: Capital, Method: MethodDistrict}
		}
		return Result{City: district, Method: MethodDistrict}
	}

	if m := settlementPattern.FindStringSubmatch(address); m != nil {
		name := capitalize(m[1])
		if !settlementStopwords[name] {
			return Result{City: name, Method: MethodSettlement}
		}
	}

	for _, kw := range capitalKeywords {
		if strings.Contains(lower, kw) {
			return Result{City: Capital, Method: MethodKeyword}
		}
	}

	if coord != nil {
		return Locate(*coord)
	}
	return Result{City: Regional, Method: MethodRegional}
}

// NearestCenter returns the reference center closest to c and its distance
// in degrees. Distance is planar in degree space, which distorts little at
// these latitudes. Ties go to the center listed first.
func NearestCenter(c domain.Coordinate) (domain.CityCenter, float64) {
	best := Centers[0]
	bestDist := math.Inf(1)
	for _, center := range Centers {
		d := math.Hypot(c.Latitude-center.Latitude, c.Longitude-center.Longitude)
		if d < bestDist {
			best, bestDist = center, d
		}
	}
	return best, bestDist
}

// Locate labels a coordinate by its nearest center. Points farther than
// MaxCenterDistance from every center are labeled the capital when inside
// the greater Baku box and Regional otherwise.
func Locate(c domain.Coordinate) Result {
	center, dist := NearestCenter(c)
	if dist <= MaxCenterDistance {
		return Result{City: center.Name, Method: MethodNearest}
	}
	if c.Latitude > capitalBox.minLat && c.Latitude < capitalBox.maxLat &&
		c.Longitude > capitalBox.minLon && c.Longitude < capitalBox.maxLon {
		return Result{City: Capital, Method: MethodCapitalBox}
	}
	return Result{City: Regional, Method: MethodRegional}
}

func capitalize(word string) string {
	return cases.Title(language.Azerbaijani).String(word)
}
