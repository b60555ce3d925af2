package domain

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Column names of the store table. PreferredColumns lists the fixed leading
// columns in output order.
const (
	ColChain     = "chain"
	ColName      = "name"
	ColAddress   = "address"
	ColPhone     = "phone"
	ColHours     = "hours"
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
	ColType      = "type"
	ColCity      = "city"
)

// PreferredColumns is the fixed column prefix of every store table.
var PreferredColumns = []string{ColChain, ColName, ColAddress, ColPhone, ColHours, ColLatitude, ColLongitude}

// CoordKind names the textual shape of a coordinate token.
type CoordKind int

const (
	CoordNone CoordKind = iota
	CoordPair
	CoordQuery
	CoordTile
	CoordDMS
)

func (k CoordKind) String() string {
	switch k {
	case CoordPair:
		return "pair"
	case CoordQuery:
		return "query"
	case CoordTile:
		return "tile"
	case CoordDMS:
		return "dms"
	default:
		return "none"
	}
}

// RawListing is a store as an adapter found it. Only Name is guaranteed
// non-empty. Coordinates stay in their raw token form until normalization.
// Every key in Extras declares a column, even when its value is empty. An
// empty ColType key declares the type column, whose value is Type.
type RawListing struct {
	SourceID   string
	Name       string
	Address    string
	Phone      string
	Hours      string
	Type       string
	CoordToken string
	CoordKind  CoordKind
	Extras     map[string]string
}

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the point lies in the WGS84 range.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// StoreRecord is a normalized, chain-tagged row of the store table.
type StoreRecord struct {
	Chain      string            `json:"chain"`
	Name       string            `json:"name"`
	Address    string            `json:"address"`
	Phone      string            `json:"phone"`
	Hours      string            `json:"hours"`
	Coordinate *Coordinate       `json:"coordinate,omitempty"`
	StoreType  string            `json:"type,omitempty"`
	Extras     map[string]string `json:"extras,omitempty"`
	City       string            `json:"city,omitempty"`
}

// ID returns a deterministic identifier derived from chain, name and address.
func (r StoreRecord) ID() string {
	key := strings.Join([]string{r.Chain, r.Name, r.Address}, "|")
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s-%x", strings.ToLower(r.Chain), h[:8])
}

// HasCoordinate reports whether the record carries a usable point.
func (r StoreRecord) HasCoordinate() bool {
	return r.Coordinate != nil && r.Coordinate.Valid()
}

// Field renders one column of the record as text. Missing values render
// as the empty string.
func (r StoreRecord) Field(column string) string {
	switch column {
	case ColChain:
		return r.Chain
	case ColName:
		return r.Name
	case ColAddress:
		return r.Address
	case ColPhone:
		return r.Phone
	case ColHours:
		return r.Hours
	case ColLatitude:
		if r.Coordinate == nil {
			return ""
		}
		return FormatDegrees(r.Coordinate.Latitude)
	case ColLongitude:
		if r.Coordinate == nil {
			return ""
		}
		return FormatDegrees(r.Coordinate.Longitude)
	case ColType:
		return r.StoreType
	case ColCity:
		return r.City
	default:
		return r.Extras[column]
	}
}

// ExtraColumns returns the non-preferred columns this record populates,
// in no particular order.
func (r StoreRecord) ExtraColumns() []string {
	cols := make([]string, 0, len(r.Extras)+1)
	if _, declared := r.Extras[ColType]; declared || r.StoreType != "" {
		cols = append(cols, ColType)
	}
	for k := range r.Extras {
		if k == ColType || k == ColCity || isPreferred(k) {
			continue
		}
		cols = append(cols, k)
	}
	return cols
}

// ExtraValues returns the source-specific values keyed by column. Column
// declarations without a value of their own, such as type, are left out.
// Nil when there are none.
func (r StoreRecord) ExtraValues() map[string]string {
	var out map[string]string
	for k, v := range r.Extras {
		if k == ColType || k == ColCity || isPreferred(k) {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(r.Extras))
		}
		out[k] = v
	}
	return out
}

// FormatDegrees renders a decimal degree value with the precision it came
// with, without exponent notation.
func FormatDegrees(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.7f", v), "0"), ".")
}

func isPreferred(col string) bool {
	for _, p := range PreferredColumns {
		if p == col {
			return true
		}
	}
	return false
}

// CityCenter is a named reference point for proximity classification.
type CityCenter struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Coordinate returns the center as a Coordinate.
func (c CityCenter) Coordinate() Coordinate {
	return Coordinate{Latitude: c.Latitude, Longitude: c.Longitude}
}

// Run identifies one pipeline execution.
type Run struct {
	ID        string
	StartedAt time.Time
}

// NewRun stamps a new run with a random ID and the current clock time.
func NewRun() Run {
	return Run{ID: uuid.NewString(), StartedAt: Now()}
}
