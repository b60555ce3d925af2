// Package table merges per-source listings into the combined store table.
package table

import (
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/couchcryptid/store-locator-etl/internal/coords"
	"github.com/couchcryptid/store-locator-etl/internal/domain"
)

// Table is the combined store table. Columns is the header row.
type Table struct {
	Columns []string
	Records []domain.StoreRecord
}

// ChainLabel returns the chain identifier for a source name.
func ChainLabel(source string) string {
	return strings.ToUpper(source)
}

// Merge tags each listing with chain and normalizes its coordinate token.
// Unresolvable tokens leave the coordinate empty.
func Merge(chain string, listings []domain.RawListing) []domain.StoreRecord {
	out := make([]domain.StoreRecord, 0, len(listings))
	for _, l := range listings {
		rec := domain.StoreRecord{
			Chain:     chain,
			Name:      l.Name,
			Address:   l.Address,
			Phone:     l.Phone,
			Hours:     l.Hours,
			StoreType: l.Type,
		}
		if l.CoordToken != "" {
			if c, ok := coords.Normalize(l.CoordToken, l.CoordKind); ok {
				rec.Coordinate = &c
			}
		}
		if len(l.Extras) > 0 {
			rec.Extras = maps.Clone(l.Extras)
		}
		out = append(out, rec)
	}
	return out
}

// Build assembles records from any number of sources into one table. The
// header is the preferred columns followed by the sorted union of extra
// columns. When labeled is true a trailing city column is added.
func Build(records []domain.StoreRecord, labeled bool) Table {
	extras := map[string]bool{}
	for _, r := range records {
		for _, c := range r.ExtraColumns() {
			extras[c] = true
		}
	}
	extraCols := slices.Collect(maps.Keys(extras))
	sort.Strings(extraCols)

	cols := make([]string, 0, len(domain.PreferredColumns)+len(extraCols)+1)
	cols = append(cols, domain.PreferredColumns...)
	cols = append(cols, extraCols...)
	if labeled {
		cols = append(cols, domain.ColCity)
	}
	return Table{Columns: cols, Records: records}
}

// Rows renders every record as a row aligned with Columns. Absent fields are
// empty strings.
func (t Table) Rows() [][]string {
	rows := make([][]string, len(t.Records))
	for i, r := range t.Records {
		rows[i] = Row(t.Columns, r)
	}
	return rows
}

// Row renders one record against a header.
func Row(columns []string, r domain.StoreRecord) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = r.Field(c)
	}
	return row
}

// ByChain groups records by chain label.
func (t Table) ByChain() map[string][]domain.StoreRecord {
	out := make(map[string][]domain.StoreRecord)
	for _, r := range t.Records {
		out[r.Chain] = append(out[r.Chain], r)
	}
	return out
}
