// Package csvfile persists store tables as RFC 4180 CSV.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/couchcryptid/store-locator-etl/internal/table"
)

// CombinedFile is the name of the labeled table written by Sink.
const CombinedFile = "combined.csv"

// Write renders the table with a header row. Fields containing delimiters,
// quotes or newlines are quoted.
func Write(w io.Writer, t table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("csvfile: write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows()); err != nil {
		return fmt.Errorf("csvfile: write rows: %w", err)
	}
	return nil
}

// Read parses a table written by Write. Latitude and longitude are restored
// only when both parse and lie in range.
func Read(r io.Reader) (table.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return table.Table{}, fmt.Errorf("csvfile: read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := table.Table{Columns: header}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return table.Table{}, fmt.Errorf("csvfile: line %d: %w", line, err)
		}
		t.Records = append(t.Records, recordFromRow(header, row))
	}
	return t, nil
}

// ReadFile reads a table from path.
func ReadFile(path string) (table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table.Table{}, fmt.Errorf("csvfile: open: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func recordFromRow(header, row []string) domain.StoreRecord {
	var rec domain.StoreRecord
	var lat, lng string
	for i, col := range header {
		if i >= len(row) {
			break
		}
		v := row[i]
		switch col {
		case domain.ColChain:
			rec.Chain = v
		case domain.ColName:
			rec.Name = v
		case domain.ColAddress:
			rec.Address = v
		case domain.ColPhone:
			rec.Phone = v
		case domain.ColHours:
			rec.Hours = v
		case domain.ColLatitude:
			lat = v
		case domain.ColLongitude:
			lng = v
		case domain.ColType:
			rec.StoreType = v
		case domain.ColCity:
			rec.City = v
		default:
			if v == "" {
				continue
			}
			if rec.Extras == nil {
				rec.Extras = map[string]string{}
			}
			rec.Extras[col] = v
		}
	}
	if c, ok := parseCoordinate(lat, lng); ok {
		rec.Coordinate = &c
	}
	return rec
}

func parseCoordinate(lat, lng string) (domain.Coordinate, bool) {
	la, err1 := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	lo, err2 := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err1 != nil || err2 != nil {
		return domain.Coordinate{}, false
	}
	c := domain.Coordinate{Latitude: la, Longitude: lo}
	return c, c.Valid()
}

// Sink writes the combined labeled table plus one file per chain into a directory.
// It implements pipeline.Loader.
type Sink struct {
	dir    string
	logger *slog.Logger
}

// NewSink creates a CSV sink rooted at dir.
func NewSink(dir string, logger *slog.Logger) *Sink {
	return &Sink{dir: dir, logger: logger}
}

func (s *Sink) Name() string { return "csv" }

// Load writes combined.csv and <chain>.csv. Per-chain files omit the chain
// and city columns.
func (s *Sink) Load(_ context.Context, run domain.Run, t table.Table) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("csvfile: create %s: %w", s.dir, err)
	}

	combined := filepath.Join(s.dir, CombinedFile)
	if err := writeFileAtomic(combined, t); err != nil {
		return err
	}

	for chain, records := range t.ByChain() {
		path := filepath.Join(s.dir, strings.ToLower(chain)+".csv")
		if err := writeFileAtomic(path, SourceTable(records)); err != nil {
			return err
		}
	}

	s.logger.Info("wrote store table", "path", combined, "count", len(t.Records), "run_id", run.ID)
	return nil
}

// SourceTable builds the per-source layout: the combined columns minus chain and city.
func SourceTable(records []domain.StoreRecord) table.Table {
	full := table.Build(records, false)
	cols := make([]string, 0, len(full.Columns))
	for _, c := range full.Columns {
		if c != domain.ColChain {
			cols = append(cols, c)
		}
	}
	return table.Table{Columns: cols, Records: records}
}

func writeFileAtomic(path string, t table.Table) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("csvfile: create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if err := Write(tmp, t); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csvfile: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("csvfile: rename to %s: %w", path, err)
	}
	return nil
}
