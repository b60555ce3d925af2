// Package xlsx exports store tables as Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/tealeg/xlsx/v2"

	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/couchcryptid/store-locator-etl/internal/table"
)

// WorkbookFile is the name of the workbook written by Sink.
const WorkbookFile = "stores.xlsx"

const combinedSheet = "All stores"

// Build returns a workbook with the combined table on the first sheet and
// one sheet per chain. Coordinates are numeric cells.
func Build(t table.Table) (*xlsx.File, error) {
	f := xlsx.NewFile()
	if err := addSheet(f, combinedSheet, t); err != nil {
		return nil, err
	}

	byChain := t.ByChain()
	chains := make([]string, 0, len(byChain))
	for c := range byChain {
		chains = append(chains, c)
	}
	sort.Strings(chains)
	for _, c := range chains {
		if err := addSheet(f, c, table.Table{Columns: t.Columns, Records: byChain[c]}); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func addSheet(f *xlsx.File, name string, t table.Table) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return fmt.Errorf("xlsx: add sheet %q: %w", name, err)
	}
	header := sheet.AddRow()
	for _, col := range t.Columns {
		cell := header.AddCell()
		cell.SetString(col)
		cell.GetStyle().Font.Bold = true
	}
	for _, r := range t.Records {
		row := sheet.AddRow()
		for _, col := range t.Columns {
			cell := row.AddCell()
			switch {
			case col == domain.ColLatitude && r.Coordinate != nil:
				cell.SetFloat(r.Coordinate.Latitude)
			case col == domain.ColLongitude && r.Coordinate != nil:
				cell.SetFloat(r.Coordinate.Longitude)
			default:
				cell.SetString(r.Field(col))
			}
		}
	}
	return nil
}

// Sink writes stores.xlsx into a directory. It implements pipeline.Loader.
type Sink struct {
	dir    string
	logger *slog.Logger
}

// NewSink creates an Excel sink rooted at dir.
func NewSink(dir string, logger *slog.Logger) *Sink {
	return &Sink{dir: dir, logger: logger}
}

func (s *Sink) Name() string { return "xlsx" }

func (s *Sink) Load(_ context.Context, run domain.Run, t table.Table) error {
	f, err := Build(t)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("xlsx: create %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, WorkbookFile)
	if err := f.Save(path); err != nil {
		return fmt.Errorf("xlsx: save %s: %w", path, err)
	}
	s.logger.Info("wrote workbook", "path", path, "sheets", len(f.Sheets), "run_id", run.ID)
	return nil
}
