package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/couchcryptid/store-locator-etl/internal/table"
)

// Sink writes the insights report for each run.
type Sink struct {
	dir    string
	logger *slog.Logger
}

// NewSink creates a report sink rooted at dir.
func NewSink(dir string, logger *slog.Logger) *Sink {
	return &Sink{dir: dir, logger: logger}
}

func (s *Sink) Name() string { return "report" }

func (s *Sink) Load(_ context.Context, run domain.Run, t table.Table) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("report: create %s: %w", s.dir, err)
	}
	rep := Analyze(t.Records)
	path := filepath.Join(s.dir, FileName)
	if err := os.WriteFile(path, Markdown(rep), 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	s.logger.Info("wrote insights report", "path", path, "stores", rep.Total, "cities", len(rep.Cities), "run_id", run.ID)
	return nil
}
