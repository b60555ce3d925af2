// Package pipeline runs the scrape: fetch each source document, extract and
// merge its listings, label every record with a city and hand the combined
// table to the configured loaders.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/couchcryptid/store-locator-etl/internal/fetch"
	"github.com/couchcryptid/store-locator-etl/internal/observability"
	"github.com/couchcryptid/store-locator-etl/internal/source"
	"github.com/couchcryptid/store-locator-etl/internal/table"
)

// Loader writes the labeled table of one run to a destination.
type Loader interface {
	Name() string
	Load(ctx context.Context, run domain.Run, t table.Table) error
}

// Source pairs an adapter with the document location it reads.
type Source struct {
	Adapter source.Adapter
	URL     string
}

// Status classifies how one source fared in a run.
type Status string

const (
	StatusOK Status = "ok"
	// StatusEmpty means the document was read but no strategy found listings.
	StatusEmpty Status = "empty"
	// StatusUnavailable means the document could not be fetched.
	StatusUnavailable Status = "unavailable"
	// StatusFormatMismatch means the document could not be decoded at all.
	StatusFormatMismatch Status = "format_mismatch"
)

// SourceResult is the per-source outcome of a run.
type SourceResult struct {
	Source   string        `json:"source"`
	Chain    string        `json:"chain"`
	URL      string        `json:"url"`
	Status   Status        `json:"status"`
	Listings int           `json:"listings"`
	Located  int           `json:"located"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Summary describes a completed run.
type Summary struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	Duration   time.Duration     `json:"duration_ns"`
	Sources    []SourceResult    `json:"sources"`
	Records    int               `json:"records"`
	LoadErrors map[string]string `json:"load_errors,omitempty"`
	Run        domain.Run        `json:"-"`
	Table      table.Table       `json:"-"`
}

// Pipeline runs scrapes over a fixed set of sources. Runs never overlap.
type Pipeline struct {
	sources []Source
	fetcher fetch.Fetcher
	labeler *Labeler
	loaders []Loader
	logger  *slog.Logger
	metrics *observability.Metrics

	mu    sync.Mutex
	ready atomic.Bool
	last  atomic.Pointer[Summary]
}

// New creates a Pipeline. loaders may be empty.
func New(sources []Source, f fetch.Fetcher, labeler *Labeler, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		sources: sources,
		fetcher: f,
		labeler: labeler,
		loaders: loaders,
		logger:  logger,
		metrics: metrics,
	}
}

// ErrRunInProgress is returned by RunOnce when another run holds the pipeline.
var ErrRunInProgress = errors.New("pipeline: run already in progress")

// CheckReadiness returns nil once at least one run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastRun returns the summary of the most recent completed run.
func (p *Pipeline) LastRun() (Summary, bool) {
	s := p.last.Load()
	if s == nil {
		return Summary{}, false
	}
	return *s, true
}

// RunOnce processes every source in order and loads the combined table.
// Source and loader failures are recorded in the summary; the only errors
// returned are cancellation and an overlapping run.
func (p *Pipeline) RunOnce(ctx context.Context) (Summary, error) {
	if !p.mu.TryLock() {
		return Summary{}, ErrRunInProgress
	}
	defer p.mu.Unlock()

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	run := domain.NewRun()
	start := time.Now()
	p.logger.Info("run started", "run_id", run.ID, "sources", len(p.sources))

	summary := Summary{RunID: run.ID, StartedAt: run.StartedAt, Run: run}
	var records []domain.StoreRecord
	for _, src := range p.sources {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		recs, res := p.processSource(ctx, src)
		summary.Sources = append(summary.Sources, res)
		records = append(records, recs...)
	}

	for i := range records {
		records[i] = p.labeler.Label(ctx, records[i])
	}
	summary.Table = table.Build(records, true)
	summary.Records = len(records)

	summary.LoadErrors = p.load(ctx, run, summary.Table)
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	summary.Duration = time.Since(start)
	p.metrics.RunDuration.Observe(summary.Duration.Seconds())
	p.metrics.LastRunTimestamp.SetToCurrentTime()
	p.last.Store(&summary)
	p.ready.Store(true)

	p.logger.Info("run finished",
		"run_id", run.ID,
		"count", summary.Records,
		"load_errors", len(summary.LoadErrors),
		"duration", summary.Duration,
	)
	return summary, nil
}

// processSource fetches and extracts one source. It never fails the run.
func (p *Pipeline) processSource(ctx context.Context, src Source) (records []domain.StoreRecord, res SourceResult) {
	name := src.Adapter.Name()
	res = SourceResult{Source: name, Chain: table.ChainLabel(name), URL: src.URL}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	doc, err := p.fetcher.Fetch(ctx, src.URL)
	p.metrics.FetchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.FetchTotal.WithLabelValues(name, "error").Inc()
		p.logger.Error("source unavailable", "source", name, "url", src.URL, "error", err)
		res.Status, res.Error = StatusUnavailable, err.Error()
		return nil, res
	}
	p.metrics.FetchTotal.WithLabelValues(name, "ok").Inc()

	listings, err := src.Adapter.Extract(ctx, doc)
	if err != nil {
		p.logger.Error("source document unreadable", "source", name, "url", src.URL, "error", err)
		res.Status, res.Error = StatusFormatMismatch, err.Error()
		return nil, res
	}
	if len(listings) == 0 {
		p.logger.Warn("no listings extracted", "source", name, "url", src.URL)
		res.Status = StatusEmpty
		return nil, res
	}

	records = table.Merge(res.Chain, listings)
	for i, l := range listings {
		outcome := "absent"
		switch {
		case records[i].Coordinate != nil:
			outcome = "resolved"
			res.Located++
		case l.CoordToken != "":
			outcome = "unresolved"
		}
		p.metrics.Coordinates.WithLabelValues(name, outcome).Inc()
	}
	p.metrics.ListingsExtracted.WithLabelValues(name).Add(float64(len(listings)))

	res.Status, res.Listings = StatusOK, len(listings)
	p.logger.Info("source extracted", "source", name, "count", len(listings), "located", res.Located)
	return records, res
}

// load hands the table to every loader. A failing loader does not stop the others.
func (p *Pipeline) load(ctx context.Context, run domain.Run, t table.Table) map[string]string {
	var failed map[string]string
	for _, l := range p.loaders {
		if err := l.Load(ctx, run, t); err != nil {
			p.metrics.LoadErrors.WithLabelValues(l.Name()).Inc()
			p.logger.Error("load failed", "loader", l.Name(), "run_id", run.ID, "error", err)
			if failed == nil {
				failed = make(map[string]string)
			}
			failed[l.Name()] = err.Error()
		}
	}
	return failed
}
