package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron"
)

// RunScheduled runs the pipeline on a cron spec (seconds field first, or a
// descriptor such as "@every 6h") until ctx is cancelled. A tick that fires
// while a run is still going is skipped.
func (p *Pipeline) RunScheduled(ctx context.Context, spec string) error {
	c := cron.New()
	c.ErrorLog = slog.NewLogLogger(p.logger.Handler(), slog.LevelError)

	err := c.AddFunc(spec, func() {
		if _, err := p.RunOnce(ctx); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				p.logger.Warn("scheduled run skipped", "reason", err)
				return
			}
			p.logger.Info("scheduled run interrupted", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("pipeline: invalid schedule %q: %w", spec, err)
	}

	p.logger.Info("scheduler started", "schedule", spec)
	c.Start()
	<-ctx.Done()
	c.Stop()
	// Wait for an in-flight run to observe cancellation.
	p.mu.Lock()
	p.mu.Unlock() //nolint:staticcheck // empty critical section
	p.logger.Info("scheduler stopped", "reason", ctx.Err())
	return nil
}
