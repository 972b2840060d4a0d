// Package scheduler drives unattended quote-image generation at a fixed
// interval, for deployments that want a fresh daily image without an
// inbound request.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"quotecanvas/internal/pipeline"
)

// Runner executes one generation request.
type Runner interface {
	Run(ctx context.Context, seed string) (*pipeline.Result, error)
}

// Scheduler triggers the pipeline on a ticker.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	seed     string
}

// Config holds scheduler configuration.
type Config struct {
	Runner   Runner
	Interval time.Duration
	Seed     string // optional seed applied to every scheduled run
}

// New creates a new scheduler.
func New(cfg Config) *Scheduler {
	return &Scheduler{
		runner:   cfg.Runner,
		interval: cfg.Interval,
		seed:     cfg.Seed,
	}
}

// Run starts the generation loop and blocks until ctx is cancelled. A
// non-positive interval returns immediately; a failed cycle is logged and
// the loop continues.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		slog.Info("interval generation disabled")
		return nil
	}

	slog.Info("starting generation scheduler", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle attempts one generation.
func (s *Scheduler) runCycle(ctx context.Context) {
	slog.Debug("running generation cycle")

	result, err := s.runner.Run(ctx, s.seed)
	if err != nil {
		slog.Error("generation cycle failed", "error", err)
		return
	}

	slog.Info("generation cycle complete", "id", result.Quote.ID, "text", result.Quote.Text)
}
