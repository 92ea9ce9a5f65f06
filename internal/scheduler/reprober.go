package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mturbe/pubsubprobe/internal/domain"
	"github.com/mturbe/pubsubprobe/internal/probe"
	"github.com/mturbe/pubsubprobe/internal/repo"
)

// HealthProber is what the loop runs each tick; satisfied by *probe.Prober.
type HealthProber interface {
	Check(ctx context.Context) probe.Outcome
}

// Reprober owns the re-poll policy the prober itself deliberately does not
// have: it runs one probe per tick and records the outcome.
type Reprober struct {
	Logger   *zap.Logger
	Results  repo.ResultStore
	Prober   HealthProber
	Interval time.Duration
}

func NewReprober(logger *zap.Logger, rs repo.ResultStore, p HealthProber, interval time.Duration) *Reprober {
	if interval < 0 {
		interval = 0
	}
	return &Reprober{
		Logger:   logger,
		Results:  rs,
		Prober:   p,
		Interval: interval,
	}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (r *Reprober) Run(ctx context.Context) {
	if r.Interval == 0 {
		// disabled
		r.Logger.Info("reprober_disabled")
		return
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	// immediate pass
	r.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("reprober_stopped")
			return
		case <-t.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Reprober) runOnce(ctx context.Context) {
	start := time.Now()
	out := r.Prober.Check(ctx)
	latency := time.Since(start).Seconds() * 1000

	rec := &domain.ProbeRecord{
		Status:    domain.Status(out.Status),
		Detail:    out.Detail(),
		LatencyMS: latency,
		CheckedAt: time.Now().UTC(),
	}
	if err := r.Results.Append(ctx, rec); err != nil {
		r.Logger.Warn("reprober_append_error", zap.Error(err))
		return
	}
	r.Logger.Debug("reprober_checked",
		zap.String("status", string(rec.Status)),
		zap.String("detail", rec.Detail),
		zap.Float64("latency_ms", rec.LatencyMS),
	)
}
