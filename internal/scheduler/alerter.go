package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/mturbe/pubsubprobe/internal/domain"
	"github.com/mturbe/pubsubprobe/internal/notify"
	"github.com/mturbe/pubsubprobe/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Alerter watches the latest stored probe outcome and notifies on state
// transitions. Down alerts are rate-limited by Cooldown; unknown outcomes are
// inconclusive and never alerted on, but they don't clear a standing down.
type Alerter struct {
	results  repo.ResultStore
	alertDB  repo.AlertStore
	notifier notify.Notifier
	cfg      AlerterConfig
}

func NewAlerter(results repo.ResultStore, alertDB repo.AlertStore, notifier notify.Notifier, cfg AlerterConfig) *Alerter {
	return &Alerter{
		results:  results,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	_ = a.scanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			_ = a.scanOnce(ctx)
		}
	}
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	latest, err := a.results.Latest(ctx)
	if err != nil {
		return err
	}
	if latest == nil || latest.Status == domain.StatusUnknown {
		// nothing recorded yet, or inconclusive: hold the previous state
		return nil
	}

	now := time.Now()
	rec, _ := a.alertDB.Get(ctx)

	// Has the up/down state changed compared to what we last recorded?
	stateChanged := rec == nil || rec.LastStatus != latest.Status

	// Cooldown only matters for DOWN alerts (suppresses noisy repeats).
	cooled := true
	if rec != nil && rec.LastSentAt != nil {
		cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
	}

	down := latest.Status == domain.StatusDown
	downAlert := stateChanged && down && cooled
	recoveryAlert := stateChanged && !down && a.cfg.AlertOnRecovery // bypass cooldown

	if downAlert || recoveryAlert {
		title := "🔴 Pub/Sub backend DOWN"
		if !down {
			title = "🟢 Pub/Sub backend RECOVERED"
		}

		detail := latest.Detail
		if detail == "" {
			detail = "n/a"
		}
		text := fmt.Sprintf(
			"Status: %s\nDetail: %s\nLatency: %.0f ms\nChecked: %s",
			latest.Status, detail, latest.LatencyMS, latest.CheckedAt.Format(time.RFC3339),
		)

		// Best-effort send and record the send time
		_ = a.notifier.Send(ctx, title, text)
		_ = a.alertDB.Set(ctx, latest.Status, now)
		return nil
	}

	// If state changed but we did not send (e.g., DOWN within cooldown or
	// recovery alerts disabled), still record the new state without a send time.
	if stateChanged {
		_ = a.alertDB.Set(ctx, latest.Status, time.Time{})
	}
	return nil
}
