// Package probe decides whether a Pub/Sub backend is reachable and usably
// authorized. A probe is one pull of at most one message, classified into
// up, down or unknown; it never retries on its own.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mturbe/pubsubprobe/internal/pubsub"
)

// Status is the terminal classification of one probe.
type Status string

const (
	StatusUp      Status = "up"
	StatusDown    Status = "down"
	StatusUnknown Status = "unknown"
)

// Outcome is the result of a single Check call.
type Outcome struct {
	Status Status
	Cause  error
}

// Detail renders the cause for reporting; empty when there is none.
func (o Outcome) Detail() string {
	if o.Cause == nil {
		return ""
	}
	return o.Cause.Error()
}

// Config configures a Prober.
//
// Subscription is the subscription to pull from. When set, every probe
// consumes and permanently acknowledges one real message from it, so do not
// point it at a subscription carrying business traffic; whether an ack here
// can race a genuine consumer of the same subscription is an accepted risk.
// When empty, the prober targets a random subscription synthesized once at
// construction, expected not to exist: reaching the backend's routing layer
// (NotFound / PermissionDenied) then still proves connectivity.
type Config struct {
	Subscription string
	Timeout      time.Duration
}

// ConfigurationError is returned by Validate when the backend cannot be
// probed successfully at startup.
type ConfigurationError struct {
	Cause error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("probe: health check validation failed: %v", e.Cause)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// Prober performs the health probe. It holds no mutable state, so concurrent
// Check calls are independent.
type Prober struct {
	client       pubsub.Client
	subscription string
	specified    bool
	timeout      time.Duration
}

// New builds a Prober. cfg.Timeout must be positive. If cfg.Subscription is
// empty a random identifier is synthesized here, once; it stays fixed for the
// life of the Prober so repeated probes consistently target the same
// nonexistent subscription.
func New(client pubsub.Client, cfg Config) (*Prober, error) {
	if client == nil {
		return nil, errors.New("probe: client must not be nil")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("probe: timeout must be positive, got %v", cfg.Timeout)
	}
	sub := cfg.Subscription
	specified := sub != ""
	if !specified {
		sub = uuid.NewString()
	}
	return &Prober{
		client:       client,
		subscription: sub,
		specified:    specified,
		timeout:      cfg.Timeout,
	}, nil
}

// Subscription returns the probed subscription (configured or synthesized).
func (p *Prober) Subscription() string { return p.subscription }

// Check runs one probe: pull at most one message without waiting for new
// ones, ack whatever came back, classify the result. It always returns a
// classification, never an error.
func (p *Prober) Check(ctx context.Context) Outcome {
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msgs, err := p.client.Pull(cctx, p.subscription, 1, true)
	if err == nil {
		// A round trip succeeded; zero messages is just as healthy.
		for _, m := range msgs {
			_ = m.Ack(cctx)
		}
		return Outcome{Status: StatusUp}
	}

	switch {
	case ctx.Err() != nil:
		// The caller's own context ended. Its cancellation stays visible on
		// that context; we only report that the probe was inconclusive.
		return Outcome{Status: StatusUnknown, Cause: ctx.Err()}
	case cctx.Err() == context.DeadlineExceeded:
		// Our timeout, not the caller's: reachability undetermined.
		return Outcome{Status: StatusUnknown, Cause: fmt.Errorf("pull did not complete within %v: %w", p.timeout, err)}
	}

	if !p.specified {
		switch pubsub.CodeOf(err) {
		case pubsub.CodeNotFound, pubsub.CodePermissionDenied:
			// The synthesized subscription predictably fails; getting this
			// far proves the backend answered.
			return Outcome{Status: StatusUp}
		}
	}
	return Outcome{Status: StatusDown, Cause: err}
}

// Validate probes once and converts anything other than Up into a
// *ConfigurationError, so misconfiguration stops startup instead of
// reporting unhealthy forever at runtime.
func (p *Prober) Validate(ctx context.Context) error {
	out := p.Check(ctx)
	if out.Status == StatusUp {
		return nil
	}
	cause := out.Cause
	if cause == nil {
		cause = fmt.Errorf("probe reported %s", out.Status)
	}
	return &ConfigurationError{Cause: cause}
}
