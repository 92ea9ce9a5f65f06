package probe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mturbe/pubsubprobe/internal/pubsub"
)

// fake client you can control
type pullCall struct {
	subscription      string
	maxMessages       int
	returnImmediately bool
}

type fakeMessage struct {
	mu   sync.Mutex
	acks int
}

func (m *fakeMessage) Ack(ctx context.Context) error {
	m.mu.Lock()
	m.acks++
	m.mu.Unlock()
	return nil
}

func (m *fakeMessage) Data() []byte                  { return []byte("probe") }
func (m *fakeMessage) Attributes() map[string]string { return nil }

func (m *fakeMessage) ackCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acks
}

type fakeClient struct {
	mu    sync.Mutex
	err   error
	msgs  []pubsub.Message
	delay time.Duration
	calls []pullCall
}

func (f *fakeClient) Pull(ctx context.Context, subscription string, maxMessages int, returnImmediately bool) ([]pubsub.Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pullCall{subscription, maxMessages, returnImmediately})
	err, msgs, delay := f.err, f.msgs, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (f *fakeClient) pulls() []pullCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]pullCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func notFoundErr() error {
	return &pubsub.Error{Code: pubsub.CodeNotFound, Op: "pull", Err: errors.New("subscription does not exist")}
}

func permissionDeniedErr() error {
	return &pubsub.Error{Code: pubsub.CodePermissionDenied, Op: "pull", Err: errors.New("caller lacks pubsub.subscriptions.consume")}
}

func transportErr() error {
	return &pubsub.Error{Code: pubsub.CodeTransport, Op: "pull", Err: errors.New("connection refused")}
}

func mustNew(t *testing.T, client pubsub.Client, cfg Config) *Prober {
	t.Helper()
	p, err := New(client, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestCheck_UnspecifiedSubscription_Classification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Status
	}{
		{"not_found_is_up", notFoundErr(), StatusUp},
		{"permission_denied_is_up", permissionDeniedErr(), StatusUp},
		{"transport_error_is_down", transportErr(), StatusDown},
		{"untagged_error_is_down", errors.New("boom"), StatusDown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := &fakeClient{err: c.err}
			p := mustNew(t, f, Config{Timeout: time.Second})

			out := p.Check(context.Background())
			if out.Status != c.want {
				t.Fatalf("want %s got %s (cause=%v)", c.want, out.Status, out.Cause)
			}
			if c.want == StatusDown && out.Cause == nil {
				t.Fatal("down outcome should carry its cause")
			}
		})
	}
}

func TestCheck_SpecifiedSubscription_AnyErrorIsDown(t *testing.T) {
	// With an operator-configured subscription the target is expected to
	// exist, so the NotFound/PermissionDenied reclassification must not apply.
	cases := []struct {
		name string
		err  error
	}{
		{"not_found", notFoundErr()},
		{"permission_denied", permissionDeniedErr()},
		{"transport", transportErr()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := &fakeClient{err: c.err}
			p := mustNew(t, f, Config{Subscription: "orders-health", Timeout: time.Second})

			out := p.Check(context.Background())
			if out.Status != StatusDown {
				t.Fatalf("want down got %s", out.Status)
			}
			if !errors.Is(out.Cause, c.err) {
				t.Fatalf("cause lost: %v", out.Cause)
			}
		})
	}
}

func TestCheck_EmptyPullIsUp(t *testing.T) {
	for _, sub := range []string{"", "orders-health"} {
		f := &fakeClient{}
		p := mustNew(t, f, Config{Subscription: sub, Timeout: time.Second})

		out := p.Check(context.Background())
		if out.Status != StatusUp {
			t.Fatalf("subscription=%q: want up got %s (cause=%v)", sub, out.Status, out.Cause)
		}
		if out.Cause != nil {
			t.Fatalf("up outcome should carry no cause, got %v", out.Cause)
		}
	}
}

func TestCheck_MessagesAcknowledgedExactlyOnce(t *testing.T) {
	m1, m2 := &fakeMessage{}, &fakeMessage{}
	f := &fakeClient{msgs: []pubsub.Message{m1, m2}}
	p := mustNew(t, f, Config{Subscription: "orders-health", Timeout: time.Second})

	out := p.Check(context.Background())
	if out.Status != StatusUp {
		t.Fatalf("want up got %s", out.Status)
	}
	if m1.ackCount() != 1 || m2.ackCount() != 1 {
		t.Fatalf("want each acked once, got %d and %d", m1.ackCount(), m2.ackCount())
	}
}

func TestCheck_PullRequestShape(t *testing.T) {
	f := &fakeClient{}
	p := mustNew(t, f, Config{Subscription: "orders-health", Timeout: time.Second})
	_ = p.Check(context.Background())

	calls := f.pulls()
	if len(calls) != 1 {
		t.Fatalf("want 1 pull, got %d", len(calls))
	}
	c := calls[0]
	if c.subscription != "orders-health" || c.maxMessages != 1 || !c.returnImmediately {
		t.Fatalf("unexpected pull: %+v", c)
	}
}

func TestCheck_TimeoutIsUnknown(t *testing.T) {
	f := &fakeClient{delay: 500 * time.Millisecond}
	p := mustNew(t, f, Config{Timeout: 50 * time.Millisecond})

	out := p.Check(context.Background())
	if out.Status != StatusUnknown {
		t.Fatalf("want unknown got %s", out.Status)
	}
	if out.Cause == nil {
		t.Fatal("timeout outcome should carry its cause")
	}
	if !errors.Is(out.Cause, context.DeadlineExceeded) {
		t.Fatalf("want deadline cause, got %v", out.Cause)
	}
}

func TestCheck_CancellationIsUnknownAndObservable(t *testing.T) {
	f := &fakeClient{delay: time.Minute}
	p := mustNew(t, f, Config{Timeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	out := p.Check(ctx)
	if out.Status != StatusUnknown {
		t.Fatalf("want unknown got %s", out.Status)
	}
	if !errors.Is(out.Cause, context.Canceled) {
		t.Fatalf("want context.Canceled cause, got %v", out.Cause)
	}
	// The signal must stay observable on the caller's context, not be
	// swallowed by the prober.
	if ctx.Err() == nil {
		t.Fatal("caller context no longer reports cancellation")
	}
	// A single attempt only; no internal retry after cancellation.
	if n := len(f.pulls()); n != 1 {
		t.Fatalf("want 1 pull, got %d", n)
	}
}

func TestNew_SynthesizedSubscriptionIsStable(t *testing.T) {
	f := &fakeClient{err: notFoundErr()}
	p := mustNew(t, f, Config{Timeout: time.Second})

	_ = p.Check(context.Background())
	_ = p.Check(context.Background())

	calls := f.pulls()
	if len(calls) != 2 {
		t.Fatalf("want 2 pulls, got %d", len(calls))
	}
	if calls[0].subscription == "" {
		t.Fatal("no subscription synthesized")
	}
	if calls[0].subscription != calls[1].subscription {
		t.Fatalf("synthesized subscription changed between calls: %q vs %q",
			calls[0].subscription, calls[1].subscription)
	}

	other := mustNew(t, &fakeClient{}, Config{Timeout: time.Second})
	if other.Subscription() == p.Subscription() {
		t.Fatal("two probers should not share a synthesized subscription")
	}
}

func TestNew_Rejects(t *testing.T) {
	if _, err := New(nil, Config{Timeout: time.Second}); err == nil {
		t.Fatal("want error for nil client")
	}
	if _, err := New(&fakeClient{}, Config{}); err == nil {
		t.Fatal("want error for zero timeout")
	}
	if _, err := New(&fakeClient{}, Config{Timeout: -time.Second}); err == nil {
		t.Fatal("want error for negative timeout")
	}
}

func TestValidate(t *testing.T) {
	t.Run("up_passes", func(t *testing.T) {
		p := mustNew(t, &fakeClient{}, Config{Timeout: time.Second})
		if err := p.Validate(context.Background()); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	})

	t.Run("reclassified_up_passes", func(t *testing.T) {
		p := mustNew(t, &fakeClient{err: notFoundErr()}, Config{Timeout: time.Second})
		if err := p.Validate(context.Background()); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	})

	t.Run("down_fails", func(t *testing.T) {
		cause := transportErr()
		p := mustNew(t, &fakeClient{err: cause}, Config{Timeout: time.Second})
		err := p.Validate(context.Background())
		var ce *ConfigurationError
		if !errors.As(err, &ce) {
			t.Fatalf("want *ConfigurationError, got %v", err)
		}
		if !errors.Is(err, cause) {
			t.Fatalf("cause lost: %v", err)
		}
	})

	t.Run("timeout_fails", func(t *testing.T) {
		p := mustNew(t, &fakeClient{delay: 500 * time.Millisecond}, Config{Timeout: 50 * time.Millisecond})
		var ce *ConfigurationError
		if err := p.Validate(context.Background()); !errors.As(err, &ce) {
			t.Fatalf("want *ConfigurationError on timeout, got %v", err)
		}
	})
}

func TestOutcome_Detail(t *testing.T) {
	if (Outcome{Status: StatusUp}).Detail() != "" {
		t.Fatal("up outcome should have empty detail")
	}
	o := Outcome{Status: StatusDown, Cause: errors.New("boom")}
	if o.Detail() != "boom" {
		t.Fatalf("detail=%q", o.Detail())
	}
}
