package pubsub

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCodeOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"tagged_not_found", &Error{Code: CodeNotFound, Op: "pull", Err: errors.New("x")}, CodeNotFound},
		{"tagged_permission", &Error{Code: CodePermissionDenied, Op: "pull", Err: errors.New("x")}, CodePermissionDenied},
		{"wrapped_tagged", fmt.Errorf("outer: %w", &Error{Code: CodeNotFound, Op: "pull", Err: errors.New("x")}), CodeNotFound},
		{"untagged", errors.New("dial tcp: refused"), CodeTransport},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := CodeOf(c.err); got != c.want {
				t.Fatalf("CodeOf=%v want %v", got, c.want)
			}
		})
	}
}

func TestError_StringAndUnwrap(t *testing.T) {
	cause := errors.New("no such subscription")
	e := &Error{Code: CodeNotFound, Op: "pull", Err: cause}

	if !errors.Is(e, cause) {
		t.Fatal("Unwrap lost the cause")
	}
	s := e.Error()
	if !strings.Contains(s, "pull") || !strings.Contains(s, "not_found") {
		t.Fatalf("unhelpful error string: %q", s)
	}
}

func TestQualify(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"s1", "projects/p/subscriptions/s1"},
		{"projects/other/subscriptions/s2", "projects/other/subscriptions/s2"},
	}
	for _, c := range cases {
		if got := qualify("p", "subscriptions", c.in); got != c.want {
			t.Fatalf("qualify(%q)=%q want %q", c.in, got, c.want)
		}
	}
	if got := SubscriptionName("p", "s"); got != "projects/p/subscriptions/s" {
		t.Fatalf("SubscriptionName=%q", got)
	}
	if got := TopicName("p", "t"); got != "projects/p/topics/t" {
		t.Fatalf("TopicName=%q", got)
	}
}
