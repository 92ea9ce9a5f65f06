package pubsub

import (
	"errors"
	"fmt"
)

// Code is the closed set of backend failure classes. Anything a backend can
// throw collapses into one of these; callers branch on Code, never on
// transport-specific error types.
type Code int

const (
	// CodeTransport covers everything that is not one of the named codes:
	// unreachable backend, bad credentials handshake, server errors.
	CodeTransport Code = iota
	CodeNotFound
	CodePermissionDenied
)

func (c Code) String() string {
	switch c {
	case CodeNotFound:
		return "not_found"
	case CodePermissionDenied:
		return "permission_denied"
	default:
		return "transport"
	}
}

// Error is the classified failure returned by broker operations.
type Error struct {
	Code Code
	Op   string // "pull", "ack", "publish"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pubsub %s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the failure class from err. Errors that did not come from a
// broker operation report CodeTransport.
func CodeOf(err error) Code {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeTransport
}
