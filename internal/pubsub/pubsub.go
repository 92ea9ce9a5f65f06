// Package pubsub is a thin abstraction over a message broker, narrowed to the
// operations this service needs: pull-with-ack for health probing and publish
// for the sample app. Implementations classify backend failures into the
// closed error codes in errors.go so callers never inspect transport types.
package pubsub

import "context"

// Message is a single pulled message. Ownership is transient: callers ack it
// and let it go, they never retain it.
type Message interface {
	// Ack confirms receipt so the broker stops redelivery tracking.
	Ack(ctx context.Context) error
	Data() []byte
	Attributes() map[string]string
}

// Client pulls messages from a named subscription.
type Client interface {
	// Pull requests up to maxMessages currently available messages from the
	// subscription. With returnImmediately set it does not wait for new
	// messages to arrive. Failures carry an *Error.
	Pull(ctx context.Context, subscription string, maxMessages int, returnImmediately bool) ([]Message, error)
}

// Publisher publishes a message on a named topic and returns the server-side
// message ID.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}
