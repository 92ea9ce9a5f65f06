package pubsub

import (
	"context"
	"fmt"
	"time"

	subapi "cloud.google.com/go/pubsub/apiv1"
	"cloud.google.com/go/pubsub/apiv1/pubsubpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
)

// subscriberAPI is the slice of *subapi.SubscriberClient we use; an interface
// so tests can stand in a fake.
type subscriberAPI interface {
	Pull(ctx context.Context, req *pubsubpb.PullRequest, opts ...gax.CallOption) (*pubsubpb.PullResponse, error)
	Acknowledge(ctx context.Context, req *pubsubpb.AcknowledgeRequest, opts ...gax.CallOption) error
	Close() error
}

type publisherAPI interface {
	Publish(ctx context.Context, req *pubsubpb.PublishRequest, opts ...gax.CallOption) (*pubsubpb.PublishResponse, error)
	Close() error
}

// GCP implements Client and Publisher on the Google Cloud Pub/Sub gRPC API.
type GCP struct {
	project string
	sub     subscriberAPI
	pub     publisherAPI
}

var (
	_ Client    = (*GCP)(nil)
	_ Publisher = (*GCP)(nil)
)

// WithEmulator returns client options that point at a local Pub/Sub emulator
// instead of the live service.
func WithEmulator(host string) []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(host),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	}
}

// NewGCP dials subscriber and publisher clients for the given project.
func NewGCP(ctx context.Context, project string, opts ...option.ClientOption) (*GCP, error) {
	if project == "" {
		return nil, fmt.Errorf("pubsub: project must not be empty")
	}
	opts = append([]option.ClientOption{
		option.WithGRPCDialOption(grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time: 5 * time.Minute,
		})),
	}, opts...)

	sub, err := subapi.NewSubscriberClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub: subscriber client: %w", err)
	}
	pub, err := subapi.NewPublisherClient(ctx, opts...)
	if err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("pubsub: publisher client: %w", err)
	}
	return &GCP{project: project, sub: sub, pub: pub}, nil
}

// Close releases both underlying clients.
func (g *GCP) Close() error {
	serr := g.sub.Close()
	perr := g.pub.Close()
	if serr != nil {
		return serr
	}
	return perr
}

// Pull implements Client. subscription may be a short name, which is resolved
// against the client's project.
func (g *GCP) Pull(ctx context.Context, subscription string, maxMessages int, returnImmediately bool) ([]Message, error) {
	sub := qualify(g.project, "subscriptions", subscription)
	resp, err := g.sub.Pull(ctx, &pubsubpb.PullRequest{
		Subscription: sub,
		MaxMessages:  int32(maxMessages),
		// Deprecated upstream, but the health probe depends on its
		// semantics: never wait for new messages to arrive.
		ReturnImmediately: returnImmediately,
	})
	if err != nil {
		return nil, classify("pull", err)
	}

	out := make([]Message, 0, len(resp.ReceivedMessages))
	for _, rm := range resp.ReceivedMessages {
		m := &gcpMessage{api: g.sub, subscription: sub, ackID: rm.AckId}
		if rm.Message != nil {
			m.data = rm.Message.Data
			m.attrs = rm.Message.Attributes
		}
		out = append(out, m)
	}
	return out, nil
}

// Publish implements Publisher. topic may be a short name.
func (g *GCP) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	resp, err := g.pub.Publish(ctx, &pubsubpb.PublishRequest{
		Topic: qualify(g.project, "topics", topic),
		Messages: []*pubsubpb.PubsubMessage{
			{Data: data, Attributes: attrs},
		},
	})
	if err != nil {
		return "", classify("publish", err)
	}
	if len(resp.MessageIds) == 0 {
		return "", &Error{Code: CodeTransport, Op: "publish", Err: fmt.Errorf("no message id returned")}
	}
	return resp.MessageIds[0], nil
}

type gcpMessage struct {
	api          subscriberAPI
	subscription string
	ackID        string
	data         []byte
	attrs        map[string]string
}

func (m *gcpMessage) Ack(ctx context.Context) error {
	err := m.api.Acknowledge(ctx, &pubsubpb.AcknowledgeRequest{
		Subscription: m.subscription,
		AckIds:       []string{m.ackID},
	})
	if err != nil {
		return classify("ack", err)
	}
	return nil
}

func (m *gcpMessage) Data() []byte                  { return m.data }
func (m *gcpMessage) Attributes() map[string]string { return m.attrs }

// classify folds a gRPC status into the closed Code set.
func classify(op string, err error) *Error {
	code := CodeTransport
	switch status.Code(err) {
	case codes.NotFound:
		code = CodeNotFound
	case codes.PermissionDenied:
		code = CodePermissionDenied
	}
	return &Error{Code: code, Op: op, Err: err}
}
