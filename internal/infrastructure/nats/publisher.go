package natsinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

// NATSPublisher publishes JSON-encoded events on a NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewPublisher connects to url. An empty url yields a publisher that drops events.
func NewPublisher(url string) (Publisher, error) {
	if url == "" {
		return Noop{}, nil
	}
	conn, err := nats.Connect(url, nats.Name("shefaa-icu"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	slog.DebugContext(ctx, "publishing event", "subject", subject)
	return p.conn.Publish(subject, payload)
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close() error                                      { return nil }
