package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
)

const (
	streamName = "MAP_EVENTS"

	SubjectViewportChanged = "map.viewport.changed"
	SubjectNodesUpdated    = "map.nodes.updated"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{"map.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishViewportChanged publishes one settled viewport of a map session.
func (p *Publisher) PublishViewportChanged(ctx context.Context, event ports.ViewportEvent) error {
	data, err := encodeViewportEvent(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectViewportChanged+"."+event.SessionID, data, nats.Context(ctx))
	return err
}

// PublishNodesUpdated announces that the accessibility of the node at
// point changed.
func (p *Publisher) PublishNodesUpdated(ctx context.Context, point domain.GeoPoint) error {
	data, err := encodeGeoPoint(point)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectNodesUpdated, data, nats.Context(ctx))
	return err
}

// IsConnected reports whether the underlying connection is up.
func (p *Publisher) IsConnected() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
