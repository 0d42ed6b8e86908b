package natsadapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/barrierfree/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber.
//
// Node updates are consumed with a plain subscription rather than a
// durable JetStream consumer: every API instance holds its own map
// sessions and must see every update.
type Subscriber struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

// NewSubscriber opens a connection for subscribing.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Subscriber{conn: conn}, nil
}

func (s *Subscriber) SubscribeNodesUpdated(ctx context.Context, handler func(ctx context.Context, point domain.GeoPoint) error) error {
	sub, err := s.conn.Subscribe(SubjectNodesUpdated, func(msg *nats.Msg) {
		point, err := decodeGeoPoint(msg.Data)
		if err != nil {
			slog.Warn("drop malformed nodes-updated message", "error", err)
			return
		}
		if err := handler(ctx, point); err != nil {
			slog.Warn("nodes-updated handler failed", "lat", point.Lat, "lon", point.Lon, "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
