package ports

import (
	"context"

	"github.com/samirrijal/barrierfree/internal/core/domain"
)

// NodeSource fetches accessibility nodes for a bounding box.
type NodeSource interface {
	FetchNodes(ctx context.Context, bounds domain.Bounds) ([]domain.Node, error)
}

// AccessibilityRepository persists community accessibility overrides.
type AccessibilityRepository interface {
	Upsert(ctx context.Context, o *domain.AccessibilityOverride) error
	UpsertBatch(ctx context.Context, overrides []domain.AccessibilityOverride) error
	GetByOSMIDs(ctx context.Context, osmIDs []string) (map[string]domain.Accessibility, error)
	List(ctx context.Context, limit, offset int) ([]domain.AccessibilityOverride, error)
	Count(ctx context.Context) (int, error)
}

// ViewportEvent is published whenever a map session's viewport changes.
type ViewportEvent struct {
	SessionID string
	BBox      string
	Forced    bool
}

// EventPublisher publishes map events to a message broker.
type EventPublisher interface {
	PublishViewportChanged(ctx context.Context, event ViewportEvent) error
	PublishNodesUpdated(ctx context.Context, point domain.GeoPoint) error
}

// EventSubscriber subscribes to map events from a message broker.
type EventSubscriber interface {
	SubscribeNodesUpdated(ctx context.Context, handler func(ctx context.Context, point domain.GeoPoint) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// Geocoder resolves free-text place searches.
type Geocoder interface {
	Search(ctx context.Context, q domain.PlaceQuery) ([]domain.Place, error)
}
