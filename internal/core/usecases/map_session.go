package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
	"github.com/samirrijal/barrierfree/internal/eventbus"
	"github.com/samirrijal/barrierfree/internal/viewport"
)

// MapDefaults is the initial state of a new map.
type MapDefaults struct {
	Center  domain.GeoPoint
	Zoom    int
	TileURL string
	Tiles   domain.TileOptions
}

// MapSession drives one interactive map: it keeps the markers in sync
// with the viewport and relays viewport changes to the broker.
type MapSession struct {
	id        string
	surface   *viewport.Surface
	nodes     *NodeService
	publisher ports.EventPublisher
	logger    *slog.Logger

	// refreshMu keeps a debounced and a forced refresh from interleaving
	// their clear and add steps. A refresh is numbered when its
	// notification arrives and applied only if nothing newer was applied
	// while it was fetching.
	refreshMu  sync.Mutex
	refreshSeq atomic.Uint64
	appliedSeq uint64
}

// ErrNoBBox is returned when viewport-changed is published without a
// bounding box string.
var ErrNoBBox = errors.New("viewport-changed without a bounding box")

// NewMapSession wraps a detached surface. publisher may be nil.
func NewMapSession(id string, surface *viewport.Surface, nodes *NodeService, publisher ports.EventPublisher, logger *slog.Logger) *MapSession {
	if logger == nil {
		logger = slog.Default()
	}
	return &MapSession{
		id:        id,
		surface:   surface,
		nodes:     nodes,
		publisher: publisher,
		logger:    logger.With("session_id", id),
	}
}

func (m *MapSession) ID() string                 { return m.id }
func (m *MapSession) Surface() *viewport.Surface { return m.surface }

// Open creates the map in container, subscribes the session listeners
// and loads the markers of the initial viewport.
func (m *MapSession) Open(ctx context.Context, container string, d MapDefaults) error {
	m.surface.Attach(container)
	if err := m.surface.Initialize(d.Center, d.Zoom); err != nil {
		return err
	}
	if d.TileURL != "" {
		if err := m.surface.SetTileSource(d.TileURL, d.Tiles); err != nil {
			return err
		}
	}

	bus := m.surface.Events()
	bus.Subscribe(viewport.EventViewportChanged, eventbus.Func(m.refreshMarkers))
	if m.publisher != nil {
		bus.Subscribe(viewport.EventViewportChanged, eventbus.Func(m.relay))
	}

	return m.Refresh(ctx)
}

// refreshMarkers replaces the markers with the nodes of the notified box.
func (m *MapSession) refreshMarkers(ctx context.Context, args ...any) error {
	bbox, err := bboxArg(args)
	if err != nil {
		return err
	}
	bounds, err := domain.ParseBounds(bbox)
	if err != nil {
		return err
	}

	seq := m.refreshSeq.Add(1)
	markers, err := m.nodes.Markers(ctx, bounds)
	if err != nil {
		return err
	}

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()
	if seq < m.appliedSeq {
		m.logger.Debug("stale marker refresh dropped", "bbox", bbox, "seq", seq, "applied", m.appliedSeq)
		return nil
	}
	m.appliedSeq = seq
	if err := m.surface.ClearMarkers(); err != nil {
		return err
	}
	if _, err := m.surface.AddMarkers(markers); err != nil {
		return err
	}
	m.logger.Debug("markers refreshed", "bbox", bbox, "count", len(markers), "forced", viewport.IsForced(ctx))
	return nil
}

func (m *MapSession) relay(ctx context.Context, args ...any) error {
	bbox, err := bboxArg(args)
	if err != nil {
		return err
	}
	return m.publisher.PublishViewportChanged(ctx, ports.ViewportEvent{
		SessionID: m.id,
		BBox:      bbox,
		Forced:    viewport.IsForced(ctx),
	})
}

func bboxArg(args []any) (string, error) {
	if len(args) == 0 {
		return "", ErrNoBBox
	}
	bbox, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("%w: got %T", ErrNoBBox, args[0])
	}
	return bbox, nil
}

// Focus moves to a marker and opens its popup once the markers of the
// new viewport are loaded.
func (m *MapSession) Focus(ctx context.Context, id domain.MarkerID, pos domain.GeoPoint, zoom int) error {
	return m.surface.MoveToMarker(ctx, id, pos, zoom)
}

// Move recenters the map; the debounced refresh follows.
func (m *MapSession) Move(pos domain.GeoPoint, zoom int) error {
	return m.surface.MoveTo(pos, zoom)
}

// Route replaces the route overlay.
func (m *MapSession) Route(ctx context.Context, waypoints []domain.GeoPoint, vehicle domain.Vehicle) (*domain.Route, error) {
	overlay, err := m.surface.BuildRoute(ctx, waypoints, viewport.RouteOptions{Vehicle: vehicle})
	if err != nil {
		return nil, err
	}
	route := overlay.Route()
	return &route, nil
}

func (m *MapSession) ClearRoute() error { return m.surface.ClearRoute() }
func (m *MapSession) Resize() error     { return m.surface.Resize() }

// Refresh reloads the markers of the current viewport now.
func (m *MapSession) Refresh(ctx context.Context) error {
	coord := m.surface.Coordinator()
	if coord == nil {
		return viewport.ErrNotInitialized
	}
	if err := coord.ForcePublish(ctx, nil); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

// Shows reports whether point is inside the visible box.
func (m *MapSession) Shows(point domain.GeoPoint) bool {
	b, err := m.surface.Viewport()
	if err != nil {
		return false
	}
	return b.Contains(point)
}

// Close releases the map.
func (m *MapSession) Close() {
	m.surface.Dispose()
}
