// Package viewport owns a live map widget and decides when its visible
// extent has changed enough to notify the rest of the application.
package viewport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samirrijal/barrierfree/internal/cluster"
	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
	"github.com/samirrijal/barrierfree/internal/eventbus"
)

// KeepZoom tells MoveTo and MoveToMarker to pan without changing zoom.
const KeepZoom = -1

// RouteOptions configures BuildRoute.
type RouteOptions struct {
	// Vehicle selects the routing profile; empty means car.
	Vehicle domain.Vehicle
}

// Surface mediates every mutation of one map widget: markers, the single
// route overlay and navigation. Operations must follow the order
// Attach, Initialize, then anything else.
type Surface struct {
	renderer ports.MapRenderer
	router   ports.Router
	settings settings
	logger   *slog.Logger

	mu            sync.Mutex
	container     string
	widget        ports.MapWidget
	clusters      ports.ClusterLayer
	clustersAdded bool
	markers       []ports.MarkerHandle
	coordinator   *Coordinator

	// routeMu serializes BuildRoute and ClearRoute so that at most one
	// overlay is ever installed, even while a route is being computed.
	routeMu sync.Mutex
	route   ports.RouteOverlay
}

// NewSurface creates a detached surface. router may be nil if routes are
// never built.
func NewSurface(renderer ports.MapRenderer, router ports.Router, opts ...Option) *Surface {
	s := newSettings(opts)
	return &Surface{
		renderer: renderer,
		router:   router,
		settings: s,
		logger:   s.logger.With("component", "viewport_surface"),
	}
}

// Events returns the bus viewport-changed notifications are published on.
func (s *Surface) Events() *eventbus.Bus {
	return s.settings.bus
}

// Coordinator returns the coordinator created by Initialize, or nil.
func (s *Surface) Coordinator() *Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coordinator
}

// Attach records the render target.
func (s *Surface) Attach(container string) {
	s.mu.Lock()
	s.container = container
	s.mu.Unlock()
}

// Initialize creates the widget and its cluster layer, then binds a new
// coordinator to it.
func (s *Surface) Initialize(center domain.GeoPoint, zoom int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.container == "" {
		return ErrNotAttached
	}
	if s.widget != nil {
		return ErrAlreadyInitialized
	}

	widget, err := s.renderer.CreateWidget(s.container, center, zoom)
	if err != nil {
		return fmt.Errorf("create widget: %w", err)
	}
	s.widget = widget
	s.clusters = widget.NewClusterLayer(cluster.Style)
	s.coordinator = newCoordinator(widget, s.settings)
	s.coordinator.BindInteractionEvents()

	s.logger.Debug("map initialized", "container", s.container, "zoom", zoom)
	return nil
}

// SetTileSource installs the base tile layer.
func (s *Surface) SetTileSource(urlTemplate string, opts domain.TileOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.widget == nil {
		return ErrNotInitialized
	}
	if err := s.widget.SetTileSource(urlTemplate, opts); err != nil {
		return fmt.Errorf("set tile source: %w", err)
	}
	return nil
}

// AddMarker installs a single marker.
func (s *Surface) AddMarker(m domain.Marker) (ports.MarkerHandle, error) {
	handles, err := s.AddMarkers([]domain.Marker{m})
	if err != nil {
		return nil, err
	}
	return handles[0], nil
}

// AddMarkers installs markers on the cluster layer, adding the layer to
// the map on first use. Duplicate ids are kept; clear before re-adding.
func (s *Surface) AddMarkers(markers []domain.Marker) ([]ports.MarkerHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.widget == nil {
		return nil, ErrNotInitialized
	}
	if len(markers) == 0 {
		return []ports.MarkerHandle{}, nil
	}
	if !s.clustersAdded {
		s.widget.AddOverlayLayer(s.clusters)
		s.clustersAdded = true
	}

	handles := s.clusters.AddMarkers(markers)
	s.markers = append(s.markers, handles...)
	return handles, nil
}

// Markers returns the installed markers in insertion order.
func (s *Surface) Markers() []ports.MarkerHandle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ports.MarkerHandle, len(s.markers))
	copy(out, s.markers)
	return out
}

// ClearMarkers empties the cluster layer and the marker registry.
func (s *Surface) ClearMarkers() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.widget == nil {
		return ErrNotInitialized
	}
	s.clusters.ClearLayers()
	s.markers = nil
	return nil
}

// MoveTo recenters the map. With zoom == KeepZoom it pans instead.
func (s *Surface) MoveTo(pos domain.GeoPoint, zoom int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.widget == nil {
		return ErrNotInitialized
	}
	if zoom == KeepZoom {
		s.widget.PanTo(pos)
	} else {
		s.widget.SetView(pos, zoom)
	}
	return nil
}

// MoveToMarker navigates to pos under the coordinator lock, force-publishes
// the new viewport and, once every listener has settled, opens the popup
// of the marker whose id equals id. The popup step runs even when
// listeners fail; their aggregate error is returned afterwards.
func (s *Surface) MoveToMarker(ctx context.Context, id domain.MarkerID, pos domain.GeoPoint, zoom int) error {
	coord := s.Coordinator()
	if coord == nil {
		return ErrNotInitialized
	}

	coord.SetLock(true)
	defer coord.SetLock(false)

	if err := s.MoveTo(pos, zoom); err != nil {
		return err
	}
	return coord.ForcePublish(ctx, func(string) {
		s.openPopup(id)
	})
}

func (s *Surface) openPopup(id domain.MarkerID) {
	s.mu.Lock()
	var target ports.MarkerHandle
	for _, h := range s.markers {
		if h.ID().Equal(id) {
			target = h
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		s.logger.Debug("no marker to focus", "id", id)
		return
	}
	target.OpenPopup()
}

// BuildRoute replaces the route overlay with a route through waypoints.
// The previous overlay is removed before the new one is requested.
func (s *Surface) BuildRoute(ctx context.Context, waypoints []domain.GeoPoint, opts RouteOptions) (ports.RouteOverlay, error) {
	s.routeMu.Lock()
	defer s.routeMu.Unlock()

	if err := s.removeRoute(); err != nil {
		return nil, err
	}
	if s.router == nil {
		return nil, ErrNoRouter
	}
	if len(waypoints) < 2 {
		return nil, ErrTooFewWaypoints
	}

	profile, err := domain.ProfileFor(opts.Vehicle)
	if err != nil {
		return nil, err
	}

	overlay, err := s.router.ComputeRoute(ctx, waypoints, profile)
	if err != nil {
		return nil, fmt.Errorf("compute %s route: %w", profile, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.widget == nil {
		return nil, ErrNotInitialized
	}
	s.widget.AddOverlayLayer(overlay)
	s.route = overlay
	return overlay, nil
}

// ClearRoute removes the route overlay, if any.
func (s *Surface) ClearRoute() error {
	s.routeMu.Lock()
	defer s.routeMu.Unlock()
	return s.removeRoute()
}

// Route returns the live route overlay, or nil.
func (s *Surface) Route() ports.RouteOverlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route
}

// removeRoute requires routeMu.
func (s *Surface) removeRoute() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.widget == nil {
		return ErrNotInitialized
	}
	if s.route != nil {
		s.widget.RemoveOverlayLayer(s.route)
		s.route = nil
	}
	return nil
}

// BoundingBox returns the visible extent as "minLon,minLat,maxLon,maxLat".
func (s *Surface) BoundingBox() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.widget == nil {
		return "", ErrNotInitialized
	}
	return s.widget.Bounds().String(), nil
}

// Viewport returns the visible extent as structured data.
func (s *Surface) Viewport() (domain.Bounds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.widget == nil {
		return domain.Bounds{}, ErrNotInitialized
	}
	return s.widget.Bounds(), nil
}

// Resize tells the widget its container changed size.
func (s *Surface) Resize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.widget == nil {
		return ErrNotInitialized
	}
	s.widget.InvalidateSize()
	return nil
}

// Dispose unbinds the coordinator and releases the widget with its
// overlays. The surface stays attached and may be initialized again.
func (s *Surface) Dispose() {
	s.routeMu.Lock()
	defer s.routeMu.Unlock()

	s.mu.Lock()
	coord := s.coordinator
	widget := s.widget
	route := s.route
	clusters, clustersAdded := s.clusters, s.clustersAdded

	s.widget = nil
	s.clusters = nil
	s.clustersAdded = false
	s.markers = nil
	s.coordinator = nil
	s.route = nil
	s.mu.Unlock()

	if widget == nil {
		return
	}
	coord.UnbindInteractionEvents()
	if route != nil {
		widget.RemoveOverlayLayer(route)
	}
	if clustersAdded {
		clusters.ClearLayers()
		widget.RemoveOverlayLayer(clusters)
	}
	widget.Remove()
	s.logger.Debug("map disposed")
}
