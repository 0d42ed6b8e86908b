package ports

import (
	"context"

	"github.com/samirrijal/barrierfree/internal/core/domain"
)

// MapRenderer creates map widgets bound to a render target.
type MapRenderer interface {
	CreateWidget(container string, center domain.GeoPoint, zoom int) (MapWidget, error)
}

// MapWidget is a live map owned by a ViewportSurface.
//
// Implementations may invoke interaction callbacks synchronously from
// SetView/PanTo (as Leaflet does) or later from another goroutine.
type MapWidget interface {
	SetView(center domain.GeoPoint, zoom int)
	PanTo(center domain.GeoPoint)
	Bounds() domain.Bounds
	SetTileSource(urlTemplate string, opts domain.TileOptions) error

	NewClusterLayer(style ClusterStyleFunc) ClusterLayer
	AddOverlayLayer(layer OverlayLayer)
	RemoveOverlayLayer(layer OverlayLayer)

	OnInteraction(kind domain.InteractionKind, cb func())
	OffInteraction(kind domain.InteractionKind)

	InvalidateSize()
	Remove()
}

// OverlayLayer is anything drawn on top of the base tiles.
type OverlayLayer interface {
	LayerID() string
	LayerKind() string
}

// ClusterStyleFunc assigns the visual weight of a cluster from its size.
type ClusterStyleFunc func(count int) domain.ClusterIcon

// ClusterLayer groups markers into clusters for display.
type ClusterLayer interface {
	OverlayLayer
	AddMarkers(markers []domain.Marker) []MarkerHandle
	ClearLayers()
}

// MarkerHandle is a marker installed on a cluster layer.
type MarkerHandle interface {
	ID() domain.MarkerID
	Position() domain.GeoPoint
	OpenPopup()
}

// RouteOverlay is a route line installed on a map.
type RouteOverlay interface {
	OverlayLayer
	Route() domain.Route
}

// Router computes routes between waypoints.
type Router interface {
	ComputeRoute(ctx context.Context, waypoints []domain.GeoPoint, profile domain.RoutingProfile) (RouteOverlay, error)
}
