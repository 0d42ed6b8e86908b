package wsmap

import (
	"sync"

	"github.com/google/uuid"

	"github.com/samirrijal/barrierfree/internal/cluster"
	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
)

// LayerKindCluster is the kind of marker cluster layers.
const LayerKindCluster = "cluster"

// paletteSize is the number of cluster styles sent with a cluster layer.
const paletteSize = cluster.PaletteSize

// ClusterLayer implements ports.ClusterLayer. Clustering itself happens in
// the browser; the layer tracks which markers it holds.
type ClusterLayer struct {
	id     string
	widget *Widget
	style  ports.ClusterStyleFunc

	mu      sync.Mutex
	markers []domain.Marker
}

func newClusterLayer(w *Widget, style ports.ClusterStyleFunc) *ClusterLayer {
	return &ClusterLayer{id: uuid.NewString(), widget: w, style: style}
}

func (l *ClusterLayer) LayerID() string   { return l.id }
func (l *ClusterLayer) LayerKind() string { return LayerKindCluster }

func (l *ClusterLayer) AddMarkers(markers []domain.Marker) []ports.MarkerHandle {
	handles := make([]ports.MarkerHandle, len(markers))
	for i, m := range markers {
		handles[i] = &markerHandle{layer: l, marker: m}
	}

	l.mu.Lock()
	l.markers = append(l.markers, markers...)
	l.mu.Unlock()

	l.widget.send(MsgMarkersAdd, markersPayload{Layer: l.id, Markers: markers})
	return handles
}

func (l *ClusterLayer) ClearLayers() {
	l.mu.Lock()
	l.markers = nil
	l.mu.Unlock()

	l.widget.send(MsgMarkersClear, layerRefPayload{ID: l.id})
}

// Len returns the number of markers on the layer.
func (l *ClusterLayer) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.markers)
}

func (l *ClusterLayer) palette() []domain.ClusterIcon {
	if l.style == nil {
		return nil
	}
	out := make([]domain.ClusterIcon, paletteSize)
	for i := range out {
		out[i] = l.style(i + 1)
	}
	return out
}

type markerHandle struct {
	layer  *ClusterLayer
	marker domain.Marker
}

func (h *markerHandle) ID() domain.MarkerID       { return h.marker.ID }
func (h *markerHandle) Position() domain.GeoPoint { return h.marker.Position }

func (h *markerHandle) OpenPopup() {
	h.layer.widget.send(MsgPopupOpen, popupPayload{Layer: h.layer.id, ID: h.marker.ID})
}
