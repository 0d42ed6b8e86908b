package viewport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
)

// eventLog records the order of side effects across goroutines.
type eventLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *eventLog) add(s string) {
	l.mu.Lock()
	l.entries = append(l.entries, s)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *eventLog) index(s string) int {
	for i, e := range l.snapshot() {
		if e == s {
			return i
		}
	}
	return -1
}

// --- Fake Renderer ---

type fakeRenderer struct {
	widget *fakeWidget
	err    error
	calls  int
}

func (r *fakeRenderer) CreateWidget(container string, center domain.GeoPoint, zoom int) (ports.MapWidget, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	r.widget.mu.Lock()
	r.widget.container = container
	r.widget.center = center
	r.widget.zoom = zoom
	r.widget.mu.Unlock()
	return r.widget, nil
}

// --- Fake Widget ---

type fakeWidget struct {
	log *eventLog

	mu        sync.Mutex
	container string
	center    domain.GeoPoint
	zoom      int
	// span is the half-height/half-width of the visible box in degrees.
	span       float64
	callbacks  map[domain.InteractionKind][]func()
	overlays   []ports.OverlayLayer
	removed    []ports.OverlayLayer
	tileURL    string
	tileErr    error
	panCalls   int
	viewCalls  int
	invalidate int
	disposed   bool
	clusters   *fakeClusterLayer
	// echo fires moveend synchronously from SetView/PanTo, like Leaflet.
	echo bool
}

func newFakeWidget(log *eventLog) *fakeWidget {
	return &fakeWidget{
		log:       log,
		span:      1,
		callbacks: make(map[domain.InteractionKind][]func()),
	}
}

func (w *fakeWidget) SetView(center domain.GeoPoint, zoom int) {
	w.mu.Lock()
	w.center = center
	w.zoom = zoom
	w.viewCalls++
	echo := w.echo
	w.mu.Unlock()
	if echo {
		w.emit(domain.InteractionMoveEnd)
	}
}

func (w *fakeWidget) PanTo(center domain.GeoPoint) {
	w.mu.Lock()
	w.center = center
	w.panCalls++
	echo := w.echo
	w.mu.Unlock()
	if echo {
		w.emit(domain.InteractionMoveEnd)
	}
}

func (w *fakeWidget) Bounds() domain.Bounds {
	w.mu.Lock()
	defer w.mu.Unlock()
	return domain.Bounds{
		MinLat: w.center.Lat - w.span,
		MinLon: w.center.Lon - w.span,
		MaxLat: w.center.Lat + w.span,
		MaxLon: w.center.Lon + w.span,
	}
}

func (w *fakeWidget) SetTileSource(urlTemplate string, opts domain.TileOptions) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.tileErr != nil {
		return w.tileErr
	}
	w.tileURL = urlTemplate
	return nil
}

func (w *fakeWidget) NewClusterLayer(style ports.ClusterStyleFunc) ports.ClusterLayer {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clusters = &fakeClusterLayer{log: w.log, style: style}
	return w.clusters
}

func (w *fakeWidget) AddOverlayLayer(layer ports.OverlayLayer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.overlays = append(w.overlays, layer)
}

func (w *fakeWidget) RemoveOverlayLayer(layer ports.OverlayLayer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, o := range w.overlays {
		if o == layer {
			w.overlays = append(w.overlays[:i:i], w.overlays[i+1:]...)
			break
		}
	}
	w.removed = append(w.removed, layer)
}

func (w *fakeWidget) OnInteraction(kind domain.InteractionKind, cb func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks[kind] = append(w.callbacks[kind], cb)
}

func (w *fakeWidget) OffInteraction(kind domain.InteractionKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.callbacks, kind)
}

func (w *fakeWidget) InvalidateSize() {
	w.mu.Lock()
	w.invalidate++
	w.mu.Unlock()
}

func (w *fakeWidget) Remove() {
	w.mu.Lock()
	w.disposed = true
	w.mu.Unlock()
}

// emit simulates a native interaction.
func (w *fakeWidget) emit(kind domain.InteractionKind) {
	w.mu.Lock()
	cbs := append([]func(){}, w.callbacks[kind]...)
	w.mu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

// drag moves the center as a user would and fires moveend.
func (w *fakeWidget) drag(center domain.GeoPoint) {
	w.mu.Lock()
	w.center = center
	w.mu.Unlock()
	w.emit(domain.InteractionMoveEnd)
}

func (w *fakeWidget) callbackCount(kind domain.InteractionKind) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.callbacks[kind])
}

func (w *fakeWidget) overlayCount(kind string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, o := range w.overlays {
		if o.LayerKind() == kind {
			n++
		}
	}
	return n
}

// --- Fake cluster layer and markers ---

type fakeClusterLayer struct {
	log   *eventLog
	style ports.ClusterStyleFunc

	mu      sync.Mutex
	markers []*fakeHandle
	clears  int
}

func (l *fakeClusterLayer) LayerID() string   { return "clusters" }
func (l *fakeClusterLayer) LayerKind() string { return "cluster" }

func (l *fakeClusterLayer) AddMarkers(markers []domain.Marker) []ports.MarkerHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ports.MarkerHandle, 0, len(markers))
	for _, m := range markers {
		h := &fakeHandle{log: l.log, marker: m}
		l.markers = append(l.markers, h)
		out = append(out, h)
	}
	return out
}

func (l *fakeClusterLayer) ClearLayers() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markers = nil
	l.clears++
}

func (l *fakeClusterLayer) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.markers)
}

type fakeHandle struct {
	log    *eventLog
	marker domain.Marker

	mu     sync.Mutex
	popups int
}

func (h *fakeHandle) ID() domain.MarkerID       { return h.marker.ID }
func (h *fakeHandle) Position() domain.GeoPoint { return h.marker.Position }

func (h *fakeHandle) OpenPopup() {
	h.mu.Lock()
	h.popups++
	h.mu.Unlock()
	if h.log != nil {
		h.log.add("popup:" + string(h.marker.ID))
	}
}

func (h *fakeHandle) popupCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.popups
}

// --- Fake Router ---

type fakeOverlay struct {
	id    string
	route domain.Route
}

func (o *fakeOverlay) LayerID() string     { return o.id }
func (o *fakeOverlay) LayerKind() string   { return "route" }
func (o *fakeOverlay) Route() domain.Route { return o.route }

type fakeRouter struct {
	mu       sync.Mutex
	calls    int
	profiles []domain.RoutingProfile
	err      error
}

func (r *fakeRouter) ComputeRoute(ctx context.Context, waypoints []domain.GeoPoint, profile domain.RoutingProfile) (ports.RouteOverlay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.profiles = append(r.profiles, profile)
	if r.err != nil {
		return nil, r.err
	}
	return &fakeOverlay{
		id:    fmt.Sprintf("route-%d", r.calls),
		route: domain.Route{Waypoints: waypoints, Profile: profile},
	}, nil
}

var errListener = errors.New("listener failed")
