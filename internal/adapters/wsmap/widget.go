package wsmap

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
	"github.com/samirrijal/barrierfree/internal/pkg/geospatial"
)

var (
	ErrNoWidget           = errors.New("wsmap: no live widget")
	ErrUnknownInteraction = errors.New("wsmap: unknown interaction kind")
)

// Renderer implements ports.MapRenderer for one browser connection. It
// owns at most one live widget at a time.
type Renderer struct {
	sender Sender
	logger *slog.Logger

	mu     sync.Mutex
	size   Size
	widget *Widget
}

// NewRenderer creates a renderer that sends commands through sender.
func NewRenderer(sender Sender, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{sender: sender, logger: logger, size: DefaultSize}
}

// SetSize records the browser container size used by the next widget.
func (r *Renderer) SetSize(s Size) {
	if !s.valid() {
		return
	}
	r.mu.Lock()
	r.size = s
	w := r.widget
	r.mu.Unlock()

	if w != nil {
		w.setSize(s)
	}
}

func (r *Renderer) CreateWidget(container string, center domain.GeoPoint, zoom int) (ports.MapWidget, error) {
	r.mu.Lock()
	size := r.size
	r.mu.Unlock()

	w := &Widget{
		renderer:  r,
		sender:    r.sender,
		logger:    r.logger,
		container: container,
		center:    center,
		zoom:      zoom,
		size:      size,
		callbacks: make(map[domain.InteractionKind]func()),
	}
	if err := w.sender.Send(Message{Type: MsgView, Payload: viewPayload{Container: container, Center: center, Zoom: zoom}}); err != nil {
		return nil, fmt.Errorf("send view: %w", err)
	}

	r.mu.Lock()
	r.widget = w
	r.mu.Unlock()
	return w, nil
}

// HandleInteraction feeds a browser report to the live widget.
func (r *Renderer) HandleInteraction(in Interaction) error {
	r.mu.Lock()
	w := r.widget
	r.mu.Unlock()

	if w == nil {
		return ErrNoWidget
	}
	return w.HandleInteraction(in)
}

func (r *Renderer) release(w *Widget) {
	r.mu.Lock()
	if r.widget == w {
		r.widget = nil
	}
	r.mu.Unlock()
}

// Widget mirrors the state of the browser map and implements
// ports.MapWidget. Like Leaflet, SetView and PanTo invoke the moveend and
// zoomend callbacks synchronously.
type Widget struct {
	renderer *Renderer
	sender   Sender
	logger   *slog.Logger

	mu        sync.Mutex
	container string
	center    domain.GeoPoint
	zoom      int
	size      Size
	// reported is the box last reported by the browser. It wins over the
	// computed box until the server moves the map again.
	reported  *domain.Bounds
	callbacks map[domain.InteractionKind]func()
	overlays  []string
	removed   bool
}

func (w *Widget) send(typ string, payload any) {
	if err := w.sender.Send(Message{Type: typ, Payload: payload}); err != nil {
		w.logger.Warn("map command not delivered", "type", typ, "error", err)
	}
}

func (w *Widget) SetView(center domain.GeoPoint, zoom int) {
	w.mu.Lock()
	zoomed := zoom != w.zoom
	w.center, w.zoom, w.reported = center, zoom, nil
	w.mu.Unlock()

	w.send(MsgView, viewPayload{Center: center, Zoom: zoom})
	if zoomed {
		w.fire(domain.InteractionZoomEnd)
	}
	w.fire(domain.InteractionMoveEnd)
}

func (w *Widget) PanTo(center domain.GeoPoint) {
	w.mu.Lock()
	w.center, w.reported = center, nil
	w.mu.Unlock()

	w.send(MsgPan, panPayload{Center: center})
	w.fire(domain.InteractionMoveEnd)
}

func (w *Widget) Bounds() domain.Bounds {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.reported != nil {
		return *w.reported
	}
	return geospatial.ViewportBounds(w.center, w.zoom, w.size.Width, w.size.Height)
}

// Center returns the mirrored centre and zoom.
func (w *Widget) Center() (domain.GeoPoint, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.center, w.zoom
}

func (w *Widget) SetTileSource(urlTemplate string, opts domain.TileOptions) error {
	return w.sender.Send(Message{Type: MsgTiles, Payload: tilesPayload{URL: urlTemplate, Options: opts}})
}

func (w *Widget) NewClusterLayer(style ports.ClusterStyleFunc) ports.ClusterLayer {
	return newClusterLayer(w, style)
}

func (w *Widget) AddOverlayLayer(layer ports.OverlayLayer) {
	p := layerPayload{ID: layer.LayerID(), Kind: layer.LayerKind()}
	switch l := layer.(type) {
	case *ClusterLayer:
		p.Palette = l.palette()
	case ports.RouteOverlay:
		route := l.Route()
		p.Route = &route
	}

	w.mu.Lock()
	w.overlays = append(w.overlays, p.ID)
	w.mu.Unlock()

	w.send(MsgLayerAdd, p)
}

func (w *Widget) RemoveOverlayLayer(layer ports.OverlayLayer) {
	id := layer.LayerID()

	w.mu.Lock()
	i := slices.Index(w.overlays, id)
	if i >= 0 {
		w.overlays = slices.Delete(w.overlays, i, i+1)
	}
	w.mu.Unlock()

	if i < 0 {
		return
	}
	w.send(MsgLayerRemove, layerRefPayload{ID: id})
}

// Overlays returns the ids of the installed overlay layers.
func (w *Widget) Overlays() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.overlays)
}

func (w *Widget) OnInteraction(kind domain.InteractionKind, cb func()) {
	w.mu.Lock()
	w.callbacks[kind] = cb
	w.mu.Unlock()
}

func (w *Widget) OffInteraction(kind domain.InteractionKind) {
	w.mu.Lock()
	delete(w.callbacks, kind)
	w.mu.Unlock()
}

func (w *Widget) InvalidateSize() {
	w.mu.Lock()
	w.reported = nil
	w.mu.Unlock()

	w.send(MsgInvalidate, nil)
	w.fire(domain.InteractionResize)
}

func (w *Widget) Remove() {
	w.mu.Lock()
	if w.removed {
		w.mu.Unlock()
		return
	}
	w.removed = true
	w.callbacks = make(map[domain.InteractionKind]func())
	w.overlays = nil
	w.mu.Unlock()

	w.send(MsgRemove, nil)
	w.renderer.release(w)
}

// HandleInteraction applies a browser report and, unless it is
// programmatic, invokes the callback registered for its kind.
func (w *Widget) HandleInteraction(in Interaction) error {
	if !slices.Contains(domain.InteractionKinds, in.Kind) {
		return fmt.Errorf("%w: %q", ErrUnknownInteraction, in.Kind)
	}

	w.mu.Lock()
	if w.removed {
		w.mu.Unlock()
		return ErrNoWidget
	}
	if in.Center != nil {
		w.center = *in.Center
	}
	if in.Zoom != nil {
		w.zoom = *in.Zoom
	}
	if in.Size != nil && in.Size.valid() {
		w.size = *in.Size
	}
	if in.Bounds != nil {
		b := *in.Bounds
		w.reported = &b
	}
	w.mu.Unlock()

	if !in.Programmatic {
		w.fire(in.Kind)
	}
	return nil
}

func (w *Widget) setSize(s Size) {
	w.mu.Lock()
	w.size = s
	w.reported = nil
	w.mu.Unlock()
}

// fire runs the callback for kind outside the lock; callbacks may call
// back into the widget.
func (w *Widget) fire(kind domain.InteractionKind) {
	w.mu.Lock()
	cb := w.callbacks[kind]
	w.mu.Unlock()

	if cb != nil {
		cb()
	}
}
