package viewport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
	"github.com/samirrijal/barrierfree/internal/eventbus"
	"github.com/samirrijal/barrierfree/internal/pkg/metrics"
	"github.com/samirrijal/barrierfree/internal/pkg/telemetry"
)

// EventViewportChanged is published with the current bounding box string
// ("minLon,minLat,maxLon,maxLat") as its only argument.
const EventViewportChanged = "viewport-changed"

// State is the coordinator's position in its lifecycle.
type State int

const (
	StateUnbound State = iota
	StateIdle
	StateDebouncePending
	StateLocked
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateIdle:
		return "idle"
	case StateDebouncePending:
		return "debounce_pending"
	case StateLocked:
		return "locked"
	default:
		return "unknown"
	}
}

type forcedKey struct{}

// IsForced reports whether ctx belongs to a forced (programmatic)
// notification rather than a debounced one.
func IsForced(ctx context.Context) bool {
	v, _ := ctx.Value(forcedKey{}).(bool)
	return v
}

// Coordinator turns native map interactions into viewport-changed
// notifications. Bursts of interactions are debounced into one
// notification; while locked, interactions are dropped so programmatic
// navigation cannot feed back into the debounced path.
type Coordinator struct {
	widget   ports.MapWidget
	bus      *eventbus.Bus
	clock    clock.Clock
	debounce time.Duration
	logger   *slog.Logger
	baseCtx  context.Context

	mu     sync.Mutex
	bound  bool
	locked bool
	timer  *clock.Timer
	// generation identifies the most recently scheduled debounce firing.
	// A firing whose generation is stale does nothing, even if Stop lost
	// the race against a real timer.
	generation uint64
}

// NewCoordinator creates an unbound coordinator for widget publishing on
// the options' bus.
func NewCoordinator(widget ports.MapWidget, opts ...Option) *Coordinator {
	s := newSettings(opts)
	return newCoordinator(widget, s)
}

func newCoordinator(widget ports.MapWidget, s settings) *Coordinator {
	return &Coordinator{
		widget:   widget,
		bus:      s.bus,
		clock:    s.clock,
		debounce: s.debounce,
		logger:   s.logger.With("component", "viewport_coordinator"),
		baseCtx:  s.ctx,
	}
}

// Events returns the bus notifications are published on.
func (c *Coordinator) Events() *eventbus.Bus {
	return c.bus
}

// BindInteractionEvents subscribes to the widget's pan, zoom and resize
// callbacks. Calling it again while bound has no effect.
func (c *Coordinator) BindInteractionEvents() {
	c.mu.Lock()
	if c.bound {
		c.mu.Unlock()
		return
	}
	c.bound = true
	c.mu.Unlock()

	for _, kind := range domain.InteractionKinds {
		c.widget.OnInteraction(kind, func() { c.handleInteraction(kind) })
	}
}

// UnbindInteractionEvents detaches the widget callbacks, cancels any
// pending debounce and removes every viewport-changed listener.
func (c *Coordinator) UnbindInteractionEvents() {
	c.mu.Lock()
	c.stopTimerLocked()
	c.bound = false
	c.mu.Unlock()

	for _, kind := range domain.InteractionKinds {
		c.widget.OffInteraction(kind)
	}
	c.bus.UnsubscribeAll(EventViewportChanged)
}

// SetLock sets the reentrancy lock.
func (c *Coordinator) SetLock(locked bool) {
	c.mu.Lock()
	c.locked = locked
	c.mu.Unlock()
}

// IsLocked reports the reentrancy lock.
func (c *Coordinator) IsLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// State reports the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !c.bound:
		return StateUnbound
	case c.locked:
		return StateLocked
	case c.timer != nil:
		return StateDebouncePending
	default:
		return StateIdle
	}
}

func (c *Coordinator) handleInteraction(kind domain.InteractionKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.bound {
		return
	}
	if c.locked {
		metrics.ViewportSuppressed.WithLabelValues("locked").Inc()
		c.logger.Debug("interaction dropped while locked", "kind", kind)
		return
	}

	c.stopTimerLocked()
	gen := c.generation
	c.timer = c.clock.AfterFunc(c.debounce, func() { c.fire(gen) })
}

// stopTimerLocked cancels the pending firing and invalidates it in case it
// is already running. c.mu must be held.
func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++
}

func (c *Coordinator) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		metrics.ViewportSuppressed.WithLabelValues("superseded").Inc()
		return
	}
	c.timer = nil
	if c.locked {
		c.mu.Unlock()
		metrics.ViewportSuppressed.WithLabelValues("locked_at_fire").Inc()
		c.logger.Debug("debounced notification dropped, locked during wait")
		return
	}
	c.mu.Unlock()

	bbox := c.widget.Bounds().String()
	metrics.ViewportNotifications.WithLabelValues("debounced").Inc()
	if err := c.bus.Publish(c.baseCtx, EventViewportChanged, bbox); err != nil {
		metrics.ViewportListenerFailures.Inc()
		c.logger.Warn("viewport-changed listener failed", "bbox", bbox, "error", err)
	}
}

// ForcePublish publishes the current bounding box immediately, ignoring
// the debounce and the lock, and waits for every listener to settle.
// onSettled, if non-nil, is called exactly once with the published box
// after settlement, whether or not listeners failed. The returned error
// aggregates listener failures.
func (c *Coordinator) ForcePublish(ctx context.Context, onSettled func(bbox string)) error {
	ctx, span := telemetry.Tracer().Start(ctx, "viewport.ForcePublish")
	defer span.End()

	bbox := c.widget.Bounds().String()
	span.SetAttributes(attribute.String("viewport.bbox", bbox))

	defer func() {
		if onSettled != nil {
			onSettled(bbox)
		}
	}()

	start := c.clock.Now()
	metrics.ViewportNotifications.WithLabelValues("forced").Inc()
	err := c.bus.PublishAwaiting(context.WithValue(ctx, forcedKey{}, true), EventViewportChanged, bbox)
	metrics.ViewportForcePublishDuration.Observe(c.clock.Now().Sub(start).Seconds())

	if err != nil {
		metrics.ViewportListenerFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "listener failure")
		c.logger.Warn("forced viewport-changed settled with failures", "bbox", bbox, "error", err)
		return err
	}
	return nil
}
