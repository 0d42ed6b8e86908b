// Package eventbus is a name-keyed publish/subscribe registry with a
// fire-and-forget synchronous path and an awaitable path that isolates
// listener failures.
package eventbus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
	"github.com/zyedidia/generic/mapset"
)

// Listener handles a published event.
//
// Listeners are stored in a duplicate-free set, so implementations must be
// comparable; pointer receivers are the usual choice. Use Func to wrap a
// plain function.
type Listener interface {
	HandleEvent(ctx context.Context, args ...any) error
}

type funcListener struct {
	fn func(ctx context.Context, args ...any) error
}

func (f *funcListener) HandleEvent(ctx context.Context, args ...any) error {
	return f.fn(ctx, args...)
}

// Func wraps fn in a Listener. Every call returns a distinct handle; keep it
// to unsubscribe later.
func Func(fn func(ctx context.Context, args ...any) error) Listener {
	return &funcListener{fn: fn}
}

// listenerSet keeps registration order alongside set membership.
type listenerSet struct {
	order   []Listener
	members mapset.Set[Listener]
}

func newListenerSet() *listenerSet {
	return &listenerSet{members: mapset.New[Listener]()}
}

func (s *listenerSet) add(l Listener) {
	if s.members.Has(l) {
		return
	}
	s.members.Put(l)
	s.order = append(s.order, l)
}

func (s *listenerSet) remove(l Listener) {
	if !s.members.Has(l) {
		return
	}
	s.members.Remove(l)
	for i, existing := range s.order {
		if existing == l {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *listenerSet) snapshot() []Listener {
	out := make([]Listener, len(s.order))
	copy(out, s.order)
	return out
}

// Bus is safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	events map[string]*listenerSet
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{events: make(map[string]*listenerSet)}
}

// Subscribe registers l for event. Registering the same listener twice is a
// no-op.
func (b *Bus) Subscribe(event string, l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.events[event]
	if !ok {
		set = newListenerSet()
		b.events[event] = set
	}
	set.add(l)
}

// SubscribeOnce registers l so that it runs at most once. The returned
// handle is what is actually registered; pass it to Unsubscribe to cancel
// before the first delivery.
func (b *Bus) SubscribeOnce(event string, l Listener) Listener {
	o := &onceListener{bus: b, event: event, inner: l}
	b.Subscribe(event, o)
	return o
}

type onceListener struct {
	bus   *Bus
	event string
	inner Listener
	fired atomic.Bool
}

func (o *onceListener) HandleEvent(ctx context.Context, args ...any) error {
	// A dispatch pass that snapshotted the set before removal may still
	// reach us; only the first caller gets through.
	if !o.fired.CompareAndSwap(false, true) {
		return nil
	}
	o.bus.Unsubscribe(o.event, o)
	return o.inner.HandleEvent(ctx, args...)
}

// Unsubscribe removes l from event. Unknown listeners are ignored.
func (b *Bus) Unsubscribe(event string, l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.events[event]
	if !ok {
		return
	}
	set.remove(l)
	if len(set.order) == 0 {
		delete(b.events, event)
	}
}

// UnsubscribeAll removes every listener of the named events, or of all
// events when called without names.
func (b *Bus) UnsubscribeAll(events ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(events) == 0 {
		b.events = make(map[string]*listenerSet)
		return
	}
	for _, e := range events {
		delete(b.events, e)
	}
}

// ListenerCount returns the number of listeners registered for event.
func (b *Bus) ListenerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if set, ok := b.events[event]; ok {
		return len(set.order)
	}
	return 0
}

// Listeners returns the listeners of event in registration order.
func (b *Bus) Listeners(event string) []Listener {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if set, ok := b.events[event]; ok {
		return set.snapshot()
	}
	return []Listener{}
}

// Publish invokes the listeners of event one after another in the calling
// goroutine. The listener set is copied before dispatch starts, so
// listeners may subscribe or unsubscribe without affecting this pass.
// The first listener error stops the pass and is returned.
func (b *Bus) Publish(ctx context.Context, event string, args ...any) error {
	for _, l := range b.Listeners(event) {
		if err := l.HandleEvent(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// PublishAwaiting invokes every listener of event concurrently and returns
// once all of them have finished. A failing or panicking listener never
// prevents the others from running; all failures are reported together as
// *ListenerError values after the last listener settles.
func (b *Bus) PublishAwaiting(ctx context.Context, event string, args ...any) error {
	snapshot := b.Listeners(event)
	if len(snapshot) == 0 {
		return nil
	}

	p := pool.New().WithErrors()
	for i, l := range snapshot {
		p.Go(func() error {
			return invoke(ctx, event, i, l, args)
		})
	}
	return p.Wait()
}

func invoke(ctx context.Context, event string, index int, l Listener, args []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ListenerError{Event: event, Index: index, Recovered: r}
		}
	}()
	if herr := l.HandleEvent(ctx, args...); herr != nil {
		return &ListenerError{Event: event, Index: index, Err: herr}
	}
	return nil
}
