package viewport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/facebookgo/clock"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/eventbus"
)

type published struct {
	mu     sync.Mutex
	boxes  []string
	forced []bool
}

func (p *published) listener() eventbus.Listener {
	return eventbus.Func(func(ctx context.Context, args ...any) error {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.boxes = append(p.boxes, args[0].(string))
		p.forced = append(p.forced, IsForced(ctx))
		return nil
	})
}

func (p *published) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.boxes)
}

func (p *published) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.boxes) == 0 {
		return ""
	}
	return p.boxes[len(p.boxes)-1]
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeWidget, *clock.Mock, *published) {
	t.Helper()
	mock := clock.NewMock()
	w := newFakeWidget(&eventLog{})
	c := NewCoordinator(w, WithClock(mock))
	c.BindInteractionEvents()

	p := &published{}
	c.Events().Subscribe(EventViewportChanged, p.listener())
	return c, w, mock, p
}

func TestCoordinator_DebounceCoalescesBurst(t *testing.T) {
	c, w, mock, p := newTestCoordinator(t)

	for i := 0; i < 5; i++ {
		w.drag(domain.GeoPoint{Lat: float64(i), Lon: float64(i)})
		mock.Add(100 * time.Millisecond)
	}
	if p.count() != 0 {
		t.Fatalf("expected no notification inside the window, got %d", p.count())
	}
	if s := c.State(); s != StateDebouncePending {
		t.Errorf("expected %s, got %s", StateDebouncePending, s)
	}

	mock.Add(399 * time.Millisecond)
	if p.count() != 0 {
		t.Fatalf("fired before the quiet period elapsed")
	}

	mock.Add(time.Millisecond)
	if p.count() != 1 {
		t.Fatalf("expected exactly 1 notification, got %d", p.count())
	}
	if got := p.last(); got != "3,3,5,5" {
		t.Errorf("expected the box of the last drag, got %q", got)
	}
	if s := c.State(); s != StateIdle {
		t.Errorf("expected %s after firing, got %s", StateIdle, s)
	}

	mock.Add(10 * time.Second)
	if p.count() != 1 {
		t.Errorf("expected no further notifications, got %d", p.count())
	}
}

func TestCoordinator_BoxReadWhenTimerFires(t *testing.T) {
	_, w, mock, p := newTestCoordinator(t)

	w.drag(domain.GeoPoint{Lat: 10, Lon: 20})
	w.mu.Lock()
	w.center = domain.GeoPoint{Lat: 43.26, Lon: -2.93}
	w.span = 0.01
	w.mu.Unlock()

	mock.Add(DefaultDebounce)
	got := p.last()
	if got == "19,9,21,11" {
		t.Fatal("published the box from scheduling time")
	}
	if want := w.Bounds().String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCoordinator_LockedDropsInteractions(t *testing.T) {
	c, w, mock, p := newTestCoordinator(t)

	c.SetLock(true)
	for i := 0; i < 10; i++ {
		w.drag(domain.GeoPoint{Lat: float64(i)})
	}
	if s := c.State(); s != StateLocked {
		t.Errorf("expected %s, got %s", StateLocked, s)
	}
	mock.Add(time.Second)
	if p.count() != 0 {
		t.Fatalf("expected no notification while locked, got %d", p.count())
	}

	c.SetLock(false)
	mock.Add(time.Second)
	if p.count() != 0 {
		t.Errorf("unlock must not fire suppressed interactions, got %d", p.count())
	}
	if s := c.State(); s != StateIdle {
		t.Errorf("expected %s, got %s", StateIdle, s)
	}
}

func TestCoordinator_LockDuringWaitCancelsFiring(t *testing.T) {
	c, w, mock, p := newTestCoordinator(t)

	w.drag(domain.GeoPoint{Lat: 1, Lon: 1})
	mock.Add(200 * time.Millisecond)
	c.SetLock(true)
	mock.Add(DefaultDebounce)
	if p.count() != 0 {
		t.Fatalf("expected firing to re-check the lock, got %d notifications", p.count())
	}

	c.SetLock(false)
	mock.Add(time.Second)
	if p.count() != 0 {
		t.Fatalf("expected no retroactive notification, got %d", p.count())
	}

	w.drag(domain.GeoPoint{Lat: 2, Lon: 2})
	mock.Add(DefaultDebounce)
	if p.count() != 1 {
		t.Errorf("expected new interactions to publish after unlock, got %d", p.count())
	}
}

func TestCoordinator_BindIsIdempotent(t *testing.T) {
	c, w, mock, p := newTestCoordinator(t)
	c.BindInteractionEvents()
	c.BindInteractionEvents()

	for _, kind := range domain.InteractionKinds {
		if n := w.callbackCount(kind); n != 1 {
			t.Errorf("expected 1 %s callback, got %d", kind, n)
		}
	}

	w.emit(domain.InteractionZoomEnd)
	mock.Add(DefaultDebounce)
	if p.count() != 1 {
		t.Errorf("expected 1 notification, got %d", p.count())
	}
}

func TestCoordinator_EveryInteractionKindSchedules(t *testing.T) {
	for _, kind := range domain.InteractionKinds {
		t.Run(string(kind), func(t *testing.T) {
			_, w, mock, p := newTestCoordinator(t)
			w.emit(kind)
			mock.Add(DefaultDebounce)
			if p.count() != 1 {
				t.Errorf("expected 1 notification, got %d", p.count())
			}
		})
	}
}

func TestCoordinator_Unbind(t *testing.T) {
	c, w, mock, p := newTestCoordinator(t)

	w.drag(domain.GeoPoint{Lat: 1})
	c.UnbindInteractionEvents()

	if s := c.State(); s != StateUnbound {
		t.Errorf("expected %s, got %s", StateUnbound, s)
	}
	mock.Add(time.Second)
	if p.count() != 0 {
		t.Errorf("pending debounce must be cancelled, got %d notifications", p.count())
	}
	if n := c.Events().ListenerCount(EventViewportChanged); n != 0 {
		t.Errorf("expected listeners to be cleared, got %d", n)
	}
	for _, kind := range domain.InteractionKinds {
		if n := w.callbackCount(kind); n != 0 {
			t.Errorf("expected %s callback to be detached, got %d", kind, n)
		}
	}

	// A callback already in flight when unbinding must not schedule.
	c.handleInteraction(domain.InteractionMoveEnd)
	if s := c.State(); s != StateUnbound {
		t.Errorf("late callback changed state to %s", s)
	}

	c.BindInteractionEvents()
	if n := w.callbackCount(domain.InteractionMoveEnd); n != 1 {
		t.Errorf("expected rebind to attach again, got %d callbacks", n)
	}
}

func TestCoordinator_StaleFiringIsIgnored(t *testing.T) {
	c, w, mock, p := newTestCoordinator(t)

	w.drag(domain.GeoPoint{Lat: 1})
	c.mu.Lock()
	stale := c.generation
	c.mu.Unlock()

	w.drag(domain.GeoPoint{Lat: 2})

	// Simulate a real timer that fired before Stop could cancel it.
	c.fire(stale)
	if p.count() != 0 {
		t.Fatalf("stale firing published %d notifications", p.count())
	}
	if s := c.State(); s != StateDebouncePending {
		t.Errorf("stale firing must leave the pending timer alone, got %s", s)
	}

	mock.Add(DefaultDebounce)
	if p.count() != 1 {
		t.Errorf("expected the current firing to publish once, got %d", p.count())
	}
}

func TestCoordinator_ForcePublishIsolatesFailures(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)

	var aRan atomic.Bool
	c.Events().Subscribe(EventViewportChanged, eventbus.Func(func(ctx context.Context, args ...any) error {
		aRan.Store(true)
		return nil
	}))
	c.Events().Subscribe(EventViewportChanged, eventbus.Func(func(ctx context.Context, args ...any) error {
		return errListener
	}))

	calls := 0
	var settled string
	err := c.ForcePublish(context.Background(), func(bbox string) {
		calls++
		settled = bbox
	})

	if calls != 1 {
		t.Fatalf("expected onSettled exactly once, got %d", calls)
	}
	if !aRan.Load() {
		t.Error("expected the healthy listener to run")
	}
	if !errors.Is(err, errListener) {
		t.Errorf("expected aggregate error to contain the listener failure, got %v", err)
	}
	if settled != "-1,-1,1,1" {
		t.Errorf("expected settled box -1,-1,1,1, got %q", settled)
	}
}

func TestCoordinator_ForcePublishIgnoresLock(t *testing.T) {
	c, _, _, p := newTestCoordinator(t)
	c.SetLock(true)

	if err := c.ForcePublish(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.count() != 1 {
		t.Fatalf("expected forced notification while locked, got %d", p.count())
	}
	p.mu.Lock()
	forced := p.forced[0]
	p.mu.Unlock()
	if !forced {
		t.Error("expected listener context to be marked forced")
	}
}

func TestCoordinator_ForcePublishWaitsForListeners(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)

	var done atomic.Bool
	c.Events().Subscribe(EventViewportChanged, eventbus.Func(func(ctx context.Context, args ...any) error {
		time.Sleep(20 * time.Millisecond)
		done.Store(true)
		return nil
	}))

	var sawDone bool
	_ = c.ForcePublish(context.Background(), func(string) {
		sawDone = done.Load()
	})
	if !sawDone {
		t.Error("onSettled ran before the slow listener finished")
	}
}

func TestCoordinator_DebouncedContextNotForced(t *testing.T) {
	_, w, mock, p := newTestCoordinator(t)

	w.drag(domain.GeoPoint{Lat: 1})
	mock.Add(DefaultDebounce)

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.forced) != 1 || p.forced[0] {
		t.Errorf("expected one non-forced notification, got %v", p.forced)
	}
}

func TestWithDebounce(t *testing.T) {
	mock := clock.NewMock()
	w := newFakeWidget(&eventLog{})
	c := NewCoordinator(w, WithClock(mock), WithDebounce(50*time.Millisecond))
	c.BindInteractionEvents()
	p := &published{}
	c.Events().Subscribe(EventViewportChanged, p.listener())

	w.drag(domain.GeoPoint{Lat: 1})
	mock.Add(50 * time.Millisecond)
	if p.count() != 1 {
		t.Errorf("expected custom debounce to apply, got %d notifications", p.count())
	}
}
