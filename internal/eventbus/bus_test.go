package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func recorder(out *[]string, name string) Listener {
	return Func(func(ctx context.Context, args ...any) error {
		*out = append(*out, name)
		return nil
	})
}

func TestBus_SubscribeIsIdempotent(t *testing.T) {
	bus := New()
	var calls []string
	l := recorder(&calls, "a")

	bus.Subscribe("viewport-changed", l)
	bus.Subscribe("viewport-changed", l)

	if n := bus.ListenerCount("viewport-changed"); n != 1 {
		t.Fatalf("expected 1 listener, got %d", n)
	}
	if err := bus.Publish(context.Background(), "viewport-changed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 1 {
		t.Errorf("expected 1 call, got %d", len(calls))
	}
}

func TestBus_PublishRegistrationOrder(t *testing.T) {
	bus := New()
	var calls []string
	bus.Subscribe("e", recorder(&calls, "first"))
	bus.Subscribe("e", recorder(&calls, "second"))
	bus.Subscribe("e", recorder(&calls, "third"))

	_ = bus.Publish(context.Background(), "e")

	want := []string{"first", "second", "third"}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], calls[i])
		}
	}
}

func TestBus_PublishPassesArgs(t *testing.T) {
	bus := New()
	var got string
	bus.Subscribe("viewport-changed", Func(func(ctx context.Context, args ...any) error {
		got = args[0].(string)
		return nil
	}))

	_ = bus.Publish(context.Background(), "viewport-changed", "1,2,3,4")
	if got != "1,2,3,4" {
		t.Errorf("expected bbox argument, got %q", got)
	}
}

func TestBus_PublishUsesSnapshot(t *testing.T) {
	bus := New()
	var calls []string
	late := recorder(&calls, "late")
	var second Listener

	first := Func(func(ctx context.Context, args ...any) error {
		calls = append(calls, "first")
		bus.Subscribe("e", late)
		bus.Unsubscribe("e", second)
		return nil
	})
	second = recorder(&calls, "second")

	bus.Subscribe("e", first)
	bus.Subscribe("e", second)

	_ = bus.Publish(context.Background(), "e")
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("first pass should see the pre-dispatch set, got %v", calls)
	}

	calls = nil
	_ = bus.Publish(context.Background(), "e")
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "late" {
		t.Fatalf("second pass should see the updated set, got %v", calls)
	}
}

func TestBus_PublishStopsAtFirstError(t *testing.T) {
	bus := New()
	boom := errors.New("boom")
	var calls []string

	bus.Subscribe("e", recorder(&calls, "a"))
	bus.Subscribe("e", Func(func(ctx context.Context, args ...any) error { return boom }))
	bus.Subscribe("e", recorder(&calls, "c"))

	err := bus.Publish(context.Background(), "e")
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(calls) != 1 {
		t.Errorf("expected listeners after the failure to be skipped, got %v", calls)
	}
}

func TestBus_SubscribeOnce(t *testing.T) {
	bus := New()
	var calls []string
	bus.SubscribeOnce("e", recorder(&calls, "once"))

	_ = bus.Publish(context.Background(), "e")
	_ = bus.Publish(context.Background(), "e")

	if len(calls) != 1 {
		t.Errorf("expected 1 call, got %d", len(calls))
	}
	if n := bus.ListenerCount("e"); n != 0 {
		t.Errorf("expected once listener to be removed, got %d listeners", n)
	}
}

func TestBus_SubscribeOnceRecursivePublish(t *testing.T) {
	bus := New()
	count := 0
	bus.SubscribeOnce("e", Func(func(ctx context.Context, args ...any) error {
		count++
		return bus.Publish(ctx, "e")
	}))

	if err := bus.Publish(context.Background(), "e"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected once listener to run once, ran %d times", count)
	}
}

func TestBus_SubscribeOnceCancel(t *testing.T) {
	bus := New()
	var calls []string
	handle := bus.SubscribeOnce("e", recorder(&calls, "once"))
	bus.Unsubscribe("e", handle)

	_ = bus.Publish(context.Background(), "e")
	if len(calls) != 0 {
		t.Errorf("expected cancelled once listener not to run, got %v", calls)
	}
}

func TestBus_UnsubscribeAll(t *testing.T) {
	bus := New()
	var calls []string
	bus.Subscribe("a", recorder(&calls, "a"))
	bus.Subscribe("b", recorder(&calls, "b"))
	bus.Subscribe("c", recorder(&calls, "c"))

	bus.UnsubscribeAll("a")
	if bus.ListenerCount("a") != 0 || bus.ListenerCount("b") != 1 {
		t.Fatal("UnsubscribeAll(name) should only clear that event")
	}

	bus.UnsubscribeAll()
	if bus.ListenerCount("b") != 0 || bus.ListenerCount("c") != 0 {
		t.Fatal("UnsubscribeAll() should clear every event")
	}
}

func TestBus_ListenersIntrospection(t *testing.T) {
	bus := New()
	if got := bus.Listeners("none"); len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}

	var calls []string
	a := recorder(&calls, "a")
	b := recorder(&calls, "b")
	bus.Subscribe("e", a)
	bus.Subscribe("e", b)

	got := bus.Listeners("e")
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("unexpected listeners %v", got)
	}

	got[0] = nil
	if bus.Listeners("e")[0] != a {
		t.Error("Listeners must return a copy")
	}
	if len(calls) != 0 {
		t.Error("introspection must not invoke listeners")
	}
}

func TestBus_PublishAwaitingIsolatesFailures(t *testing.T) {
	bus := New()
	boom := errors.New("boom")
	var okRan, slowRan atomic.Bool

	bus.Subscribe("e", Func(func(ctx context.Context, args ...any) error {
		okRan.Store(true)
		return nil
	}))
	bus.Subscribe("e", Func(func(ctx context.Context, args ...any) error {
		return boom
	}))
	bus.Subscribe("e", Func(func(ctx context.Context, args ...any) error {
		panic("listener exploded")
	}))
	bus.Subscribe("e", Func(func(ctx context.Context, args ...any) error {
		time.Sleep(20 * time.Millisecond)
		slowRan.Store(true)
		return nil
	}))

	err := bus.PublishAwaiting(context.Background(), "e")
	if err == nil {
		t.Fatal("expected aggregate error")
	}
	if !okRan.Load() || !slowRan.Load() {
		t.Error("healthy listeners must complete before PublishAwaiting returns")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected aggregate to contain boom, got %v", err)
	}
	if !errors.Is(err, ErrListenerPanic) {
		t.Errorf("expected aggregate to contain the recovered panic, got %v", err)
	}

	var lerr *ListenerError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected *ListenerError, got %T", err)
	}
	if lerr.Event != "e" {
		t.Errorf("expected event e, got %s", lerr.Event)
	}
}

func TestBus_PublishAwaitingWaitsForAll(t *testing.T) {
	bus := New()
	var mu sync.Mutex
	finished := 0
	for i := 0; i < 5; i++ {
		d := time.Duration(i) * 5 * time.Millisecond
		bus.Subscribe("e", Func(func(ctx context.Context, args ...any) error {
			time.Sleep(d)
			mu.Lock()
			finished++
			mu.Unlock()
			return nil
		}))
	}

	if err := bus.PublishAwaiting(context.Background(), "e"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if finished != 5 {
		t.Errorf("expected 5 finished listeners, got %d", finished)
	}
}

func TestBus_PublishAwaitingNoListeners(t *testing.T) {
	if err := New().PublishAwaiting(context.Background(), "nothing"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
