package viewport

import (
	"context"
	"log/slog"
	"time"

	"github.com/facebookgo/clock"

	"github.com/samirrijal/barrierfree/internal/eventbus"
)

// DefaultDebounce is the quiet period after the last user interaction
// before a viewport-changed notification is published.
const DefaultDebounce = 500 * time.Millisecond

type settings struct {
	clock    clock.Clock
	debounce time.Duration
	logger   *slog.Logger
	ctx      context.Context
	bus      *eventbus.Bus
}

// Option customises a Surface or Coordinator.
type Option func(*settings)

// WithClock replaces the wall clock, typically with clock.NewMock() in tests.
func WithClock(c clock.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithDebounce sets the debounce window. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithContext sets the context handed to listeners of debounced
// notifications, which have no caller to take one from.
func WithContext(ctx context.Context) Option {
	return func(s *settings) { s.ctx = ctx }
}

// WithBus shares an existing event bus instead of creating one.
func WithBus(b *eventbus.Bus) Option {
	return func(s *settings) { s.bus = b }
}

func newSettings(opts []Option) settings {
	s := settings{
		clock:    clock.New(),
		debounce: DefaultDebounce,
		logger:   slog.Default(),
		ctx:      context.Background(),
	}
	for _, o := range opts {
		o(&s)
	}
	if s.bus == nil {
		s.bus = eventbus.New()
	}
	return s
}
