package eventbus

import (
	"errors"
	"fmt"
)

// ErrListenerPanic is matched by ListenerError values that wrap a
// recovered panic.
var ErrListenerPanic = errors.New("listener panicked")

// ListenerError reports the failure of a single listener during
// PublishAwaiting. Failures of several listeners are joined into one
// error; use errors.As to inspect them.
type ListenerError struct {
	// Event is the event name the listener was registered for.
	Event string

	// Index is the listener's position in the dispatch snapshot.
	Index int

	// Err is the returned error, nil when the listener panicked.
	Err error

	// Recovered is the value passed to panic(), if any.
	Recovered any
}

func (e *ListenerError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("listener %d for %q panicked: %v", e.Index, e.Event, e.Recovered)
	}
	return fmt.Sprintf("listener %d for %q: %v", e.Index, e.Event, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrListenerPanic.
func (e *ListenerError) Is(target error) bool {
	return target == ErrListenerPanic && e.Err == nil
}
