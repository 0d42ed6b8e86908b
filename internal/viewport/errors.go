package viewport

import (
	"errors"

	"github.com/samirrijal/barrierfree/internal/core/domain"
)

var (
	// ErrNotAttached is returned by Initialize when no render target was
	// attached.
	ErrNotAttached = errors.New("viewport: container must be attached before initialize")

	// ErrNotInitialized is returned by every operation that needs the map
	// widget before Initialize succeeded.
	ErrNotInitialized = errors.New("viewport: map must be initialized first")

	ErrAlreadyInitialized = errors.New("viewport: map already initialized")
	ErrNoRouter           = errors.New("viewport: no router configured")
	ErrTooFewWaypoints    = domain.ErrTooFewWaypoints
)
