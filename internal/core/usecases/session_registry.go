package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/pkg/metrics"
)

// ErrDuplicateSession is returned when a session id is registered twice.
var ErrDuplicateSession = errors.New("session already registered")

// SessionRegistry tracks the live map sessions of this process.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*MapSession
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*MapSession)}
}

func (r *SessionRegistry) Add(s *MapSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID()]; ok {
		return ErrDuplicateSession
	}
	r.sessions[s.ID()] = s
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return nil
}

func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
}

func (r *SessionRegistry) Get(id string) (*MapSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// RefreshWhere force-refreshes every session whose viewport shows point,
// concurrently. It returns how many sessions were refreshed and the
// joined errors of those that failed.
func (r *SessionRegistry) RefreshWhere(ctx context.Context, point domain.GeoPoint) (int, error) {
	r.mu.RLock()
	var targets []*MapSession
	for _, s := range r.sessions {
		if s.Shows(point) {
			targets = append(targets, s)
		}
	}
	r.mu.RUnlock()

	if len(targets) == 0 {
		return 0, nil
	}

	p := pool.New().WithErrors().WithMaxGoroutines(8)
	for _, s := range targets {
		p.Go(func() error {
			return s.Refresh(ctx)
		})
	}
	return len(targets), p.Wait()
}
