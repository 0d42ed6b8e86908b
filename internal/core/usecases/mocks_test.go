package usecases_test

import (
	"context"
	"errors"
	"sync"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
)

var errMiss = errors.New("miss")

// --- Mock NodeSource ---

type mockSource struct {
	mu      sync.Mutex
	calls   int
	fetchFn func(ctx context.Context, bounds domain.Bounds) ([]domain.Node, error)
}

func (m *mockSource) FetchNodes(ctx context.Context, bounds domain.Bounds) ([]domain.Node, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fetchFn != nil {
		return m.fetchFn(ctx, bounds)
	}
	return nil, nil
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Mock AccessibilityRepository ---

type mockOverrides struct {
	upserted []domain.AccessibilityOverride
	byID     map[string]domain.Accessibility
	err      error
	listFn   func(ctx context.Context, limit, offset int) ([]domain.AccessibilityOverride, error)
}

func (m *mockOverrides) Upsert(ctx context.Context, o *domain.AccessibilityOverride) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, *o)
	return nil
}

func (m *mockOverrides) UpsertBatch(ctx context.Context, overrides []domain.AccessibilityOverride) error {
	return nil
}

func (m *mockOverrides) GetByOSMIDs(ctx context.Context, osmIDs []string) (map[string]domain.Accessibility, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]domain.Accessibility)
	for _, id := range osmIDs {
		if acc, ok := m.byID[id]; ok {
			out[id] = acc
		}
	}
	return out, nil
}

func (m *mockOverrides) List(ctx context.Context, limit, offset int) ([]domain.AccessibilityOverride, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockOverrides) Count(ctx context.Context) (int, error) { return len(m.byID), nil }

// --- Mock Geocoder ---

type mockGeocoder struct {
	mu      sync.Mutex
	queries []domain.PlaceQuery
	places  []domain.Place
	err     error
}

func (m *mockGeocoder) Search(ctx context.Context, q domain.PlaceQuery) ([]domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	return m.places, m.err
}

func (m *mockGeocoder) calls() []domain.PlaceQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PlaceQuery(nil), m.queries...)
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte), ttls: make(map[string]int)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	viewport []ports.ViewportEvent
	updated  []domain.GeoPoint
	err      error
}

func (m *mockPublisher) PublishViewportChanged(ctx context.Context, event ports.ViewportEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = append(m.viewport, event)
	return m.err
}

func (m *mockPublisher) PublishNodesUpdated(ctx context.Context, point domain.GeoPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, point)
	return m.err
}

func (m *mockPublisher) viewportEvents() []ports.ViewportEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.ViewportEvent(nil), m.viewport...)
}

// --- Mock Router ---

type mockOverlay struct {
	route domain.Route
}

func (o *mockOverlay) LayerID() string     { return "route" }
func (o *mockOverlay) LayerKind() string   { return "route" }
func (o *mockOverlay) Route() domain.Route { return o.route }

type mockRouter struct {
	profiles []domain.RoutingProfile
	err      error
}

func (m *mockRouter) ComputeRoute(ctx context.Context, waypoints []domain.GeoPoint, profile domain.RoutingProfile) (ports.RouteOverlay, error) {
	m.profiles = append(m.profiles, profile)
	if m.err != nil {
		return nil, m.err
	}
	return &mockOverlay{route: domain.Route{Waypoints: waypoints, Profile: profile, Distance: 1200}}, nil
}

func strPtr(s string) *string { return &s }
