package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
	"github.com/samirrijal/barrierfree/internal/pkg/geospatial"
)

// ErrOverridesDisabled is returned when writing overrides without a
// repository.
var ErrOverridesDisabled = errors.New("accessibility overrides are not configured")

// NodeService serves accessibility nodes: upstream Wheelmap data, cached
// per bounding box, with community overrides applied on every read.
type NodeService struct {
	source    ports.NodeSource
	overrides ports.AccessibilityRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	ttl       int
}

// NewNodeService creates a new NodeService. overrides, cache and
// publisher may be nil.
func NewNodeService(source ports.NodeSource, overrides ports.AccessibilityRepository, cache ports.CacheService, publisher ports.EventPublisher, ttlSeconds int) *NodeService {
	if ttlSeconds <= 0 {
		ttlSeconds = 120
	}
	return &NodeService{
		source:    source,
		overrides: overrides,
		cache:     cache,
		publisher: publisher,
		ttl:       ttlSeconds,
	}
}

// NodesCacheKey is the cache key of the upstream nodes of a box.
func NodesCacheKey(bounds domain.Bounds) string {
	return "nodes:" + bounds.String()
}

// Nodes returns the named nodes inside bounds with overrides applied.
func (s *NodeService) Nodes(ctx context.Context, bounds domain.Bounds) ([]domain.Node, error) {
	nodes, err := s.upstream(ctx, bounds)
	if err != nil {
		return nil, err
	}

	named := make([]domain.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Name != nil {
			named = append(named, n)
		}
	}
	return s.applyOverrides(ctx, named), nil
}

// Markers returns the markers for bounds.
func (s *NodeService) Markers(ctx context.Context, bounds domain.Bounds) ([]domain.Marker, error) {
	nodes, err := s.Nodes(ctx, bounds)
	if err != nil {
		return nil, err
	}
	return MarkersFromNodes(nodes), nil
}

// Nearby returns nodes within radiusMeters of (lat, lon), closest first.
func (s *NodeService) Nearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Node, error) {
	if radiusMeters <= 0 || radiusMeters > 5000 {
		radiusMeters = 500
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	center := domain.GeoPoint{Lat: lat, Lon: lon}
	nodes, err := s.Nodes(ctx, geospatial.BoundsAround(center, radiusMeters))
	if err != nil {
		return nil, err
	}

	out := nodes[:0]
	for _, n := range nodes {
		d := geospatial.Distance(center, domain.GeoPoint{Lat: n.Lat, Lon: n.Lon})
		if d > radiusMeters {
			continue
		}
		n.Distance = &d
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Warm fetches bounds from upstream and refreshes the cache entry. It
// returns the number of nodes cached.
func (s *NodeService) Warm(ctx context.Context, bounds domain.Bounds) (int, error) {
	nodes, err := s.source.FetchNodes(ctx, bounds)
	if err != nil {
		return 0, err
	}
	if s.cache == nil {
		return len(nodes), nil
	}
	data, err := json.Marshal(nodes)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, NodesCacheKey(bounds), data, s.ttl); err != nil {
		return 0, fmt.Errorf("cache nodes: %w", err)
	}
	return len(nodes), nil
}

// SetAccessibility stores an override for osmID and announces that the
// node at position changed so live maps showing it refresh.
func (s *NodeService) SetAccessibility(ctx context.Context, osmID string, acc domain.Accessibility, position domain.GeoPoint) error {
	if osmID == "" {
		return fmt.Errorf("osm id must not be empty")
	}
	if !acc.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAccessibility, acc)
	}
	if s.overrides == nil {
		return ErrOverridesDisabled
	}

	if err := s.overrides.Upsert(ctx, &domain.AccessibilityOverride{OSMID: osmID, Accessibility: acc}); err != nil {
		return fmt.Errorf("store override: %w", err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishNodesUpdated(ctx, position); err != nil {
			slog.Warn("publish nodes-updated failed", "osm_id", osmID, "error", err)
		}
	}
	return nil
}

// Overrides lists stored overrides with the total count.
func (s *NodeService) Overrides(ctx context.Context, limit, offset int) ([]domain.AccessibilityOverride, int, error) {
	if s.overrides == nil {
		return nil, 0, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.overrides.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.overrides.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *NodeService) upstream(ctx context.Context, bounds domain.Bounds) ([]domain.Node, error) {
	key := NodesCacheKey(bounds)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var nodes []domain.Node
			if err := json.Unmarshal(data, &nodes); err == nil {
				return nodes, nil
			}
		}
	}

	nodes, err := s.source.FetchNodes(ctx, bounds)
	if err != nil {
		return nil, fmt.Errorf("fetch nodes: %w", err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(nodes); err == nil {
			_ = s.cache.Set(ctx, key, data, s.ttl)
		}
	}
	return nodes, nil
}

// applyOverrides replaces the wheelchair value of nodes that have a
// stored override. Lookup failures leave the upstream values in place.
func (s *NodeService) applyOverrides(ctx context.Context, nodes []domain.Node) []domain.Node {
	if s.overrides == nil || len(nodes) == 0 {
		return nodes
	}

	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.OSMID != "" {
			ids = append(ids, n.OSMID)
		}
	}
	if len(ids) == 0 {
		return nodes
	}

	found, err := s.overrides.GetByOSMIDs(ctx, ids)
	if err != nil {
		slog.Warn("accessibility overrides unavailable", "error", err)
		return nodes
	}
	for i := range nodes {
		if acc, ok := found[nodes[i].OSMID]; ok {
			nodes[i].Wheelchair = acc.Wheelchair()
		}
	}
	return nodes
}
