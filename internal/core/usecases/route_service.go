package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
)

// maxWaypoints bounds stateless route requests.
const maxWaypoints = 25

// RouteService plans routes outside of any map session.
type RouteService struct {
	router ports.Router
}

// NewRouteService creates a new RouteService.
func NewRouteService(router ports.Router) *RouteService {
	return &RouteService{router: router}
}

// Plan computes a route through waypoints for vehicle (default car).
func (s *RouteService) Plan(ctx context.Context, waypoints []domain.GeoPoint, vehicle domain.Vehicle) (*domain.Route, error) {
	if len(waypoints) < 2 {
		return nil, domain.ErrTooFewWaypoints
	}
	if len(waypoints) > maxWaypoints {
		return nil, fmt.Errorf("%w: at most %d are allowed, got %d", domain.ErrInvalidWaypoints, maxWaypoints, len(waypoints))
	}
	for _, wp := range waypoints {
		if wp.Lat < -90 || wp.Lat > 90 || wp.Lon < -180 || wp.Lon > 180 {
			return nil, fmt.Errorf("%w: %v,%v is out of range", domain.ErrInvalidWaypoints, wp.Lat, wp.Lon)
		}
	}

	profile, err := domain.ProfileFor(vehicle)
	if err != nil {
		return nil, err
	}

	overlay, err := s.router.ComputeRoute(ctx, waypoints, profile)
	if err != nil {
		return nil, fmt.Errorf("compute %s route: %w", profile, err)
	}
	route := overlay.Route()
	return &route, nil
}
