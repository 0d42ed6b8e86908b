package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/usecases"
)

func TestRouteService_Plan(t *testing.T) {
	router := &mockRouter{}
	svc := usecases.NewRouteService(router)
	wps := []domain.GeoPoint{{Lat: 43.26, Lon: -2.93}, {Lat: 43.27, Lon: -2.94}}

	route, err := svc.Plan(context.Background(), wps, domain.VehicleBicycle)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route.Profile != domain.ProfileCycling {
		t.Errorf("expected cycling, got %s", route.Profile)
	}

	if _, err := svc.Plan(context.Background(), wps, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if router.profiles[1] != domain.ProfileDriving {
		t.Errorf("expected default driving, got %s", router.profiles[1])
	}
}

func TestRouteService_PlanValidation(t *testing.T) {
	router := &mockRouter{}
	svc := usecases.NewRouteService(router)

	if _, err := svc.Plan(context.Background(), []domain.GeoPoint{{}}, ""); !errors.Is(err, domain.ErrTooFewWaypoints) {
		t.Errorf("expected ErrTooFewWaypoints, got %v", err)
	}
	wps := []domain.GeoPoint{{Lat: 1}, {Lat: 2}}
	if _, err := svc.Plan(context.Background(), wps, "rocket"); !errors.Is(err, domain.ErrUnknownVehicle) {
		t.Errorf("expected ErrUnknownVehicle, got %v", err)
	}
	if _, err := svc.Plan(context.Background(), []domain.GeoPoint{{Lat: 91}, {Lat: 2}}, ""); !errors.Is(err, domain.ErrInvalidWaypoints) {
		t.Errorf("expected out-of-range waypoint to be rejected, got %v", err)
	}
	if len(router.profiles) != 0 {
		t.Errorf("router must not be called for invalid input, got %d calls", len(router.profiles))
	}
}

func TestRouteService_PlanRouterError(t *testing.T) {
	boom := errors.New("osrm down")
	svc := usecases.NewRouteService(&mockRouter{err: boom})
	_, err := svc.Plan(context.Background(), []domain.GeoPoint{{Lat: 1}, {Lat: 2}}, domain.VehicleFoot)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped router error, got %v", err)
	}
}
