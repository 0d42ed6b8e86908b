package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownVehicle is returned for a vehicle name outside car/bicycle/foot.
	ErrUnknownVehicle = errors.New("unknown vehicle")

	ErrTooFewWaypoints = errors.New("a route needs at least two waypoints")

	// ErrInvalidWaypoints is returned for out-of-range or too many waypoints.
	ErrInvalidWaypoints = errors.New("invalid waypoints")
)

// Vehicle is the means of travel requested by the user.
type Vehicle string

const (
	VehicleCar     Vehicle = "car"
	VehicleBicycle Vehicle = "bicycle"
	VehicleFoot    Vehicle = "foot"
)

// RoutingProfile is the routing engine profile.
type RoutingProfile string

const (
	ProfileDriving RoutingProfile = "driving"
	ProfileCycling RoutingProfile = "cycling"
	ProfileWalking RoutingProfile = "walking"
)

// ProfileFor maps a vehicle to its routing profile. An empty vehicle
// defaults to car.
func ProfileFor(v Vehicle) (RoutingProfile, error) {
	switch v {
	case "", VehicleCar:
		return ProfileDriving, nil
	case VehicleBicycle:
		return ProfileCycling, nil
	case VehicleFoot:
		return ProfileWalking, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVehicle, v)
	}
}

// Route is a computed path between waypoints.
type Route struct {
	Waypoints []GeoPoint     `json:"waypoints"`
	Profile   RoutingProfile `json:"profile"`
	Geometry  GeoLineString  `json:"geometry"`
	Distance  float64        `json:"distance"` // meters
	Duration  float64        `json:"duration"` // seconds
}
