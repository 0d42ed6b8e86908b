package domain

import (
	"errors"
	"testing"
)

func TestProfileFor(t *testing.T) {
	tests := []struct {
		vehicle Vehicle
		want    RoutingProfile
	}{
		{"", ProfileDriving},
		{VehicleCar, ProfileDriving},
		{VehicleBicycle, ProfileCycling},
		{VehicleFoot, ProfileWalking},
	}
	for _, tt := range tests {
		got, err := ProfileFor(tt.vehicle)
		if err != nil {
			t.Errorf("%q: %v", tt.vehicle, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %s, want %s", tt.vehicle, got, tt.want)
		}
	}

	if _, err := ProfileFor("boat"); !errors.Is(err, ErrUnknownVehicle) {
		t.Errorf("expected ErrUnknownVehicle, got %v", err)
	}
}

func TestAccessibility(t *testing.T) {
	tests := []struct {
		a          Accessibility
		valid      bool
		wheelchair string
	}{
		{AccessibilityFull, true, "yes"},
		{AccessibilityPartial, true, "limited"},
		{AccessibilityNone, true, "no"},
		{"maybe", false, ""},
	}
	for _, tt := range tests {
		if got := tt.a.Valid(); got != tt.valid {
			t.Errorf("%q.Valid() = %v", tt.a, got)
		}
		if got := tt.a.Wheelchair(); got != tt.wheelchair {
			t.Errorf("%q.Wheelchair() = %q", tt.a, got)
		}
	}
}
