package usecases_test

import (
	"testing"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/usecases"
)

func TestWheelchairStatusOf(t *testing.T) {
	tests := map[string]domain.WheelchairStatus{
		"yes":     domain.WheelchairAccessible,
		"limited": domain.WheelchairLimited,
		"no":      domain.WheelchairNotAccessible,
		"":        domain.WheelchairUnknown,
		"unknown": domain.WheelchairUnknown,
	}
	for in, want := range tests {
		if got := usecases.WheelchairStatusOf(in); got != want {
			t.Errorf("WheelchairStatusOf(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestMarkersFromNodes(t *testing.T) {
	nodes := []domain.Node{
		{ID: 42, Name: nil},
		{
			ID:                    6601681822,
			Name:                  strPtr("El Camino Real"),
			Lat:                   37.53,
			Lon:                   -122.29,
			NodeType:              &domain.NodeType{Identifier: "stop_position"},
			Wheelchair:            "limited",
			WheelchairDescription: "one step",
			Street:                "Real",
			Housenumber:           "12",
			City:                  "Bilbao",
		},
		{ID: 7, Name: strPtr("Bar"), Website: "https://example.org"},
	}

	markers := usecases.MarkersFromNodes(nodes)
	if len(markers) != 2 {
		t.Fatalf("expected unnamed node to be dropped, got %d markers", len(markers))
	}

	m := markers[0]
	if m.ID != "6601681822" {
		t.Errorf("expected numeric id, got %s", m.ID)
	}
	if m.Position.Lat != 37.53 || m.Position.Lon != -122.29 {
		t.Errorf("unexpected position %v", m.Position)
	}
	if m.Visual.ClassName != "marker-limited marker-stop_position" {
		t.Errorf("unexpected class %q", m.Visual.ClassName)
	}
	if m.Visual.Title != "El Camino Real" || m.Visual.Alt != "El Camino Real" {
		t.Errorf("unexpected title/alt %+v", m.Visual)
	}
	if m.Popup.Type != "stop position" {
		t.Errorf("expected humanized type, got %q", m.Popup.Type)
	}
	if m.Popup.Address != "12, Real, Bilbao" {
		t.Errorf("unexpected address %q", m.Popup.Address)
	}
	if m.Popup.WheelchairDescription != "one step" {
		t.Errorf("expected description, got %q", m.Popup.WheelchairDescription)
	}

	bar := markers[1]
	if bar.Visual.Icon != "unknown" || bar.Visual.ClassName != "marker-unknown marker-default" {
		t.Errorf("unexpected visual %+v", bar.Visual)
	}
	if bar.Popup.Wheelchair != "" || bar.Popup.Website != "https://example.org" {
		t.Errorf("unexpected popup %+v", bar.Popup)
	}
}
