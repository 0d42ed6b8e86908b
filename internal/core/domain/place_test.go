package domain

import "testing"

func TestOSMMarkerID(t *testing.T) {
	tests := []struct {
		osmType string
		id      int64
		want    MarkerID
	}{
		{"node", 6601681822, "6601681822"},
		{"way", 42, ""},
		{"relation", 42, ""},
		{"node", 0, ""},
	}
	for _, tt := range tests {
		if got := OSMMarkerID(tt.osmType, tt.id); got != tt.want {
			t.Errorf("OSMMarkerID(%s, %d) = %q, want %q", tt.osmType, tt.id, got, tt.want)
		}
	}
}

func TestPlace_Label(t *testing.T) {
	tests := []struct {
		place Place
		want  string
	}{
		{Place{Name: "Guggenheim", City: "Bilbao"}, "Guggenheim, Bilbao"},
		{Place{Name: "Bilbao", City: "Bilbao"}, "Bilbao"},
		{Place{Name: "Abando"}, "Abando"},
		{Place{City: "Bilbao"}, "Bilbao"},
	}
	for _, tt := range tests {
		if got := tt.place.Label(); got != tt.want {
			t.Errorf("Label(%+v) = %q, want %q", tt.place, got, tt.want)
		}
	}
}
