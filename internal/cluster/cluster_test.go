package cluster

import "testing"

func TestSize(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{1, SizeSmall},
		{9, SizeSmall},
		{10, SizeMedium},
		{49, SizeMedium},
		{50, SizeLarge},
		{5000, SizeLarge},
	}
	for _, tt := range tests {
		if got := Size(tt.count); got != tt.want {
			t.Errorf("Size(%d) = %d, want %d", tt.count, got, tt.want)
		}
	}
}

func TestColor_Endpoints(t *testing.T) {
	if got := Color(1); got != "#4caf50" {
		t.Errorf("Color(1) = %s, want first stop #4caf50", got)
	}
	if got := Color(100); got != "#f44336" {
		t.Errorf("Color(100) = %s, want last stop #f44336", got)
	}
}

func TestColor_Clamps(t *testing.T) {
	if got := Color(0); got != "#4caf50" {
		t.Errorf("Color(0) = %s, want first stop", got)
	}
	if got := Color(-20); got != "#4caf50" {
		t.Errorf("Color(-20) = %s, want first stop", got)
	}
	if got := Color(500); got != "#f44336" {
		t.Errorf("Color(500) = %s, want last stop", got)
	}
}

func TestColor_Interpolation(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{2, "#51b14f"},
		{17, "#a4cc46"},
		{34, "#ffea3a"},
		{50, "#ffc21e"},
		{67, "#ff9601"},
		{99, "#f44634"},
	}
	for _, tt := range tests {
		if got := Color(tt.count); got != tt.want {
			t.Errorf("Color(%d) = %s, want %s", tt.count, got, tt.want)
		}
	}
}

func TestColor_Deterministic(t *testing.T) {
	for count := 1; count <= 120; count++ {
		if a, b := Color(count), Color(count); a != b {
			t.Fatalf("Color(%d) not deterministic: %s vs %s", count, a, b)
		}
	}
}

func TestPalette(t *testing.T) {
	p := Palette(PaletteSize)
	if len(p) != PaletteSize {
		t.Fatalf("expected %d entries, got %d", PaletteSize, len(p))
	}
	if p[0].Count != 1 || p[0].Color != "#4caf50" || p[0].Size != SizeSmall {
		t.Errorf("unexpected first entry %+v", p[0])
	}
	last := p[len(p)-1]
	if last.Count != 100 || last.Color != "#f44336" || last.Size != SizeLarge {
		t.Errorf("unexpected last entry %+v", last)
	}
	if Palette(0) != nil {
		t.Error("Palette(0) should be nil")
	}
}
