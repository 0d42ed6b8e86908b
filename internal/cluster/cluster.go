// Package cluster assigns a visual weight to marker clusters: a size
// bucket and a colour on a fixed four-stop gradient.
package cluster

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/samirrijal/barrierfree/internal/core/domain"
)

// Size buckets in display units.
const (
	SizeSmall  = 30
	SizeMedium = 40
	SizeLarge  = 50
)

// Counts at or above saturationCount use the last gradient stop.
const saturationCount = 100

type stop struct {
	ratio float64
	color colorful.Color
}

// gradient runs green → yellow → orange → red.
var gradient = []stop{
	{0.0, rgb(0x4c, 0xaf, 0x50)},
	{0.33, rgb(0xff, 0xeb, 0x3b)},
	{0.66, rgb(0xff, 0x98, 0x00)},
	{1.0, rgb(0xf4, 0x43, 0x36)},
}

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Size returns the display size of a cluster holding count markers.
func Size(count int) int {
	switch {
	case count < 10:
		return SizeSmall
	case count < 50:
		return SizeMedium
	default:
		return SizeLarge
	}
}

// Color returns the "#rrggbb" colour of a cluster holding count markers.
func Color(count int) string {
	ratio := float64(count-1) / float64(saturationCount-1)
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	lo, hi := gradient[0], gradient[len(gradient)-1]
	for i := 0; i < len(gradient)-1; i++ {
		if ratio >= gradient[i].ratio && ratio <= gradient[i+1].ratio {
			lo, hi = gradient[i], gradient[i+1]
			break
		}
	}

	local := 0.0
	if span := hi.ratio - lo.ratio; span > 0 {
		local = (ratio - lo.ratio) / span
	}

	// BlendRgb is plain per-channel lerp; Hex rounds each channel to the
	// nearest integer.
	return lo.color.BlendRgb(hi.color, local).Hex()
}

// Style returns the full cluster icon for count markers.
func Style(count int) domain.ClusterIcon {
	return domain.ClusterIcon{
		Count: count,
		Size:  Size(count),
		Color: Color(count),
	}
}

// Palette returns the styles for counts 1..n. Browsers receive it once per
// cluster layer and look clusters up by count, clamping to the last entry.
func Palette(n int) []domain.ClusterIcon {
	if n < 1 {
		return nil
	}
	out := make([]domain.ClusterIcon, n)
	for i := range out {
		out[i] = Style(i + 1)
	}
	return out
}

// PaletteSize covers every count that maps to a distinct colour.
const PaletteSize = saturationCount
