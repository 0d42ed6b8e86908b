package geospatial

import (
	"math"

	"github.com/samirrijal/barrierfree/internal/core/domain"
)

// TileSize is the edge of a web-mercator tile in pixels.
const TileSize = 256

// MaxLatitude is the latitude at which the web-mercator square ends.
const MaxLatitude = 85.0511287798

// project converts a coordinate to global pixel space at zoom.
func project(lat, lon float64, zoom int) (x, y float64) {
	scale := TileSize * math.Exp2(float64(zoom))
	lat = clamp(lat, -MaxLatitude, MaxLatitude)
	sin := math.Sin(toRad(lat))

	x = (lon + 180) / 360 * scale
	y = (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * scale
	return x, y
}

// unproject converts global pixel space at zoom back to a coordinate.
func unproject(x, y float64, zoom int) (lat, lon float64) {
	scale := TileSize * math.Exp2(float64(zoom))
	lon = x/scale*360 - 180
	n := math.Pi * (1 - 2*y/scale)
	lat = math.Atan(math.Sinh(n)) * 180 / math.Pi
	return lat, lon
}

// ViewportBounds returns the box visible in a width×height pixel viewport
// centred on center at zoom. Latitudes are clamped to the mercator square
// and longitudes to [-180, 180].
func ViewportBounds(center domain.GeoPoint, zoom, width, height int) domain.Bounds {
	cx, cy := project(center.Lat, center.Lon, zoom)
	hw, hh := float64(width)/2, float64(height)/2

	maxLat, minLon := unproject(cx-hw, cy-hh, zoom)
	minLat, maxLon := unproject(cx+hw, cy+hh, zoom)

	return domain.Bounds{
		MinLat: clamp(minLat, -MaxLatitude, MaxLatitude),
		MinLon: clamp(minLon, -180, 180),
		MaxLat: clamp(maxLat, -MaxLatitude, MaxLatitude),
		MaxLon: clamp(maxLon, -180, 180),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
