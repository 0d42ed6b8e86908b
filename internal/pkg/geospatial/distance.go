package geospatial

import (
	"math"

	"github.com/samirrijal/barrierfree/internal/core/domain"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371008.8

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b domain.GeoPoint) float64 {
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLat := lat2 - lat1
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// BoundsAround returns the smallest box holding every point within
// radius meters of center. The box is clamped to valid coordinates; when
// the circle reaches a pole it spans every longitude.
func BoundsAround(center domain.GeoPoint, radius float64) domain.Bounds {
	angular := radius / EarthRadius
	latDelta := toDeg(angular)
	b := domain.Bounds{
		MinLat: math.Max(-90, center.Lat-latDelta),
		MaxLat: math.Min(90, center.Lat+latDelta),
		MinLon: -180,
		MaxLon: 180,
	}
	if b.MinLat == -90 || b.MaxLat == 90 {
		return b
	}

	s := math.Sin(angular) / math.Cos(toRad(center.Lat))
	if s >= 1 {
		return b
	}
	lonDelta := toDeg(math.Asin(s))
	b.MinLon = math.Max(-180, center.Lon-lonDelta)
	b.MaxLon = math.Min(180, center.Lon+lonDelta)
	return b
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
