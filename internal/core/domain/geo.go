package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidBounds is returned when a bounding box string cannot be parsed.
var ErrInvalidBounds = errors.New("invalid bounding box")

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoLineString represents an ordered sequence of geographic coordinates.
type GeoLineString struct {
	Coordinates []GeoPoint `json:"coordinates"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// String serializes the box as "minLon,minLat,maxLon,maxLat".
// This is the format carried by viewport-changed notifications and the
// bbox query parameter of the Wheelmap API.
func (b Bounds) String() string {
	return strings.Join([]string{
		formatCoord(b.MinLon),
		formatCoord(b.MinLat),
		formatCoord(b.MaxLon),
		formatCoord(b.MaxLat),
	}, ",")
}

// Contains reports whether p lies inside the box, edges included.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Center returns the midpoint of the box.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}

// IsZero reports whether the box is the zero value.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

// ParseBounds parses a "minLon,minLat,maxLon,maxLat" string.
func ParseBounds(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("%w: expected 4 values, got %d", ErrInvalidBounds, len(parts))
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("%w: %q: %v", ErrInvalidBounds, p, err)
		}
		v[i] = f
	}

	b := Bounds{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}
	if b.MinLat > b.MaxLat || b.MinLon > b.MaxLon {
		return Bounds{}, fmt.Errorf("%w: min exceeds max", ErrInvalidBounds)
	}
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLon < -180 || b.MaxLon > 180 {
		return Bounds{}, fmt.Errorf("%w: out of range", ErrInvalidBounds)
	}
	return b, nil
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
