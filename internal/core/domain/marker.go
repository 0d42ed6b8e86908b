package domain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// MarkerID identifies a marker. Wheelmap nodes use numeric ids, but ids
// coming from other sources (OSM "node/123" strings, search results) are
// kept verbatim.
type MarkerID string

// NumericMarkerID formats a numeric node id as a MarkerID.
func NumericMarkerID(n int64) MarkerID {
	return MarkerID(strconv.FormatInt(n, 10))
}

// UnmarshalJSON accepts JSON strings and plain decimal JSON numbers.
func (id *MarkerID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = MarkerID(s)
		return nil
	}
	raw := string(b)
	if !isDecimal(raw) {
		return fmt.Errorf("marker id must be a string or number, got %s", raw)
	}
	*id = MarkerID(raw)
	return nil
}

// Equal compares two ids. When both sides are decimal numbers they are
// compared exactly by value (so "007" equals "7" and "7.0" equals "7");
// otherwise the strings must match. Sign is significant: 5 and -5 are
// different markers.
func (id MarkerID) Equal(other MarkerID) bool {
	a, aok := decimal(string(id))
	b, bok := decimal(string(other))
	if aok && bok {
		return a.Cmp(b) == 0
	}
	return id == other
}

// decimal parses s as an exact rational when it is a plain decimal number
// (optional sign, digits, optional fraction). Text such as "inf", "NaN",
// "1e3" or "0x10" is not numeric here.
func decimal(s string) (*big.Rat, bool) {
	s = strings.TrimSpace(s)
	if !isDecimal(s) {
		return nil, false
	}
	return new(big.Rat).SetString(s)
}

func isDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := func() int {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		return i - start
	}
	if digits() == 0 {
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		if digits() == 0 {
			return false
		}
	}
	return i == len(s)
}

// WheelchairStatus is the display classification of a node's
// wheelchair accessibility.
type WheelchairStatus string

const (
	WheelchairAccessible    WheelchairStatus = "accessible"
	WheelchairLimited       WheelchairStatus = "limited"
	WheelchairNotAccessible WheelchairStatus = "not-accessible"
	WheelchairUnknown       WheelchairStatus = "unknown"
)

// MarkerVisual is the opaque display descriptor handed to the renderer.
type MarkerVisual struct {
	Icon      string `json:"icon"`
	Title     string `json:"title,omitempty"`
	Alt       string `json:"alt,omitempty"`
	ClassName string `json:"class_name,omitempty"`
}

// PopupContent is the structured content of a marker popup. The browser
// owns the markup.
type PopupContent struct {
	Title                 string `json:"title"`
	Type                  string `json:"type,omitempty"`
	Address               string `json:"address,omitempty"`
	Wheelchair            string `json:"wheelchair,omitempty"`
	WheelchairDescription string `json:"wheelchair_description,omitempty"`
	WheelchairToilet      string `json:"wheelchair_toilet,omitempty"`
	Website               string `json:"website,omitempty"`
	Phone                 string `json:"phone,omitempty"`
}

// Marker is a point on the map with its display data.
type Marker struct {
	ID       MarkerID      `json:"id"`
	Position GeoPoint      `json:"position"`
	Visual   MarkerVisual  `json:"visual"`
	Popup    *PopupContent `json:"popup,omitempty"`
}

// ClusterIcon is the visual weight of a marker cluster.
type ClusterIcon struct {
	Count int    `json:"count"`
	Size  int    `json:"size"`
	Color string `json:"color"`
}

// InteractionKind names a native map interaction callback.
type InteractionKind string

const (
	InteractionMoveEnd InteractionKind = "moveend"
	InteractionZoomEnd InteractionKind = "zoomend"
	InteractionResize  InteractionKind = "resize"
)

// InteractionKinds lists every kind the viewport coordinator listens to.
var InteractionKinds = []InteractionKind{
	InteractionMoveEnd,
	InteractionZoomEnd,
	InteractionResize,
}

// TileOptions configures a raster tile source.
type TileOptions struct {
	Attribution string `json:"attribution,omitempty"`
	MaxZoom     int    `json:"max_zoom,omitempty"`
	MinZoom     int    `json:"min_zoom,omitempty"`
	Subdomains  string `json:"subdomains,omitempty"`
}

// ViewportState is the visible extent of a map.
type ViewportState struct {
	Center GeoPoint `json:"center"`
	Zoom   int      `json:"zoom"`
	Bounds Bounds   `json:"bounds"`
}
