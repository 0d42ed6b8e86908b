// Package wsmap implements the map widget ports on top of a browser map
// reached over a websocket. The browser draws tiles, clusters and route
// lines; this package mirrors its state and forwards commands to it.
package wsmap

import (
	"github.com/samirrijal/barrierfree/internal/core/domain"
)

// Server → browser message types.
const (
	MsgView          = "view"
	MsgPan           = "pan"
	MsgTiles         = "tiles"
	MsgLayerAdd      = "layer.add"
	MsgLayerRemove   = "layer.remove"
	MsgMarkersAdd    = "markers.add"
	MsgMarkersClear  = "markers.clear"
	MsgPopupOpen     = "popup.open"
	MsgInvalidate    = "invalidate"
	MsgRemove        = "remove"
	MsgSearchResults = "search.results"
	MsgError         = "error"
)

// Message is one command for the browser.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Sender delivers messages to the browser in call order.
type Sender interface {
	Send(msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(msg Message) error

func (f SenderFunc) Send(msg Message) error { return f(msg) }

// Size is the pixel size of the browser map container.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DefaultSize is assumed until the browser reports its container.
var DefaultSize = Size{Width: 1024, Height: 768}

func (s Size) valid() bool { return s.Width > 0 && s.Height > 0 }

// Interaction is the browser's report of a finished map interaction.
// Programmatic reports echo a command the server sent; they update the
// mirrored state but never reach interaction callbacks.
type Interaction struct {
	Kind         domain.InteractionKind `json:"kind"`
	Center       *domain.GeoPoint       `json:"center,omitempty"`
	Zoom         *int                   `json:"zoom,omitempty"`
	Bounds       *domain.Bounds         `json:"bounds,omitempty"`
	Size         *Size                  `json:"size,omitempty"`
	Programmatic bool                   `json:"programmatic,omitempty"`
}

type viewPayload struct {
	Container string          `json:"container,omitempty"`
	Center    domain.GeoPoint `json:"center"`
	Zoom      int             `json:"zoom"`
}

type panPayload struct {
	Center domain.GeoPoint `json:"center"`
}

type tilesPayload struct {
	URL     string             `json:"url"`
	Options domain.TileOptions `json:"options"`
}

type layerPayload struct {
	ID      string               `json:"id"`
	Kind    string               `json:"kind"`
	Palette []domain.ClusterIcon `json:"palette,omitempty"`
	Route   *domain.Route        `json:"route,omitempty"`
}

type layerRefPayload struct {
	ID string `json:"id"`
}

type markersPayload struct {
	Layer   string          `json:"layer"`
	Markers []domain.Marker `json:"markers"`
}

type popupPayload struct {
	Layer string          `json:"layer"`
	ID    domain.MarkerID `json:"id"`
}

// SearchResultsPayload is the payload of MsgSearchResults.
type SearchResultsPayload struct {
	Query  string         `json:"query"`
	Places []domain.Place `json:"places"`
}

// ErrorPayload is the payload of MsgError.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
