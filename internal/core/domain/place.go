package domain

// Place is a geocoded search result: a named OSM object with an address.
type Place struct {
	OSMType     string   `json:"osm_type"` // node, way or relation
	OSMID       int64    `json:"osm_id"`
	MarkerID    MarkerID `json:"marker_id,omitempty"`
	Name        string   `json:"name"`
	Category    string   `json:"category,omitempty"` // osm key/value, e.g. tourism/museum
	Position    GeoPoint `json:"position"`
	Street      string   `json:"street,omitempty"`
	Housenumber string   `json:"housenumber,omitempty"`
	City        string   `json:"city,omitempty"`
	Postcode    string   `json:"postcode,omitempty"`
	Country     string   `json:"country,omitempty"`
	Extent      *Bounds  `json:"extent,omitempty"`
}

// PlaceQuery is a free-text place search.
type PlaceQuery struct {
	Text  string
	Limit int
	Lang  string
	// Near biases results towards a point, usually the map center.
	Near *GeoPoint
}

// OSMMarkerID returns the marker id Wheelmap uses for an OSM object.
// Wheelmap nodes carry their OSM node id, so only nodes have one.
func OSMMarkerID(osmType string, osmID int64) MarkerID {
	if osmType != "node" || osmID == 0 {
		return ""
	}
	return NumericMarkerID(osmID)
}

// Label is the name followed by the city, when both differ.
func (p Place) Label() string {
	switch {
	case p.Name == "":
		return p.City
	case p.City == "" || p.City == p.Name:
		return p.Name
	default:
		return p.Name + ", " + p.City
	}
}
