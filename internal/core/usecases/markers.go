package usecases

import (
	"strings"

	"github.com/samirrijal/barrierfree/internal/core/domain"
)

// WheelchairStatusOf classifies a Wheelmap wheelchair value.
func WheelchairStatusOf(wheelchair string) domain.WheelchairStatus {
	switch wheelchair {
	case "yes":
		return domain.WheelchairAccessible
	case "limited":
		return domain.WheelchairLimited
	case "no":
		return domain.WheelchairNotAccessible
	default:
		return domain.WheelchairUnknown
	}
}

// MarkersFromNodes maps Wheelmap nodes to map markers. Nodes without a
// name are dropped.
func MarkersFromNodes(nodes []domain.Node) []domain.Marker {
	markers := make([]domain.Marker, 0, len(nodes))
	for _, n := range nodes {
		if n.Name == nil {
			continue
		}
		markers = append(markers, markerFromNode(n))
	}
	return markers
}

func markerFromNode(n domain.Node) domain.Marker {
	nodeType := "default"
	if n.NodeType != nil && n.NodeType.Identifier != "" {
		nodeType = n.NodeType.Identifier
	}
	status := WheelchairStatusOf(n.Wheelchair)
	name := *n.Name

	return domain.Marker{
		ID:       domain.NumericMarkerID(n.ID),
		Position: domain.GeoPoint{Lat: n.Lat, Lon: n.Lon},
		Visual: domain.MarkerVisual{
			Icon:      string(status),
			Title:     name,
			Alt:       name,
			ClassName: "marker-" + string(status) + " marker-" + nodeType,
		},
		Popup: popupFromNode(n, name, nodeType),
	}
}

func popupFromNode(n domain.Node, name, nodeType string) *domain.PopupContent {
	p := &domain.PopupContent{
		Title:   name,
		Type:    strings.Replace(nodeType, "_", " ", 1),
		Address: formatAddress(n),
		Website: n.Website,
		Phone:   n.Phone,
	}
	// Description and toilet are only meaningful next to a known status.
	if n.Wheelchair != "" {
		p.Wheelchair = n.Wheelchair
		p.WheelchairDescription = n.WheelchairDescription
		p.WheelchairToilet = n.WheelchairToilet
	}
	return p
}

func formatAddress(n domain.Node) string {
	var parts []string
	for _, s := range []string{n.Housenumber, n.Street, n.City, n.Postcode} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
