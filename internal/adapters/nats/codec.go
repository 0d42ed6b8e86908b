package natsadapter

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
)

var errMissingField = errors.New("missing field")

// Payloads are protobuf Structs so consumers in other languages can
// decode them without generated code.

func encodeViewportEvent(e ports.ViewportEvent) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"session_id": e.SessionID,
		"bbox":       e.BBox,
		"forced":     e.Forced,
	})
	if err != nil {
		return nil, fmt.Errorf("encode viewport event: %w", err)
	}
	return proto.Marshal(s)
}

func encodeGeoPoint(p domain.GeoPoint) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"lat": p.Lat,
		"lon": p.Lon,
	})
	if err != nil {
		return nil, fmt.Errorf("encode point: %w", err)
	}
	return proto.Marshal(s)
}

func decodeGeoPoint(data []byte) (domain.GeoPoint, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("decode point: %w", err)
	}
	f := s.GetFields()
	lat, okLat := f["lat"]
	lon, okLon := f["lon"]
	if !okLat || !okLon {
		return domain.GeoPoint{}, fmt.Errorf("decode point: %w: lat/lon", errMissingField)
	}
	return domain.GeoPoint{Lat: lat.GetNumberValue(), Lon: lon.GetNumberValue()}, nil
}
