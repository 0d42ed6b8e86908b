package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/usecases"
)

func guggenheimPlace() domain.Place {
	return domain.Place{
		OSMType:  "node",
		OSMID:    1,
		MarkerID: "1",
		Name:     "Guggenheim",
		City:     "Bilbao",
		Position: domain.GeoPoint{Lat: 43.2687, Lon: -2.9340},
	}
}

func TestSearchService_NormalizesAndCaches(t *testing.T) {
	geo := &mockGeocoder{places: []domain.Place{guggenheimPlace()}}
	cache := newMockCache()
	svc := usecases.NewSearchService(geo, cache, "en", 600)

	places, err := svc.Search(context.Background(), domain.PlaceQuery{Text: "  Guggenheim   Bilbao ", Lang: "XX"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 1 || places[0].Name != "Guggenheim" {
		t.Fatalf("unexpected places %+v", places)
	}

	q := geo.calls()[0]
	if q.Text != "Guggenheim Bilbao" || q.Limit != usecases.DefaultSearchLimit || q.Lang != "en" {
		t.Errorf("unexpected normalized query %+v", q)
	}

	// Same query modulo case and spacing is served from the cache.
	if _, err := svc.Search(context.Background(), domain.PlaceQuery{Text: "guggenheim bilbao", Lang: "en"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(geo.calls()); n != 1 {
		t.Errorf("expected one geocoder call, got %d", n)
	}
	if len(cache.data) != 1 {
		t.Fatalf("expected one cache entry, got %d", len(cache.data))
	}
	for _, ttl := range cache.ttls {
		if ttl != 600 {
			t.Errorf("expected ttl 600, got %d", ttl)
		}
	}
}

func TestSearchService_LimitAndLang(t *testing.T) {
	geo := &mockGeocoder{}
	svc := usecases.NewSearchService(geo, nil, "", 0)

	if _, err := svc.Search(context.Background(), domain.PlaceQuery{Text: "abando", Limit: 500, Lang: " DE "}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Search(context.Background(), domain.PlaceQuery{Text: "abando", Lang: "eu"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := geo.calls()
	if calls[0].Limit != 50 || calls[0].Lang != "de" {
		t.Errorf("expected limit capped at 50 and lang de, got %+v", calls[0])
	}
	if calls[1].Lang != "default" {
		t.Errorf("expected unsupported lang to fall back to default, got %q", calls[1].Lang)
	}
}

func TestSearchService_BlankQuery(t *testing.T) {
	geo := &mockGeocoder{}
	svc := usecases.NewSearchService(geo, nil, "en", 0)

	places, err := svc.Search(context.Background(), domain.PlaceQuery{Text: " \t "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if places == nil || len(places) != 0 {
		t.Errorf("expected empty non-nil results, got %#v", places)
	}
	if len(geo.calls()) != 0 {
		t.Error("expected no geocoder call for a blank query")
	}
}

func TestSearchService_Errors(t *testing.T) {
	if _, err := usecases.NewSearchService(nil, nil, "en", 0).Search(context.Background(), domain.PlaceQuery{Text: "x"}); !errors.Is(err, usecases.ErrSearchDisabled) {
		t.Errorf("expected ErrSearchDisabled, got %v", err)
	}

	upstream := errors.New("down")
	cache := newMockCache()
	svc := usecases.NewSearchService(&mockGeocoder{err: upstream}, cache, "en", 0)
	if _, err := svc.Search(context.Background(), domain.PlaceQuery{Text: "x"}); !errors.Is(err, upstream) {
		t.Errorf("expected the geocoder error to be wrapped, got %v", err)
	}
	if len(cache.data) != 0 {
		t.Error("expected failures not to be cached")
	}
}
