package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
)

// ErrSearchDisabled is returned when searching without a geocoder.
var ErrSearchDisabled = errors.New("place search is not configured")

const (
	DefaultSearchLimit = 30
	maxSearchLimit     = 50
)

// searchLangs are the result languages Photon accepts.
var searchLangs = map[string]bool{"default": true, "en": true, "de": true, "fr": true, "it": true}

// SearchService looks up places by name, caching each distinct query.
type SearchService struct {
	geocoder ports.Geocoder
	cache    ports.CacheService
	lang     string
	ttl      int
}

// NewSearchService creates a SearchService. cache may be nil. lang is
// used when a query names no supported language.
func NewSearchService(geocoder ports.Geocoder, cache ports.CacheService, lang string, ttlSeconds int) *SearchService {
	if !searchLangs[lang] {
		lang = "default"
	}
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return &SearchService{geocoder: geocoder, cache: cache, lang: lang, ttl: ttlSeconds}
}

// Search returns the places matching q. A blank query has no results.
func (s *SearchService) Search(ctx context.Context, q domain.PlaceQuery) ([]domain.Place, error) {
	q = s.normalize(q)
	if q.Text == "" {
		return []domain.Place{}, nil
	}
	if s.geocoder == nil {
		return nil, ErrSearchDisabled
	}

	key := searchCacheKey(q)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var places []domain.Place
			if err := json.Unmarshal(data, &places); err == nil {
				return places, nil
			}
		}
	}

	places, err := s.geocoder.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search places: %w", err)
	}
	if places == nil {
		places = []domain.Place{}
	}

	if s.cache != nil {
		if data, err := json.Marshal(places); err == nil {
			_ = s.cache.Set(ctx, key, data, s.ttl)
		}
	}
	return places, nil
}

func (s *SearchService) normalize(q domain.PlaceQuery) domain.PlaceQuery {
	q.Text = strings.Join(strings.Fields(q.Text), " ")
	if q.Limit <= 0 {
		q.Limit = DefaultSearchLimit
	}
	q.Limit = min(q.Limit, maxSearchLimit)
	q.Lang = strings.ToLower(strings.TrimSpace(q.Lang))
	if !searchLangs[q.Lang] {
		q.Lang = s.lang
	}
	return q
}

// searchCacheKey identifies a normalized query. The location bias is
// rounded to about a hundred meters so nearby map centers share entries.
func searchCacheKey(q domain.PlaceQuery) string {
	near := "-"
	if q.Near != nil {
		near = strconv.FormatFloat(q.Near.Lat, 'f', 3, 64) + "," + strconv.FormatFloat(q.Near.Lon, 'f', 3, 64)
	}
	return "search:" + q.Lang + ":" + strconv.Itoa(q.Limit) + ":" + near + ":" + strings.ToLower(q.Text)
}
