// Package photon searches places through a Photon geocoder.
package photon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/pkg/metrics"
)

// ErrUpstream is returned when Photon answers with a non-200 status.
var ErrUpstream = errors.New("photon: upstream error")

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // lon, lat
	} `json:"geometry"`
	Properties struct {
		OSMID       int64     `json:"osm_id"`
		OSMType     string    `json:"osm_type"`
		OSMKey      string    `json:"osm_key"`
		OSMValue    string    `json:"osm_value"`
		Name        string    `json:"name"`
		Street      string    `json:"street"`
		Housenumber string    `json:"housenumber"`
		City        string    `json:"city"`
		Postcode    string    `json:"postcode"`
		Country     string    `json:"country"`
		Extent      []float64 `json:"extent"`
	} `json:"properties"`
}

// Client implements ports.Geocoder.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
}

// New creates a Photon client for the server at baseURL, e.g.
// https://photon.komoot.io.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		http: &fasthttp.Client{
			Name:            "barrierfree",
			ReadTimeout:     timeout,
			WriteTimeout:    timeout,
			MaxConnsPerHost: 32,
		},
	}
}

// Search returns the places matching q.Text, best match first.
func (c *Client) Search(ctx context.Context, q domain.PlaceQuery) ([]domain.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	fc, err := c.fetch(ctx, q)
	metrics.ObserveUpstream("photon", start, err)
	if err != nil {
		return nil, err
	}

	places := make([]domain.Place, 0, len(fc.Features))
	for _, f := range fc.Features {
		if p, ok := toPlace(f); ok {
			places = append(places, p)
		}
	}
	return places, nil
}

func (c *Client) fetch(ctx context.Context, q domain.PlaceQuery) (*featureCollection, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/api/")
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	args := req.URI().QueryArgs()
	args.Set("q", q.Text)
	if q.Limit > 0 {
		args.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Lang != "" && q.Lang != "default" {
		args.Set("lang", q.Lang)
	}
	if q.Near != nil {
		args.Set("lat", strconv.FormatFloat(q.Near.Lat, 'f', -1, 64))
		args.Set("lon", strconv.FormatFloat(q.Near.Lon, 'f', -1, 64))
	}

	if err := c.http.DoTimeout(req, resp, c.requestTimeout(ctx)); err != nil {
		return nil, fmt.Errorf("photon search: %w", err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, code)
	}

	var out featureCollection
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode photon features: %w", err)
	}
	return &out, nil
}

// requestTimeout shortens the client timeout to the context deadline.
func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < timeout {
			timeout = d
		}
	}
	return timeout
}

func toPlace(f feature) (domain.Place, bool) {
	if len(f.Geometry.Coordinates) < 2 {
		return domain.Place{}, false
	}
	pr := f.Properties
	osmType := osmTypeName(pr.OSMType)

	p := domain.Place{
		OSMType:     osmType,
		OSMID:       pr.OSMID,
		MarkerID:    domain.OSMMarkerID(osmType, pr.OSMID),
		Name:        pr.Name,
		Position:    domain.GeoPoint{Lat: f.Geometry.Coordinates[1], Lon: f.Geometry.Coordinates[0]},
		Street:      pr.Street,
		Housenumber: pr.Housenumber,
		City:        pr.City,
		Postcode:    pr.Postcode,
		Country:     pr.Country,
	}
	if pr.OSMKey != "" {
		p.Category = pr.OSMKey + "/" + pr.OSMValue
	}
	// Photon orders the extent minLon, maxLat, maxLon, minLat.
	if e := pr.Extent; len(e) == 4 {
		p.Extent = &domain.Bounds{
			MinLon: math.Min(e[0], e[2]),
			MaxLon: math.Max(e[0], e[2]),
			MinLat: math.Min(e[1], e[3]),
			MaxLat: math.Max(e[1], e[3]),
		}
	}
	return p, true
}

func osmTypeName(t string) string {
	switch t {
	case "N":
		return "node"
	case "W":
		return "way"
	case "R":
		return "relation"
	}
	return t
}
