// Package osrm computes routes with an OSRM server.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/ports"
	"github.com/samirrijal/barrierfree/internal/pkg/metrics"
)

var (
	ErrUpstream = errors.New("osrm: upstream error")
	ErrNoRoute  = errors.New("osrm: no route found")
)

// LayerKind is reported by route overlays.
const LayerKind = "route"

// Overlay is a computed route ready to be drawn on a map.
type Overlay struct {
	id    string
	route domain.Route
}

// NewOverlay wraps a route in an overlay with a fresh layer id.
func NewOverlay(route domain.Route) *Overlay {
	return &Overlay{id: uuid.NewString(), route: route}
}

func (o *Overlay) LayerID() string     { return o.id }
func (o *Overlay) LayerKind() string   { return LayerKind }
func (o *Overlay) Route() domain.Route { return o.route }

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
	} `json:"routes"`
}

// Router implements ports.Router.
type Router struct {
	baseURL string
	timeout time.Duration
	http    *fasthttp.Client
}

// New creates a router talking to the OSRM server at baseURL.
func New(baseURL string, timeout time.Duration) *Router {
	return &Router{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:         "barrierfree",
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
	}
}

// ComputeRoute asks OSRM for the fastest route through waypoints.
func (r *Router) ComputeRoute(ctx context.Context, waypoints []domain.GeoPoint, profile domain.RoutingProfile) (ports.RouteOverlay, error) {
	start := time.Now()
	route, err := r.compute(ctx, waypoints, profile)
	metrics.ObserveUpstream("osrm", start, err)
	if err != nil {
		return nil, err
	}
	return NewOverlay(route), nil
}

func (r *Router) compute(ctx context.Context, waypoints []domain.GeoPoint, profile domain.RoutingProfile) (domain.Route, error) {
	if err := ctx.Err(); err != nil {
		return domain.Route{}, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/route/v1/%s/%s", r.baseURL, profile, coordinates(waypoints)))
	req.Header.SetMethod(fasthttp.MethodGet)
	args := req.URI().QueryArgs()
	args.Set("overview", "full")
	args.Set("geometries", "geojson")

	timeout := r.timeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < timeout {
			timeout = d
		}
	}
	if err := r.http.DoTimeout(req, resp, timeout); err != nil {
		return domain.Route{}, fmt.Errorf("osrm route: %w", err)
	}

	var out routeResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		if resp.StatusCode() != fasthttp.StatusOK {
			return domain.Route{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
		}
		return domain.Route{}, fmt.Errorf("decode osrm route: %w", err)
	}
	switch {
	case out.Code == "NoRoute" || (out.Code == "Ok" && len(out.Routes) == 0):
		return domain.Route{}, ErrNoRoute
	case out.Code != "Ok":
		return domain.Route{}, fmt.Errorf("%w: %s %s", ErrUpstream, out.Code, out.Message)
	}

	best := out.Routes[0]
	line := make([]domain.GeoPoint, len(best.Geometry.Coordinates))
	for i, c := range best.Geometry.Coordinates {
		line[i] = domain.GeoPoint{Lat: c[1], Lon: c[0]}
	}

	return domain.Route{
		Waypoints: waypoints,
		Profile:   profile,
		Geometry:  domain.GeoLineString{Coordinates: line},
		Distance:  best.Distance,
		Duration:  best.Duration,
	}, nil
}

// coordinates renders waypoints as OSRM's "lon,lat;lon,lat" path segment.
func coordinates(waypoints []domain.GeoPoint) string {
	parts := make([]string, len(waypoints))
	for i, p := range waypoints {
		parts[i] = strconv.FormatFloat(p.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
	}
	return strings.Join(parts, ";")
}
