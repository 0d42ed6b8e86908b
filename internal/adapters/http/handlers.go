package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/barrierfree/internal/cluster"
	"github.com/samirrijal/barrierfree/internal/core/domain"
)

// MapConfigHandler returns the defaults a browser needs to bootstrap a map.
func MapConfigHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m := deps.Map
		return c.JSON(fiber.Map{
			"center":      domain.GeoPoint{Lat: m.CenterLat, Lon: m.CenterLon},
			"zoom":        m.Zoom,
			"max_zoom":    m.MaxZoom,
			"tile_url":    m.TileURL,
			"attribution": m.Attribution,
			"debounce_ms": m.DebounceMS,
		})
	}
}

// ListNodesHandler returns the accessibility nodes inside ?bbox=.
func ListNodesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bounds, err := parseBBox(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		nodes, err := deps.Nodes.Nodes(c.UserContext(), bounds)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"bbox": bounds.String(), "nodes": nodes})
	}
}

// ListMarkersHandler returns the nodes inside ?bbox= as map markers.
func ListMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bounds, err := parseBBox(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		markers, err := deps.Nodes.Markers(c.UserContext(), bounds)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"bbox": bounds.String(), "markers": markers})
	}
}

// NearbyNodesHandler returns nodes within a radius of a point.
func NearbyNodesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 500)
		limit := c.QueryInt("limit", 50)

		if lat == 0 || lon == 0 {
			return errBadRequest(c, "lat and lon are required")
		}
		if radius <= 0 || radius > 5000 {
			return errBadRequest(c, "radius must be between 1 and 5000 meters")
		}

		nodes, err := deps.Nodes.Nearby(c.UserContext(), lat, lon, radius, limit)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(nodes)
	}
}

// ClusterStyleHandler returns the icon of a cluster of ?count= markers, or
// the full palette without a count.
func ClusterStyleHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=86400")
		if c.Query("count") == "" {
			return c.JSON(cluster.Palette(cluster.PaletteSize))
		}
		count := c.QueryInt("count", 0)
		if count < 1 {
			return errBadRequest(c, "count must be a positive integer")
		}
		return c.JSON(cluster.Style(count))
	}
}

// SearchHandler looks up places by name: ?q=, optional limit, lang and
// a lat/lon pair biasing results towards the map.
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Search == nil {
			return errServiceUnavailable(c, "place search is not configured")
		}
		text := strings.TrimSpace(c.Query("q"))
		if text == "" {
			return errBadRequest(c, "q query parameter is required")
		}

		q := domain.PlaceQuery{Text: text, Limit: c.QueryInt("limit", 0), Lang: c.Query("lang")}
		lat, lon := c.Query("lat"), c.Query("lon")
		if (lat == "") != (lon == "") {
			return errBadRequest(c, "lat and lon must be given together")
		}
		if lat != "" {
			q.Near = &domain.GeoPoint{Lat: c.QueryFloat("lat", 0), Lon: c.QueryFloat("lon", 0)}
		}

		places, err := deps.Search.Search(c.UserContext(), q)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(fiber.Map{"query": text, "places": places})
	}
}

type routeRequest struct {
	Waypoints []domain.GeoPoint `json:"waypoints"`
	Vehicle   domain.Vehicle    `json:"vehicle"`
}

// PlanRouteHandler computes a route through the posted waypoints.
func PlanRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req routeRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		route, err := deps.Routes.Plan(c.UserContext(), req.Waypoints, req.Vehicle)
		if err != nil {
			return errFrom(c, err)
		}
		return c.JSON(route)
	}
}

type overrideRequest struct {
	Accessibility domain.Accessibility `json:"accessibility"`
	Lat           float64              `json:"lat"`
	Lon           float64              `json:"lon"`
}

// PutOverrideHandler stores the community accessibility of one node.
// The node position is needed to refresh the maps that show it.
func PutOverrideHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		osmType, osmID := c.Params("osm_type"), c.Params("osm_id")
		if osmType == "" || osmID == "" {
			return errBadRequest(c, "osm type and id are required")
		}

		var req overrideRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		id := strings.ToLower(osmType) + "/" + osmID
		at := domain.GeoPoint{Lat: req.Lat, Lon: req.Lon}
		if err := deps.Nodes.SetAccessibility(c.UserContext(), id, req.Accessibility, at); err != nil {
			return errFrom(c, err)
		}
		return c.JSON(domain.AccessibilityOverride{OSMID: id, Accessibility: req.Accessibility})
	}
}

// ListOverridesHandler pages through stored overrides.
func ListOverridesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pg := parsePagination(c)
		items, total, err := deps.Nodes.Overrides(c.UserContext(), pg.Limit, pg.Offset)
		if err != nil {
			return errFrom(c, err)
		}

		pg.Total = total
		SetLinkHeaders(c, pg)
		return c.JSON(newPage(items, pg))
	}
}

// parseBBox parses the bbox query parameter.
func parseBBox(c *fiber.Ctx) (domain.Bounds, error) {
	raw := c.Query("bbox")
	if raw == "" {
		return domain.Bounds{}, errors.New("bbox query parameter is required")
	}
	return domain.ParseBounds(raw)
}
