package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/barrierfree/internal/cluster"
	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	geoPointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "GeoPointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	nodeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Node",
		Fields: graphql.Fields{
			"id":                     &graphql.Field{Type: graphql.String, Resolve: resolveNode(func(n domain.Node) any { return string(domain.NumericMarkerID(n.ID)) })},
			"osm_id":                 &graphql.Field{Type: graphql.String},
			"name":                   &graphql.Field{Type: graphql.String, Resolve: resolveNode(func(n domain.Node) any { return derefString(n.Name) })},
			"lat":                    &graphql.Field{Type: graphql.Float},
			"lon":                    &graphql.Field{Type: graphql.Float},
			"node_type":              &graphql.Field{Type: graphql.String, Resolve: resolveNode(nodeTypeOf)},
			"wheelchair":             &graphql.Field{Type: graphql.String},
			"wheelchair_status":      &graphql.Field{Type: graphql.String, Resolve: resolveNode(func(n domain.Node) any { return string(usecases.WheelchairStatusOf(n.Wheelchair)) })},
			"wheelchair_description": &graphql.Field{Type: graphql.String},
			"wheelchair_toilet":      &graphql.Field{Type: graphql.String},
			"street":                 &graphql.Field{Type: graphql.String},
			"housenumber":            &graphql.Field{Type: graphql.String},
			"city":                   &graphql.Field{Type: graphql.String},
			"postcode":               &graphql.Field{Type: graphql.String},
			"website":                &graphql.Field{Type: graphql.String},
			"phone":                  &graphql.Field{Type: graphql.String},
			"distance":               &graphql.Field{Type: graphql.Float},
		},
	})

	clusterIconType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ClusterIcon",
		Fields: graphql.Fields{
			"count": &graphql.Field{Type: graphql.Int},
			"size":  &graphql.Field{Type: graphql.Int},
			"color": &graphql.Field{Type: graphql.String},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"profile":  &graphql.Field{Type: graphql.String},
			"distance": &graphql.Field{Type: graphql.Float, Description: "meters"},
			"duration": &graphql.Field{Type: graphql.Float, Description: "seconds"},
			"waypoints": &graphql.Field{
				Type: graphql.NewList(geoPointType),
			},
			"geometry": &graphql.Field{
				Type: graphql.NewList(geoPointType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if r, ok := p.Source.(*domain.Route); ok {
						return r.Geometry.Coordinates, nil
					}
					return nil, nil
				},
			},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"osm_type":    &graphql.Field{Type: graphql.String},
			"osm_id":      &graphql.Field{Type: graphql.String, Resolve: resolvePlace(func(p domain.Place) any { return strconv.FormatInt(p.OSMID, 10) })},
			"marker_id":   &graphql.Field{Type: graphql.String, Resolve: resolvePlace(func(p domain.Place) any { return string(p.MarkerID) })},
			"name":        &graphql.Field{Type: graphql.String},
			"label":       &graphql.Field{Type: graphql.String, Resolve: resolvePlace(func(p domain.Place) any { return p.Label() })},
			"category":    &graphql.Field{Type: graphql.String},
			"position":    &graphql.Field{Type: geoPointType},
			"street":      &graphql.Field{Type: graphql.String},
			"housenumber": &graphql.Field{Type: graphql.String},
			"city":        &graphql.Field{Type: graphql.String},
			"postcode":    &graphql.Field{Type: graphql.String},
			"country":     &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"nodes": &graphql.Field{
				Type:        graphql.NewList(nodeType),
				Description: "Accessibility nodes inside a minLon,minLat,maxLon,maxLat box",
				Args: graphql.FieldConfigArgument{
					"bbox": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					bounds, err := domain.ParseBounds(p.Args["bbox"].(string))
					if err != nil {
						return nil, err
					}
					return deps.Nodes.Nodes(p.Context, bounds)
				},
			},
			"nearbyNodes": &graphql.Field{
				Type:        graphql.NewList(nodeType),
				Description: "Nodes within radius meters of a point, closest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 500.0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Nodes.Nearby(p.Context,
						p.Args["lat"].(float64),
						p.Args["lon"].(float64),
						p.Args["radius"].(float64),
						p.Args["limit"].(int),
					)
				},
			},
			"search": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Places matching a free-text query, best match first",
				Args: graphql.FieldConfigArgument{
					"q":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lang":  &graphql.ArgumentConfig{Type: graphql.String},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int},
					"near":  &graphql.ArgumentConfig{Type: geoPointInput},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Search == nil {
						return nil, usecases.ErrSearchDisabled
					}
					q := domain.PlaceQuery{Text: p.Args["q"].(string)}
					q.Lang, _ = p.Args["lang"].(string)
					q.Limit, _ = p.Args["limit"].(int)
					if m, ok := p.Args["near"].(map[string]interface{}); ok {
						lat, _ := m["lat"].(float64)
						lon, _ := m["lon"].(float64)
						q.Near = &domain.GeoPoint{Lat: lat, Lon: lon}
					}
					return deps.Search.Search(p.Context, q)
				},
			},
			"clusterStyle": &graphql.Field{
				Type:        clusterIconType,
				Description: "Size and colour of a cluster holding count markers",
				Args: graphql.FieldConfigArgument{
					"count": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return cluster.Style(p.Args["count"].(int)), nil
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "Route through waypoints for car, bicycle or foot",
				Args: graphql.FieldConfigArgument{
					"waypoints": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(geoPointInput))},
					"vehicle":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: string(domain.VehicleCar)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					raw, _ := p.Args["waypoints"].([]interface{})
					waypoints := make([]domain.GeoPoint, 0, len(raw))
					for _, w := range raw {
						m, _ := w.(map[string]interface{})
						lat, _ := m["lat"].(float64)
						lon, _ := m["lon"].(float64)
						waypoints = append(waypoints, domain.GeoPoint{Lat: lat, Lon: lon})
					}
					vehicle, _ := p.Args["vehicle"].(string)
					return deps.Routes.Plan(p.Context, waypoints, domain.Vehicle(vehicle))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func resolveNode(fn func(domain.Node) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		if n, ok := p.Source.(domain.Node); ok {
			return fn(n), nil
		}
		return nil, nil
	}
}

func resolvePlace(fn func(domain.Place) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		if pl, ok := p.Source.(domain.Place); ok {
			return fn(pl), nil
		}
		return nil, nil
	}
}

func nodeTypeOf(n domain.Node) any {
	if n.NodeType == nil {
		return nil
	}
	return n.NodeType.Identifier
}

func derefString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
