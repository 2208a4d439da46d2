package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/tourmap/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the place service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	cityType := graphql.NewObject(graphql.ObjectConfig{
		Name: "City",
		Fields: graphql.Fields{
			"name":   &graphql.Field{Type: graphql.String},
			"emoji":  &graphql.Field{Type: graphql.String},
			"center": &graphql.Field{Type: geoPointType},
		},
	})

	travelTimeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TravelTime",
		Fields: graphql.Fields{
			"walking_minutes": &graphql.Field{Type: graphql.Int},
			"driving_minutes": &graphql.Field{Type: graphql.Int},
			"transit_minutes": &graphql.Field{Type: graphql.Int},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"type":        &graphql.Field{Type: graphql.String},
			"category":    &graphql.Field{Type: graphql.String},
			"city":        &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: geoPointType},
			"address":     &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"rating":      &graphql.Field{Type: graphql.Float},
			"price_range": &graphql.Field{Type: graphql.String},
			"phone":       &graphql.Field{Type: graphql.String},
			"is_open":     &graphql.Field{Type: graphql.Boolean},
			"featured":    &graphql.Field{Type: graphql.Boolean},
			"distance_km": &graphql.Field{Type: graphql.Float},
			"bearing":     &graphql.Field{Type: graphql.Float},
			"direction":   &graphql.Field{Type: graphql.String},
			"travel_time": &graphql.Field{Type: travelTimeType},
			"emoji":       &graphql.Field{Type: graphql.String},
			"color":       &graphql.Field{Type: graphql.String},
			"label":       &graphql.Field{Type: graphql.String},
		},
	})

	countsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CategoryCounts",
		Fields: graphql.Fields{
			"city":        &graphql.Field{Type: graphql.String},
			"all":         &graphql.Field{Type: graphql.Int},
			"hotels":      &graphql.Field{Type: graphql.Int},
			"food":        &graphql.Field{Type: graphql.Int},
			"attractions": &graphql.Field{Type: graphql.Int},
			"shopping":    &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"cities": &graphql.Field{
				Type:        graphql.NewList(cityType),
				Description: "List all cities",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					cities := deps.Places.Cities()
					out := make([]map[string]interface{}, len(cities))
					for i, c := range cities {
						out[i] = map[string]interface{}{
							"name":   c.Name,
							"emoji":  c.Emoji,
							"center": geoPointMap(c.Center),
						}
					}
					return out, nil
				},
			},
			"places": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Places of a city matching category and search text",
				Args: graphql.FieldConfigArgument{
					"city":           &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"category":       &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "all"},
					"search":         &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"lat":            &graphql.ArgumentConfig{Type: graphql.Float},
					"lon":            &graphql.ArgumentConfig{Type: graphql.Float},
					"sortByDistance": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := argPosition(p.Args)
					if err != nil {
						return nil, err
					}
					f := domain.Filters{
						City:           p.Args["city"].(string),
						Category:       domain.Category(p.Args["category"].(string)),
						Search:         p.Args["search"].(string),
						SortByDistance: p.Args["sortByDistance"].(bool),
					}
					places, err := deps.Places.Query(p.Context, f, user)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, len(places))
					for i, pl := range places {
						out[i] = placeMap(pl)
					}
					return out, nil
				},
			},
			"place": &graphql.Field{
				Type:        placeType,
				Description: "Get a place by ID",
				Args: graphql.FieldConfigArgument{
					"id":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat": &graphql.ArgumentConfig{Type: graphql.Float},
					"lon": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user, err := argPosition(p.Args)
					if err != nil {
						return nil, err
					}
					pl, err := deps.Places.GetByID(p.Context, p.Args["id"].(string), user)
					if err != nil {
						return nil, err
					}
					return placeMap(*pl), nil
				},
			},
			"categoryCounts": &graphql.Field{
				Type:        countsType,
				Description: "Category tab counts for a city",
				Args: graphql.FieldConfigArgument{
					"city": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c, err := deps.Places.Counts(p.Context, p.Args["city"].(string))
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"city":        c.City,
						"all":         c.All,
						"hotels":      c.Hotels,
						"food":        c.Food,
						"attractions": c.Attractions,
						"shopping":    c.Shopping,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func geoPointMap(p domain.GeoPoint) map[string]interface{} {
	return map[string]interface{}{"lat": p.Lat, "lon": p.Lon}
}

// placeMap flattens an enriched place and its presentation for graphql-go,
// which resolves fields by map key.
func placeMap(p domain.EnrichedPlace) map[string]interface{} {
	d := p.Type.Details()
	m := map[string]interface{}{
		"id":          p.ID,
		"name":        p.Name,
		"type":        string(p.Type),
		"category":    string(p.Category),
		"city":        p.City,
		"location":    geoPointMap(p.Location),
		"address":     p.Address,
		"description": p.Description,
		"rating":      p.Rating,
		"price_range": p.PriceRange,
		"phone":       p.Phone,
		"is_open":     p.IsOpen,
		"featured":    p.Featured,
		"direction":   p.Direction,
		"emoji":       d.Emoji,
		"color":       d.Color,
		"label":       d.Label,
	}
	if p.DistanceKm != nil {
		m["distance_km"] = *p.DistanceKm
	}
	if p.BearingDegrees != nil {
		m["bearing"] = *p.BearingDegrees
	}
	if p.TravelTime != nil {
		m["travel_time"] = map[string]interface{}{
			"walking_minutes": p.TravelTime.WalkingMinutes,
			"driving_minutes": p.TravelTime.DrivingMinutes,
			"transit_minutes": p.TravelTime.TransitMinutes,
		}
	}
	return m
}

func argPosition(args map[string]interface{}) (*domain.GeoPoint, error) {
	lat, hasLat := args["lat"].(float64)
	lon, hasLon := args["lon"].(float64)
	if !hasLat && !hasLon {
		return nil, nil
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if hasLat != hasLon || !p.Valid() {
		return nil, errInvalidPosition
	}
	return &p, nil
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// programming error in the schema definition
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
