package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/tourmap/internal/core/domain"
)

// PlaceTypeInfo is one row of the presentation table.
type PlaceTypeInfo struct {
	Type domain.PlaceType `json:"type"`
	domain.TypeDetails
}

// ListCitiesHandler returns every city with its map center.
func ListCitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"cities": deps.Places.Cities()})
	}
}

// CityCountsHandler returns the category tab counts for a city.
func CityCountsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := unescapeParam(c, "name")
		if err != nil {
			return errBadRequest(c, "invalid city name")
		}
		counts, err := deps.Places.Counts(c.UserContext(), name)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(counts)
	}
}

// ListPlacesHandler filters places for a city.
//
//	GET /v1/places?city=Goa&category=food&q=beach&lat=15.5&lon=73.8&sort=distance&offset=0&limit=50
func ListPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city := strings.TrimSpace(c.Query("city"))
		if city == "" {
			return errBadRequest(c, "city query parameter is required")
		}
		q := c.Query("q")
		if len(q) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		user, err := userPosition(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		sortBy := c.Query("sort")
		if sortBy != "" && sortBy != "distance" {
			return errBadRequest(c, "sort must be distance")
		}

		f := domain.Filters{
			City:           city,
			Category:       domain.Category(c.Query("category")),
			Search:         q,
			SortByDistance: sortBy == "distance",
		}
		places, err := deps.Places.Query(c.UserContext(), f, user)
		if err != nil {
			return domainError(c, err)
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 100
		}
		total := len(places)
		if offset >= total {
			places = []domain.EnrichedPlace{}
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			places = places[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		if user != nil {
			c.Set("Cache-Control", "private, max-age=60")
		}
		return c.JSON(PaginatedResponse{Data: places, Pagination: pg})
	}
}

// GetPlaceHandler returns one place, with distance when lat/lon are given.
func GetPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "place id is required")
		}
		user, err := userPosition(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		p, err := deps.Places.GetByID(c.UserContext(), id, user)
		if err != nil {
			return domainError(c, err)
		}
		return c.JSON(fiber.Map{
			"place":        p,
			"presentation": p.Type.Details(),
		})
	}
}

// PlaceLinksHandler returns the phone, maps, share and directions links for a
// place. Directions need the optional lat/lon of the user.
func PlaceLinksHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := userPosition(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		links, err := deps.Places.Links(c.Params("id"), user)
		if err != nil {
			return domainError(c, err)
		}
		if user != nil {
			c.Set("Cache-Control", "private, max-age=60")
		}
		return c.JSON(links)
	}
}

// PlaceTypesHandler returns the icon and label table for place types.
func PlaceTypesHandler() fiber.Handler {
	types := make([]PlaceTypeInfo, 0, len(domain.PlaceTypes))
	for _, t := range domain.PlaceTypes {
		types = append(types, PlaceTypeInfo{Type: t, TypeDetails: t.Details()})
	}
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"types": types, "fallback": domain.PlaceType("").Details()})
	}
}

// userPosition reads optional lat/lon query parameters. Both or neither must be set.
func userPosition(c *fiber.Ctx) (*domain.GeoPoint, error) {
	latS, lonS := c.Query("lat"), c.Query("lon")
	if latS == "" && lonS == "" {
		return nil, nil
	}
	if latS == "" || lonS == "" {
		return nil, errInvalidPosition
	}
	lat, errLat := strconv.ParseFloat(latS, 64)
	lon, errLon := strconv.ParseFloat(lonS, 64)
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if errLat != nil || errLon != nil || !p.Valid() {
		return nil, errInvalidPosition
	}
	return &p, nil
}

func unescapeParam(c *fiber.Ctx, key string) (string, error) {
	v := c.Params(key)
	return unescape(v)
}
