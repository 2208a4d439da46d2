package usecases

import (
	"sort"
	"strings"

	"github.com/samirrijal/tourmap/internal/core/domain"
	"github.com/samirrijal/tourmap/internal/pkg/geospatial"
)

// QueryEngine derives the visible subset of the catalog for a set of filters
// and an optional user position. It holds no mutable state.
type QueryEngine struct {
	catalog *Catalog
	speeds  geospatial.Speeds
	byCity  map[string][]int
}

// NewQueryEngine indexes the catalog by city.
func NewQueryEngine(catalog *Catalog, speeds geospatial.Speeds) *QueryEngine {
	byCity := make(map[string][]int)
	for i, p := range catalog.AllPlaces() {
		byCity[p.City] = append(byCity[p.City], i)
	}
	return &QueryEngine{catalog: catalog, speeds: speeds, byCity: byCity}
}

// Catalog returns the underlying catalog.
func (q *QueryEngine) Catalog() *Catalog { return q.catalog }

// Speeds returns the travel speeds used for estimates.
func (q *QueryEngine) Speeds() geospatial.Speeds { return q.speeds }

// Query returns the places matching every filter, in catalog order unless
// SortByDistance is set and a user position is known.
func (q *QueryEngine) Query(f domain.Filters, user *domain.GeoPoint) []domain.EnrichedPlace {
	all := q.catalog.AllPlaces()
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	category := f.Category
	if category == "" {
		category = domain.CategoryAll
	}
	if user != nil && !user.Valid() {
		user = nil
	}

	idx := q.byCity[f.City]
	out := make([]domain.EnrichedPlace, 0, len(idx))
	for _, i := range idx {
		p := all[i]
		if category != domain.CategoryAll && p.Category != category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Address), needle) {
			continue
		}
		out = append(out, q.Enrich(p, user))
	}

	if f.SortByDistance && user != nil {
		sort.SliceStable(out, func(a, b int) bool {
			da, db := out[a].DistanceKm, out[b].DistanceKm
			switch {
			case da == nil:
				return false
			case db == nil:
				return true
			default:
				return *da < *db
			}
		})
	}
	return out
}

// Enrich attaches distance, bearing and travel time relative to user. Places
// with unusable coordinates, or a nil user, are returned without them.
func (q *QueryEngine) Enrich(p domain.Place, user *domain.GeoPoint) domain.EnrichedPlace {
	ep := domain.EnrichedPlace{Place: p}
	if user == nil || !p.Location.Valid() {
		return ep
	}

	dist := geospatial.HaversineKm(user.Lat, user.Lon, p.Location.Lat, p.Location.Lon)
	bearing := geospatial.InitialBearing(user.Lat, user.Lon, p.Location.Lat, p.Location.Lon)
	tt := q.speeds.Estimate(dist)

	ep.DistanceKm = &dist
	ep.BearingDegrees = &bearing
	ep.Direction = string(geospatial.CompassDirection(bearing))
	ep.TravelTime = &domain.TravelTime{
		WalkingMinutes: tt.Walking,
		DrivingMinutes: tt.Driving,
		TransitMinutes: tt.Transit,
	}
	return ep
}

// Counts returns per-category totals for a city, ignoring search text.
func (q *QueryEngine) Counts(city string) domain.CategoryCounts {
	all := q.catalog.AllPlaces()
	counts := domain.CategoryCounts{City: city}
	for _, i := range q.byCity[city] {
		counts.All++
		switch all[i].Category {
		case domain.CategoryHotels:
			counts.Hotels++
		case domain.CategoryFood:
			counts.Food++
		case domain.CategoryAttractions:
			counts.Attractions++
		case domain.CategoryShopping:
			counts.Shopping++
		}
	}
	return counts
}
