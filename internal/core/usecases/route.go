package usecases

import (
	"fmt"

	"github.com/samirrijal/tourmap/internal/core/domain"
	"github.com/samirrijal/tourmap/internal/core/ports"
	"github.com/samirrijal/tourmap/internal/pkg/geospatial"
)

// RouteSummary describes a freshly drawn route.
type RouteSummary struct {
	PlaceID        string            `json:"place_id"`
	PlaceName      string            `json:"place_name"`
	DistanceKm     float64           `json:"distance_km"`
	BearingDegrees float64           `json:"bearing_degrees"`
	Direction      string            `json:"direction"`
	TravelTime     domain.TravelTime `json:"travel_time"`
}

// Message is the toast text for the route, e.g. "6.8 km NW • 10 min".
func (s RouteSummary) Message() string {
	return fmt.Sprintf("%.1f km %s • %s", s.DistanceKm, s.Direction,
		geospatial.FormatMinutes(s.TravelTime.DrivingMinutes))
}

// RouteOverlay owns the single straight-line path between the user and the
// selected place.
type RouteOverlay struct {
	surface   ports.MapSurface
	speeds    geospatial.Speeds
	paddingPx int

	active  bool
	fitted  bool
	from    domain.GeoPoint
	to      domain.GeoPoint
	placeID string
}

// NewRouteOverlay creates an overlay with no path drawn.
func NewRouteOverlay(surface ports.MapSurface, speeds geospatial.Speeds, paddingPx int) *RouteOverlay {
	return &RouteOverlay{surface: surface, speeds: speeds, paddingPx: paddingPx}
}

// Update draws, replaces or removes the path. A summary is returned once the
// path is drawn and framed; repeating a framed pair is a no-op, repeating an
// unframed one retries FitBounds.
func (r *RouteOverlay) Update(user *domain.GeoPoint, selected *domain.EnrichedPlace) (*RouteSummary, error) {
	if !r.surface.Ready() {
		return nil, domain.ErrSurfaceNotReady
	}

	want := user != nil && selected != nil && user.Valid() && selected.Location.Valid()
	if !want {
		return nil, r.clear()
	}

	if r.active && r.from == *user && r.to == selected.Location && r.placeID == selected.ID {
		if r.fitted {
			return nil, nil
		}
		return r.fit(selected)
	}
	if err := r.clear(); err != nil {
		return nil, err
	}

	from, to := *user, selected.Location
	if err := r.surface.DrawRoute(from, to); err != nil {
		return nil, fmt.Errorf("draw route: %w", err)
	}
	r.active, r.fitted, r.from, r.to, r.placeID = true, false, from, to, selected.ID
	return r.fit(selected)
}

// fit frames the drawn path and summarises it.
func (r *RouteOverlay) fit(selected *domain.EnrichedPlace) (*RouteSummary, error) {
	from, to := r.from, r.to
	if err := r.surface.FitBounds(domain.BoundsOf(from, to), r.paddingPx); err != nil {
		return nil, fmt.Errorf("fit bounds: %w", err)
	}
	r.fitted = true

	dist := geospatial.HaversineKm(from.Lat, from.Lon, to.Lat, to.Lon)
	bearing := geospatial.InitialBearing(from.Lat, from.Lon, to.Lat, to.Lon)
	tt := r.speeds.Estimate(dist)
	return &RouteSummary{
		PlaceID:        selected.ID,
		PlaceName:      selected.Name,
		DistanceKm:     dist,
		BearingDegrees: bearing,
		Direction:      string(geospatial.CompassDirection(bearing)),
		TravelTime: domain.TravelTime{
			WalkingMinutes: tt.Walking,
			DrivingMinutes: tt.Driving,
			TransitMinutes: tt.Transit,
		},
	}, nil
}

func (r *RouteOverlay) clear() error {
	if !r.active {
		return nil
	}
	r.active, r.fitted, r.placeID = false, false, ""
	if err := r.surface.RemoveRoute(); err != nil {
		return fmt.Errorf("remove route: %w", err)
	}
	return nil
}

// Reset forgets the drawn path without touching the surface.
func (r *RouteOverlay) Reset() {
	r.active, r.fitted, r.placeID = false, false, ""
}

// Active reports whether a path is currently drawn.
func (r *RouteOverlay) Active() bool { return r.active }
