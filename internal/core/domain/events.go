package domain

import "time"

// ExplorerEventKind identifies what happened in an exploration session.
type ExplorerEventKind string

const (
	EventPlaceSelected     ExplorerEventKind = "place_selected"
	EventRouteDrawn        ExplorerEventKind = "route_drawn"
	EventGeolocationFailed ExplorerEventKind = "geolocation_failed"
)

// ExplorerEvent is emitted for the surrounding application (analytics, insights).
// It never carries the user's coordinates.
type ExplorerEvent struct {
	ID         string            `json:"id"`
	Kind       ExplorerEventKind `json:"kind"`
	SessionID  string            `json:"session_id"`
	Time       time.Time         `json:"time"`
	City       string            `json:"city"`
	PlaceID    string            `json:"place_id,omitempty"`
	Category   Category          `json:"category,omitempty"`
	DistanceKm *float64          `json:"distance_km,omitempty"`
	Reason     string            `json:"reason,omitempty"`
}
