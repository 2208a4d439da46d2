package usecases

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/samirrijal/tourmap/internal/core/domain"
	"github.com/samirrijal/tourmap/internal/pkg/metrics"
)

// PlacePopularity is how often a place was selected.
type PlacePopularity struct {
	PlaceID    string `json:"place_id"`
	City       string `json:"city"`
	Selections int    `json:"selections"`
}

// InsightsSnapshot summarises consumed explorer events.
type InsightsSnapshot struct {
	Events             map[domain.ExplorerEventKind]int `json:"events"`
	GeolocationFailure map[string]int                   `json:"geolocation_failures"`
	TopPlaces          []PlacePopularity                `json:"top_places"`
}

// Insights aggregates explorer events consumed from the broker. Duplicate
// deliveries of the same event id are counted once.
type Insights struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	events   map[domain.ExplorerEventKind]int
	failures map[string]int
	places   map[string]*PlacePopularity
}

// NewInsights creates an empty aggregator.
func NewInsights() *Insights {
	return &Insights{
		seen:     make(map[string]struct{}),
		events:   make(map[domain.ExplorerEventKind]int),
		failures: make(map[string]int),
		places:   make(map[string]*PlacePopularity),
	}
}

// Handle records one event. It has the EventSubscriber handler signature.
func (in *Insights) Handle(_ context.Context, ev *domain.ExplorerEvent) error {
	if ev == nil || ev.Kind == "" {
		return errors.New("empty explorer event")
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if ev.ID != "" {
		if _, dup := in.seen[ev.ID]; dup {
			return nil
		}
		in.seen[ev.ID] = struct{}{}
	}

	in.events[ev.Kind]++
	metrics.ExplorerEvents.WithLabelValues(string(ev.Kind), ev.City).Inc()

	switch ev.Kind {
	case domain.EventPlaceSelected:
		p, ok := in.places[ev.PlaceID]
		if !ok {
			p = &PlacePopularity{PlaceID: ev.PlaceID, City: ev.City}
			in.places[ev.PlaceID] = p
		}
		p.Selections++
		metrics.PlaceSelections.WithLabelValues(ev.City, ev.PlaceID).Inc()
	case domain.EventRouteDrawn:
		if ev.DistanceKm != nil {
			metrics.RouteDistance.WithLabelValues(ev.City).Observe(*ev.DistanceKm)
		}
	case domain.EventGeolocationFailed:
		in.failures[ev.Reason]++
	}
	return nil
}

// Snapshot returns the current aggregates with the n most selected places.
func (in *Insights) Snapshot(n int) InsightsSnapshot {
	in.mu.Lock()
	defer in.mu.Unlock()

	s := InsightsSnapshot{
		Events:             make(map[domain.ExplorerEventKind]int, len(in.events)),
		GeolocationFailure: make(map[string]int, len(in.failures)),
	}
	for k, v := range in.events {
		s.Events[k] = v
	}
	for k, v := range in.failures {
		s.GeolocationFailure[k] = v
	}
	for _, p := range in.places {
		s.TopPlaces = append(s.TopPlaces, *p)
	}
	sort.Slice(s.TopPlaces, func(i, j int) bool {
		a, b := s.TopPlaces[i], s.TopPlaces[j]
		if a.Selections != b.Selections {
			return a.Selections > b.Selections
		}
		return a.PlaceID < b.PlaceID
	})
	if n > 0 && len(s.TopPlaces) > n {
		s.TopPlaces = s.TopPlaces[:n]
	}
	return s
}
