package usecases_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/samirrijal/tourmap/internal/core/domain"
	"github.com/samirrijal/tourmap/internal/core/usecases"
	"github.com/samirrijal/tourmap/internal/pkg/geospatial"
)

// --- Catalog ---

type staticSource struct {
	places []domain.Place
	cities []domain.City
	err    error
}

func (s staticSource) Places(context.Context) ([]domain.Place, error) { return s.places, s.err }
func (s staticSource) Cities(context.Context) ([]domain.City, error) { return s.cities, s.err }

func TestLoadCatalog(t *testing.T) {
	c, err := usecases.LoadCatalog(context.Background(), staticSource{places: fixture, cities: []domain.City{mumbai, goa}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != len(fixture) {
		t.Errorf("expected %d places, got %d", len(fixture), c.Len())
	}
	if got := c.AllPlaces()[0].ID; got != "g2" {
		t.Errorf("expected declaration order, first id %s", got)
	}
	p, err := c.Place("m1")
	if err != nil || p.Name != "Gateway of India" {
		t.Errorf("Place(m1) = %+v, %v", p, err)
	}
	if _, err := c.Place("nope"); !errors.Is(err, domain.ErrPlaceNotFound) {
		t.Errorf("expected ErrPlaceNotFound, got %v", err)
	}
	if _, err := c.City("Atlantis"); !errors.Is(err, domain.ErrCityNotFound) {
		t.Errorf("expected ErrCityNotFound, got %v", err)
	}
}

func TestLoadCatalog_SourceError(t *testing.T) {
	_, err := usecases.LoadCatalog(context.Background(), staticSource{err: errors.New("disk on fire")})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNewCatalog_Validation(t *testing.T) {
	cases := []struct {
		name   string
		places []domain.Place
		cities []domain.City
		want   string
	}{
		{"duplicate id", []domain.Place{{ID: "a", City: "Goa"}, {ID: "a", City: "Goa"}}, []domain.City{goa}, "duplicate place id"},
		{"empty id", []domain.Place{{City: "Goa"}}, []domain.City{goa}, "has no id"},
		{"unknown city", []domain.Place{{ID: "a", City: "Narnia"}}, []domain.City{goa}, "unknown city"},
		{"duplicate city", nil, []domain.City{goa, goa}, "duplicate city"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := usecases.NewCatalog(tc.places, tc.cities)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCatalog_AllPlacesIsReadOnlyView(t *testing.T) {
	c, _ := usecases.NewCatalog(fixture, []domain.City{mumbai, goa})
	all := c.AllPlaces()
	_ = append(all, domain.Place{ID: "extra"})
	if c.Len() != len(fixture) {
		t.Error("append through AllPlaces leaked into the catalog")
	}
}

// --- Query ---

func TestQuery_CityScope(t *testing.T) {
	q := newTestEngine(t)
	got := ids(q.Query(domain.Filters{City: "Goa", Category: domain.CategoryAll}, nil))
	want := []string{"g2", "g5", "g6", "g7", "g8", "g9"}
	if !equalStrings(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestQuery_CategoryAndSearch(t *testing.T) {
	q := newTestEngine(t)

	got := ids(q.Query(domain.Filters{City: "Goa", Category: domain.CategoryFood, Search: "  BEACH "}, nil))
	if !equalStrings(got, []string{"g5"}) {
		t.Errorf("food+beach: got %v", got)
	}

	// Address matches too.
	got = ids(q.Query(domain.Filters{City: "Goa", Search: "candolim"}, nil))
	if !equalStrings(got, []string{"g6"}) {
		t.Errorf("address search: got %v", got)
	}

	// Empty category means all.
	got = ids(q.Query(domain.Filters{City: "Mumbai"}, nil))
	if !equalStrings(got, []string{"m1"}) {
		t.Errorf("empty category: got %v", got)
	}

	if got := q.Query(domain.Filters{City: "Nowhere"}, nil); len(got) != 0 {
		t.Errorf("unknown city should yield no results, got %v", ids(got))
	}
}

func TestQuery_Idempotent(t *testing.T) {
	q := newTestEngine(t)
	f := domain.Filters{City: "Goa", Category: domain.CategoryAttractions, Search: "a"}
	a := ids(q.Query(f, &panaji))
	b := ids(q.Query(f, &panaji))
	if !equalStrings(a, b) {
		t.Errorf("query not deterministic: %v vs %v", a, b)
	}
}

func TestQuery_EnrichmentOnlyWithUser(t *testing.T) {
	q := newTestEngine(t)
	for _, p := range q.Query(domain.Filters{City: "Goa"}, nil) {
		if p.DistanceKm != nil || p.BearingDegrees != nil || p.TravelTime != nil || p.Direction != "" {
			t.Errorf("%s enriched without a user position", p.ID)
		}
	}

	res := q.Query(domain.Filters{City: "Goa"}, &panaji)
	for _, p := range res {
		if p.ID == "g9" {
			if p.DistanceKm != nil {
				t.Error("place with invalid coordinates must not be enriched")
			}
			continue
		}
		if p.DistanceKm == nil || p.TravelTime == nil || p.Direction == "" {
			t.Errorf("%s missing enrichment", p.ID)
		}
	}

	calangute := res[0]
	if math.Abs(*calangute.DistanceKm-6.8155) > 0.01 {
		t.Errorf("expected ~6.8155 km to Calangute, got %.4f", *calangute.DistanceKm)
	}
	if calangute.Direction != "NW" {
		t.Errorf("expected NW, got %s", calangute.Direction)
	}
	tt := calangute.TravelTime
	if tt.WalkingMinutes != 82 || tt.DrivingMinutes != 10 || tt.TransitMinutes != 16 {
		t.Errorf("unexpected travel time %+v", *tt)
	}
}

func TestQuery_InvalidUserIgnored(t *testing.T) {
	q := newTestEngine(t)
	bad := domain.GeoPoint{Lat: math.NaN(), Lon: 73}
	for _, p := range q.Query(domain.Filters{City: "Goa"}, &bad) {
		if p.DistanceKm != nil {
			t.Fatalf("%s enriched from invalid user position", p.ID)
		}
	}
}

func TestQuery_SortByDistance(t *testing.T) {
	q := newTestEngine(t)
	res := q.Query(domain.Filters{City: "Goa", SortByDistance: true}, &panaji)

	last := -1.0
	seenNil := false
	for _, p := range res {
		if p.DistanceKm == nil {
			seenNil = true
			continue
		}
		if seenNil {
			t.Fatalf("%s with distance sorted after a place without one", p.ID)
		}
		if *p.DistanceKm < last {
			t.Fatalf("results not ascending at %s", p.ID)
		}
		last = *p.DistanceKm
	}
	if res[len(res)-1].ID != "g9" {
		t.Errorf("expected place without coordinates last, got %s", res[len(res)-1].ID)
	}

	// Without a user the flag keeps declaration order.
	plain := ids(q.Query(domain.Filters{City: "Goa", SortByDistance: true}, nil))
	if plain[0] != "g2" {
		t.Errorf("expected declaration order without user, got %v", plain)
	}
}

func TestQuery_Counts(t *testing.T) {
	q := newTestEngine(t)
	c := q.Counts("Goa")
	want := domain.CategoryCounts{City: "Goa", All: 6, Hotels: 1, Food: 2, Attractions: 2, Shopping: 1}
	if c != want {
		t.Errorf("expected %+v, got %+v", want, c)
	}
}

func TestQuery_CustomSpeeds(t *testing.T) {
	c, _ := usecases.NewCatalog(fixture, []domain.City{mumbai, goa})
	q := usecases.NewQueryEngine(c, geospatial.Speeds{WalkingKmh: 4, DrivingKmh: 30, TransitKmh: 20})
	p := q.Query(domain.Filters{City: "Goa", Search: "Calangute"}, &panaji)[0]
	// 6.8155 km at 4, 30 and 20 km/h.
	if p.TravelTime.WalkingMinutes != 102 || p.TravelTime.DrivingMinutes != 14 || p.TravelTime.TransitMinutes != 20 {
		t.Errorf("unexpected travel time %+v", *p.TravelTime)
	}
}
