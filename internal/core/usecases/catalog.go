package usecases

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/tourmap/internal/core/domain"
	"github.com/samirrijal/tourmap/internal/core/ports"
	"github.com/samirrijal/tourmap/internal/pkg/telemetry"
)

// Catalog is the immutable place dataset. It has no mutation operations.
type Catalog struct {
	places []domain.Place
	byID   map[string]int
	cities []domain.City
	city   map[string]int
}

// LoadCatalog reads places and cities from src concurrently and builds a Catalog.
func LoadCatalog(ctx context.Context, src ports.CatalogSource) (*Catalog, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanCatalogLoad)
	defer span.End()

	var (
		cities []domain.City
		places []domain.Place
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cities, err = src.Cities(gctx); err != nil {
			return fmt.Errorf("load cities: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if places, err = src.Places(gctx); err != nil {
			return fmt.Errorf("load places: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewCatalog(places, cities)
}

// NewCatalog validates and indexes the given data. Declaration order is kept.
func NewCatalog(places []domain.Place, cities []domain.City) (*Catalog, error) {
	c := &Catalog{
		places: make([]domain.Place, len(places)),
		byID:   make(map[string]int, len(places)),
		cities: make([]domain.City, len(cities)),
		city:   make(map[string]int, len(cities)),
	}
	copy(c.places, places)
	copy(c.cities, cities)

	for i, ct := range c.cities {
		if ct.Name == "" {
			return nil, fmt.Errorf("city #%d has no name", i)
		}
		if _, dup := c.city[ct.Name]; dup {
			return nil, fmt.Errorf("duplicate city %q", ct.Name)
		}
		c.city[ct.Name] = i
	}

	var errs []string
	for i, p := range c.places {
		switch {
		case p.ID == "":
			errs = append(errs, fmt.Sprintf("place #%d has no id", i))
			continue
		case p.City == "":
			errs = append(errs, fmt.Sprintf("place %s has no city", p.ID))
		}
		if _, dup := c.byID[p.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate place id %s", p.ID))
			continue
		}
		if _, ok := c.city[p.City]; !ok && len(c.cities) > 0 {
			errs = append(errs, fmt.Sprintf("place %s references unknown city %q", p.ID, p.City))
		}
		c.byID[p.ID] = i
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("catalog validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return c, nil
}

// AllPlaces returns every place in declaration order. The returned slice
// shares storage with the catalog and must be treated as read-only.
func (c *Catalog) AllPlaces() []domain.Place {
	return c.places[:len(c.places):len(c.places)]
}

// Place looks up a place by id.
func (c *Catalog) Place(id string) (domain.Place, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Place{}, domain.ErrPlaceNotFound
	}
	return c.places[i], nil
}

// Cities returns the known cities in declaration order (read-only).
func (c *Catalog) Cities() []domain.City {
	return c.cities[:len(c.cities):len(c.cities)]
}

// City looks up a city by exact name.
func (c *Catalog) City(name string) (domain.City, error) {
	i, ok := c.city[name]
	if !ok {
		return domain.City{}, domain.ErrCityNotFound
	}
	return c.cities[i], nil
}

// Len is the number of places.
func (c *Catalog) Len() int { return len(c.places) }
