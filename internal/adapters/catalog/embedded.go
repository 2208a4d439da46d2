// Package catalog provides the read-only sources the place catalog is loaded from.
package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/samirrijal/tourmap/internal/core/domain"
)

//go:embed data/places.json
var placesJSON []byte

//go:embed data/cities.json
var citiesJSON []byte

// Embedded serves the catalog compiled into the binary.
type Embedded struct{}

// NewEmbedded returns the built-in catalog source.
func NewEmbedded() *Embedded { return &Embedded{} }

func (Embedded) Places(_ context.Context) ([]domain.Place, error) {
	var places []domain.Place
	if err := json.Unmarshal(placesJSON, &places); err != nil {
		return nil, fmt.Errorf("decode embedded places: %w", err)
	}
	return places, nil
}

func (Embedded) Cities(_ context.Context) ([]domain.City, error) {
	var cities []domain.City
	if err := json.Unmarshal(citiesJSON, &cities); err != nil {
		return nil, fmt.Errorf("decode embedded cities: %w", err)
	}
	return cities, nil
}
