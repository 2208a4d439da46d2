package ports

import (
	"context"

	"github.com/samirrijal/tourmap/internal/core/domain"
)

// CatalogSource loads the seed catalog. It is read once at startup; the
// resulting catalog is immutable.
type CatalogSource interface {
	Places(ctx context.Context) ([]domain.Place, error)
	Cities(ctx context.Context) ([]domain.City, error)
}

// CatalogWriter persists catalog seed data (used by the migrate tool).
type CatalogWriter interface {
	UpsertCities(ctx context.Context, cities []domain.City) error
	UpsertPlaces(ctx context.Context, places []domain.Place) error
}
