package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/tourmap/internal/core/domain"
)

// PlaceRepo implements ports.CatalogSource and ports.CatalogWriter with pgx.
type PlaceRepo struct {
	db *DB
}

// NewPlaceRepo creates a new PlaceRepo.
func NewPlaceRepo(db *DB) *PlaceRepo {
	return &PlaceRepo{db: db}
}

// Cities returns every city in seed order.
func (r *PlaceRepo) Cities(ctx context.Context) ([]domain.City, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT name, emoji,
		       ST_Y(center::geometry) AS lat,
		       ST_X(center::geometry) AS lon
		FROM cities
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	var cities []domain.City
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.Name, &c.Emoji, &c.Center.Lat, &c.Center.Lon); err != nil {
			return nil, err
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

// Places returns every place in seed order.
func (r *PlaceRepo) Places(ctx context.Context) ([]domain.Place, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, type, category, city,
		       ST_Y(location::geometry) AS lat,
		       ST_X(location::geometry) AS lon,
		       address, description, rating::float8, price_range,
		       COALESCE(phone, ''), is_open, featured
		FROM places
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query places: %w", err)
	}
	defer rows.Close()

	var places []domain.Place
	for rows.Next() {
		var p domain.Place
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Type, &p.Category, &p.City,
			&p.Location.Lat, &p.Location.Lon,
			&p.Address, &p.Description, &p.Rating, &p.PriceRange,
			&p.Phone, &p.IsOpen, &p.Featured,
		); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// UpsertCities writes cities using pgx.Batch, keeping slice order as seed order.
func (r *PlaceRepo) UpsertCities(ctx context.Context, cities []domain.City) error {
	batch := &pgx.Batch{}
	for i, c := range cities {
		batch.Queue(`
			INSERT INTO cities (name, emoji, center, position)
			VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5)
			ON CONFLICT (name) DO UPDATE
			SET emoji = EXCLUDED.emoji, center = EXCLUDED.center,
			    position = EXCLUDED.position, updated_at = now()
		`, c.Name, c.Emoji, c.Center.Lon, c.Center.Lat, i)
	}
	return r.sendBatch(ctx, batch, len(cities))
}

// UpsertPlaces writes places using pgx.Batch, keeping slice order as seed order.
func (r *PlaceRepo) UpsertPlaces(ctx context.Context, places []domain.Place) error {
	batch := &pgx.Batch{}
	for i, p := range places {
		var phone *string
		if p.Phone != "" {
			phone = &p.Phone
		}
		batch.Queue(`
			INSERT INTO places (id, name, type, category, city, location, address, description,
			                    rating, price_range, phone, is_open, featured, position)
			VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_MakePoint($6, $7), 4326)::geography,
			        $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, type = EXCLUDED.type, category = EXCLUDED.category,
			    city = EXCLUDED.city, location = EXCLUDED.location, address = EXCLUDED.address,
			    description = EXCLUDED.description, rating = EXCLUDED.rating,
			    price_range = EXCLUDED.price_range, phone = EXCLUDED.phone,
			    is_open = EXCLUDED.is_open, featured = EXCLUDED.featured,
			    position = EXCLUDED.position, updated_at = now()
		`, p.ID, p.Name, string(p.Type), string(p.Category), p.City, p.Location.Lon, p.Location.Lat,
			p.Address, p.Description, p.Rating, p.PriceRange, phone, p.IsOpen, p.Featured, i)
	}
	return r.sendBatch(ctx, batch, len(places))
}

func (r *PlaceRepo) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec %d: %w", i, err)
		}
	}
	return nil
}
