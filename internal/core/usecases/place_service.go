package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/tourmap/internal/core/domain"
	"github.com/samirrijal/tourmap/internal/core/ports"
	"github.com/samirrijal/tourmap/internal/pkg/metrics"
	"github.com/samirrijal/tourmap/internal/pkg/telemetry"
)

// PlaceService answers stateless place queries for the REST and GraphQL APIs.
type PlaceService struct {
	engine   *QueryEngine
	links    LinkBuilder
	cache    ports.CacheService
	cacheTTL int
	group    singleflight.Group
}

// NewPlaceService creates a new PlaceService. cache may be nil.
func NewPlaceService(engine *QueryEngine, links LinkBuilder, cache ports.CacheService, cacheTTLSeconds int) *PlaceService {
	if cacheTTLSeconds <= 0 {
		cacheTTLSeconds = 300
	}
	return &PlaceService{engine: engine, links: links, cache: cache, cacheTTL: cacheTTLSeconds}
}

// Cities returns the known cities in declaration order.
func (s *PlaceService) Cities() []domain.City {
	return s.engine.Catalog().Cities()
}

// Query returns the places matching f, enriched relative to user when set.
func (s *PlaceService) Query(ctx context.Context, f domain.Filters, user *domain.GeoPoint) ([]domain.EnrichedPlace, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanPlaceQuery,
		attribute.String("city", f.City),
		attribute.String("category", string(f.Category)),
	)
	defer span.End()

	if _, err := s.engine.Catalog().City(f.City); err != nil {
		return nil, err
	}
	category, err := domain.ParseCategory(string(f.Category))
	if err != nil {
		return nil, err
	}
	f.Category = category

	key := queryCacheKey(f, user)
	if places, ok := s.cached(ctx, "query", key); ok {
		return places, nil
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		places := s.engine.Query(f, user)
		metrics.QueryResults.Observe(float64(len(places)))
		s.store(ctx, key, places)
		return places, nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("shared", shared))

	places := v.([]domain.EnrichedPlace)
	if shared {
		places = append([]domain.EnrichedPlace(nil), places...)
	}
	return places, nil
}

// GetByID returns one place, enriched relative to user when set.
func (s *PlaceService) GetByID(ctx context.Context, id string, user *domain.GeoPoint) (*domain.EnrichedPlace, error) {
	_, span := telemetry.StartSpan(ctx, telemetry.SpanPlaceGet, attribute.String("place_id", id))
	defer span.End()

	p, err := s.engine.Catalog().Place(id)
	if err != nil {
		return nil, err
	}
	if user != nil && !user.Valid() {
		user = nil
	}
	ep := s.engine.Enrich(p, user)
	return &ep, nil
}

// Counts returns the category badge counts for a city.
func (s *PlaceService) Counts(ctx context.Context, city string) (domain.CategoryCounts, error) {
	_, span := telemetry.StartSpan(ctx, telemetry.SpanCityCounts, attribute.String("city", city))
	defer span.End()

	c, err := s.engine.Catalog().City(city)
	if err != nil {
		return domain.CategoryCounts{}, err
	}
	return s.engine.Counts(c.Name), nil
}

// Links returns the outward links for a place. user is optional and enables
// the directions link.
func (s *PlaceService) Links(id string, user *domain.GeoPoint) (Links, error) {
	p, err := s.engine.Catalog().Place(id)
	if err != nil {
		return Links{}, err
	}
	return s.links.For(p, user), nil
}

func (s *PlaceService) cached(ctx context.Context, op, key string) ([]domain.EnrichedPlace, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return nil, false
	}
	var places []domain.EnrichedPlace
	if err := json.Unmarshal(data, &places); err != nil {
		metrics.CacheMisses.WithLabelValues(op).Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues(op).Inc()
	return places, true
}

func (s *PlaceService) store(ctx context.Context, key string, places []domain.EnrichedPlace) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(places); err == nil {
		_ = s.cache.Set(ctx, key, data, s.cacheTTL)
	}
}

// queryCacheKey covers every input that affects the result.
func queryCacheKey(f domain.Filters, user *domain.GeoPoint) string {
	category := f.Category
	if category == "" {
		category = domain.CategoryAll
	}
	pos := "-"
	if user != nil && user.Valid() {
		pos = fmt.Sprintf("%g,%g", user.Lat, user.Lon)
	}
	return fmt.Sprintf("places:query:%s:%s:%s:%s:%t",
		f.City, category, strings.ToLower(strings.TrimSpace(f.Search)), pos, f.SortByDistance)
}
