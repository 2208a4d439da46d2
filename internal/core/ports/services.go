package ports

import (
	"context"

	"github.com/samirrijal/tourmap/internal/core/domain"
)

// MapSurface is the rendering capability the engine drives. Implementations
// are thin adapters over a mapping library; the core never touches one directly.
type MapSurface interface {
	// Ready reports whether the surface can accept drawing calls.
	Ready() bool

	RenderMarker(place domain.EnrichedPlace, style domain.MarkerStyle) error
	RestyleMarker(placeID string, style domain.MarkerStyle) error
	RemoveMarker(placeID string) error

	RenderUserMarker(at domain.GeoPoint) error
	RemoveUserMarker() error

	DrawRoute(from, to domain.GeoPoint) error
	RemoveRoute() error

	FitBounds(bounds domain.Bounds, paddingPx int) error
	SetView(center domain.GeoPoint, zoom int) error
}

// Locator acquires the device position once. It must return a
// *domain.GeolocationError on failure.
type Locator interface {
	Locate(ctx context.Context, opts domain.LocateOptions) (domain.GeoPoint, error)
}

// ToastKind classifies a user notification.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

// Notifier surfaces short messages to the user.
type Notifier interface {
	Notify(kind ToastKind, message string)
}

// EventPublisher publishes explorer events to a message broker.
type EventPublisher interface {
	PublishPlaceSelected(ctx context.Context, event *domain.ExplorerEvent) error
	PublishRouteDrawn(ctx context.Context, event *domain.ExplorerEvent) error
	PublishGeolocationFailed(ctx context.Context, event *domain.ExplorerEvent) error
}

// EventSubscriber consumes explorer events from a message broker.
type EventSubscriber interface {
	SubscribeExplorerEvents(ctx context.Context, handler func(ctx context.Context, event *domain.ExplorerEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
