package http

import (
	"log/slog"

	"github.com/samirrijal/tourmap/internal/adapters/postgres"
	"github.com/samirrijal/tourmap/internal/adapters/valkey"
	"github.com/samirrijal/tourmap/internal/core/ports"
	"github.com/samirrijal/tourmap/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Places   *usecases.PlaceService
	Engine   *usecases.QueryEngine
	Explorer usecases.ExplorerConfig
	Events   ports.EventPublisher // nil disables explorer events
	Broker   BrokerStatus         // nil when NATS is disabled
	DB       *postgres.DB         // set only for the postgres catalog source
	Cache    *valkey.Cache
	Logger   *slog.Logger

	RateLimit     int // requests per minute per IP, 0 disables
	CORSOrigins   string
	MaxWSSessions int
	OpenAPIPath   string
}

// BrokerStatus reports message broker connectivity.
type BrokerStatus interface {
	Connected() bool
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
