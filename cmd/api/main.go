package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/tourmap/internal/adapters/catalog"
	"github.com/samirrijal/tourmap/internal/adapters/http"
	natsadapter "github.com/samirrijal/tourmap/internal/adapters/nats"
	"github.com/samirrijal/tourmap/internal/adapters/postgres"
	"github.com/samirrijal/tourmap/internal/adapters/valkey"
	"github.com/samirrijal/tourmap/internal/core/ports"
	"github.com/samirrijal/tourmap/internal/core/usecases"
	"github.com/samirrijal/tourmap/internal/pkg/config"
	"github.com/samirrijal/tourmap/internal/pkg/logging"
	"github.com/samirrijal/tourmap/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("tourmap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Catalog
	src, db, err := openCatalog(ctx, cfg)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	if db != nil {
		defer db.Close()
	}
	cat, err := usecases.LoadCatalog(ctx, src)
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}
	slog.Info("catalog loaded", "source", cfg.Catalog.Source, "places", cat.Len(), "cities", len(cat.Cities()))

	engine := usecases.NewQueryEngine(cat, cfg.Explorer.Speeds)
	explorerCfg := usecases.ExplorerConfig{
		DefaultCity:    cfg.Explorer.DefaultCity,
		LocateTimeout:  cfg.Explorer.GeolocationTimeout,
		RoutePaddingPx: cfg.Explorer.RoutePaddingPx,
		CityZoom:       cfg.Explorer.CityZoom,
		PlaceZoom:      cfg.Explorer.PlaceZoom,
		MapsBaseURL:    cfg.Explorer.MapsBaseURL,
	}
	if _, err := cat.City(explorerCfg.DefaultCity); err != nil {
		log.Fatalf("explorer.default_city %q: %v", explorerCfg.DefaultCity, err)
	}

	deps := &http.Dependencies{
		Engine:        engine,
		Explorer:      explorerCfg,
		DB:            db,
		Logger:        logger,
		RateLimit:     cfg.Server.RateLimit,
		CORSOrigins:   strings.Join(cfg.Server.CORSOrigins, ","),
		MaxWSSessions: cfg.Server.MaxWSSessions,
	}

	// Cache
	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer vc.Close()
			cache = vc
			deps.Cache = vc
		}
	}
	deps.Places = usecases.NewPlaceService(engine, usecases.NewLinkBuilder(cfg.Explorer.MapsBaseURL), cache, cfg.Valkey.TTLSeconds)

	// NATS
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, explorer events disabled", "error", err)
		} else {
			defer pub.Close()
			deps.Events = pub
			deps.Broker = pub
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Tourmap API",
	})

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// openCatalog picks the configured catalog source. The database handle is
// returned for readiness checks when the catalog lives in Postgres.
func openCatalog(ctx context.Context, cfg *config.Config) (ports.CatalogSource, *postgres.DB, error) {
	switch cfg.Catalog.Source {
	case config.CatalogFile:
		return catalog.NewFile(cfg.Catalog.Path), nil, nil
	case config.CatalogPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewPlaceRepo(db), db, nil
	default:
		return catalog.NewEmbedded(), nil, nil
	}
}
