package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/samirrijal/tourmap/internal/adapters/catalog"
	"github.com/samirrijal/tourmap/internal/adapters/postgres"
	"github.com/samirrijal/tourmap/internal/core/ports"
	"github.com/samirrijal/tourmap/internal/core/usecases"
	"github.com/samirrijal/tourmap/internal/pkg/config"
	"github.com/samirrijal/tourmap/internal/pkg/logging"
)

const usage = "usage: migrate <up|seed [catalog.yaml]>"

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	cfg, err := config.Load("tourmap-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		applied, err := db.Migrate(ctx)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		for _, f := range applied {
			fmt.Printf("OK  %s\n", f)
		}
		slog.Info("all migrations applied", "count", len(applied))

	case "seed":
		var src ports.CatalogSource = catalog.NewEmbedded()
		if len(os.Args) > 2 {
			src = catalog.NewFile(os.Args[2])
		}
		if err := seed(ctx, src, postgres.NewPlaceRepo(db)); err != nil {
			log.Fatalf("seed: %v", err)
		}

	default:
		log.Fatalf("unknown command %q\n%s", os.Args[1], usage)
	}
}

// seed validates the source catalog, then upserts cities before places.
func seed(ctx context.Context, src ports.CatalogSource, dst ports.CatalogWriter) error {
	cat, err := usecases.LoadCatalog(ctx, src)
	if err != nil {
		return err
	}
	if err := dst.UpsertCities(ctx, cat.Cities()); err != nil {
		return fmt.Errorf("cities: %w", err)
	}
	if err := dst.UpsertPlaces(ctx, cat.AllPlaces()); err != nil {
		return fmt.Errorf("places: %w", err)
	}
	slog.Info("catalog seeded", "cities", len(cat.Cities()), "places", cat.Len())
	return nil
}
