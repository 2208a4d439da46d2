package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/tourmap/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("tourmap-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Catalog.Source != config.CatalogEmbedded {
		t.Errorf("expected embedded catalog, got %q", cfg.Catalog.Source)
	}
	s := cfg.Explorer.Speeds
	if s.WalkingKmh != 5 || s.DrivingKmh != 40 || s.TransitKmh != 25 {
		t.Errorf("unexpected default speeds %+v", s)
	}
	if cfg.Explorer.GeolocationTimeout != 10*time.Second {
		t.Errorf("expected 10s geolocation timeout, got %v", cfg.Explorer.GeolocationTimeout)
	}
	if cfg.Telemetry.ServiceName != "tourmap-test" {
		t.Errorf("expected service name from argument, got %q", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TOURMAP_EXPLORER_DRIVING_KMH", "30")
	t.Setenv("TOURMAP_EXPLORER_DEFAULT_CITY", "Goa")
	t.Setenv("TOURMAP_EXPLORER_GEOLOCATION_TIMEOUT", "5s")

	cfg, err := config.Load("tourmap-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Explorer.Speeds.DrivingKmh != 30 {
		t.Errorf("expected driving 30, got %v", cfg.Explorer.Speeds.DrivingKmh)
	}
	if cfg.Explorer.DefaultCity != "Goa" {
		t.Errorf("expected Goa, got %q", cfg.Explorer.DefaultCity)
	}
	if cfg.Explorer.GeolocationTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.Explorer.GeolocationTimeout)
	}
}

func TestLoad_InvalidCatalogSource(t *testing.T) {
	t.Setenv("TOURMAP_CATALOG_SOURCE", "s3")
	_, err := config.Load("tourmap-test")
	if err == nil || !strings.Contains(err.Error(), "catalog.source") {
		t.Fatalf("expected catalog.source error, got %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &config.Config{
		Catalog:  config.CatalogConfig{Source: config.CatalogFile},
		Explorer: config.ExplorerConfig{},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "catalog.path", "explorer.default_city", "speeds", "geolocation_timeout"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}
