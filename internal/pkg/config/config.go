package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/samirrijal/tourmap/internal/pkg/geospatial"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Explorer  ExplorerConfig  `mapstructure:"explorer"`
}

type ServerConfig struct {
	Port          int      `mapstructure:"port"`
	ReadTimeout   int      `mapstructure:"read_timeout"`
	WriteTimeout  int      `mapstructure:"write_timeout"`
	CORSOrigins   []string `mapstructure:"cors_origins"`
	RateLimit     int      `mapstructure:"rate_limit"` // requests per minute per IP
	MaxWSSessions int      `mapstructure:"max_ws_sessions"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Catalog sources.
const (
	CatalogEmbedded = "embedded"
	CatalogFile     = "file"
	CatalogPostgres = "postgres"
)

type CatalogConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr       string `mapstructure:"addr"`
	Enabled    bool   `mapstructure:"enabled"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	KeyPrefix  string `mapstructure:"key_prefix"`
}

type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Enabled      bool   `mapstructure:"enabled"`
}

type ExplorerConfig struct {
	DefaultCity        string            `mapstructure:"default_city"`
	Speeds             geospatial.Speeds `mapstructure:",squash"`
	GeolocationTimeout time.Duration     `mapstructure:"geolocation_timeout"`
	MapsBaseURL        string            `mapstructure:"maps_base_url"`
	RoutePaddingPx     int               `mapstructure:"route_padding_px"`
	CityZoom           int               `mapstructure:"city_zoom"`
	PlaceZoom          int               `mapstructure:"place_zoom"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: TOURMAP_EXPLORER_DRIVING_KMH → explorer.driving_kmh
	v.SetEnvPrefix("TOURMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 600)
	v.SetDefault("server.max_ws_sessions", 1000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("catalog.source", CatalogEmbedded)
	v.SetDefault("catalog.path", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "tourmap")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "tourmap")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", false)
	v.SetDefault("valkey.ttl_seconds", 300)
	v.SetDefault("valkey.key_prefix", "tourmap:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_endpoint", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("explorer.default_city", "Mumbai")
	v.SetDefault("explorer.walking_kmh", geospatial.DefaultSpeeds.WalkingKmh)
	v.SetDefault("explorer.driving_kmh", geospatial.DefaultSpeeds.DrivingKmh)
	v.SetDefault("explorer.transit_kmh", geospatial.DefaultSpeeds.TransitKmh)
	v.SetDefault("explorer.geolocation_timeout", 10*time.Second)
	v.SetDefault("explorer.maps_base_url", "https://www.google.com/maps/search/")
	v.SetDefault("explorer.route_padding_px", 50)
	v.SetDefault("explorer.city_zoom", 12)
	v.SetDefault("explorer.place_zoom", 15)

	if service == "tourmap-insights" {
		v.SetDefault("server.port", 8081)
		v.SetDefault("nats.enabled", true)
	}
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	switch c.Catalog.Source {
	case CatalogEmbedded:
	case CatalogFile:
		if c.Catalog.Path == "" {
			errs = append(errs, "catalog.path is required when catalog.source is file")
		}
	case CatalogPostgres:
		errs = append(errs, c.Database.validate()...)
	default:
		errs = append(errs, fmt.Sprintf("catalog.source must be embedded, file or postgres, got %q", c.Catalog.Source))
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey is enabled")
	}
	if c.Telemetry.Enabled && c.Telemetry.OTLPEndpoint == "" {
		errs = append(errs, "telemetry.otlp_endpoint is required when telemetry is enabled")
	}

	e := c.Explorer
	if e.DefaultCity == "" {
		errs = append(errs, "explorer.default_city is required")
	}
	if e.Speeds.WalkingKmh <= 0 || e.Speeds.DrivingKmh <= 0 || e.Speeds.TransitKmh <= 0 {
		errs = append(errs, "explorer speeds must be positive")
	}
	if e.GeolocationTimeout <= 0 {
		errs = append(errs, "explorer.geolocation_timeout must be positive")
	}
	if e.RoutePaddingPx < 0 {
		errs = append(errs, "explorer.route_padding_px must not be negative")
	}
	if e.CityZoom <= 0 || e.PlaceZoom <= 0 {
		errs = append(errs, "explorer zoom levels must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (d DatabaseConfig) validate() []string {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if d.Port <= 0 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user is required")
	}
	if d.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	return errs
}
