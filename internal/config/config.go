package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Catalog sources.
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
	SourceKafka  = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	AllowedOrigins  []string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	CatalogSource     string
	CatalogPath       string
	BasemapWorldPath  string
	BasemapNAPath     string
	BasemapPlatesPath string

	ViewportWidth      float64
	ViewportHeight     float64
	FrameInterval      time.Duration
	RadiusZoomExponent float64
	MaxSessions        int

	KafkaBrokers      []string
	KafkaCatalogTopic string
	KafkaGroupID      string
	KafkaReadTimeout  time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	frameInterval, err := parsePositiveDuration("FRAME_INTERVAL", "16ms")
	if err != nil {
		return nil, err
	}
	kafkaReadTimeout, err := parsePositiveDuration("KAFKA_READ_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	width, err := parsePositiveFloat("VIEWPORT_WIDTH", "960")
	if err != nil {
		return nil, err
	}
	height, err := parsePositiveFloat("VIEWPORT_HEIGHT", "600")
	if err != nil {
		return nil, err
	}

	exponent, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("RADIUS_ZOOM_EXPONENT", "0.23"), 64)
	if err != nil || exponent < 0 || exponent >= 1 {
		return nil, errors.New("invalid RADIUS_ZOOM_EXPONENT: must be in [0, 1)")
	}

	maxSessions, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAX_SESSIONS", "64"))
	if err != nil || maxSessions <= 0 {
		return nil, errors.New("invalid MAX_SESSIONS: must be a positive integer")
	}

	mapboxCacheSize := parseMapboxCacheSize()

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		AllowedOrigins:  parseList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CatalogSource:     sharedcfg.EnvOrDefault("CATALOG_SOURCE", SourceCSV),
		CatalogPath:       sharedcfg.EnvOrDefault("CATALOG_PATH", "data/earthquake_data_tsunami.csv"),
		BasemapWorldPath:  os.Getenv("BASEMAP_WORLD_PATH"),
		BasemapNAPath:     os.Getenv("BASEMAP_NA_PATH"),
		BasemapPlatesPath: os.Getenv("BASEMAP_PLATES_PATH"),

		ViewportWidth:      width,
		ViewportHeight:     height,
		FrameInterval:      frameInterval,
		RadiusZoomExponent: exponent,
		MaxSessions:        maxSessions,

		KafkaBrokers:      sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaCatalogTopic: sharedcfg.EnvOrDefault("KAFKA_CATALOG_TOPIC", "earthquake-catalog"),
		KafkaGroupID:      sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "quake-map-explorer"),
		KafkaReadTimeout:  kafkaReadTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,
	}

	switch cfg.CatalogSource {
	case SourceCSV, SourceSQLite:
		if cfg.CatalogPath == "" {
			return nil, errors.New("CATALOG_PATH is required")
		}
	case SourceKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaCatalogTopic == "" {
			return nil, errors.New("KAFKA_CATALOG_TOPIC is required")
		}
	default:
		return nil, fmt.Errorf("invalid CATALOG_SOURCE %q: must be csv, sqlite or kafka", cfg.CatalogSource)
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

// parseList splits a comma-separated value, dropping empty entries.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
