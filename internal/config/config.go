// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nimbusgeo/stac-populator/internal/stac"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	StacAPIURL       string
	CatalogURL       string
	CollectionPath   string
	DatasetFamily    string
	UpdateMode       stac.UpdateMode
	ExcludeSummaries []string
	CrawlDepth       int
	RequestTimeout   time.Duration
	SchemaCacheSize  int
	ErrorDumpDir     string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Item event publishing configuration.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	requestTimeout, err := parseDuration("REQUEST_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	crawlDepth, err := parseInt("CRAWL_DEPTH", -1)
	if err != nil {
		return nil, err
	}
	schemaCacheSize, err := parseInt("SCHEMA_CACHE_SIZE", 50)
	if err != nil {
		return nil, err
	}
	if schemaCacheSize <= 0 {
		return nil, errors.New("SCHEMA_CACHE_SIZE must be positive")
	}

	cfg := &Config{
		StacAPIURL:       strings.TrimSuffix(os.Getenv("STAC_API_URL"), "/"),
		CatalogURL:       os.Getenv("THREDDS_CATALOG_URL"),
		CollectionPath:   os.Getenv("COLLECTION_CONFIG"),
		DatasetFamily:    envOrDefault("DATASET_FAMILY", "cmip6"),
		UpdateMode:       stac.UpdateMode(envOrDefault("UPDATE_MODE", string(stac.ModeAll))),
		ExcludeSummaries: parseList(os.Getenv("EXCLUDE_SUMMARIES")),
		CrawlDepth:       crawlDepth,
		RequestTimeout:   requestTimeout,
		SchemaCacheSize:  schemaCacheSize,
		ErrorDumpDir:     os.Getenv("ERROR_DUMP_DIR"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: parseList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_ITEM_TOPIC", "stac-item-events"),
	}

	if cfg.StacAPIURL == "" {
		return nil, errors.New("STAC_API_URL is required")
	}
	if cfg.CatalogURL == "" {
		return nil, errors.New("THREDDS_CATALOG_URL is required")
	}
	if cfg.CollectionPath == "" {
		return nil, errors.New("COLLECTION_CONFIG is required")
	}
	if err := cfg.UpdateMode.Validate(); err != nil {
		return nil, fmt.Errorf("invalid UPDATE_MODE: %w", err)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
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
