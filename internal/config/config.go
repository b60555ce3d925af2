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

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Schedule is a cron spec with a seconds field. Empty means run once.
	Schedule string

	OutputDir     string
	XLSXEnabled   bool
	ReportEnabled bool

	FetchTimeout    time.Duration
	FetchMaxRetries int
	FetchRate       float64
	FetchUserAgent  string
	// FetchDir replays snapshot documents instead of using the network.
	FetchDir string

	ResolverCacheSize int

	// Sources restricts the run to the named sources, in order.
	Sources []string
	// Catalog overrides source URLs and enabled flags. Nil when SOURCES_FILE is unset.
	Catalog []SourceEntry

	PostgresDSN string
	SQLitePath  string

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	maxRetries, err := strconv.Atoi(sharedcfg.EnvOrDefault("FETCH_MAX_RETRIES", "3"))
	if err != nil || maxRetries < 0 || maxRetries > 10 {
		return nil, errors.New("invalid FETCH_MAX_RETRIES: must be between 0 and 10")
	}

	rate, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("FETCH_RATE", "1"), 64)
	if err != nil || rate < 0 {
		return nil, errors.New("invalid FETCH_RATE")
	}

	var catalog []SourceEntry
	sourcesFile := os.Getenv("SOURCES_FILE")
	if sourcesFile != "" {
		catalog, err = LoadCatalog(sourcesFile)
		if err != nil {
			return nil, err
		}
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	kafkaBrokers := sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(kafkaBrokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		Schedule:        strings.TrimSpace(os.Getenv("SCHEDULE")),

		OutputDir:     sharedcfg.EnvOrDefault("OUTPUT_DIR", "data"),
		XLSXEnabled:   os.Getenv("XLSX_ENABLED") == "true",
		ReportEnabled: os.Getenv("REPORT_ENABLED") == "true",

		FetchTimeout:    fetchTimeout,
		FetchMaxRetries: maxRetries,
		FetchRate:       rate,
		FetchUserAgent:  sharedcfg.EnvOrDefault("FETCH_USER_AGENT", defaultUserAgent),
		FetchDir:        os.Getenv("FETCH_DIR"),

		ResolverCacheSize: parseCacheSize("RESOLVER_CACHE_SIZE"),

		Sources: parseList(os.Getenv("SOURCES")),
		Catalog: catalog,

		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		SQLitePath:  os.Getenv("SQLITE_PATH"),

		KafkaEnabled: kafkaEnabled,
		KafkaBrokers: kafkaBrokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "store-locations"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseCacheSize("MAPBOX_CACHE_SIZE"),
	}

	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize(key string) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
