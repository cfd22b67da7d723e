package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultGridSourceURL is used when neither GRID_SOURCE_URL nor
// GRID_SOURCE_DIR is set.
const DefaultGridSourceURL = "http://localhost:8090"

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Grid data source. Exactly one of GridSourceURL and GridSourceDir is set.
	GridSourceURL    string
	GridSourceDir    string
	GridFetchTimeout time.Duration
	GridCacheSize    int

	// Model settings.
	GridResolution float64
	LagWindowDays  int
	SpeciesFile    string
	HotspotLimit   int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("GRID_FETCH_TIMEOUT", "5s"))
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("invalid GRID_FETCH_TIMEOUT")
	}

	cacheSize, err := parsePositiveInt("GRID_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	windowDays, err := parseNonNegativeInt("LAG_WINDOW_DAYS", 7)
	if err != nil {
		return nil, err
	}
	hotspotLimit, err := parseNonNegativeInt("HOTSPOT_LIMIT", 25)
	if err != nil {
		return nil, err
	}

	resolution, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("GRID_RESOLUTION", "0.5"), 64)
	if err != nil || !(resolution > 0) || resolution > 10 {
		return nil, errors.New("invalid GRID_RESOLUTION: must be a number of degrees in (0, 10]")
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "hsi-requests"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "hsi-reports"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "shark-hsi-service"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		GridSourceURL:    os.Getenv("GRID_SOURCE_URL"),
		GridSourceDir:    os.Getenv("GRID_SOURCE_DIR"),
		GridFetchTimeout: fetchTimeout,
		GridCacheSize:    cacheSize,

		GridResolution: resolution,
		LagWindowDays:  windowDays,
		SpeciesFile:    os.Getenv("SPECIES_FILE"),
		HotspotLimit:   hotspotLimit,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	switch {
	case cfg.GridSourceURL != "" && cfg.GridSourceDir != "":
		return nil, errors.New("GRID_SOURCE_URL and GRID_SOURCE_DIR are mutually exclusive")
	case cfg.GridSourceURL == "" && cfg.GridSourceDir == "":
		cfg.GridSourceURL = DefaultGridSourceURL
	}

	return cfg, nil
}

func parsePositiveInt(name string, def int) (int, error) {
	n, err := parseInt(name, def)
	if err == nil && n <= 0 {
		err = fmt.Errorf("invalid %s: must be positive", name)
	}
	return n, err
}

func parseNonNegativeInt(name string, def int) (int, error) {
	n, err := parseInt(name, def)
	if err == nil && n < 0 {
		err = fmt.Errorf("invalid %s: must not be negative", name)
	}
	return n, err
}

func parseInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}
