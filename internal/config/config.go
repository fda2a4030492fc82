package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/radar-archive-locator/internal/domain"
	"github.com/couchcryptid/radar-archive-locator/internal/locator"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers      []string
	KafkaRequestTopic string
	KafkaResultTopic  string
	KafkaGroupID      string
	HTTPAddr          string
	LogLevel          string
	LogFormat         string
	ShutdownTimeout   time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Locator is the site configuration handed to every engine call.
	Locator locator.Config
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

	loc, err := loadLocator()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaRequestTopic:  sharedcfg.EnvOrDefault("KAFKA_REQUEST_TOPIC", "radar-locate-requests"),
		KafkaResultTopic:   sharedcfg.EnvOrDefault("KAFKA_RESULT_TOPIC", "radar-locate-results"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "radar-archive-locator"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		Locator:            loc,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaRequestTopic == "" {
		return nil, errors.New("KAFKA_REQUEST_TOPIC is required")
	}
	if cfg.KafkaResultTopic == "" {
		return nil, errors.New("KAFKA_RESULT_TOPIC is required")
	}

	return cfg, nil
}

func loadLocator() (locator.Config, error) {
	conv, ok := domain.LookupConvention(os.Getenv("PATH_CONVENTION"))
	if !ok {
		return locator.Config{}, fmt.Errorf("invalid PATH_CONVENTION %q", os.Getenv("PATH_CONVENTION"))
	}

	frequency, err := positiveInt("MODEL_RUN_FREQUENCY_HOURS", 3)
	if err != nil {
		return locator.Config{}, err
	}
	horizon, err := positiveInt("MODEL_HORIZON_HOURS", 33)
	if err != nil {
		return locator.Config{}, err
	}
	if horizon <= frequency {
		return locator.Config{}, errors.New("MODEL_HORIZON_HOURS must exceed MODEL_RUN_FREQUENCY_HOURS")
	}
	workers, err := positiveInt("SCAN_WORKERS", 4)
	if err != nil {
		return locator.Config{}, err
	}

	radars, err := loadRadars()
	if err != nil {
		return locator.Config{}, err
	}

	return locator.Config{
		Radars:       radars,
		Convention:   conv,
		RunFrequency: frequency,
		Horizon:      horizon,
		GridCode:     sharedcfg.EnvOrDefault("MODEL_GRID_CODE", "DX50"),
		Workers:      workers,
		TRTPath:      os.Getenv("TRT_PATH"),
	}, nil
}

// loadRadars zips the per-radar lists. A list with one entry applies to every
// radar; otherwise it must have one entry per radar.
func loadRadars() ([]locator.Radar, error) {
	lists := map[string][]string{}
	count := 1
	for _, key := range []string{
		"RADAR_DATA_PATHS", "RADAR_LOAD_BASE_PATHS", "RADAR_LOAD_NAMES",
		"RADAR_RESOLUTIONS", "RADAR_NAMES", "MODEL_PATHS",
	} {
		values := splitList(os.Getenv(key))
		lists[key] = values
		if len(values) > 1 {
			if count > 1 && len(values) != count {
				return nil, fmt.Errorf("%s has %d entries, expected %d", key, len(values), count)
			}
			count = len(values)
		}
	}

	at := func(key string, i int) string {
		values := lists[key]
		switch len(values) {
		case 0:
			return ""
		case 1:
			return values[0]
		default:
			return values[i]
		}
	}

	radars := make([]locator.Radar, count)
	for i := range radars {
		radars[i] = locator.Radar{
			DataPath:     at("RADAR_DATA_PATHS", i),
			LoadBasePath: at("RADAR_LOAD_BASE_PATHS", i),
			LoadName:     at("RADAR_LOAD_NAMES", i),
			Res:          at("RADAR_RESOLUTIONS", i),
			Name:         at("RADAR_NAMES", i),
			ModelPath:    at("MODEL_PATHS", i),
		}
	}
	return radars, nil
}

// splitList splits a comma-separated list. Entries keep their positions, so
// an empty entry stays empty rather than shifting later radars.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func positiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}
