package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const maxWorkers = 1024

// Config holds all run settings, populated from environment variables.
type Config struct {
	DataDir         string
	ArchivePrefix   string
	StationsPrefix  string
	OutputDataPath  string
	OutputShapePath string
	Workers         int

	LogLevel        string
	LogFormat       string
	HTTPAddr        string // empty disables the metrics/health server
	ShutdownTimeout time.Duration
	PushgatewayURL  string // empty disables pushing metrics at the end of a run
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	workers, err := parseWorkers()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:         sharedcfg.EnvOrDefault("DATA_DIR", "./data"),
		ArchivePrefix:   sharedcfg.EnvOrDefault("ARCHIVE_PREFIX", "meteo_data_archive_"),
		StationsPrefix:  sharedcfg.EnvOrDefault("STATIONS_PREFIX", "stations_"),
		OutputDataPath:  sharedcfg.EnvOrDefault("OUTPUT_DATA_PATH", "./out.data"),
		OutputShapePath: sharedcfg.EnvOrDefault("OUTPUT_SHAPE_PATH", "./out.json"),
		Workers:         workers,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		ShutdownTimeout: shutdownTimeout,
		PushgatewayURL:  os.Getenv("PUSHGATEWAY_URL"),
	}

	if strings.TrimSpace(cfg.DataDir) == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.ArchivePrefix == "" {
		return nil, errors.New("ARCHIVE_PREFIX is required")
	}
	if cfg.StationsPrefix == "" {
		return nil, errors.New("STATIONS_PREFIX is required")
	}
	if cfg.OutputDataPath == "" || cfg.OutputShapePath == "" {
		return nil, errors.New("OUTPUT_DATA_PATH and OUTPUT_SHAPE_PATH are required")
	}
	if cfg.OutputDataPath == cfg.OutputShapePath {
		return nil, errors.New("OUTPUT_DATA_PATH and OUTPUT_SHAPE_PATH must differ")
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (allowed: json, text)", cfg.LogFormat)
	}

	return cfg, nil
}

// parseWorkers reads WORKERS, defaulting to the number of usable CPUs.
func parseWorkers() (int, error) {
	s := os.Getenv("WORKERS")
	if s == "" {
		return runtime.GOMAXPROCS(0), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxWorkers {
		return 0, fmt.Errorf("invalid WORKERS %q (must be 1-%d)", s, maxWorkers)
	}
	return n, nil
}
