// Package config loads shutter's settings from YAML, .env and SHUTTER_* variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	DataDir  string         `yaml:"data_dir"`
	Gallery  GalleryConfig  `yaml:"gallery"`
	Download DownloadConfig `yaml:"download"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// GalleryConfig tunes the incremental loader.
type GalleryConfig struct {
	InitialBatch  int           `yaml:"initial_batch"`
	BatchSize     int           `yaml:"batch_size"`
	Latency       time.Duration `yaml:"latency"`
	FaultRate     float64       `yaml:"fault_rate"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	MaxRetries    int           `yaml:"max_retries"`
	TriggerMargin int           `yaml:"trigger_margin"` // rows
	Category      string        `yaml:"category"`       // initial filter tab
}

// DownloadConfig controls the image downloader.
type DownloadConfig struct {
	Dir       string        `yaml:"dir"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second
	Burst     int           `yaml:"burst"`
	UserAgent string        `yaml:"user_agent"`
}

// CatalogConfig locates the image catalog.
type CatalogConfig struct {
	DBPath string       `yaml:"db_path"` // ":memory:" keeps nothing between runs
	Feeds  []FeedConfig `yaml:"feeds"`
}

// FeedConfig is one feed for `shutter import`.
type FeedConfig struct {
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

// LogConfig sets the diagnostic log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the reference settings.
func Default() *Config {
	dataDir := defaultDataDir()
	return &Config{
		DataDir: dataDir,
		Gallery: GalleryConfig{
			InitialBatch:  12,
			BatchSize:     8,
			Latency:       800 * time.Millisecond,
			FaultRate:     0.1,
			RetryDelay:    3 * time.Second,
			MaxRetries:    3,
			TriggerMargin: 2,
			Category:      "all",
		},
		Download: DownloadConfig{
			Dir:       filepath.Join(dataDir, "downloads"),
			Timeout:   30 * time.Second,
			RateLimit: 2,
			Burst:     1,
			UserAgent: "shutter/0.1",
		},
		Catalog: CatalogConfig{
			DBPath: ":memory:",
		},
		Log: LogConfig{Level: "info"},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shutter"
	}
	return filepath.Join(home, ".shutter")
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// Load reads .env (if present), then the YAML file at path (missing file means
// defaults), expands ${VAR} references and applies SHUTTER_* overrides.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.Download.Dir == "" {
		cfg.Download.Dir = filepath.Join(cfg.DataDir, "downloads")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("SHUTTER_DATA_DIR", &c.DataDir)
	str("SHUTTER_CATEGORY", &c.Gallery.Category)
	str("SHUTTER_DOWNLOAD_DIR", &c.Download.Dir)
	str("SHUTTER_CATALOG_DB", &c.Catalog.DBPath)
	str("SHUTTER_LOG_LEVEL", &c.Log.Level)
	str("SHUTTER_METRICS_ADDR", &c.Metrics.Addr)

	if v := os.Getenv("SHUTTER_FAULT_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SHUTTER_FAULT_RATE: %w", err)
		}
		c.Gallery.FaultRate = f
	}
	if v := os.Getenv("SHUTTER_LATENCY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTTER_LATENCY: %w", err)
		}
		c.Gallery.Latency = d
	}
	if v := os.Getenv("SHUTTER_RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTTER_RETRY_DELAY: %w", err)
		}
		c.Gallery.RetryDelay = d
	}
	return nil
}

// Validate rejects settings the loader cannot run with.
func (c *Config) Validate() error {
	g := c.Gallery
	switch {
	case g.InitialBatch <= 0:
		return fmt.Errorf("gallery.initial_batch must be positive, got %d", g.InitialBatch)
	case g.BatchSize <= 0:
		return fmt.Errorf("gallery.batch_size must be positive, got %d", g.BatchSize)
	case g.FaultRate < 0 || g.FaultRate > 1:
		return fmt.Errorf("gallery.fault_rate must be in [0, 1], got %v", g.FaultRate)
	case g.MaxRetries < 0:
		return fmt.Errorf("gallery.max_retries must not be negative, got %d", g.MaxRetries)
	case g.Latency < 0 || g.RetryDelay < 0:
		return errors.New("gallery durations must not be negative")
	case g.TriggerMargin < 0:
		return fmt.Errorf("gallery.trigger_margin must not be negative, got %d", g.TriggerMargin)
	}
	if c.Download.RateLimit <= 0 {
		return fmt.Errorf("download.rate_limit must be positive, got %v", c.Download.RateLimit)
	}
	if c.Catalog.DBPath == "" {
		return errors.New("catalog.db_path must be set")
	}
	return nil
}

// LogDir is where the diagnostic log lives.
func (c *Config) LogDir() string { return filepath.Join(c.DataDir, "logs") }

// EventLogPath is the JSONL event log.
func (c *Config) EventLogPath() string { return filepath.Join(c.DataDir, "shutter.events.jsonl") }
