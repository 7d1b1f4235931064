package main

import (
	"fmt"
	"os"

	"github.com/abelbrown/shutter/internal/catalog"
	"github.com/abelbrown/shutter/internal/config"
	"github.com/abelbrown/shutter/internal/logging"
	"github.com/abelbrown/shutter/internal/metrics"
	"github.com/abelbrown/shutter/internal/otel"
	"github.com/abelbrown/shutter/internal/store"
)

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return cfg, nil
}

// openCatalog opens the catalog store and seeds it with the reference
// collection when empty.
func openCatalog(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg.Catalog.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	seeded, err := st.SeedIfEmpty(catalog.Default())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	if seeded > 0 {
		logging.Info("seeded catalog", "items", seeded, "db", cfg.Catalog.DBPath)
	}
	if n, err := st.Count(); err == nil {
		metrics.CatalogItems.Set(float64(n))
	}
	return st, nil
}

// catalogItems reads the full collection and rejects a catalog that would
// break item identity (duplicate or empty URLs, unknown categories).
func catalogItems(st *store.Store) ([]catalog.Item, error) {
	items, err := st.Items()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if err := catalog.Validate(items); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return items, nil
}

// openEvents starts the JSONL event logger with a ring buffer attached. The
// returned func closes the logger and then the file.
func openEvents(cfg *config.Config) (*otel.Logger, *otel.RingBuffer, func(), error) {
	f, err := os.OpenFile(cfg.EventLogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open event log: %w", err)
	}
	events := otel.NewLogger(f)
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	return events, ring, func() {
		events.Close()
		f.Close()
	}, nil
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
