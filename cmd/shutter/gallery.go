package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abelbrown/shutter/internal/catalog"
	"github.com/abelbrown/shutter/internal/download"
	"github.com/abelbrown/shutter/internal/gallery"
	"github.com/abelbrown/shutter/internal/logging"
	"github.com/abelbrown/shutter/internal/metrics"
	"github.com/abelbrown/shutter/internal/otel"
	"github.com/abelbrown/shutter/internal/ui"
)

func runGallery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if category != "" {
		cfg.Gallery.Category = category
	}
	initial, err := catalog.ParseCategory(cfg.Gallery.Category)
	if err != nil {
		return err
	}

	// The TUI owns stdout, so diagnostics go to a file.
	if err := logging.Init(cfg.LogDir(), cfg.Log.Level); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Close()

	events, ring, closeEvents, err := openEvents(cfg)
	if err != nil {
		return err
	}
	defer closeEvents()
	events.Info(otel.KindStartup, "main", "shutter starting")

	st, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	items, err := catalogItems(st)
	if err != nil {
		return err
	}
	logging.Info("starting gallery", "items", len(items), "category", initial, "session", events.SessionID())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logging.Error("metrics server stopped", "addr", cfg.Metrics.Addr, "err", err)
			}
		}()
	}

	app := ui.NewApp(ui.Config{
		Items:  items,
		Loader: gallery.NewSimulatedLoader(cfg.Gallery.Latency, cfg.Gallery.FaultRate, nil),
		Downloader: download.New(download.Options{
			Dir:       cfg.Download.Dir,
			Timeout:   cfg.Download.Timeout,
			RateLimit: cfg.Download.RateLimit,
			Burst:     cfg.Download.Burst,
			UserAgent: cfg.Download.UserAgent,
		}),
		Gallery: gallery.Config{
			InitialBatch: cfg.Gallery.InitialBatch,
			BatchSize:    cfg.Gallery.BatchSize,
			MaxRetries:   cfg.Gallery.MaxRetries,
		},
		RetryDelay: cfg.Gallery.RetryDelay,
		Trigger:    gallery.Trigger{Margin: cfg.Gallery.TriggerMargin},
		Category:   initial,
		Events:     events,
		Ring:       ring,
	})

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := program.Run()

	cancel()
	events.Info(otel.KindShutdown, "main", "shutter stopped")
	if runErr != nil {
		return fmt.Errorf("run gallery: %w", runErr)
	}
	return nil
}
