package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/shutter/internal/catalog"
	"github.com/abelbrown/shutter/internal/fetch"
	"github.com/abelbrown/shutter/internal/logging"
	"github.com/abelbrown/shutter/internal/otel"
)

var (
	importFeed     string
	importCategory string
)

// importCmd adds feed images to the catalog.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import images from RSS, Atom or Media RSS feeds",
	Long: `Fetch the feeds listed under catalog.feeds in the config file (or a
single --feed) and add their images to the catalog. Images already in the
catalog are skipped.

The default catalog lives in memory; set catalog.db_path (or
SHUTTER_CATALOG_DB) to a file to keep imported images.`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importFeed, "feed", "", "Feed URL to import instead of the configured feeds")
	importCmd.Flags().StringVar(&importCategory, "category", "landscape", "Category for --feed images")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.LogDir(), cfg.Log.Level); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Close()

	var sources []fetch.Source
	if importFeed != "" {
		c, err := catalog.ParseCategory(importCategory)
		if err != nil {
			return err
		}
		sources = append(sources, fetch.Source{URL: importFeed, Category: c})
	} else {
		for _, f := range cfg.Catalog.Feeds {
			c, err := catalog.ParseCategory(f.Category)
			if err != nil {
				return fmt.Errorf("feed %s: %w", f.URL, err)
			}
			sources = append(sources, fetch.Source{URL: f.URL, Category: c})
		}
	}
	if len(sources) == 0 {
		return fmt.Errorf("no feeds: pass --feed or list catalog.feeds in %s", configPath)
	}

	out := cmd.OutOrStdout()
	if cfg.Catalog.DBPath == ":memory:" {
		fmt.Fprintln(out, "note: catalog is in memory, imported images will not persist")
	}

	events, _, closeEvents, err := openEvents(cfg)
	if err != nil {
		return err
	}
	defer closeEvents()

	st, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	start := time.Now()
	fetcher := fetch.NewFetcher(cfg.Download.Timeout, cfg.Download.UserAgent)
	results, err := fetch.ImportAll(cmd.Context(), fetcher, st, sources)
	if err != nil {
		events.Error(otel.KindImportError, "import", err)
		return fmt.Errorf("import: %w", err)
	}

	total := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "  FAIL  %-50s  %v\n", truncate(r.Source.URL, 50), r.Err)
			logging.Warn("feed import failed", "url", r.Source.URL, "err", r.Err)
			events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindImportError, Comp: "import", URL: r.Source.URL, Err: r.Err.Error()})
			continue
		}
		total += r.Added
		fmt.Fprintf(out, "  ok    %-50s  %d found, %d new (%s)\n", truncate(r.Source.URL, 50), r.Found, r.Added, r.Source.Category)
		events.Emit(otel.Event{Kind: otel.KindImportComplete, Comp: "import", URL: r.Source.URL, Category: string(r.Source.Category), Count: r.Added})
	}

	n, _ := st.Count()
	fmt.Fprintf(out, "%d new images, catalog now has %d (%.1fs)\n", total, n, time.Since(start).Seconds())
	return nil
}
