package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abelbrown/shutter/internal/catalog"
	"github.com/abelbrown/shutter/internal/gallery"
)

var listLimit int

// listCmd prints a working set in the batches the gallery would load.
var listCmd = &cobra.Command{
	Use:   "list [category]",
	Short: "Print a category's images in load order",
	Long: `Print the working set for a category (default: all) grouped into the
batches the gallery requests: the initial batch first, then fixed-size
batches until the set is exhausted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Stop after this many images (0 = all)")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tag := catalog.CategoryAll
	if len(args) == 1 {
		tag, err = catalog.ParseCategory(args[0])
		if err != nil {
			return err
		}
	}

	st, err := openCatalog(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	items, err := catalogItems(st)
	if err != nil {
		return err
	}

	ctl := gallery.NewController(gallery.Config{
		InitialBatch: cfg.Gallery.InitialBatch,
		BatchSize:    cfg.Gallery.BatchSize,
		MaxRetries:   cfg.Gallery.MaxRetries,
	})
	working := gallery.WorkingSet(items, tag)
	ctl.Reset(working)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d of %d images\n", tag.Label(), len(working), len(items))
	fmt.Fprintln(out, strings.Repeat("─", 60))

	batch := 0
	for {
		req, ok := ctl.Next()
		if !ok {
			break
		}
		got, err := gallery.Slice(working, req.Start, req.Count)
		if ctl.Resolve(req, got, err) != gallery.OutcomeAppended {
			break
		}
		batch++
		fmt.Fprintf(out, "batch %d  [%d:%d]\n", batch, req.Start, req.Start+len(got))
		for i, it := range got {
			fmt.Fprintf(out, "  %3d  %-12s  %-24s  %s\n", req.Start+i+1, it.Category.Label(), truncate(it.Title, 24), it.URL)
		}
		if listLimit > 0 && ctl.Cursor() >= listLimit {
			break
		}
		if cmd.Context().Err() != nil {
			return context.Cause(cmd.Context())
		}
	}
	return nil
}
