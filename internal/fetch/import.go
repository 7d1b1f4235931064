package fetch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/shutter/internal/catalog"
)

// maxConcurrentFetches limits parallel feed requests during an import.
const maxConcurrentFetches = 4

// fetcher is the Fetch method, split out for tests.
type fetcher interface {
	Fetch(ctx context.Context, src Source) ([]catalog.Item, error)
}

// saver is the catalog write used by ImportAll.
type saver interface {
	SaveItems(items []catalog.Item) (int, error)
}

// Result reports one feed of an import.
type Result struct {
	Source Source
	Found  int
	Added  int
	Err    error
}

// ImportAll fetches every source concurrently and saves the items in source
// order, so the catalog order does not depend on which feed answered first.
// A failing feed is reported in its Result and does not stop the others.
func ImportAll(ctx context.Context, f fetcher, st saver, sources []Source) ([]Result, error) {
	results := make([]Result, len(sources))
	batches := make([][]catalog.Item, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, src := range sources {
		results[i].Source = src
		g.Go(func() error {
			items, err := f.Fetch(gctx, src)
			if err != nil {
				results[i].Err = err
				return nil
			}
			batches[i] = items
			results[i].Found = len(items)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	for i := range sources {
		if results[i].Err != nil || len(batches[i]) == 0 {
			continue
		}
		added, err := st.SaveItems(batches[i])
		if err != nil {
			return results, fmt.Errorf("save %s: %w", sources[i].URL, err)
		}
		results[i].Added = added
	}
	return results, nil
}
