// Package fetch imports gallery images from RSS, Atom and Media RSS feeds.
//
// Feeds only seed the catalog; the gallery itself never fetches over the
// network while browsing.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/abelbrown/shutter/internal/catalog"
)

// Source is one feed and the category its images are filed under.
type Source struct {
	URL      string
	Category catalog.Category
}

// Fetcher retrieves image items from feed sources.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a Fetcher with the given HTTP client timeout.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch retrieves a feed and returns one catalog item per entry that carries
// an image. Entries without an image are skipped. Items are not stored.
func (f *Fetcher) Fetch(ctx context.Context, src Source) ([]catalog.Item, error) {
	if !src.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", catalog.ErrUnknownCategory, src.Category)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]catalog.Item, 0, len(feed.Items))
	seen := make(map[string]struct{}, len(feed.Items))
	for _, fi := range feed.Items {
		url := imageURL(fi)
		if url == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		items = append(items, catalog.Item{
			URL:      url,
			Category: src.Category,
			Title:    title(fi),
		})
	}
	return items, nil
}

// imageURL prefers the item image, then an image enclosure, then media:content.
func imageURL(fi *gofeed.Item) string {
	if fi.Image != nil && fi.Image.URL != "" {
		return fi.Image.URL
	}
	for _, enc := range fi.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	media := fi.Extensions["media"]
	if media == nil {
		return ""
	}
	if u := mediaContentURL(media["content"]); u != "" {
		return u
	}
	for _, group := range media["group"] {
		if u := mediaContentURL(group.Children["content"]); u != "" {
			return u
		}
	}
	return ""
}

func mediaContentURL(contents []ext.Extension) string {
	for _, c := range contents {
		u := c.Attrs["url"]
		if u == "" {
			continue
		}
		medium := c.Attrs["medium"]
		typ := c.Attrs["type"]
		if medium == "image" || strings.HasPrefix(typ, "image/") || (medium == "" && typ == "") {
			return u
		}
	}
	return ""
}

func title(fi *gofeed.Item) string {
	if t := strings.TrimSpace(fi.Title); t != "" {
		return t
	}
	if fi.Image != nil && fi.Image.Title != "" {
		return fi.Image.Title
	}
	return "Untitled"
}
