// Package download saves gallery images to local files.
package download

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/shutter/internal/catalog"
)

// fallbackExt is used when neither the URL nor the response names a type.
const fallbackExt = "jpg"

// DownloadError wraps any failure to fetch or save an image.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Options configures a Downloader.
type Options struct {
	Dir       string
	Timeout   time.Duration
	RateLimit float64 // requests per second
	Burst     int
	UserAgent string
}

// Downloader fetches item resources over HTTP, paced by a rate limiter.
// Safe for concurrent use.
type Downloader struct {
	client    *http.Client
	limiter   *rate.Limiter
	dir       string
	userAgent string
	now       func() time.Time
}

// New creates a Downloader writing into opts.Dir.
func New(opts Options) *Downloader {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Downloader{
		client:    &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst),
		dir:       opts.Dir,
		userAgent: opts.UserAgent,
		now:       time.Now,
	}
}

// Dir returns the target directory.
func (d *Downloader) Dir() string { return d.dir }

// Download fetches item.URL and writes it as <title>-<unix millis>.<ext>.
// It returns the written path; every failure is a *DownloadError.
func (d *Downloader) Download(ctx context.Context, item catalog.Item) (string, error) {
	p, err := d.download(ctx, item)
	if err != nil {
		return "", &DownloadError{URL: item.URL, Err: err}
	}
	return p, nil
}

func (d *Downloader) download(ctx context.Context, item catalog.Item) (string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	name := FileName(item.Title, d.now(), Extension(item.URL, resp.Header.Get("Content-Type")))
	target := filepath.Join(d.dir, name)

	// Write to a temp file first so a failed copy never leaves a partial image.
	tmp, err := os.CreateTemp(d.dir, ".shutter-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename: %w", err)
	}
	return target, nil
}

// FileName builds "<title>-<unix millis>.<ext>" with the title made safe for
// file systems.
func FileName(title string, at time.Time, ext string) string {
	return fmt.Sprintf("%s-%d.%s", sanitize(title), at.UnixMilli(), ext)
}

// Extension picks the file extension from the URL path, then the content
// type, then falls back to jpg.
func Extension(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := strings.TrimPrefix(path.Ext(u.Path), "."); ext != "" {
			return strings.ToLower(ext)
		}
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "image/jpeg":
			return "jpg"
		case "image/png":
			return "png"
		case "image/gif":
			return "gif"
		case "image/webp":
			return "webp"
		}
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			return strings.TrimPrefix(exts[0], ".")
		}
	}
	return fallbackExt
}

func sanitize(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "image"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, title)
}
