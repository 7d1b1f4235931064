// Package metrics exposes gallery loader counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BatchesTotal counts resolved batch loads by category and outcome.
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shutter_batches_total",
			Help: "Resolved gallery batch loads",
		},
		[]string{"category", "outcome"},
	)

	// ItemsLoaded counts items appended to displayed lists.
	ItemsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shutter_items_loaded_total",
			Help: "Items appended to the displayed list",
		},
		[]string{"category"},
	)

	// RetriesTotal counts automatic and manual retries.
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shutter_retries_total",
			Help: "Batch retries",
		},
		[]string{"kind"}, // "auto", "manual"
	)

	// StaleTotal counts completions dropped because the working set changed
	// while they were in flight.
	StaleTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shutter_stale_completions_total",
			Help: "Batch completions dropped by the epoch guard",
		},
		[]string{"category"},
	)

	// BatchLatency tracks loader call duration.
	BatchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shutter_batch_latency_seconds",
			Help:    "Batch loader latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"category"},
	)

	// DownloadsTotal counts downloads by result ("ok", "error").
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shutter_downloads_total",
			Help: "Image downloads",
		},
		[]string{"result"},
	)

	// CatalogItems is the size of the loaded catalog.
	CatalogItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shutter_catalog_items",
			Help: "Items in the image catalog",
		},
	)
)

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
