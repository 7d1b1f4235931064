// Package ui provides the Bubble Tea gallery view for shutter.
package ui

import (
	"time"

	"github.com/abelbrown/shutter/internal/catalog"
	"github.com/abelbrown/shutter/internal/gallery"
)

// BatchLoaded is sent when a loader call returns, successful or not.
type BatchLoaded struct {
	Req   gallery.Request
	Items []catalog.Item
	Dur   time.Duration
	Err   error
}

// RetryDue is sent when the backoff for an automatic retry has elapsed.
// Epoch is the working-set generation the retry was scheduled for.
type RetryDue struct {
	Epoch uint64
}

// DownloadDone is sent when a download finishes.
type DownloadDone struct {
	Item catalog.Item
	Path string
	Err  error
}

// clearStatus expires a flashed status message. Seq guards against clearing a
// newer message.
type clearStatus struct {
	Seq int
}
