// Package otel records structured gallery events.
//
// Events are written as JSONL by a Logger that drains a buffered channel on a
// background goroutine, so emitting from the UI loop never blocks. A RingBuffer
// keeps the most recent events in memory for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level is the event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Rank orders levels for filtering; unknown levels rank as debug.
func (l Level) Rank() int {
	switch l {
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 0
	}
}

// EventKind is "<subsystem>.<action>".
type EventKind string

const (
	KindBatchStart    EventKind = "batch.start"
	KindBatchComplete EventKind = "batch.complete"
	KindBatchError    EventKind = "batch.error"
	KindBatchRetry    EventKind = "batch.retry"
	KindBatchStale    EventKind = "batch.stale"

	KindExhausted    EventKind = "gallery.exhausted"
	KindFailed       EventKind = "gallery.failed"
	KindManualRetry  EventKind = "gallery.manual_retry"
	KindFilterChange EventKind = "filter.change"

	KindDownloadComplete EventKind = "download.complete"
	KindDownloadError    EventKind = "download.error"

	KindImportComplete EventKind = "import.complete"
	KindImportError    EventKind = "import.error"

	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
)

// Event is one JSONL record. Only Kind is required; Time and SessionID are
// filled in by the Logger.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "ui", "loader", "download", "import", "main"
	SessionID string         `json:"session_id,omitempty"`
	Epoch     uint64         `json:"epoch,omitempty"`
	Category  string         `json:"category,omitempty"`
	Start     int            `json:"start,omitempty"`
	Count     int            `json:"count,omitempty"`
	Attempt   int            `json:"attempt,omitempty"`
	URL       string         `json:"url,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON writes Dur as dur_ms.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	a := alias(e)
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
