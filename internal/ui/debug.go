package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/shutter/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing loader stats and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Loader Stats"))
	lines = append(lines, fmt.Sprintf("  Batches:    %d started, %d complete, %d errors",
		stats[otel.KindBatchStart], stats[otel.KindBatchComplete], stats[otel.KindBatchError]))
	lines = append(lines, fmt.Sprintf("  Retries:    %d auto, %d manual, %d stale",
		stats[otel.KindBatchRetry], stats[otel.KindManualRetry], stats[otel.KindBatchStale]))
	lines = append(lines, fmt.Sprintf("  Gallery:    %d exhausted, %d failed, %d filter changes",
		stats[otel.KindExhausted], stats[otel.KindFailed], stats[otel.KindFilterChange]))
	lines = append(lines, fmt.Sprintf("  Downloads:  %d complete, %d errors",
		stats[otel.KindDownloadComplete], stats[otel.KindDownloadError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		age := time.Since(e.Time)
		ageStr := formatAge(age)

		line := fmt.Sprintf("  %6s  %-20s", ageStr, string(e.Kind))
		if e.Count > 0 {
			line += fmt.Sprintf("  [%d+%d]", e.Start, e.Count)
		}
		if e.Epoch > 0 {
			line += fmt.Sprintf("  ep:%d", e.Epoch)
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	content := strings.Join(lines, "\n")
	return DebugPanel.Width(panelWidth).Render(content)
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
