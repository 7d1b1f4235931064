package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/shutter/internal/otel"
)

// eventRecord mirrors otel.Event for JSON decoding.
// We decode from JSONL rather than into otel.Event to keep this
// subcommand usable even if the event schema evolves.
type eventRecord struct {
	Time      time.Time      `json:"t"`
	Level     string         `json:"level"`
	Kind      string         `json:"kind"`
	Comp      string         `json:"comp"`
	SessionID string         `json:"session_id"`
	Epoch     uint64         `json:"epoch"`
	Category  string         `json:"category"`
	Start     int            `json:"start"`
	Count     int            `json:"count"`
	Attempt   int            `json:"attempt"`
	URL       string         `json:"url"`
	DurMs     float64        `json:"dur_ms"`
	Err       string         `json:"err"`
	Msg       string         `json:"msg"`
	Extra     map[string]any `json:"extra"`
}

type eventsOptions struct {
	tail    int
	follow  bool
	kind    string
	level   string
	comp    string
	session string
	rawJSON bool
}

var eventsOpts eventsOptions

// eventsCmd is the JSONL event log viewer.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the JSONL event log",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

func init() {
	f := eventsCmd.Flags()
	f.IntVar(&eventsOpts.tail, "tail", 50, "Number of recent lines to show")
	f.BoolVarP(&eventsOpts.follow, "follow", "f", false, "Follow mode (like tail -f)")
	f.StringVar(&eventsOpts.kind, "kind", "", "Filter by event kind prefix (e.g. 'batch')")
	f.StringVar(&eventsOpts.level, "level", "", "Minimum level: debug, info, warn, error")
	f.StringVar(&eventsOpts.comp, "comp", "", "Filter by component name")
	f.StringVar(&eventsOpts.session, "session", "", "Filter by session ID prefix")
	f.BoolVar(&eventsOpts.rawJSON, "json", false, "Output raw JSON lines")
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logPath := cfg.EventLogPath()

	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("event log not found at %s (run the gallery first): %w", logPath, err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	opts := eventsOpts
	match := opts.match

	lines := readTailLines(f, opts.tail, match)
	for _, l := range lines {
		fmt.Fprintln(out, opts.format(l.ev, l.raw))
	}
	if !opts.follow {
		return nil
	}

	// Poll for lines appended after the tail.
	ctx := cmd.Context()
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if match(ev) {
			fmt.Fprintln(out, opts.format(ev, line))
		}
	}
}

func (o eventsOptions) match(ev eventRecord) bool {
	if o.kind != "" && !strings.HasPrefix(ev.Kind, o.kind) {
		return false
	}
	if o.level != "" && otel.Level(ev.Level).Rank() < otel.Level(o.level).Rank() {
		return false
	}
	if o.comp != "" && ev.Comp != o.comp {
		return false
	}
	if o.session != "" && !strings.HasPrefix(ev.SessionID, o.session) {
		return false
	}
	return true
}

func (o eventsOptions) format(ev eventRecord, raw []byte) string {
	if o.rawJSON {
		return string(raw)
	}
	ts := ev.Time.Format("15:04:05.000")
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-8s] %-20s", ts, lvl, ev.Comp, ev.Kind)}

	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.Category != "" {
		parts = append(parts, "cat="+ev.Category)
	}
	if ev.Epoch > 0 {
		parts = append(parts, fmt.Sprintf("ep=%d", ev.Epoch))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("[%d+%d]", ev.Start, ev.Count))
	}
	if ev.Attempt > 0 {
		parts = append(parts, fmt.Sprintf("try=%d", ev.Attempt+1))
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.URL != "" {
		parts = append(parts, "url="+ev.URL)
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}

	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads the file and returns the last n lines matching the filter.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	scanner := bufio.NewScanner(r)
	// Allow large lines (some events may have big Extra maps)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	var ring []parsedLine
	if n > 0 {
		ring = make([]parsedLine, 0, n)
	}

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if n <= 0 || !match(ev) {
			continue
		}
		// Make a copy of raw since scanner reuses the buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			// Shift left
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}

	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
