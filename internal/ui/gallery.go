package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/shutter/internal/catalog"
)

// RenderGallery renders the displayed images, scrolled so that cursor stays
// visible. height is the number of rows available for images.
func RenderGallery(items []catalog.Item, cursor int, width, height int) string {
	if height < 1 {
		height = 1
	}

	var b strings.Builder
	offset := calcScrollOffset(cursor, len(items), height)
	rendered := 0
	for i := offset; i < len(items) && rendered < height; i++ {
		b.WriteString(renderItemLine(i, items[i], i == cursor, width))
		b.WriteString("\n")
		rendered++
	}
	// Pad so the footer stays pinned to the same row.
	for ; rendered < height; rendered++ {
		b.WriteString("\n")
	}
	return b.String()
}

// calcScrollOffset returns the first displayed row index such that cursor is
// within the viewport of the given height.
func calcScrollOffset(cursor, total, height int) int {
	if total == 0 || cursor < 0 || height < 1 {
		return 0
	}
	if cursor >= total {
		cursor = total - 1
	}
	if cursor >= height {
		return cursor - height + 1
	}
	return 0
}

// lastVisibleRow is the index of the bottom viewport row. Rows past the
// displayed list are empty, so it may exceed total-1.
func lastVisibleRow(cursor, total, height int) int {
	return calcScrollOffset(cursor, total, height) + height - 1
}

// renderItemLine renders one image row: index, category badge, title, URL.
func renderItemLine(index int, item catalog.Item, selected bool, width int) string {
	num := MetaItem.Render(fmt.Sprintf("%3d", index+1))
	badge := CategoryBadge.Render(fmt.Sprintf("%-12s", item.Category.Label()))

	used := lipgloss.Width(num) + lipgloss.Width(badge) + 3
	titleWidth := width - used
	if titleWidth < 20 {
		titleWidth = 20
	}

	title := truncateRunes(item.Title, titleWidth)
	rest := titleWidth - utf8.RuneCountInString(title) - 3
	url := ""
	if rest > 10 {
		url = truncateRunes(item.URL, rest)
	}

	if selected {
		line := title
		if url != "" {
			line += "  " + url
		}
		return num + " " + badge + SelectedItem.Render(line)
	}
	line := NormalItem.Render(title)
	if url != "" {
		line += " " + MetaItem.Render(url)
	}
	return num + " " + badge + line
}

// truncateRunes shortens s to at most n runes, marking the cut with "...".
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// RenderTabs renders the category filter row with current highlighted.
func RenderTabs(current catalog.Category, width int) string {
	tabs := make([]string, 0, len(catalog.Categories()))
	for i, c := range catalog.Categories() {
		label := fmt.Sprintf("%d %s", i+1, c.Label())
		if c == current {
			tabs = append(tabs, ActiveTab.Render(label))
		} else {
			tabs = append(tabs, InactiveTab.Render(label))
		}
	}
	return TabBar.Width(width).Render(strings.Join(tabs, " "))
}

// footerState is what the footer row needs to know about the loader.
type footerState struct {
	loading    bool
	pending    bool
	terminal   bool
	exhausted  bool
	retries    int
	maxRetries int
	displayed  int
	spinner    string
}

// renderFooter renders the row below the images. Each loader condition has
// its own line; an idle loader leaves the row blank.
func renderFooter(f footerState, width int) string {
	var line string
	switch {
	case f.loading:
		line = FooterText.Render(f.spinner + " Loading images...")
	case f.pending:
		line = FooterText.Render(fmt.Sprintf("Load failed, retrying (%d/%d)...", f.retries, f.maxRetries))
	case f.terminal:
		line = ErrorStyle.Render("Failed to load images.") +
			StatusBarText.Render(" Press ") + StatusBarKey.Render("R") + StatusBarText.Render(" to retry")
	case f.exhausted && f.displayed == 0:
		line = FooterText.Render("No images in this category")
	case f.exhausted:
		line = FooterText.Render("No more images to load")
	}
	return lipgloss.NewStyle().Width(width).Render(line)
}

// RenderStatusBar renders the bottom bar: position on the left, key hints
// (or a flashed message) on the right.
func RenderStatusBar(cursor, displayed, working int, width int, hints, flash string) string {
	var position string
	if displayed == 0 {
		position = fmt.Sprintf(" 0/%d ", working)
	} else {
		position = fmt.Sprintf(" %d/%d of %d ", cursor+1, displayed, working)
	}

	right := hints
	if flash != "" {
		right = flash
	}

	leftWidth := lipgloss.Width(position)
	rightWidth := lipgloss.Width(right)
	padding := width - leftWidth - rightWidth - 2
	if padding < 0 {
		padding = 0
	}

	bar := position + strings.Repeat(" ", padding) + right
	return StatusBar.Width(width).Render(bar)
}
