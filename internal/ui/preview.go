package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/shutter/internal/catalog"
)

const (
	rotateStep  = 90
	filterStep  = 10
	filterMin   = 0
	filterMax   = 200
	filterReset = 100
)

// Transform is the view adjustment applied to a previewed image.
// Contrast and Brightness are percentages; 100 leaves the image unchanged.
type Transform struct {
	Rotate     int
	FlipX      bool
	FlipY      bool
	Contrast   int
	Brightness int
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{Contrast: filterReset, Brightness: filterReset}
}

// Rotated turns the image a quarter clockwise.
func (t Transform) Rotated() Transform {
	t.Rotate = (t.Rotate + rotateStep) % 360
	return t
}

// FlippedX mirrors the image horizontally.
func (t Transform) FlippedX() Transform {
	t.FlipX = !t.FlipX
	return t
}

// FlippedY mirrors the image vertically.
func (t Transform) FlippedY() Transform {
	t.FlipY = !t.FlipY
	return t
}

// WithContrast shifts contrast by delta percent, clamped to [0, 200].
func (t Transform) WithContrast(delta int) Transform {
	t.Contrast = clamp(t.Contrast+delta, filterMin, filterMax)
	return t
}

// WithBrightness shifts brightness by delta percent, clamped to [0, 200].
func (t Transform) WithBrightness(delta int) Transform {
	t.Brightness = clamp(t.Brightness+delta, filterMin, filterMax)
	return t
}

// CSS renders the transform as CSS transform and filter values.
func (t Transform) CSS() (transform, filter string) {
	sx, sy := 1, 1
	if t.FlipX {
		sx = -1
	}
	if t.FlipY {
		sy = -1
	}
	transform = fmt.Sprintf("rotate(%ddeg) scaleX(%d) scaleY(%d)", t.Rotate, sx, sy)
	filter = fmt.Sprintf("contrast(%d%%) brightness(%d%%)", t.Contrast, t.Brightness)
	return transform, filter
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// renderPreview draws the modal for item centered in a width x height area.
func renderPreview(item catalog.Item, t Transform, keys keyMap, h help.Model, width, height int) string {
	transform, filter := t.CSS()

	flips := []string{}
	if t.FlipX {
		flips = append(flips, "x")
	}
	if t.FlipY {
		flips = append(flips, "y")
	}
	flip := "none"
	if len(flips) > 0 {
		flip = strings.Join(flips, "+")
	}

	lines := []string{
		PreviewTitle.Render(item.Title),
		MetaItem.Render(item.URL),
		"",
		PreviewLabel.Render("category") + item.Category.Label(),
		PreviewLabel.Render("rotate") + fmt.Sprintf("%d°", t.Rotate),
		PreviewLabel.Render("flip") + flip,
		PreviewLabel.Render("contrast") + fmt.Sprintf("%d%%", t.Contrast),
		PreviewLabel.Render("brightness") + fmt.Sprintf("%d%%", t.Brightness),
		"",
		MetaItem.Render("transform: " + transform),
		MetaItem.Render("filter:    " + filter),
		"",
		h.ShortHelpView(keys.previewHelp()),
	}

	panelWidth := 72
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	box := PreviewPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
