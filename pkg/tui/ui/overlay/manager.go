package overlay

import (
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// Placement controls overlay alignment and sizing.
type Placement struct {
	Horizontal lipgloss.Position
	Vertical   lipgloss.Position
	MarginX    int
	MarginY    int
	Width      int
	Height     int
}

// Compose draws foreground atop background, keeping the background cells
// (and their styling) to the left and right of the overlay on every line it
// covers.
func Compose(background string, width, height int, foreground string, placement Placement) string {
	bgLines := normalizeBackground(background, width, height)
	if foreground == "" || width <= 0 || height <= 0 {
		return strings.Join(bgLines, "\n")
	}

	fgLines := strings.Split(foreground, "\n")
	offsetX, offsetY, overlayWidth, overlayHeight := Bounds(foreground, width, height, placement)
	if overlayWidth <= 0 || overlayHeight <= 0 {
		return strings.Join(bgLines, "\n")
	}

	for row := 0; row < overlayHeight; row++ {
		destY := offsetY + row
		if destY < 0 || destY >= len(bgLines) {
			continue
		}
		fgLine := ""
		if row < len(fgLines) {
			fgLine = fgLines[row]
		}
		base := bgLines[destY]
		prefix := ansi.Truncate(base, offsetX, "")
		suffix := ansi.TruncateLeft(base, offsetX+overlayWidth, "")
		bgLines[destY] = prefix + ansi.ResetStyle + padToWidth(fgLine, overlayWidth) + ansi.ResetStyle + suffix
	}

	return strings.Join(bgLines, "\n")
}

// Bounds returns where foreground lands inside a width x height surface:
// its top-left corner and its size. The size is the foreground's own extent,
// capped by the placement's Width and Height when those are set.
func Bounds(foreground string, width, height int, placement Placement) (x, y, w, h int) {
	lines := strings.Split(foreground, "\n")
	for _, line := range lines {
		w = max(w, ansi.StringWidth(line))
	}
	h = len(lines)
	if placement.Width > 0 {
		w = min(w, placement.Width)
	}
	if placement.Height > 0 {
		h = min(h, placement.Height)
	}
	w = min(w, width)
	h = min(h, height)
	x, y = Offsets(width, height, w, h, placement)
	return x, y, w, h
}

// Offsets returns the top-left corner of an overlay of the given size. The
// zero Placement anchors the overlay to the top-left corner.
func Offsets(width, height, overlayWidth, overlayHeight int, placement Placement) (int, int) {
	offsetX := placement.MarginX
	switch placement.Horizontal {
	case lipgloss.Right:
		offsetX = width - overlayWidth - placement.MarginX
	case lipgloss.Center:
		offsetX = (width - overlayWidth) / 2
	}
	offsetX = clamp(offsetX, 0, width-overlayWidth)

	offsetY := placement.MarginY
	switch placement.Vertical {
	case lipgloss.Bottom:
		offsetY = height - overlayHeight - placement.MarginY
	case lipgloss.Center:
		offsetY = (height - overlayHeight) / 2
	}
	offsetY = clamp(offsetY, 0, height-overlayHeight)

	return offsetX, offsetY
}

func normalizeBackground(view string, width, height int) []string {
	lines := strings.Split(view, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i := range lines {
		lines[i] = padToWidth(lines[i], width)
	}
	return lines
}

func padToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := ansi.StringWidth(s)
	if w > width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-w)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(v, hi))
}
