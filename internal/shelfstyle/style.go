// Package shelfstyle derives the visual styling of shelves and books:
// deterministic tag colors and page-count-based spine thickness.
// Clients on any platform must render identical colors for identical tags,
// so the hash here is fixed and must not change.
package shelfstyle

import "unicode/utf16"

// BookPalette holds the selectable cover/spine colors offered at book creation.
var BookPalette = []string{
	"#6D4C41", "#78909C", "#4A148C", "#3E2723", "#BF360C",
	"#0D47A1", "#004D40", "#33691E", "#F57F17", "#C2185B",
}

// TagPalette holds the colors tag labels are mapped onto.
var TagPalette = []string{
	"#3E2723", "#BF360C", "#0D47A1", "#004D40", "#33691E",
	"#F57F17", "#C2185B", "#4A148C", "#880E4F", "#B71C1C",
}

// Spine thickness bounds in pixels.
const (
	SpineMinThickness = 24.0
	SpineMaxThickness = 55.0
)

// DefaultSpineColor is used when a book has neither a spine nor a cover color.
const DefaultSpineColor = "#A1887F"

// TagColor maps a tag string to a palette color via an order-dependent
// character-code hash: hash = code + ((hash << 5) - hash) per UTF-16 code
// unit, with the shift wrapping at 32 bits, then abs(hash) mod palette size.
// Pure function: the same tag always yields the same color, across processes.
func TagColor(tag string) string {
	var h int64
	for _, code := range utf16.Encode([]rune(tag)) {
		shifted := int64(int32(h) << 5) // 32-bit wrap on the shift only
		h = int64(code) + (shifted - h)
	}
	if h < 0 {
		h = -h
	}
	return TagPalette[h%int64(len(TagPalette))]
}

// SpineThickness returns the rendered spine width for a page count:
// pages/8, clamped to [SpineMinThickness, SpineMaxThickness].
func SpineThickness(pages int) float64 {
	t := float64(pages) / 8
	if t < SpineMinThickness {
		return SpineMinThickness
	}
	if t > SpineMaxThickness {
		return SpineMaxThickness
	}
	return t
}

// SpineColor resolves the color a book's spine renders with,
// falling back from spine color to cover color to the default.
func SpineColor(spineColor, coverColor string) string {
	if spineColor != "" {
		return spineColor
	}
	if coverColor != "" {
		return coverColor
	}
	return DefaultSpineColor
}
