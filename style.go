// Package vlist renders effectively unbounded lists inside a fixed terminal
// viewport. Only the visible rows are bound to item containers; containers are
// recycled through an adaptive pool and per-row heights are cached so
// variable-height rows are measured once.
package vlist

// Attribute represents text styling attributes that can be combined.
type Attribute uint8

const (
	AttrNone Attribute = 0
	AttrBold Attribute = 1 << iota
	AttrDim
	AttrItalic
	AttrUnderline
	AttrInverse
)

// Has returns true if the attribute set contains the given attribute.
func (a Attribute) Has(attr Attribute) bool {
	return a&attr != 0
}

// ColorMode represents the color mode for a color value.
type ColorMode uint8

const (
	ColorDefault ColorMode = iota // Terminal default
	Color16                       // Basic 16 colors (0-15)
	Color256                      // 256 color palette (0-255)
)

// Color represents a terminal color.
type Color struct {
	Mode  ColorMode
	Index uint8
}

// BasicColor returns one of the 16 basic terminal colors.
func BasicColor(index uint8) Color {
	return Color{Mode: Color16, Index: index}
}

// PaletteColor returns one of the 256 palette colors.
func PaletteColor(index uint8) Color {
	return Color{Mode: Color256, Index: index}
}

var (
	Black       = BasicColor(0)
	Red         = BasicColor(1)
	Yellow      = BasicColor(3)
	Blue        = BasicColor(4)
	White       = BasicColor(7)
	BrightBlack = BasicColor(8)
	BrightRed   = BasicColor(9)
	BrightCyan  = BasicColor(14)
)

// Style combines foreground, background colors and attributes.
type Style struct {
	FG   Color
	BG   Color
	Attr Attribute
}

// DefaultStyle returns a style with default colors and no attributes.
func DefaultStyle() Style {
	return Style{}
}

// Foreground returns a new style with the given foreground color.
func (s Style) Foreground(c Color) Style {
	s.FG = c
	return s
}

// Background returns a new style with the given background color.
func (s Style) Background(c Color) Style {
	s.BG = c
	return s
}

// Bold returns a new style with bold enabled.
func (s Style) Bold() Style {
	s.Attr |= AttrBold
	return s
}

// Dim returns a new style with dim enabled.
func (s Style) Dim() Style {
	s.Attr |= AttrDim
	return s
}

// Cell represents a single character cell on the terminal.
// A zero Rune marks the trailing half of a double-width character.
type Cell struct {
	Rune  rune
	Style Style
}

// EmptyCell returns a cell with a space and default style.
func EmptyCell() Cell {
	return Cell{Rune: ' '}
}

// NewCell creates a cell with the given rune and style.
func NewCell(r rune, style Style) Cell {
	return Cell{Rune: r, Style: style}
}
