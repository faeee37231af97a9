package vlist

// RowItem is a text container for one list row. It renders its lines top to
// bottom, clipped to its size.
type RowItem struct {
	Base
	lines []string
}

// NewRowItem creates an empty row attached to parent.
func NewRowItem(parent Component) *RowItem {
	r := &RowItem{}
	r.parent = parent
	return r
}

// SetLines replaces the row content.
func (r *RowItem) SetLines(lines ...string) {
	r.lines = append(r.lines[:0], lines...)
}

// Lines returns the row content.
func (r *RowItem) Lines() []string {
	return r.lines
}

// Text returns the first line, or "" for an empty row.
func (r *RowItem) Text() string {
	if len(r.lines) == 0 {
		return ""
	}
	return r.lines[0]
}

// Reset clears the content for reuse. The parent is kept.
func (r *RowItem) Reset() {
	r.lines = r.lines[:0]
	r.style = DefaultStyle()
}

// Render implements Component.
func (r *RowItem) Render(buf *Buffer, x, y int) {
	if r.hidden || r.width == 0 {
		return
	}
	for i, line := range r.lines {
		if i >= r.height {
			break
		}
		buf.WriteStringClipped(x, y+i, line, r.style, r.width)
	}
}
