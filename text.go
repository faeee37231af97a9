package vlist

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// WrapText breaks s into lines no wider than width display columns. Explicit
// newlines are kept; words longer than width are split. An empty string
// yields one empty line.
func WrapText(s string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		lines = append(lines, wrapParagraph(para, width)...)
	}
	return lines
}

func wrapParagraph(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var cur strings.Builder
	curW := 0
	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		curW = 0
	}

	for _, w := range words {
		ww := runewidth.StringWidth(w)
		if curW > 0 && curW+1+ww > width {
			flush()
		}
		for ww > width {
			// hard-split an overlong word
			head := runewidth.Truncate(w, width, "")
			if head == "" {
				break
			}
			if curW > 0 {
				flush()
			}
			lines = append(lines, head)
			w = w[len(head):]
			ww = runewidth.StringWidth(w)
		}
		if ww == 0 {
			continue
		}
		if curW > 0 {
			cur.WriteByte(' ')
			curW++
		}
		cur.WriteString(w)
		curW += ww
	}
	if curW > 0 || len(lines) == 0 {
		flush()
	}
	return lines
}

// TextRenderer is a stock ItemRenderer that shows each item as text in a
// *RowItem. With Wrap set it also implements ItemMeasurer, so it can drive a
// DynamicSize list.
type TextRenderer[T any] struct {
	Format func(index int, data T) string
	Style  func(index int, data T) Style
	Wrap   bool

	width int
}

// CreateItem implements ItemRenderer.
func (r *TextRenderer[T]) CreateItem(parent Component) (*RowItem, error) {
	return NewRowItem(parent), nil
}

// UpdateItem implements ItemRenderer.
func (r *TextRenderer[T]) UpdateItem(item *RowItem, index int, data T) error {
	if r.Format == nil {
		return RendererError(index, "update_item", "no format func")
	}
	text := r.Format(index, data)
	if r.Wrap {
		w, _ := item.Size()
		if w < 1 {
			w = r.width
		}
		item.SetLines(WrapText(text, w)...)
	} else {
		item.SetLines(strings.SplitN(text, "\n", 2)[0])
	}
	if r.Style != nil {
		item.SetStyle(r.Style(index, data))
	}
	return nil
}

// MeasureItem implements ItemMeasurer.
func (r *TextRenderer[T]) MeasureItem(index int, data T, width int) (int, error) {
	if r.Format == nil {
		return 0, MeasurementFailed(index, "no format func")
	}
	r.width = width
	if !r.Wrap {
		return 1, nil
	}
	return len(WrapText(r.Format(index, data), width)), nil
}
