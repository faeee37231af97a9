package vlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  []string
	}{
		{"empty", "", 10, []string{""}},
		{"fits", "hello world", 20, []string{"hello world"}},
		{"wraps at spaces", "the quick brown fox", 10, []string{"the quick", "brown fox"}},
		{"keeps newlines", "a\n\nb", 10, []string{"a", "", "b"}},
		{"splits long words", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"long word after text", "hi abcdefgh", 4, []string{"hi", "abcd", "efgh"}},
		{"wide runes", "日本語テキスト", 6, []string{"日本語", "テキス", "ト"}},
		{"zero width clamps", "ab", 0, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WrapText(tt.in, tt.width))
		})
	}
}

func TestTextRenderer(t *testing.T) {
	t.Run("single line", func(t *testing.T) {
		r := &TextRenderer[int]{
			Format: func(i, v int) string { return "value\nhidden" },
			Style:  func(int, int) Style { return DefaultStyle().Bold() },
		}
		item, err := r.CreateItem(nil)
		require.NoError(t, err)
		item.SetConstraints(10, 1)

		require.NoError(t, r.UpdateItem(item, 0, 1))
		assert.Equal(t, []string{"value"}, item.Lines())
		assert.True(t, item.Style().Attr.Has(AttrBold))

		h, err := r.MeasureItem(0, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, h)
	})

	t.Run("wrapped", func(t *testing.T) {
		r := &TextRenderer[string]{
			Format: func(_ int, s string) string { return s },
			Wrap:   true,
		}
		h, err := r.MeasureItem(0, "one two three", 7)
		require.NoError(t, err)
		assert.Equal(t, 2, h)

		item, _ := r.CreateItem(nil)
		item.SetConstraints(7, 2)
		require.NoError(t, r.UpdateItem(item, 0, "one two three"))
		assert.Equal(t, []string{"one two", "three"}, item.Lines())

		buf := NewBuffer(7, 2)
		item.Render(buf, 0, 0)
		assert.Equal(t, "one two\nthree", buf.String())
	})

	t.Run("missing format", func(t *testing.T) {
		r := &TextRenderer[string]{}
		item, _ := r.CreateItem(nil)
		assert.True(t, IsKind(r.UpdateItem(item, 4, "x"), KindRenderer))

		_, err := r.MeasureItem(4, "x", 10)
		assert.True(t, IsKind(err, KindMeasurementFailed))
	})
}

func TestRowItemReset(t *testing.T) {
	item := NewRowItem(nil)
	item.SetLines("a", "b")
	item.SetStyle(DefaultStyle().Bold())

	item.Reset()
	assert.Empty(t, item.Lines())
	assert.Equal(t, "", item.Text())
	assert.Equal(t, DefaultStyle(), item.Style())
}
