package vlist

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, n int) *Model[string, *RowItem] {
	t.Helper()
	list, _ := newTestList(t, n, DefaultConfig(), &testRenderer{})
	m := NewModel(list)
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	require.NoError(t, m.Err())
	return m
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModelResize(t *testing.T) {
	m := newTestModel(t, 100)

	// border takes 2 rows, status 1
	assert.Equal(t, Range{0, 8}, m.List.VisibleRange())
	w, h := m.List.Size()
	assert.Equal(t, 38, w)
	assert.Equal(t, 9, h)

	view := m.View()
	assert.Contains(t, view, "item 0")
	assert.Contains(t, view, "1-9 of 100")
	assert.NotContains(t, view, "item 9")
}

func TestModelKeys(t *testing.T) {
	m := newTestModel(t, 100)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, Range{1, 9}, m.List.VisibleRange())

	m.Update(runeKey('k'))
	assert.Equal(t, Range{0, 8}, m.List.VisibleRange())

	m.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, Range{9, 17}, m.List.VisibleRange())

	m.Update(runeKey('G'))
	assert.Equal(t, Range{91, 99}, m.List.VisibleRange())

	m.Update(runeKey('g'))
	assert.Equal(t, Range{0, 8}, m.List.VisibleRange())

	_, cmd := m.Update(runeKey('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModelMouse(t *testing.T) {
	m := newTestModel(t, 100)

	m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	assert.Equal(t, Range{3, 11}, m.List.VisibleRange())

	// row 1 is the first list row below the border
	m.Update(tea.MouseMsg{X: 2, Y: 3, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	assert.Equal(t, 5, m.Selected())
	assert.Contains(t, m.View(), "sel 6")
}

func TestModelConfigReload(t *testing.T) {
	m := newTestModel(t, 100)

	cfg := DefaultConfig()
	cfg.ItemExtent = 3
	m.Update(ConfigReloadedMsg{Config: cfg})
	require.NoError(t, m.Err())
	assert.Equal(t, Range{0, 2}, m.List.VisibleRange())

	bad := cfg
	bad.ItemExtent = 0
	m.Update(ConfigReloadedMsg{Config: bad})
	assert.True(t, IsKind(m.Err(), KindInvalidConfig))
	assert.Equal(t, 3, m.List.Config().ItemExtent)
	assert.Contains(t, m.View(), "invalid configuration")
}

func TestModelTitle(t *testing.T) {
	m := newTestModel(t, 100)
	m.Title = "events"
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})

	assert.Equal(t, Range{0, 7}, m.List.VisibleRange())
	assert.Contains(t, m.View(), "events")
}
