package vlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/multierr"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

// ConfigReloadedMsg carries a configuration loaded by a ConfigWatcher into a
// running Bubble Tea program.
type ConfigReloadedMsg struct {
	Config Config
}

// KeyMap holds the key bindings of a Model.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns vi-style bindings plus the arrow and paging keys.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+f", " "), key.WithHelp("pgdn", "page down")),
		Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Model hosts a VirtualList inside a Bubble Tea program.
type Model[T any, C PoolItem] struct {
	List       *VirtualList[T, C]
	Keys       KeyMap
	Title      string
	ShowStatus bool
	WheelStep  int

	width    int
	height   int
	buf      *Buffer
	selected int
	err      error
}

// NewModel wraps list with the default key map and a status line.
func NewModel[T any, C PoolItem](list *VirtualList[T, C]) *Model[T, C] {
	return &Model[T, C]{
		List:       list,
		Keys:       DefaultKeyMap(),
		ShowStatus: true,
		WheelStep:  3,
		buf:        NewBuffer(0, 0),
		selected:   -1,
	}
}

// Init implements tea.Model.
func (m *Model[T, C]) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model[T, C]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.err = m.resize()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.Keys.Up):
			m.err = m.List.ScrollBy(-1)
		case key.Matches(msg, m.Keys.Down):
			m.err = m.List.ScrollBy(1)
		case key.Matches(msg, m.Keys.PageUp):
			m.err = m.List.PageUp()
		case key.Matches(msg, m.Keys.PageDown):
			m.err = m.List.PageDown()
		case key.Matches(msg, m.Keys.Top):
			m.err = m.List.ScrollToTop()
		case key.Matches(msg, m.Keys.Bottom):
			m.err = m.List.ScrollToBottom()
		}

	case tea.MouseMsg:
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			m.err = m.List.ScrollBy(-m.WheelStep)
		case msg.Button == tea.MouseButtonWheelDown:
			m.err = m.List.ScrollBy(m.WheelStep)
		case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
			if idx, ok := m.List.ItemAt(msg.Y - m.listTop()); ok {
				m.selected = idx
			}
		}

	case ConfigReloadedMsg:
		if err := m.List.ApplyConfig(msg.Config); err != nil {
			m.err = err
			break
		}
		m.err = m.resize()
	}
	return m, nil
}

// Selected returns the index of the last clicked item, or -1.
func (m *Model[T, C]) Selected() int {
	return m.selected
}

// Err returns the error of the last handled message.
func (m *Model[T, C]) Err() error {
	return m.err
}

func (m *Model[T, C]) listTop() int {
	top := 1 // border
	if m.Title != "" {
		top++
	}
	return top
}

func (m *Model[T, C]) contentSize() (int, int) {
	w := m.width - 2
	h := m.height - 2
	if m.Title != "" {
		h--
	}
	if m.ShowStatus {
		h--
	}
	return max(w, 0), max(h, 0)
}

func (m *Model[T, C]) resize() error {
	w, h := m.contentSize()
	m.buf.Resize(w, h)
	return m.List.SetViewport(w, h)
}

// View implements tea.Model.
func (m *Model[T, C]) View() string {
	w, h := m.contentSize()
	if w == 0 || h == 0 {
		return ""
	}
	if m.List.State() == StateFailed {
		return errorStyle.Render(fmt.Sprintf("list failed: %v", m.err))
	}

	m.buf.Clear()
	m.List.Render(m.buf, 0, 0)

	var parts []string
	if m.Title != "" {
		parts = append(parts, titleStyle.Render(m.Title))
	}
	parts = append(parts, frameStyle.Width(w).Height(h).Render(m.buf.String()))
	if m.ShowStatus {
		parts = append(parts, m.status())
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model[T, C]) status() string {
	r := m.List.VisibleRange()
	ps := m.List.PoolStats()
	cs := m.List.CacheStats()

	var b strings.Builder
	if r.Empty() {
		fmt.Fprintf(&b, "0 of %d", m.List.Len())
	} else {
		fmt.Fprintf(&b, "%d-%d of %d", r.First+1, r.Last+1, m.List.Len())
	}
	fmt.Fprintf(&b, "  pool %d/%d hit %.0f%%", ps.Lent, ps.TargetSize, ps.HitRate*100)
	if m.List.ItemSizingMode() == DynamicSize {
		fmt.Fprintf(&b, "  cache %d", cs.Len)
	}
	if m.selected >= 0 {
		fmt.Fprintf(&b, "  sel %d", m.selected+1)
	}

	line := statusStyle.Render(b.String())
	if errs := multierr.Errors(m.err); len(errs) > 0 {
		line += "  " + errorStyle.Render(fmt.Sprintf("%d errors: %v", len(errs), errs[0]))
	}
	return line
}
