package vlist

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mattn/go-runewidth"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Screen draws Buffers to a terminal with double buffering, writing only the
// cells that changed since the previous frame.
type Screen struct {
	front  *Buffer // what's currently displayed
	back   *Buffer // what we're drawing to
	writer io.Writer
	fd     int

	width  int
	height int

	oldState *term.State

	resizeChan chan Size
	sigChan    chan os.Signal

	lastStyle Style
	buf       bytes.Buffer

	// protects buffers during resize
	mu sync.Mutex
}

// Size represents dimensions.
type Size struct {
	Width  int
	Height int
}

// NewScreen creates a screen writing to w. Pass nil to use os.Stdout.
func NewScreen(w io.Writer) (*Screen, error) {
	if w == nil {
		w = os.Stdout
	}

	fd := int(os.Stdout.Fd())
	width, height, err := terminalSize(fd)
	if err != nil {
		Logger().Debug("terminal size unavailable, using 80x24")
		width, height = 80, 24
	}

	return newScreen(w, fd, width, height), nil
}

func newScreen(w io.Writer, fd, width, height int) *Screen {
	return &Screen{
		front:      NewBuffer(width, height),
		back:       NewBuffer(width, height),
		writer:     w,
		fd:         fd,
		width:      width,
		height:     height,
		resizeChan: make(chan Size, 1),
		sigChan:    make(chan os.Signal, 1),
		lastStyle:  DefaultStyle(),
	}
}

func terminalSize(fd int) (int, int, error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Col), int(ws.Row), nil
}

// Size returns the current screen dimensions.
func (s *Screen) Size() Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Size{Width: s.width, Height: s.height}
}

// Buffer returns the back buffer for drawing.
func (s *Screen) Buffer() *Buffer {
	return s.back
}

// ResizeChan receives the new size on terminal resize.
func (s *Screen) ResizeChan() <-chan Size {
	return s.resizeChan
}

// EnterRawMode puts the terminal into raw mode on the alternate screen.
func (s *Screen) EnterRawMode() error {
	if s.oldState != nil {
		return nil
	}

	state, err := term.MakeRaw(s.fd)
	if err != nil {
		return Wrap(KindResource, "terminal", fmt.Errorf("enter raw mode: %w", err))
	}
	s.oldState = state

	signal.Notify(s.sigChan, syscall.SIGWINCH)
	go s.handleSignals()

	s.writeString("\x1b[?1049h") // alternate screen
	s.writeString("\x1b[2J")     // clear so the front buffer matches
	s.writeString("\x1b[H")
	s.writeString("\x1b[?25l") // hide cursor
	return nil
}

// ExitRawMode restores the terminal.
func (s *Screen) ExitRawMode() error {
	if s.oldState == nil {
		return nil
	}

	s.writeString("\x1b[0m\x1b[?25h\x1b[?1049l")
	signal.Stop(s.sigChan)

	if err := term.Restore(s.fd, s.oldState); err != nil {
		return Wrap(KindResource, "terminal", fmt.Errorf("restore: %w", err))
	}
	s.oldState = nil
	return nil
}

func (s *Screen) handleSignals() {
	for range s.sigChan {
		width, height, err := terminalSize(s.fd)
		if err != nil {
			continue
		}
		s.resize(width, height)
	}
}

func (s *Screen) resize(width, height int) {
	s.mu.Lock()
	if width == s.width && height == s.height {
		s.mu.Unlock()
		return
	}
	s.width, s.height = width, height
	s.front.Resize(width, height)
	s.back.Resize(width, height)
	s.writeString("\x1b[2J")
	s.mu.Unlock()

	select {
	case s.resizeChan <- Size{Width: width, Height: height}:
	default:
	}
}

// FlushStats reports the work done by one Flush.
type FlushStats struct {
	ChangedRows  int
	ChangedCells int
	Bytes        int
}

// Flush writes the cells of the back buffer that differ from the front buffer.
func (s *Screen) Flush() (FlushStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Reset()
	var stats FlushStats
	cursorX, cursorY := -1, -1

	for y := 0; y < s.height; y++ {
		rowChanged := false
		for x := 0; x < s.width; x++ {
			cell := s.back.Get(x, y)
			if cell == s.front.Get(x, y) {
				continue
			}
			// second half of a wide rune
			if cell.Rune == 0 {
				s.front.Set(x, y, cell)
				continue
			}
			if !rowChanged {
				rowChanged = true
				stats.ChangedRows++
			}
			stats.ChangedCells++

			if cursorX != x || cursorY != y {
				s.buf.WriteString("\x1b[")
				s.writeInt(y + 1)
				s.buf.WriteByte(';')
				s.writeInt(x + 1)
				s.buf.WriteByte('H')
			}

			s.writeCell(cell)
			s.front.Set(x, y, cell)
			rw := runewidth.RuneWidth(cell.Rune)
			if rw == 0 {
				rw = 1
			}
			cursorX, cursorY = x+rw, y
		}
	}

	if stats.ChangedCells == 0 {
		return stats, nil
	}
	s.buf.WriteString("\x1b[0m")
	s.lastStyle = DefaultStyle()

	n, err := s.writer.Write(s.buf.Bytes())
	stats.Bytes = n
	if err != nil {
		return stats, Wrap(KindResource, "terminal", err)
	}
	return stats, nil
}

// Invalidate forgets what is on the terminal so the next Flush redraws
// everything.
func (s *Screen) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.front.Fill(Cell{Rune: -1})
}

func (s *Screen) writeInt(n int) {
	var scratch [20]byte
	s.buf.Write(appendInt(scratch[:0], n))
}

func (s *Screen) writeCell(cell Cell) {
	if cell.Style != s.lastStyle {
		s.writeStyle(cell.Style)
		s.lastStyle = cell.Style
	}
	s.buf.WriteRune(cell.Rune)
}

func (s *Screen) writeStyle(style Style) {
	s.buf.WriteString("\x1b[0")
	if style.Attr.Has(AttrBold) {
		s.buf.WriteString(";1")
	}
	if style.Attr.Has(AttrDim) {
		s.buf.WriteString(";2")
	}
	if style.Attr.Has(AttrItalic) {
		s.buf.WriteString(";3")
	}
	if style.Attr.Has(AttrUnderline) {
		s.buf.WriteString(";4")
	}
	if style.Attr.Has(AttrInverse) {
		s.buf.WriteString(";7")
	}
	s.writeColor(style.FG, true)
	s.writeColor(style.BG, false)
	s.buf.WriteByte('m')
}

func (s *Screen) writeColor(c Color, fg bool) {
	switch c.Mode {
	case ColorDefault:
		if fg {
			s.buf.WriteString(";39")
		} else {
			s.buf.WriteString(";49")
		}
	case Color16:
		base := 30
		if !fg {
			base = 40
		}
		idx := int(c.Index)
		if idx >= 8 {
			base += 60
			idx -= 8
		}
		s.buf.WriteByte(';')
		s.writeInt(base + idx)
	case Color256:
		if fg {
			s.buf.WriteString(";38;5;")
		} else {
			s.buf.WriteString(";48;5;")
		}
		s.writeInt(int(c.Index))
	}
}

func (s *Screen) writeString(str string) {
	io.WriteString(s.writer, str)
}

// Clear clears the back buffer.
func (s *Screen) Clear() {
	s.back.Clear()
}

// appendInt appends n in decimal without allocating.
func appendInt(b []byte, n int) []byte {
	if n == 0 {
		return append(b, '0')
	}
	if n < 0 {
		b = append(b, '-')
		n = -n
	}
	var scratch [20]byte
	i := len(scratch)
	for n > 0 {
		i--
		scratch[i] = byte('0' + n%10)
		n /= 10
	}
	return append(b, scratch[i:]...)
}
