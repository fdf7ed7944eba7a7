package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	defaultBarWidth = 40
	minBarWidth     = 10
	// room left on a terminal line for the message and the percentage.
	reservedColumns = 40
)

// TerminalRenderer draws a single-line progress bar, redrawn in place with a
// carriage return on every update.
type TerminalRenderer struct {
	w     io.Writer
	width int

	mu      sync.Mutex
	lastLen int
}

// NewTerminalRenderer creates a renderer writing to w. When w is a terminal
// the bar is sized to its width.
func NewTerminalRenderer(w io.Writer) *TerminalRenderer {
	return &TerminalRenderer{w: w, width: barWidthFor(w)}
}

// WithBarWidth overrides the bar width in cells.
func (r *TerminalRenderer) WithBarWidth(width int) *TerminalRenderer {
	r.width = max(width, 1)
	return r
}

// Observe implements Observer.
func (r *TerminalRenderer) Observe(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := Render(event.State, r.width)
	pad := ""
	if r.lastLen > len(line) {
		pad = strings.Repeat(" ", r.lastLen-len(line))
	}
	r.lastLen = len(line)

	if event.Kind == EventClosed {
		fmt.Fprintf(r.w, "\r%s%s\n", line, pad)
		r.lastLen = 0
		return
	}
	fmt.Fprintf(r.w, "\r%s%s", line, pad)
}

// Render formats state as "message [####------]  42%" with a bar of width
// cells. A negative width renders an empty bar.
func Render(state State, width int) string {
	width = max(width, 0)
	filled := min(max(int(state.Percent()/100*float64(width)), 0), width)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", width-filled)

	line := fmt.Sprintf("[%s] %3.0f%%", bar, state.Percent())
	if state.Message != "" {
		line = state.Message + " " + line
	}
	return line
}

func barWidthFor(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultBarWidth
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return defaultBarWidth
	}
	return min(max(cols-reservedColumns, minBarWidth), defaultBarWidth)
}
