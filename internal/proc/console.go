// ConsoleSink prints child process output with colorized name prefixes.
package proc

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// sidebarWidth is the width reserved for the process name prefix.
const sidebarWidth = 5

var namePalette = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
}

// ConsoleSink multiplexes output lines from many processes onto one writer,
// prefixing each line with the process name. Colors are used only when the
// writer is a terminal.
type ConsoleSink struct {
	out      io.Writer
	color    bool
	mu       sync.Mutex
	styles   map[string]lipgloss.Style
	styleIdx int
}

// NewConsoleSink creates a ConsoleSink writing to out. Color output is
// enabled when out is os.Stdout or os.Stderr attached to a terminal.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	color := false
	if f, ok := out.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &ConsoleSink{out: out, color: color, styles: make(map[string]lipgloss.Style)}
}

func (s *ConsoleSink) styleFor(name string) lipgloss.Style {
	if st, ok := s.styles[name]; ok {
		return st
	}
	st := namePalette[s.styleIdx%len(namePalette)]
	s.styles[name] = st
	s.styleIdx++
	return st
}

// WriteLine prints one output line attributed to the named process.
func (s *ConsoleSink) WriteLine(name, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := fmt.Sprintf("%*s", sidebarWidth, name)
	if s.color {
		prefix = s.styleFor(name).Render(prefix)
	}
	fmt.Fprintf(s.out, "%s | %s\n", prefix, line)
}
