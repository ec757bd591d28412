package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/dshills/exline/internal/editor"
)

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// StatusLine publishes command results. Every message is stored in the
// editor state; non-empty messages are also written to out.
type StatusLine struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
	last  string
}

// NewStatusLine creates a status line writing to out. Errors are colored
// when out is a terminal. A nil out only updates the editor state.
func NewStatusLine(out io.Writer) *StatusLine {
	return &StatusLine{out: out, color: isTerminal(out)}
}

// SetText shows text, flagged as an error when isError is set.
func (s *StatusLine) SetText(st *editor.State, text string, isError bool) {
	if st != nil {
		st.SetStatus(text, isError)
	}
	if s.out == nil || text == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(text, isError)
	s.last = text
}

// Flush writes the status a command left in st, unless SetText already
// showed it since the previous Flush.
func (s *StatusLine) Flush(st *editor.State) {
	if st == nil || s.out == nil {
		return
	}
	text, isError := st.Status()

	s.mu.Lock()
	defer s.mu.Unlock()
	shown := s.last
	s.last = ""
	if text == "" || text == shown {
		return
	}
	s.write(text, isError)
}

func (s *StatusLine) write(text string, isError bool) {
	if isError && s.color {
		fmt.Fprintln(s.out, ansiRed+text+ansiReset)
		return
	}
	fmt.Fprintln(s.out, text)
}
