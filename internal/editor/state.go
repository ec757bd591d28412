// Package editor holds the per-window editor state that Ex commands act on.
package editor

import (
	"sync"

	"github.com/dshills/exline/internal/buffer"
	"github.com/dshills/exline/internal/register"
)

// Mode identifies the modal editing mode.
type Mode string

// Mode identifiers.
const (
	ModeNormal      Mode = "normal"
	ModeInsert      Mode = "insert"
	ModeVisual      Mode = "visual"
	ModeVisualLine  Mode = "visual-line"
	ModeVisualBlock Mode = "visual-block"
	ModeCommand     Mode = "command"
	ModeReplace     Mode = "replace"
)

// HistoryReader gives commands read access to the command-line history.
type HistoryReader interface {
	Entries() []string
}

// State is the editor state passed to every command.
//
// Buffer, Registers and History are shared collaborators set at construction.
// Cursor, marks, mode, status and the quit flag are guarded by the State.
type State struct {
	Buffer    *buffer.Buffer
	Registers *register.Store
	History   HistoryReader

	mu            sync.RWMutex
	cursor        int
	mode          Mode
	marks         map[rune]int
	statusText    string
	statusIsError bool
	quit          bool
}

// NewState creates editor state over buf with the cursor on line 1.
func NewState(buf *buffer.Buffer, regs *register.Store) *State {
	if buf == nil {
		buf = buffer.New()
	}
	if regs == nil {
		regs = register.NewStore()
	}
	return &State{
		Buffer:    buf,
		Registers: regs,
		cursor:    1,
		mode:      ModeNormal,
		marks:     make(map[rune]int),
	}
}

// Cursor returns the 1-based cursor line.
func (s *State) Cursor() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

// SetCursor moves the cursor, clamping to the buffer.
func (s *State) SetCursor(line int) {
	count := s.Buffer.LineCount()
	if line > count {
		line = count
	}
	if line < 1 {
		line = 1
	}
	s.mu.Lock()
	s.cursor = line
	s.mu.Unlock()
}

// Mode returns the current mode.
func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode switches the current mode.
func (s *State) SetMode(m Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
}

// SetMark records a 1-based line for mark name.
func (s *State) SetMark(name rune, line int) {
	s.mu.Lock()
	s.marks[name] = line
	s.mu.Unlock()
}

// Mark returns the line for mark name.
func (s *State) Mark(name rune) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	line, ok := s.marks[name]
	return line, ok
}

// SetStatus replaces the status line text.
func (s *State) SetStatus(text string, isError bool) {
	s.mu.Lock()
	s.statusText = text
	s.statusIsError = isError
	s.mu.Unlock()
}

// Status returns the status line text and whether it reports an error.
func (s *State) Status() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusText, s.statusIsError
}

// RequestQuit marks the window for closing.
func (s *State) RequestQuit() {
	s.mu.Lock()
	s.quit = true
	s.mu.Unlock()
}

// QuitRequested reports whether a quit command ran.
func (s *State) QuitRequested() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quit
}

// HistoryEntries returns command-line history, or nil when none is attached.
func (s *State) HistoryEntries() []string {
	if s.History == nil {
		return nil
	}
	return s.History.Entries()
}
