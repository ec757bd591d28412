package cmdline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/excmd"
)

// ErrCommandInFlight is returned by Submit while an earlier submission is
// still running.
var ErrCommandInFlight = errors.New("cmdline: command already running")

// Key names understood by Session.HandleKey. Any other single printable
// character is inserted.
const (
	KeyEnter     = "<CR>"
	KeyEscape    = "<Esc>"
	KeyBackspace = "<BS>"
	KeyDelete    = "<Del>"
	KeyLeft      = "<Left>"
	KeyRight     = "<Right>"
	KeyHome      = "<Home>"
	KeyEnd       = "<End>"
	KeyUp        = "<Up>"
	KeyDown      = "<Down>"
	KeyTab       = "<Tab>"
	KeyShiftTab  = "<S-Tab>"
	KeyClearLine = "<C-u>"
)

// completion is the Tab cycling state. It is only meaningful while items
// is non-empty; index -1 shows the text typed before completion started.
type completion struct {
	items    []string
	index    int
	start    int
	snapshot []rune
}

func (c *completion) reset() {
	c.items = nil
	c.index = -1
	c.start = 0
	c.snapshot = nil
}

func (c *completion) active() bool {
	return len(c.items) > 0
}

// Session is the interactive command line: the text being typed, its caret,
// history browsing and Tab completion. Submitting runs the text through the
// Engine.
type Session struct {
	engine *Engine
	names  []string

	mu           sync.Mutex
	open         bool
	buffer       []rune
	cursorPos    int
	savedBuffer  []rune
	browsing     bool
	previousMode editor.Mode
	lastKey      string
	complete     completion

	inFlight atomic.Bool
}

// NewSession creates a session over engine. names are the command names
// offered by Tab completion; nil uses the built-in command table.
func NewSession(engine *Engine, names []string) *Session {
	if names == nil {
		names = excmd.NewParser().Names()
	}
	s := &Session{
		engine:       engine,
		names:        names,
		buffer:       make([]rune, 0, 64),
		previousMode: editor.ModeNormal,
	}
	s.complete.reset()
	return s
}

// Open starts editing a fresh command line, remembering the mode to return
// to.
func (s *Session) Open(previousMode editor.Mode) {
	s.mu.Lock()
	s.open = true
	s.previousMode = previousMode
	s.clearLocked()
	s.mu.Unlock()

	s.engine.SetHistoryCursor(len(s.engine.HistoryEntries()))
}

// Close abandons the command line and returns the mode that was active
// before Open.
func (s *Session) Close() editor.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.clearLocked()
	return s.previousMode
}

func (s *Session) clearLocked() {
	s.buffer = s.buffer[:0]
	s.cursorPos = 0
	s.savedBuffer = nil
	s.browsing = false
	s.complete.reset()
}

// IsOpen reports whether a command line is being edited.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// PreviousMode returns the mode recorded by the last Open.
func (s *Session) PreviousMode() editor.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previousMode
}

// LastKeyPressed returns the last key given to HandleKey.
func (s *Session) LastKeyPressed() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKey
}

// Text returns the command line.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.buffer)
}

// SetText replaces the command line and puts the caret at the end.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setBufferLocked(text)
	s.edited()
}

func (s *Session) setBufferLocked(text string) {
	s.buffer = []rune(text)
	s.cursorPos = len(s.buffer)
}

// CursorPos returns the caret position in runes.
func (s *Session) CursorPos() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursorPos
}

// SetCursorPos moves the caret, clamped to the text.
func (s *Session) SetCursorPos(pos int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursorPos = max(0, min(pos, len(s.buffer)))
}

// edited drops completion state after the text changed.
func (s *Session) edited() {
	s.complete.reset()
}

// Insert types text at the caret.
func (s *Session) Insert(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range text {
		s.insertRune(r)
	}
	s.edited()
}

func (s *Session) insertRune(r rune) {
	if s.cursorPos >= len(s.buffer) {
		s.buffer = append(s.buffer, r)
	} else {
		s.buffer = append(s.buffer[:s.cursorPos+1], s.buffer[s.cursorPos:]...)
		s.buffer[s.cursorPos] = r
	}
	s.cursorPos++
}

// Backspace deletes the character before the caret.
func (s *Session) Backspace() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursorPos == 0 {
		return false
	}
	s.buffer = append(s.buffer[:s.cursorPos-1], s.buffer[s.cursorPos:]...)
	s.cursorPos--
	s.edited()
	return true
}

// Delete deletes the character under the caret.
func (s *Session) Delete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursorPos >= len(s.buffer) {
		return false
	}
	s.buffer = append(s.buffer[:s.cursorPos], s.buffer[s.cursorPos+1:]...)
	s.edited()
	return true
}

// ClearLine deletes everything before the caret.
func (s *Session) ClearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = append(s.buffer[:0], s.buffer[s.cursorPos:]...)
	s.cursorPos = 0
	s.edited()
}

// MoveLeft moves the caret left.
func (s *Session) MoveLeft() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursorPos == 0 {
		return false
	}
	s.cursorPos--
	return true
}

// MoveRight moves the caret right.
func (s *Session) MoveRight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursorPos >= len(s.buffer) {
		return false
	}
	s.cursorPos++
	return true
}

// MoveToStart moves the caret to the start.
func (s *Session) MoveToStart() {
	s.mu.Lock()
	s.cursorPos = 0
	s.mu.Unlock()
}

// MoveToEnd moves the caret to the end.
func (s *Session) MoveToEnd() {
	s.mu.Lock()
	s.cursorPos = len(s.buffer)
	s.mu.Unlock()
}

// HistoryPrev shows the previous history entry. The text typed before
// browsing is kept and comes back after HistoryNext passes the newest entry.
func (s *Session) HistoryPrev() bool {
	entries := s.engine.HistoryEntries()
	cur := min(s.engine.HistoryCursor(), len(entries))
	if cur == 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.browsing {
		s.savedBuffer = append([]rune(nil), s.buffer...)
		s.browsing = true
	}
	cur--
	s.engine.SetHistoryCursor(cur)
	s.setBufferLocked(entries[cur])
	s.complete.reset()
	return true
}

// HistoryNext shows the next history entry, or the saved text after the
// newest one.
func (s *Session) HistoryNext() bool {
	entries := s.engine.HistoryEntries()
	cur := s.engine.HistoryCursor()
	if cur >= len(entries) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur++
	s.engine.SetHistoryCursor(cur)
	if cur == len(entries) {
		s.setBufferLocked(string(s.savedBuffer))
		s.savedBuffer = nil
		s.browsing = false
	} else {
		s.setBufferLocked(entries[cur])
	}
	s.complete.reset()
	return true
}

// CompletionIndex returns the selected candidate, or -1 when none is.
func (s *Session) CompletionIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.complete.index
}

// CompletionItems returns the current candidates.
func (s *Session) CompletionItems() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.complete.items...)
}

// CompleteNext selects the next candidate, starting a completion when none
// is active. Cycling past the last candidate shows the original text.
func (s *Session) CompleteNext() bool {
	return s.cycle(1)
}

// CompletePrev selects the previous candidate.
func (s *Session) CompletePrev() bool {
	return s.cycle(-1)
}

func (s *Session) cycle(step int) bool {
	history := s.engine.HistoryEntries()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := &s.complete
	if !c.active() {
		items := s.candidates(string(s.buffer[:s.cursorPos]), history)
		if len(items) == 0 {
			return false
		}
		c.items = items
		c.index = -1
		c.start = s.cursorPos
		c.snapshot = append([]rune(nil), s.buffer...)
	}

	// Positions run from -1 (original text) to len(items)-1.
	n := len(c.items) + 1
	c.index = (c.index+1+step+n)%n - 1

	if c.index < 0 {
		s.buffer = append([]rune(nil), c.snapshot...)
		s.cursorPos = c.start
		return true
	}
	item := []rune(c.items[c.index])
	s.buffer = append(item, c.snapshot[c.start:]...)
	s.cursorPos = len(item)
	return true
}

// candidates ranks completions for the text before the caret: command
// names for the word being typed after any range, then history entries.
func (s *Session) candidates(typed string, history []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(item string) {
		if item != typed && !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}

	if lead, word, ok := commandWord(typed); ok {
		if word == "" {
			for _, name := range s.names {
				add(lead + name)
			}
		} else {
			for _, m := range fuzzy.Find(word, s.names) {
				add(lead + s.names[m.Index])
			}
		}
	}

	if typed != "" {
		newestFirst := make([]string, 0, len(history))
		for i := len(history) - 1; i >= 0; i-- {
			newestFirst = append(newestFirst, history[i])
		}
		for _, m := range fuzzy.Find(typed, newestFirst) {
			add(newestFirst[m.Index])
		}
	}
	return out
}

// commandWord splits typed into the text before the command name and the
// partial name itself. ok is false once the name is complete (followed by
// anything that is not a letter).
func commandWord(typed string) (lead, word string, ok bool) {
	trimmed := strings.TrimLeft(typed, " \t:")
	_, rest, err := excmd.ParseRange(trimmed)
	if err != nil {
		return "", "", false
	}
	rest = strings.TrimLeft(rest, " \t")
	for _, r := range rest {
		if !unicode.IsLetter(r) {
			return "", "", false
		}
	}
	return typed[:len(typed)-len(rest)], rest, true
}

// HandleKey applies one key press. Named keys are the Key constants; any
// other single printable character is typed. It reports whether the key
// was consumed. KeyEnter submits through Submit, so callers wanting the
// error should call Submit themselves.
func (s *Session) HandleKey(ctx context.Context, key string, st *editor.State) bool {
	s.mu.Lock()
	s.lastKey = key
	s.mu.Unlock()

	switch key {
	case KeyEnter:
		return s.Submit(ctx, st) == nil
	case KeyEscape:
		mode := s.Close()
		if st != nil {
			st.SetMode(mode)
		}
		return true
	case KeyBackspace:
		return s.Backspace()
	case KeyDelete:
		return s.Delete()
	case KeyLeft:
		return s.MoveLeft()
	case KeyRight:
		return s.MoveRight()
	case KeyHome:
		s.MoveToStart()
		return true
	case KeyEnd:
		s.MoveToEnd()
		return true
	case KeyUp:
		return s.HistoryPrev()
	case KeyDown:
		return s.HistoryNext()
	case KeyTab:
		return s.CompleteNext()
	case KeyShiftTab:
		return s.CompletePrev()
	case KeyClearLine:
		s.ClearLine()
		return true
	}

	r, size := utf8.DecodeRuneInString(key)
	if size == len(key) && r != utf8.RuneError && unicode.IsPrint(r) {
		s.Insert(key)
		return true
	}
	return false
}

// Submit closes the command line, restores the previous mode on st and runs
// the text. A second Submit while the first is still running fails with
// ErrCommandInFlight.
func (s *Session) Submit(ctx context.Context, st *editor.State) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrCommandInFlight
	}
	defer s.inFlight.Store(false)

	text := s.Text()
	mode := s.Close()
	if st != nil {
		st.SetMode(mode)
	}
	s.engine.Run(ctx, text, st)
	return nil
}
