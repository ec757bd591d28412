// Package buffer provides the line-oriented text buffer that Ex commands edit.
//
// Lines are addressed with 0-based indexes here; the Ex layer converts from
// the 1-based line numbers users type. A buffer always holds at least one
// (possibly empty) line, matching Vim's notion of an empty file. All methods
// are safe for concurrent use.
package buffer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrOutOfRange   = errors.New("buffer: line out of range")
	ErrRangeInvalid = errors.New("buffer: invalid range")
	ErrNoPath       = errors.New("buffer: no file name")
)

// LineEnding specifies the line ending style used when saving.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
)

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	if le == LineEndingCRLF {
		return "\r\n"
	}
	return "\n"
}

// Buffer is a mutable sequence of lines.
type Buffer struct {
	mu         sync.RWMutex
	lines      []string
	path       string
	modified   bool
	lineEnding LineEnding
}

// New creates an empty buffer.
func New() *Buffer {
	return &Buffer{lines: []string{""}}
}

// NewFromString creates a buffer holding text. A single trailing newline does
// not produce an extra empty line.
func NewFromString(text string) *Buffer {
	b := New()
	b.lines, b.lineEnding = splitLines(text)
	return b
}

// Load reads the file at path. A missing file yields an empty buffer bound to
// path, like editing a new file.
func Load(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			b := New()
			b.path = path
			return b, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	b := NewFromString(string(data))
	b.path = path
	return b, nil
}

func splitLines(text string) ([]string, LineEnding) {
	ending := LineEndingLF
	if strings.Contains(text, "\r\n") {
		ending = LineEndingCRLF
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}, ending
	}
	return strings.Split(text, "\n"), ending
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Line returns the line at index i.
func (b *Buffer) Line(i int) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= len(b.lines) {
		return "", ErrOutOfRange
	}
	return b.lines[i], nil
}

// Lines returns a copy of lines [start, end).
func (b *Buffer) Lines(start, end int) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkRange(start, end); err != nil {
		return nil, err
	}
	out := make([]string, end-start)
	copy(out, b.lines[start:end])
	return out, nil
}

// SetLine replaces the line at index i.
func (b *Buffer) SetLine(i int, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.lines) {
		return ErrOutOfRange
	}
	if b.lines[i] != text {
		b.lines[i] = text
		b.modified = true
	}
	return nil
}

// InsertLines inserts lines before index at. at == LineCount appends.
func (b *Buffer) InsertLines(at int, lines []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if at < 0 || at > len(b.lines) {
		return ErrOutOfRange
	}
	if len(lines) == 0 {
		return nil
	}
	merged := make([]string, 0, len(b.lines)+len(lines))
	merged = append(merged, b.lines[:at]...)
	merged = append(merged, lines...)
	merged = append(merged, b.lines[at:]...)
	b.lines = merged
	b.modified = true
	return nil
}

// DeleteLines removes lines [start, end) and returns them.
// Deleting every line leaves a single empty line.
func (b *Buffer) DeleteLines(start, end int) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkRange(start, end); err != nil {
		return nil, err
	}
	removed := make([]string, end-start)
	copy(removed, b.lines[start:end])
	b.lines = append(b.lines[:start], b.lines[end:]...)
	if len(b.lines) == 0 {
		b.lines = []string{""}
	}
	if len(removed) > 0 {
		b.modified = true
	}
	return removed, nil
}

// ReplaceLines replaces lines [start, end) with lines.
func (b *Buffer) ReplaceLines(start, end int, lines []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkRange(start, end); err != nil {
		return err
	}
	merged := make([]string, 0, len(b.lines)-(end-start)+len(lines))
	merged = append(merged, b.lines[:start]...)
	merged = append(merged, lines...)
	merged = append(merged, b.lines[end:]...)
	if len(merged) == 0 {
		merged = []string{""}
	}
	b.lines = merged
	b.modified = true
	return nil
}

func (b *Buffer) checkRange(start, end int) error {
	if start < 0 || end > len(b.lines) {
		return ErrOutOfRange
	}
	if start > end {
		return ErrRangeInvalid
	}
	return nil
}

// Text returns the buffer contents joined with the buffer's line ending,
// with a trailing line ending.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sep := b.lineEnding.Sequence()
	return strings.Join(b.lines, sep) + sep
}

// Modified reports whether the buffer changed since it was loaded or saved.
func (b *Buffer) Modified() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.modified
}

// Path returns the file the buffer is bound to.
func (b *Buffer) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// SetPath binds the buffer to a file name.
func (b *Buffer) SetPath(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.path = path
}

// Save writes the buffer to path, or to the bound path when path is empty.
// Writing to the bound path clears the modified flag. It returns the number of
// lines and bytes written.
func (b *Buffer) Save(path string) (lines, bytes int, err error) {
	text := b.Text()

	b.mu.Lock()
	defer b.mu.Unlock()
	target := path
	if target == "" {
		target = b.path
	}
	if target == "" {
		return 0, 0, ErrNoPath
	}

	if err := writeAtomic(target, text); err != nil {
		return 0, 0, err
	}

	if b.path == "" {
		b.path = target
	}
	if target == b.path {
		b.modified = false
	}
	return len(b.lines), len(text), nil
}

// SaveRange writes lines [start, end) to path without binding the buffer to
// it or touching the modified flag.
func (b *Buffer) SaveRange(path string, start, end int) (lines, bytes int, err error) {
	if path == "" {
		return 0, 0, ErrNoPath
	}
	b.mu.RLock()
	if err := b.checkRange(start, end); err != nil {
		b.mu.RUnlock()
		return 0, 0, err
	}
	sep := b.lineEnding.Sequence()
	text := strings.Join(b.lines[start:end], sep) + sep
	b.mu.RUnlock()

	if err := writeAtomic(path, text); err != nil {
		return 0, 0, err
	}
	return end - start, len(text), nil
}

func writeAtomic(target, text string) error {
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}

	// Write atomically using temp file + rename
	tempPath := target + ".tmp"
	if err := os.WriteFile(tempPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}
