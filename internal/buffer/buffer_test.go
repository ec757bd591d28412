package buffer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{""}},
		{"single line", "one", []string{"one"}},
		{"trailing newline", "one\ntwo\n", []string{"one", "two"}},
		{"crlf", "one\r\ntwo\r\n", []string{"one", "two"}},
		{"blank middle", "a\n\nb", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewFromString(tt.input)
			got, err := b.Lines(0, b.LineCount())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.False(t, b.Modified())
		})
	}
}

func TestBuffer_DeleteLines(t *testing.T) {
	b := NewFromString("a\nb\nc\nd")

	removed, err := b.DeleteLines(1, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, removed)
	assert.Equal(t, 2, b.LineCount())
	assert.True(t, b.Modified())

	removed, err = b.DeleteLines(0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "d"}, removed)
	assert.Equal(t, 1, b.LineCount(), "an emptied buffer keeps one line")

	_, err = b.DeleteLines(0, 5)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = b.DeleteLines(1, 0)
	assert.ErrorIs(t, err, ErrRangeInvalid)
}

func TestBuffer_InsertAndReplace(t *testing.T) {
	b := NewFromString("a\nd")

	require.NoError(t, b.InsertLines(1, []string{"b", "c"}))
	require.NoError(t, b.InsertLines(4, []string{"e"}))
	got, _ := b.Lines(0, b.LineCount())
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)

	require.NoError(t, b.ReplaceLines(1, 4, []string{"x"}))
	got, _ = b.Lines(0, b.LineCount())
	assert.Equal(t, []string{"a", "x", "e"}, got)

	assert.ErrorIs(t, b.InsertLines(9, []string{"z"}), ErrOutOfRange)
}

func TestBuffer_SetLine(t *testing.T) {
	b := NewFromString("a")
	require.NoError(t, b.SetLine(0, "a"))
	assert.False(t, b.Modified(), "identical text is not a modification")

	require.NoError(t, b.SetLine(0, "b"))
	assert.True(t, b.Modified())
	assert.ErrorIs(t, b.SetLine(1, "c"), ErrOutOfRange)
}

func TestBuffer_LoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o644))

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, b.Path())
	assert.Equal(t, 2, b.LineCount())

	require.NoError(t, b.SetLine(0, "uno"))
	lines, size, err := b.Save("")
	require.NoError(t, err)
	assert.Equal(t, 2, lines)
	assert.Equal(t, len("uno\ntwo\n"), size)
	assert.False(t, b.Modified())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "uno\ntwo\n", string(data))
}

func TestBuffer_SaveElsewhereKeepsModified(t *testing.T) {
	dir := t.TempDir()
	b, err := Load(filepath.Join(dir, "new.txt"))
	require.NoError(t, err)
	require.NoError(t, b.SetLine(0, "text"))

	_, _, err = b.Save(filepath.Join(dir, "copy.txt"))
	require.NoError(t, err)
	assert.True(t, b.Modified())
}

func TestBuffer_SaveWithoutPath(t *testing.T) {
	_, _, err := New().Save("")
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestBuffer_SaveRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.txt")
	b := NewFromString("a\nb\nc\n")
	require.NoError(t, b.SetLine(0, "A"))

	lines, size, err := b.SaveRange(path, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, lines)
	assert.Equal(t, 4, size)
	assert.Empty(t, b.Path())
	assert.True(t, b.Modified())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b\nc\n", string(data))

	_, _, err = b.SaveRange("", 0, 1)
	assert.ErrorIs(t, err, ErrNoPath)
	_, _, err = b.SaveRange(path, 2, 9)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
