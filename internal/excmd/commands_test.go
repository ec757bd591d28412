package excmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/exline/internal/buffer"
	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/register"
)

// run parses and executes input the way the command-line engine does.
func run(t *testing.T, st *editor.State, input string) error {
	t.Helper()
	p, err := Parse(input)
	require.NoError(t, err, input)
	if p.Range != nil {
		return p.Command.ExecuteWithRange(context.Background(), st, *p.Range)
	}
	return p.Command.Execute(context.Background(), st)
}

func assertCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	got, ok := CodeOf(err)
	require.True(t, ok, "expected Ex error, got %v", err)
	assert.Equal(t, code, got)
}

func TestGoto(t *testing.T) {
	st := newTestState("a\nb\nc\nd")
	require.NoError(t, run(t, st, "3"))
	assert.Equal(t, 3, st.Cursor())
	require.NoError(t, run(t, st, "$"))
	assert.Equal(t, 4, st.Cursor())
	require.NoError(t, run(t, st, "0"))
	assert.Equal(t, 1, st.Cursor())
	assertCode(t, run(t, st, "9"), InvalidRange)
}

func TestDelete(t *testing.T) {
	st := newTestState("1\n2\n3\n4\n5")

	require.NoError(t, run(t, st, "2,4d"))
	assert.Equal(t, "1\n5\n", st.Buffer.Text())
	assert.Equal(t, 2, st.Cursor())

	reg, _ := st.Registers.Get(register.Unnamed)
	assert.Equal(t, "2\n3\n4", reg.Content)
	assert.True(t, reg.Linewise)
	numbered, _ := st.Registers.Get('1')
	assert.Equal(t, "2\n3\n4", numbered.Content)

	text, isErr := st.Status()
	assert.Equal(t, "3 fewer lines", text)
	assert.False(t, isErr)
}

func TestDelete_RegisterAndCount(t *testing.T) {
	st := newTestState("1\n2\n3\n4\n5")
	st.SetCursor(2)

	require.NoError(t, run(t, st, "d a 2"))
	assert.Equal(t, "1\n4\n5\n", st.Buffer.Text())
	reg, _ := st.Registers.Get('a')
	assert.Equal(t, "2\n3", reg.Content)

	require.NoError(t, run(t, st, "$d 10"))
	assert.Equal(t, "1\n4\n", st.Buffer.Text())
	assert.Equal(t, 2, st.Cursor())
}

func TestYankAndPut(t *testing.T) {
	st := newTestState("one\ntwo\nthree")

	require.NoError(t, run(t, st, "1,2y b"))
	assert.Equal(t, "one\ntwo\nthree\n", st.Buffer.Text())
	reg, _ := st.Registers.Get('b')
	assert.Equal(t, "one\ntwo", reg.Content)

	require.NoError(t, run(t, st, "$pu b"))
	assert.Equal(t, "one\ntwo\nthree\none\ntwo\n", st.Buffer.Text())
	assert.Equal(t, 5, st.Cursor())

	require.NoError(t, run(t, st, "0pu b"))
	assert.Equal(t, "one\ntwo\none\ntwo\nthree\none\ntwo\n", st.Buffer.Text())

	require.NoError(t, run(t, st, "3y"))
	require.NoError(t, run(t, st, "1pu!"))
	assert.Equal(t, "one\none\ntwo\none\ntwo\nthree\none\ntwo\n", st.Buffer.Text())
	assert.Equal(t, 1, st.Cursor())
}

func TestYank_ReportsLargeYanks(t *testing.T) {
	st := newTestState("a\nb\nc")
	require.NoError(t, run(t, st, "%y"))
	text, _ := st.Status()
	assert.Equal(t, "3 lines yanked", text)
	last, _ := st.Registers.Get(register.LastYank)
	assert.Equal(t, "a\nb\nc", last.Content)
}

func TestPut_EmptyRegister(t *testing.T) {
	st := newTestState("a")
	err := run(t, st, "pu z")
	assertCode(t, err, NothingInRegister)
	assert.Equal(t, "E353: Nothing in register: z", err.Error())
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name  string
		input string
		text  string
		cmd   string
		want  string
	}{
		{name: "current with next", text: "a\n   b\nc", cmd: "j", want: "a b\nc\n"},
		{name: "range", text: "a\nb\nc\nd", cmd: "1,3j", want: "a b c\nd\n"},
		{name: "keep whitespace", text: "a\n  b", cmd: "j!", want: "a  b\n"},
		{name: "paren", text: "f(x\n)", cmd: "j", want: "f(x)\n"},
		{name: "trailing blank", text: "a \nb", cmd: "j", want: "a b\n"},
		{name: "empty line", text: "\nb", cmd: "j", want: "b\n"},
		{name: "count", text: "a\nb\nc\nd", cmd: "j 3", want: "a b c\nd\n"},
		{name: "last line", text: "a\nb", cmd: "$j", want: "a\nb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestState(tt.text)
			require.NoError(t, run(t, st, tt.cmd))
			assert.Equal(t, tt.want, st.Buffer.Text())
		})
	}
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name string
		text string
		cmd  string
		want string
	}{
		{name: "first match", text: "aaa", cmd: "s/a/b/", want: "baa\n"},
		{name: "global", text: "aaa", cmd: "s/a/b/g", want: "bbb\n"},
		{name: "whole file", text: "foo\nbar\nfoo", cmd: "%s/foo/x/", want: "x\nbar\nx\n"},
		{name: "ignore case", text: "Foo", cmd: "s/foo/bar/i", want: "bar\n"},
		{name: "embedded case flag", text: "Foo", cmd: `s/\cfoo/bar/`, want: "bar\n"},
		{name: "ampersand", text: "cat", cmd: "s/cat/[&]/", want: "[cat]\n"},
		{name: "groups", text: "john smith", cmd: `s/\(\w\+\) \(\w\+\)/\2, \1/`, want: "smith, john\n"},
		{name: "alternation", text: "red blue", cmd: `s/red\|blue/c/g`, want: "c c\n"},
		{name: "literal parens", text: "f(x)", cmd: "s/(x)/[y]/", want: "f[y]\n"},
		{name: "word boundary", text: "cat concat", cmd: `s/\<cat\>/dog/g`, want: "dog concat\n"},
		{name: "counted repeat", text: "aaab", cmd: `s/a\{2}/x/`, want: "xab\n"},
		{name: "dollar in replacement", text: "5", cmd: `s/5/$5/`, want: "$5\n"},
		{name: "split line", text: "a,b", cmd: `s/,/\r/`, want: "a\nb\n"},
		{name: "other delimiter", text: "/usr/bin", cmd: "s#/usr#/opt#", want: "/opt/bin\n"},
		{name: "count", text: "a\na\na", cmd: "s/a/b/ 2", want: "b\nb\na\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestState(tt.text)
			require.NoError(t, run(t, st, tt.cmd))
			assert.Equal(t, tt.want, st.Buffer.Text())
		})
	}
}

func TestSubstitute_StatusAndCursor(t *testing.T) {
	st := newTestState("x\nx\ny\nx")
	require.NoError(t, run(t, st, "%s/x/z/"))
	assert.Equal(t, "z\nz\ny\nz\n", st.Buffer.Text())
	assert.Equal(t, 4, st.Cursor())
	text, _ := st.Status()
	assert.Equal(t, "3 substitutions on 3 lines", text)
}

func TestSubstitute_CountOnly(t *testing.T) {
	st := newTestState("aa\nb\na")
	require.NoError(t, run(t, st, "%s/a//gn"))
	assert.Equal(t, "aa\nb\na\n", st.Buffer.Text())
	text, _ := st.Status()
	assert.Equal(t, "3 matches on 2 lines", text)
}

func TestSubstitute_Errors(t *testing.T) {
	st := newTestState("abc")

	err := run(t, st, "s/zzz/y/")
	assertCode(t, err, PatternNotFound)
	assert.Equal(t, "E486: Pattern not found: zzz", err.Error())

	require.NoError(t, run(t, st, "s/zzz/y/e"))

	assertCode(t, run(t, st, "s/a[/y/"), InvalidPattern)
}

func TestSubstitute_ReusesSearchRegister(t *testing.T) {
	st := newTestState("abc\nabc")
	assertCode(t, run(t, st, "s//x/"), NoPreviousRegex)

	require.NoError(t, run(t, st, "s/b/B/"))
	rec, ok := st.Registers.Recorded(register.Search)
	require.True(t, ok)
	assert.Equal(t, "b", rec.Text())

	require.NoError(t, run(t, st, "2s//X/"))
	assert.Equal(t, "aBc\naXc\n", st.Buffer.Text())
}

func TestSort(t *testing.T) {
	tests := []struct {
		name string
		text string
		cmd  string
		want string
	}{
		{name: "default whole file", text: "c\na\nb", cmd: "sort", want: "a\nb\nc\n"},
		{name: "reverse", text: "c\na\nb", cmd: "sort!", want: "c\nb\na\n"},
		{name: "range", text: "z\nc\na\nb", cmd: "2,$sort", want: "z\na\nb\nc\n"},
		{name: "ignore case", text: "b\nA\nC", cmd: "sort i", want: "A\nb\nC\n"},
		{name: "case sensitive", text: "b\nA\nC", cmd: "sort", want: "A\nC\nb\n"},
		{name: "numeric", text: "x10\nx9\nnone\nx-1", cmd: "sort n", want: "none\nx-1\nx9\nx10\n"},
		{name: "unique", text: "b\na\nb\na", cmd: "sort u", want: "a\nb\n"},
		{name: "unique ignore case", text: "a\nA\nb", cmd: "sort ui", want: "a\nb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestState(tt.text)
			require.NoError(t, run(t, st, tt.cmd))
			assert.Equal(t, tt.want, st.Buffer.Text())
		})
	}
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	st := newTestState("a\nb\nc")

	assertCode(t, run(t, st, "w"), NoFileName)

	require.NoError(t, run(t, st, "w "+path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(data))
	assert.Equal(t, path, st.Buffer.Path())

	text, isErr := st.Status()
	assert.Equal(t, "\""+path+"\" 3L, 6B written", text)
	assert.False(t, isErr)
}

func TestWrite_PartialRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\n"), 0o644))
	buf, err := buffer.Load(path)
	require.NoError(t, err)
	st := editor.NewState(buf, nil)

	assertCode(t, run(t, st, "1,2w"), PartialWrite)

	part := filepath.Join(dir, "part.txt")
	require.NoError(t, run(t, st, "2,3w "+part))
	data, err := os.ReadFile(part)
	require.NoError(t, err)
	assert.Equal(t, "b\nc\n", string(data))

	require.NoError(t, run(t, st, "1w!"))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(data))

	st2 := newTestState("a\nb")
	assertCode(t, run(t, st2, "1w"), NoFileName)
}

func TestQuitFamily(t *testing.T) {
	st := newTestState("a")
	require.NoError(t, run(t, st, "q"))
	assert.True(t, st.QuitRequested())

	st = newTestState("a")
	require.NoError(t, st.Buffer.SetLine(0, "b"))
	assertCode(t, run(t, st, "q"), NoWriteSinceLastChange)
	assert.False(t, st.QuitRequested())
	require.NoError(t, run(t, st, "q!"))
	assert.True(t, st.QuitRequested())
}

func TestWriteQuitAndExit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")

	st := newTestState("a")
	require.NoError(t, run(t, st, "wq "+path))
	assert.True(t, st.QuitRequested())
	_, err := os.Stat(path)
	require.NoError(t, err)

	// Unmodified and unnamed: nothing to write, still quits.
	st = newTestState("a")
	require.NoError(t, run(t, st, "x"))
	assert.True(t, st.QuitRequested())

	st = newTestState("a")
	require.NoError(t, st.Buffer.SetLine(0, "b"))
	assertCode(t, run(t, st, "x"), NoFileName)
	assert.False(t, st.QuitRequested())
}

func TestRegisters(t *testing.T) {
	st := newTestState("a")
	require.NoError(t, st.Registers.Set('a', "hello", false))
	require.NoError(t, st.Registers.SetReadonly(register.Command, register.NewRecordedState(register.Command, "w")))

	require.NoError(t, run(t, st, "reg"))
	text, _ := st.Status()
	assert.Equal(t, "--- Registers ---\n  c  \"a   hello\n  c  \":   w", text)

	require.NoError(t, run(t, st, "di :"))
	text, _ = st.Status()
	assert.Equal(t, "--- Registers ---\n  c  \":   w", text)
}

type historyEntries []string

func (h historyEntries) Entries() []string { return h }

func TestHistory(t *testing.T) {
	st := newTestState("a")
	st.History = historyEntries{"w", "his"}

	require.NoError(t, run(t, st, "his"))
	text, _ := st.Status()
	assert.Equal(t, "      #  cmd history\n      1  w\n>     2  his", text)
}

func TestLua_NotAvailableLocally(t *testing.T) {
	st := newTestState("a")
	err := run(t, st, "lua print('x')")
	assertCode(t, err, NotAvailable)
}

func TestMark(t *testing.T) {
	st := newTestState("a\nb\nc\nd\ne")
	st.SetCursor(2)

	require.NoError(t, run(t, st, "mark a"))
	require.NoError(t, run(t, st, "4kb"))
	require.NoError(t, run(t, st, "1,3ma <"))
	require.NoError(t, run(t, st, "$k >"))

	line, ok := st.Mark('a')
	require.True(t, ok)
	assert.Equal(t, 2, line)
	line, ok = st.Mark('b')
	require.True(t, ok)
	assert.Equal(t, 4, line)
	line, _ = st.Mark('<')
	assert.Equal(t, 3, line)

	require.NoError(t, run(t, st, "'a,'bd"))
	assert.Equal(t, "a\ne\n", st.Buffer.Text())

	st = newTestState("a\nb\nc\nd\ne")
	st.SetMark('<', 2)
	st.SetMark('>', 4)
	require.NoError(t, run(t, st, "'<,'>d"))
	assert.Equal(t, "a\ne\n", st.Buffer.Text())
}

func TestMark_Errors(t *testing.T) {
	tests := []struct {
		input string
		code  ErrorCode
	}{
		{input: "mark", code: ArgumentRequired},
		{input: "mark 1", code: MarkNameInvalid},
		{input: "k ab", code: TrailingCharacters},
		{input: "kab", code: NotAnEditorCommand},
	}
	for _, tt := range tests {
		_, err := Parse(tt.input)
		assertCode(t, err, tt.code)
	}

	st := newTestState("a")
	err := run(t, st, "'q")
	assertCode(t, err, MarkNotSet)
}
