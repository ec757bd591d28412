package excmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dshills/exline/internal/register"
)

// args carries what follows a command name.
type args struct {
	// Name is the command name as typed (possibly abbreviated).
	Name string
	// Bang is set when the name was followed by "!".
	Bang bool
	// Text is the trimmed argument text.
	Text string
	// Raw is the argument text exactly as typed.
	Raw string
}

func (a args) noArgs() error {
	if a.Text != "" {
		return NewError(TrailingCharacters, a.Text)
	}
	return nil
}

type builder func(a args) (Command, error)

// entry describes one command family: its full name, the shortest accepted
// abbreviation, and whether it accepts "!".
type entry struct {
	name    string
	minLen  int
	bang    bool
	rawArgs bool
	build   builder
}

func (e entry) matches(name string) bool {
	return len(name) >= e.minLen && strings.HasPrefix(e.name, name)
}

// Parser turns command lines into commands.
// The zero value is not usable; use NewParser.
type Parser struct {
	entries []entry
}

// NewParser creates a parser with the built-in command table.
func NewParser() *Parser {
	return &Parser{entries: []entry{
		{name: "delete", minLen: 1, build: newDelete},
		{name: "display", minLen: 2, build: newRegisters},
		{name: "exit", minLen: 3, bang: true, build: newExit},
		{name: "history", minLen: 3, build: newHistory},
		{name: "join", minLen: 1, bang: true, build: newJoin},
		{name: "k", minLen: 1, build: newMark},
		{name: "lua", minLen: 3, rawArgs: true, build: newLua},
		{name: "mark", minLen: 2, build: newMark},
		{name: "put", minLen: 2, bang: true, build: newPut},
		{name: "quit", minLen: 1, bang: true, build: newQuit},
		{name: "registers", minLen: 3, build: newRegisters},
		{name: "sort", minLen: 3, bang: true, build: newSort},
		{name: "substitute", minLen: 1, rawArgs: true, build: newSubstitute},
		{name: "wq", minLen: 2, bang: true, build: newWriteQuit},
		{name: "write", minLen: 1, bang: true, build: newWrite},
		{name: "xit", minLen: 1, bang: true, build: newExit},
		{name: "yank", minLen: 1, build: newYank},
	}}
}

var defaultParser = NewParser()

// Parse parses raw with the built-in command table.
func Parse(raw string) (*Parsed, error) {
	return defaultParser.Parse(raw)
}

// Names returns the full names of all known commands, sorted.
func (p *Parser) Names() []string {
	names := make([]string, len(p.entries))
	for i, e := range p.entries {
		names[i] = e.name
	}
	sort.Strings(names)
	return names
}

// Parse parses one command line. Leading colons and blanks are ignored.
// Failures are returned as *Error; an unknown command name yields code
// NotAnEditorCommand.
func (p *Parser) Parse(raw string) (*Parsed, error) {
	s := strings.TrimLeft(raw, " \t:")

	rng, rest, err := ParseRange(s)
	if err != nil {
		return nil, err
	}
	rest = strings.TrimLeft(rest, " \t")

	if rest == "" {
		if rng != nil {
			return &Parsed{Range: rng, Command: Goto{}}, nil
		}
		return &Parsed{Command: Nop{}}, nil
	}

	name := leadingLetters(rest)
	if name == "" {
		return nil, NewError(NotAnEditorCommand, s)
	}
	e, ok := p.lookup(name)
	if !ok && len(name) == 2 && name[0] == 'k' {
		// :ka is :k a.
		name = "k"
		e, ok = p.lookup(name)
	}
	if !ok {
		return nil, NewError(NotAnEditorCommand, s)
	}

	a := args{Name: name, Raw: rest[len(name):]}
	if !e.rawArgs && strings.HasPrefix(a.Raw, "!") {
		if !e.bang {
			return nil, NewError(NoBangAllowed, "")
		}
		a.Bang = true
		a.Raw = a.Raw[1:]
	}
	a.Text = strings.TrimSpace(a.Raw)

	cmd, err := e.build(a)
	if err != nil {
		return nil, err
	}
	return &Parsed{Range: rng, Command: cmd}, nil
}

func (p *Parser) lookup(name string) (entry, bool) {
	for _, e := range p.entries {
		if e.matches(name) {
			return e, true
		}
	}
	return entry{}, false
}

func leadingLetters(s string) string {
	i := 0
	for i < len(s) && (s[i] >= 'a' && s[i] <= 'z' || s[i] >= 'A' && s[i] <= 'Z') {
		i++
	}
	return s[:i]
}

// parseRegisterCount parses the "[x] [count]" arguments of :delete and
// :yank. A leading digit starts the count, not a register.
func parseRegisterCount(text string) (reg rune, count int, err error) {
	if text == "" {
		return 0, 0, nil
	}
	r, size := utf8.DecodeRuneInString(text)
	if r < '0' || r > '9' {
		if err := checkWritableRegister(r); err != nil {
			return 0, 0, err
		}
		reg = r
		text = strings.TrimSpace(text[size:])
	}
	if text == "" {
		return reg, 0, nil
	}
	count, convErr := strconv.Atoi(text)
	if convErr != nil {
		return 0, 0, NewError(TrailingCharacters, text)
	}
	if count <= 0 {
		return 0, 0, NewError(InvalidArgument, text)
	}
	return reg, count, nil
}

// parseRegister parses a lone optional register argument.
func parseRegister(text string) (rune, error) {
	if text == "" {
		return 0, nil
	}
	r, size := utf8.DecodeRuneInString(text)
	if rest := strings.TrimSpace(text[size:]); rest != "" {
		return 0, NewError(TrailingCharacters, rest)
	}
	if !register.IsValid(r) {
		return 0, invalidRegister(r)
	}
	return r, nil
}

func checkWritableRegister(r rune) error {
	typ, ok := register.TypeOf(r)
	if !ok || typ == register.TypeCommand || typ == register.TypeSearch {
		return invalidRegister(r)
	}
	return nil
}

func invalidRegister(r rune) error {
	return NewError(InvalidRegisterName, fmt.Sprintf("'%c'", r))
}

// countRange applies a trailing count: the range becomes count lines
// starting at its last line, clamped to the buffer.
func countRange(start, end, count, lineCount int) (int, int) {
	if count <= 0 {
		return start, end
	}
	start = end
	end = start + count - 1
	if end > lineCount {
		end = lineCount
	}
	return start, end
}
