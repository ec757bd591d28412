package excmd

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/register"
)

// Substitute is :[range]s[ubstitute]/{pattern}/{string}/[flags] [count].
//
// Patterns use Vim's magic syntax and are translated to RE2. An empty
// pattern reuses the last search pattern held in the "/" register.
type Substitute struct {
	Pattern     string
	Replacement string
	Global      bool
	IgnoreCase  bool
	MatchCase   bool
	Silent      bool
	CountOnly   bool
	Count       int
}

func newSubstitute(a args) (Command, error) {
	raw := strings.TrimLeft(a.Raw, " \t")
	s := &Substitute{}
	if raw == "" {
		return s, nil
	}

	delim, size := utf8.DecodeRuneInString(raw)
	if unicode.IsLetter(delim) || unicode.IsDigit(delim) || unicode.IsSpace(delim) ||
		delim == '\\' || delim == '"' || delim == '|' {
		return nil, NewError(TrailingCharacters, raw)
	}
	rest := raw[size:]

	var closed bool
	s.Pattern, rest, closed = splitField(rest, delim)
	if closed {
		s.Replacement, rest, closed = splitField(rest, delim)
	}
	if !closed {
		return s, nil
	}
	return s, s.parseFlags(rest)
}

func (s *Substitute) parseFlags(text string) error {
	i := 0
flags:
	for ; i < len(text); i++ {
		switch text[i] {
		case 'g':
			s.Global = true
		case 'i':
			s.IgnoreCase = true
		case 'I':
			s.MatchCase = true
		case 'e':
			s.Silent = true
		case 'n':
			s.CountOnly = true
		case '&':
			// Keeping previous flags: there are none to keep.
		default:
			break flags
		}
	}
	rest := strings.TrimSpace(text[i:])
	if rest == "" {
		return nil
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return NewError(TrailingCharacters, rest)
	}
	if n <= 0 {
		return NewError(InvalidArgument, rest)
	}
	s.Count = n
	return nil
}

// splitField reads up to the next unescaped delim. An escaped delimiter
// becomes the delimiter itself; other escapes are kept.
func splitField(s string, delim rune) (field, rest string, closed bool) {
	var sb strings.Builder
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == delim:
			return sb.String(), s[i+size:], true
		case r == '\\' && i+size < len(s):
			next, nsize := utf8.DecodeRuneInString(s[i+size:])
			if next != delim {
				sb.WriteRune('\\')
			}
			sb.WriteRune(next)
			i += size + nsize
			continue
		default:
			sb.WriteRune(r)
		}
		i += size
	}
	return sb.String(), "", false
}

func (*Substitute) Name() string { return "substitute" }

// DelegationCapable reports true: an external interpreter may implement a
// richer pattern dialect.
func (*Substitute) DelegationCapable() bool { return true }

func (s *Substitute) Execute(ctx context.Context, st *editor.State) error {
	return s.ExecuteWithRange(ctx, st, CurrentLine())
}

func (s *Substitute) ExecuteWithRange(_ context.Context, st *editor.State, r LineRange) error {
	start, end, err := resolveLines(st, r)
	if err != nil {
		return err
	}
	start, end = countRange(start, end, s.Count, st.Buffer.LineCount())

	pattern := s.Pattern
	if pattern == "" {
		prev, ok := st.Registers.Get(register.Search)
		if !ok || prev.Content == "" {
			return NewError(NoPreviousRegex, "")
		}
		pattern = prev.Content
	}
	re, err := compilePattern(pattern, s.IgnoreCase, s.MatchCase)
	if err != nil {
		return err
	}
	if err := st.Registers.SetReadonly(register.Search, register.NewRecordedState(register.Search, pattern)); err != nil {
		return err
	}
	template := translateReplacement(s.Replacement)

	lines, err := st.Buffer.Lines(start-1, end)
	if err != nil {
		return err
	}

	var (
		out          []string
		matches      int
		changedLines int
		lastChanged  int
	)
	for _, line := range lines {
		replaced, n := s.replaceLine(re, template, line)
		if n == 0 {
			out = append(out, line)
			continue
		}
		matches += n
		changedLines++
		if s.CountOnly {
			out = append(out, line)
			continue
		}
		parts := strings.Split(replaced, "\n")
		out = append(out, parts...)
		lastChanged = start - 1 + len(out)
	}

	if matches == 0 {
		if s.Silent {
			return nil
		}
		return NewError(PatternNotFound, pattern)
	}
	if s.CountOnly {
		st.SetStatus(fmt.Sprintf("%d matches on %d lines", matches, changedLines), false)
		return nil
	}

	if err := st.Buffer.ReplaceLines(start-1, end, out); err != nil {
		return err
	}
	st.SetCursor(lastChanged)
	if changedLines > reportThreshold {
		st.SetStatus(fmt.Sprintf("%d substitutions on %d lines", matches, changedLines), false)
	}
	return nil
}

func (s *Substitute) replaceLine(re *regexp.Regexp, template, line string) (string, int) {
	limit := 1
	if s.Global {
		limit = -1
	}
	locs := re.FindAllStringSubmatchIndex(line, limit)
	if len(locs) == 0 {
		return line, 0
	}
	var dst []byte
	last := 0
	for _, loc := range locs {
		dst = append(dst, line[last:loc[0]]...)
		dst = re.ExpandString(dst, template, line, loc)
		last = loc[1]
	}
	dst = append(dst, line[last:]...)
	return string(dst), len(locs)
}

// compilePattern translates a Vim magic pattern to RE2 and compiles it.
func compilePattern(pattern string, ignoreCase, matchCase bool) (*regexp.Regexp, error) {
	expr, flagCase := translatePattern(pattern)
	if flagCase != 0 {
		ignoreCase = flagCase < 0
		matchCase = flagCase > 0
	}
	if ignoreCase && !matchCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, NewError(InvalidPattern, pattern)
	}
	return re, nil
}

// translatePattern rewrites Vim's magic syntax into RE2 syntax. caseFlag is
// -1 for an embedded \c, +1 for \C and 0 otherwise.
func translatePattern(p string) (expr string, caseFlag int) {
	var sb strings.Builder
	inCount := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '}' && inCount {
			sb.WriteByte('}')
			inCount = false
			continue
		}
		if c != '\\' {
			switch c {
			case '(', ')', '|', '+', '?', '{', '}':
				sb.WriteByte('\\')
			}
			sb.WriteByte(c)
			continue
		}
		if i+1 == len(p) {
			sb.WriteString(`\\`)
			break
		}
		i++
		switch e := p[i]; e {
		case '(', ')', '|', '+', '?':
			sb.WriteByte(e)
		case '}':
			sb.WriteByte(e)
			inCount = false
		case '=':
			sb.WriteByte('?')
		case '{':
			sb.WriteByte('{')
			inCount = true
			if i+1 < len(p) && p[i+1] == '-' {
				// Non-greedy counts have no RE2 spelling; use the greedy form.
				i++
			}
		case '<', '>':
			sb.WriteString(`\b`)
		case 'c':
			caseFlag = -1
		case 'C':
			caseFlag = 1
		case 's', 'S', 'd', 'D', 'w', 'W', 't', 'n', '.', '*', '[', ']', '^', '$', '\\', '/':
			sb.WriteByte('\\')
			sb.WriteByte(e)
		default:
			sb.WriteString(regexp.QuoteMeta(string(e)))
		}
	}
	return sb.String(), caseFlag
}

// translateReplacement rewrites a Vim replacement string into a template for
// regexp.Expand. "\r" and "\n" become line breaks.
func translateReplacement(r string) string {
	var sb strings.Builder
	for i := 0; i < len(r); i++ {
		c := r[i]
		switch {
		case c == '$':
			sb.WriteString("$$")
		case c == '&':
			sb.WriteString("${0}")
		case c == '\\' && i+1 < len(r):
			i++
			switch e := r[i]; {
			case e >= '0' && e <= '9':
				sb.WriteString("${" + string(e) + "}")
			case e == 'r' || e == 'n':
				sb.WriteByte('\n')
			case e == 't':
				sb.WriteByte('\t')
			case e == '$':
				sb.WriteString("$$")
			default:
				sb.WriteByte(e)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
