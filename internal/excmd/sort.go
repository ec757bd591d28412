package excmd

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dshills/exline/internal/editor"
)

// Sort is :[range]sor[t][!] [n][i][u]. It sorts the whole buffer when no
// range is given; "!" reverses the order.
type Sort struct {
	Reverse    bool
	Numeric    bool
	IgnoreCase bool
	Unique     bool
}

func newSort(a args) (Command, error) {
	s := &Sort{Reverse: a.Bang}
	for _, c := range strings.ReplaceAll(a.Text, " ", "") {
		switch c {
		case 'n':
			s.Numeric = true
		case 'i':
			s.IgnoreCase = true
		case 'u':
			s.Unique = true
		default:
			return nil, NewError(InvalidArgument, a.Text)
		}
	}
	return s, nil
}

func (*Sort) Name() string { return "sort" }

func (*Sort) DelegationCapable() bool { return true }

func (s *Sort) Execute(ctx context.Context, st *editor.State) error {
	return s.ExecuteWithRange(ctx, st, WholeFile())
}

func (s *Sort) ExecuteWithRange(_ context.Context, st *editor.State, r LineRange) error {
	start, end, err := resolveLines(st, r)
	if err != nil {
		return err
	}
	lines, err := st.Buffer.Lines(start-1, end)
	if err != nil {
		return err
	}

	keys := make([]sortKey, len(lines))
	for i, line := range lines {
		keys[i] = s.keyOf(line)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if s.Reverse {
			return s.less(keys[j], keys[i])
		}
		return s.less(keys[i], keys[j])
	})

	out := make([]string, 0, len(keys))
	for i, k := range keys {
		if s.Unique && i > 0 && s.equal(keys[i-1], k) {
			continue
		}
		out = append(out, k.line)
	}

	if err := st.Buffer.ReplaceLines(start-1, end, out); err != nil {
		return err
	}
	st.SetCursor(start)
	return nil
}

type sortKey struct {
	line   string
	text   string
	num    int64
	hasNum bool
}

var numberPattern = regexp.MustCompile(`-?\d+`)

func (s *Sort) keyOf(line string) sortKey {
	k := sortKey{line: line, text: line}
	if s.IgnoreCase {
		k.text = strings.ToLower(line)
	}
	if s.Numeric {
		if m := numberPattern.FindString(line); m != "" {
			if n, err := strconv.ParseInt(m, 10, 64); err == nil {
				k.num, k.hasNum = n, true
			}
		}
	}
	return k
}

// less orders numeric keys by value, with lines lacking a number first.
func (s *Sort) less(a, b sortKey) bool {
	if s.Numeric {
		if a.hasNum != b.hasNum {
			return !a.hasNum
		}
		return a.num < b.num
	}
	return a.text < b.text
}

func (s *Sort) equal(a, b sortKey) bool {
	if s.Numeric {
		return a.hasNum == b.hasNum && a.num == b.num
	}
	return a.text == b.text
}
