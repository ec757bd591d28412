package excmd

import (
	"context"
	"strings"

	"github.com/dshills/exline/internal/editor"
)

// Join is :[range]j[oin][!] [count]. Without "!" leading whitespace of each
// joined line is removed and a single space inserted, unless either side is
// empty, the line already ends in a blank, or the next one starts with ")".
type Join struct {
	Keep  bool
	Count int
}

func newJoin(a args) (Command, error) {
	reg, count, err := parseRegisterCount(a.Text)
	if err != nil {
		return nil, err
	}
	if reg != 0 {
		return nil, NewError(TrailingCharacters, a.Text)
	}
	return &Join{Keep: a.Bang, Count: count}, nil
}

func (*Join) Name() string { return "join" }

func (*Join) DelegationCapable() bool { return false }

// Execute joins the current line with the next one.
func (j *Join) Execute(ctx context.Context, st *editor.State) error {
	return j.ExecuteWithRange(ctx, st, CurrentLine())
}

func (j *Join) ExecuteWithRange(_ context.Context, st *editor.State, r LineRange) error {
	start, end, err := resolveLines(st, r)
	if err != nil {
		return err
	}
	count := st.Buffer.LineCount()
	switch {
	case j.Count > 0:
		start = end
		end = start + j.Count - 1
	case start == end:
		end = start + 1
	}
	if end > count {
		end = count
	}
	if start >= end {
		// Nothing to join with; Vim leaves the buffer as is.
		return nil
	}

	lines, err := st.Buffer.Lines(start-1, end)
	if err != nil {
		return err
	}
	joined := joinLines(lines, j.Keep)
	if err := st.Buffer.ReplaceLines(start-1, end, []string{joined}); err != nil {
		return err
	}
	st.SetCursor(start)
	return nil
}

func joinLines(lines []string, keep bool) string {
	if keep {
		return strings.Join(lines, "")
	}
	out := lines[0]
	for _, next := range lines[1:] {
		next = strings.TrimLeft(next, " \t")
		if next != "" && out != "" && !strings.HasSuffix(out, " ") &&
			!strings.HasSuffix(out, "\t") && !strings.HasPrefix(next, ")") {
			out += " "
		}
		out += next
	}
	return out
}
