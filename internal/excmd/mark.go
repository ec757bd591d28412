package excmd

import (
	"context"
	"unicode/utf8"

	"github.com/dshills/exline/internal/editor"
)

// Mark is :[range]ma[rk] {x} and :[range]k{x}. The mark is set on the last
// line of the range.
type Mark struct {
	Mark rune
}

func newMark(a args) (Command, error) {
	if a.Text == "" {
		return nil, NewError(ArgumentRequired, "")
	}
	r, size := utf8.DecodeRuneInString(a.Text)
	if !IsMarkName(r) {
		return nil, NewError(MarkNameInvalid, "")
	}
	if rest := a.Text[size:]; rest != "" {
		return nil, NewError(TrailingCharacters, rest)
	}
	return &Mark{Mark: r}, nil
}

// IsMarkName reports whether r can be set with :mark.
func IsMarkName(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r == '<', r == '>', r == '\'', r == '`':
		return true
	}
	return false
}

func (*Mark) Name() string { return "mark" }

func (*Mark) DelegationCapable() bool { return false }

func (m *Mark) Execute(ctx context.Context, st *editor.State) error {
	return m.ExecuteWithRange(ctx, st, CurrentLine())
}

func (m *Mark) ExecuteWithRange(_ context.Context, st *editor.State, r LineRange) error {
	_, end, err := r.Resolve(st)
	if err != nil {
		return err
	}
	if end == 0 {
		return NewError(InvalidRange, "")
	}
	name := m.Mark
	if name == '`' {
		name = '\''
	}
	st.SetMark(name, end)
	return nil
}
