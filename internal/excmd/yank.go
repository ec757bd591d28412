package excmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/exline/internal/editor"
)

// Yank is :[range]y[ank] [x] [count].
type Yank struct {
	Register rune
	Count    int
}

func newYank(a args) (Command, error) {
	reg, count, err := parseRegisterCount(a.Text)
	if err != nil {
		return nil, err
	}
	return &Yank{Register: reg, Count: count}, nil
}

func (*Yank) Name() string { return "yank" }

func (*Yank) DelegationCapable() bool { return false }

func (y *Yank) Execute(ctx context.Context, st *editor.State) error {
	return y.ExecuteWithRange(ctx, st, CurrentLine())
}

func (y *Yank) ExecuteWithRange(_ context.Context, st *editor.State, r LineRange) error {
	start, end, err := resolveLines(st, r)
	if err != nil {
		return err
	}
	start, end = countRange(start, end, y.Count, st.Buffer.LineCount())

	lines, err := st.Buffer.Lines(start-1, end)
	if err != nil {
		return err
	}
	if err := st.Registers.SetYank(y.Register, strings.Join(lines, "\n"), true); err != nil {
		return err
	}

	if n := len(lines); n > reportThreshold {
		st.SetStatus(fmt.Sprintf("%d lines yanked", n), false)
	}
	return nil
}
