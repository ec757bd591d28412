package excmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/exline/internal/editor"
)

// reportThreshold is the number of changed lines above which a command
// reports the change on the status line.
const reportThreshold = 2

// Delete is :[range]d[elete] [x] [count].
type Delete struct {
	Register rune
	Count    int
}

func newDelete(a args) (Command, error) {
	reg, count, err := parseRegisterCount(a.Text)
	if err != nil {
		return nil, err
	}
	return &Delete{Register: reg, Count: count}, nil
}

func (*Delete) Name() string { return "delete" }

func (*Delete) DelegationCapable() bool { return false }

func (d *Delete) Execute(ctx context.Context, st *editor.State) error {
	return d.ExecuteWithRange(ctx, st, CurrentLine())
}

func (d *Delete) ExecuteWithRange(_ context.Context, st *editor.State, r LineRange) error {
	start, end, err := resolveLines(st, r)
	if err != nil {
		return err
	}
	start, end = countRange(start, end, d.Count, st.Buffer.LineCount())

	removed, err := st.Buffer.DeleteLines(start-1, end)
	if err != nil {
		return err
	}
	if err := st.Registers.SetDelete(d.Register, strings.Join(removed, "\n"), true); err != nil {
		return err
	}

	st.SetCursor(start)
	if n := len(removed); n > reportThreshold {
		st.SetStatus(fmt.Sprintf("%d fewer lines", n), false)
	}
	return nil
}
