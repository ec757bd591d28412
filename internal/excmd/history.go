package excmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/exline/internal/editor"
)

// History is :his[tory] [cmd|:|all]. Only command-line history exists.
type History struct{}

func newHistory(a args) (Command, error) {
	switch a.Text {
	case "", "cmd", ":", "all":
		return History{}, nil
	default:
		return nil, NewError(InvalidArgument, a.Text)
	}
}

func (History) Name() string { return "history" }

func (History) DelegationCapable() bool { return false }

func (History) Execute(_ context.Context, st *editor.State) error {
	entries := st.HistoryEntries()

	var sb strings.Builder
	sb.WriteString("      #  cmd history")
	for i, entry := range entries {
		marker := " "
		if i == len(entries)-1 {
			marker = ">"
		}
		fmt.Fprintf(&sb, "\n%s%6d  %s", marker, i+1, entry)
	}
	st.SetStatus(sb.String(), false)
	return nil
}

func (h History) ExecuteWithRange(ctx context.Context, st *editor.State, _ LineRange) error {
	return h.Execute(ctx, st)
}
