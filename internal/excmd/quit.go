package excmd

import (
	"context"

	"github.com/dshills/exline/internal/editor"
)

// Quit is :q[uit][!]. Without "!" it refuses to discard unsaved changes.
type Quit struct {
	Force bool
}

func newQuit(a args) (Command, error) {
	if err := a.noArgs(); err != nil {
		return nil, err
	}
	return &Quit{Force: a.Bang}, nil
}

func (*Quit) Name() string { return "quit" }

func (*Quit) DelegationCapable() bool { return false }

func (q *Quit) Execute(_ context.Context, st *editor.State) error {
	if st.Buffer.Modified() && !q.Force {
		return NewError(NoWriteSinceLastChange, "")
	}
	st.RequestQuit()
	return nil
}

// ExecuteWithRange ignores the range; :quit takes a window count in Vim,
// which has no meaning with a single buffer.
func (q *Quit) ExecuteWithRange(ctx context.Context, st *editor.State, _ LineRange) error {
	return q.Execute(ctx, st)
}
