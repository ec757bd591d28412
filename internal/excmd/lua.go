package excmd

import (
	"context"

	"github.com/dshills/exline/internal/editor"
)

// Lua is :lua {chunk}. It only runs through a delegation gateway; executed
// locally it reports that the command is unavailable.
type Lua struct {
	Chunk string
}

func newLua(a args) (Command, error) {
	return &Lua{Chunk: a.Text}, nil
}

func (*Lua) Name() string { return "lua" }

func (*Lua) DelegationCapable() bool { return true }

func (*Lua) Execute(context.Context, *editor.State) error {
	return NewError(NotAvailable, "")
}

func (l *Lua) ExecuteWithRange(ctx context.Context, st *editor.State, _ LineRange) error {
	return l.Execute(ctx, st)
}
