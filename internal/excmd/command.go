package excmd

import (
	"context"

	"github.com/dshills/exline/internal/editor"
)

// Command is a parsed Ex command ready to run.
//
// Each command family lives in its own file and decides for itself how a
// missing range defaults and whether an external interpreter may run it.
type Command interface {
	// Name returns the full command name (e.g. "delete").
	Name() string

	// DelegationCapable reports whether the raw command line may be handed
	// to an external interpreter instead of running locally.
	DelegationCapable() bool

	// Execute runs the command with its default range.
	Execute(ctx context.Context, st *editor.State) error

	// ExecuteWithRange runs the command over r.
	ExecuteWithRange(ctx context.Context, st *editor.State, r LineRange) error
}

// Parsed is the result of parsing one command line.
type Parsed struct {
	// Range is nil when the command line had no address prefix.
	Range *LineRange

	// Command is the command to run.
	Command Command
}

// Nop is the command for an empty command line such as ":".
type Nop struct{}

func (Nop) Name() string { return "" }

func (Nop) DelegationCapable() bool { return false }

func (Nop) Execute(context.Context, *editor.State) error { return nil }

func (Nop) ExecuteWithRange(context.Context, *editor.State, LineRange) error { return nil }

// Goto is a bare range (":42"), which moves the cursor to the range's last line.
type Goto struct{}

func (Goto) Name() string { return "goto" }

func (Goto) DelegationCapable() bool { return false }

func (Goto) Execute(context.Context, *editor.State) error { return nil }

func (Goto) ExecuteWithRange(_ context.Context, st *editor.State, r LineRange) error {
	_, end, err := resolveLines(st, r)
	if err != nil {
		return err
	}
	st.SetCursor(end)
	return nil
}
