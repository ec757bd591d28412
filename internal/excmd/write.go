package excmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/exline/internal/buffer"
	"github.com/dshills/exline/internal/editor"
)

// Write is :[range]w[rite][!] [file].
type Write struct {
	Path  string
	Force bool
}

func newWrite(a args) (Command, error) {
	return &Write{Path: a.Text, Force: a.Bang}, nil
}

func (*Write) Name() string { return "write" }

func (*Write) DelegationCapable() bool { return false }

func (w *Write) Execute(ctx context.Context, st *editor.State) error {
	return w.ExecuteWithRange(ctx, st, WholeFile())
}

func (w *Write) ExecuteWithRange(_ context.Context, st *editor.State, r LineRange) error {
	start, end, err := resolveLines(st, r)
	if err != nil {
		return err
	}
	buf := st.Buffer

	var lines, size int
	target := w.Path
	if start == 1 && end == buf.LineCount() {
		lines, size, err = buf.Save(target)
		if target == "" {
			target = buf.Path()
		}
	} else {
		if target == "" {
			if buf.Path() == "" {
				return NewError(NoFileName, "")
			}
			if !w.Force {
				return NewError(PartialWrite, "")
			}
			target = buf.Path()
		}
		lines, size, err = buf.SaveRange(target, start-1, end)
	}
	if errors.Is(err, buffer.ErrNoPath) {
		return NewError(NoFileName, "")
	}
	if err != nil {
		return err
	}

	st.SetStatus(fmt.Sprintf("%q %dL, %dB written", target, lines, size), false)
	return nil
}

// WriteQuit is :wq[!] [file].
type WriteQuit struct {
	Write
}

func newWriteQuit(a args) (Command, error) {
	return &WriteQuit{Write: Write{Path: a.Text, Force: a.Bang}}, nil
}

func (*WriteQuit) Name() string { return "wq" }

func (w *WriteQuit) Execute(ctx context.Context, st *editor.State) error {
	return w.ExecuteWithRange(ctx, st, WholeFile())
}

func (w *WriteQuit) ExecuteWithRange(ctx context.Context, st *editor.State, r LineRange) error {
	if err := w.Write.ExecuteWithRange(ctx, st, r); err != nil {
		return err
	}
	st.RequestQuit()
	return nil
}

// Exit is :x[it] and :exi[t]: write only when the buffer changed, then quit.
type Exit struct {
	Write
}

func newExit(a args) (Command, error) {
	return &Exit{Write: Write{Path: a.Text, Force: a.Bang}}, nil
}

func (*Exit) Name() string { return "xit" }

func (e *Exit) Execute(ctx context.Context, st *editor.State) error {
	return e.ExecuteWithRange(ctx, st, WholeFile())
}

func (e *Exit) ExecuteWithRange(ctx context.Context, st *editor.State, r LineRange) error {
	if st.Buffer.Modified() || e.Path != "" {
		if err := e.Write.ExecuteWithRange(ctx, st, r); err != nil {
			return err
		}
	}
	st.RequestQuit()
	return nil
}
