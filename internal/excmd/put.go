package excmd

import (
	"context"
	"strings"

	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/register"
)

// Put is :[line]pu[t][!] [x]. The text always goes in linewise; with "!" it
// goes above the line instead of below.
type Put struct {
	Register rune
	Above    bool
}

func newPut(a args) (Command, error) {
	reg, err := parseRegister(a.Text)
	if err != nil {
		return nil, err
	}
	return &Put{Register: reg, Above: a.Bang}, nil
}

func (*Put) Name() string { return "put" }

func (*Put) DelegationCapable() bool { return false }

func (p *Put) Execute(ctx context.Context, st *editor.State) error {
	return p.ExecuteWithRange(ctx, st, CurrentLine())
}

func (p *Put) ExecuteWithRange(_ context.Context, st *editor.State, r LineRange) error {
	_, line, err := r.Resolve(st)
	if err != nil {
		return err
	}

	name := p.Register
	if name == 0 {
		name = register.Unnamed
	}
	reg, ok := st.Registers.Get(name)
	if !ok || reg.Content == "" {
		return NewError(NothingInRegister, string(name))
	}
	lines := strings.Split(reg.Content, "\n")

	// Insert after line; line 0 means before the first line.
	at := line
	if p.Above && line > 0 {
		at = line - 1
	}
	if err := st.Buffer.InsertLines(at, lines); err != nil {
		return err
	}
	st.SetCursor(at + len(lines))
	return nil
}
