package excmd

import (
	"context"
	"strings"

	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/register"
)

// Registers is :reg[isters] [names] and its alias :di[splay].
type Registers struct {
	// Names limits the listing; empty lists every non-empty register.
	Names string
}

func newRegisters(a args) (Command, error) {
	return &Registers{Names: strings.ReplaceAll(a.Text, " ", "")}, nil
}

func (*Registers) Name() string { return "registers" }

func (*Registers) DelegationCapable() bool { return false }

func (c *Registers) Execute(_ context.Context, st *editor.State) error {
	var sb strings.Builder
	sb.WriteString("--- Registers ---")
	for _, reg := range st.Registers.List() {
		if c.Names != "" && !strings.ContainsRune(c.Names, reg.Name) {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(formatRegister(reg))
	}
	st.SetStatus(sb.String(), false)
	return nil
}

func (c *Registers) ExecuteWithRange(ctx context.Context, st *editor.State, _ LineRange) error {
	return c.Execute(ctx, st)
}

func formatRegister(reg register.Register) string {
	kind := "c"
	if reg.Linewise {
		kind = "l"
	}
	content := strings.ReplaceAll(reg.Content, "\n", "^J")
	if reg.Linewise {
		content += "^J"
	}
	return "  " + kind + "  \"" + string(reg.Name) + "   " + content
}
