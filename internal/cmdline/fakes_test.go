package cmdline

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/exline/internal/delegate"
	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/excmd"
	"github.com/dshills/exline/internal/logging"
	"github.com/dshills/exline/internal/ui"
)

type fakeParser struct {
	parsed *excmd.Parsed
	err    error
	calls  []string
}

func (p *fakeParser) Parse(raw string) (*excmd.Parsed, error) {
	p.calls = append(p.calls, raw)
	return p.parsed, p.err
}

type panicParser struct{}

func (panicParser) Parse(string) (*excmd.Parsed, error) { panic("bad table") }

type fakeSettings bool

func (f fakeSettings) DelegationEnabled() bool { return bool(f) }

type statusCall struct {
	text    string
	isError bool
}

type fakeStatus struct {
	calls []statusCall
}

func (f *fakeStatus) SetText(_ *editor.State, text string, isError bool) {
	f.calls = append(f.calls, statusCall{text: text, isError: isError})
}

type fakeGateway struct {
	active bool
	result delegate.Result
	calls  []string
}

func (g *fakeGateway) Run(_ context.Context, _ *editor.State, raw string) delegate.Result {
	g.calls = append(g.calls, raw)
	return g.result
}

func (g *fakeGateway) HasActiveSession() bool { return g.active }

type fakePrompter struct {
	line    string
	ok      bool
	err     error
	choice  string
	chosen  bool
	opts    ui.PromptOptions
	items   []string
	choices ui.ChoiceOptions
}

func (p *fakePrompter) PromptLine(_ context.Context, opts ui.PromptOptions) (string, bool, error) {
	p.opts = opts
	return p.line, p.ok, p.err
}

func (p *fakePrompter) PresentChoice(_ context.Context, items []string, opts ui.ChoiceOptions) (string, bool, error) {
	p.items = items
	p.choices = opts
	return p.choice, p.chosen, p.err
}

type fakePersister struct {
	mu        sync.Mutex
	stored    []string
	appended  []string
	loadErr   error
	appendErr error
}

func (p *fakePersister) LoadHistory(context.Context) ([]string, error) {
	return append([]string(nil), p.stored...), p.loadErr
}

func (p *fakePersister) AppendHistory(_ context.Context, entry string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.appended = append(p.appended, entry)
	return p.appendErr
}

// recordingCommand notes which entry point ran.
type recordingCommand struct {
	capable    bool
	err        error
	panicValue any
	block      chan struct{}

	executed  bool
	withRange *excmd.LineRange
}

func (c *recordingCommand) Name() string { return "recording" }

func (c *recordingCommand) DelegationCapable() bool { return c.capable }

func (c *recordingCommand) Execute(context.Context, *editor.State) error {
	c.executed = true
	return c.run()
}

func (c *recordingCommand) ExecuteWithRange(_ context.Context, _ *editor.State, r excmd.LineRange) error {
	c.withRange = &r
	return c.run()
}

func (c *recordingCommand) run() error {
	if c.block != nil {
		<-c.block
	}
	if c.panicValue != nil {
		panic(c.panicValue)
	}
	return c.err
}

// logRecords parses JSON log lines written to buf.
func logRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}
	return records
}

func jsonLogger(buf *bytes.Buffer) *logging.Logger {
	return logging.NewLogger(logging.LoggerConfig{
		Level:  logging.LogLevelDebug,
		Format: logging.FormatJSON,
		Output: buf,
	})
}
