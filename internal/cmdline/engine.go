package cmdline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/dshills/exline/internal/delegate"
	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/excmd"
	"github.com/dshills/exline/internal/logging"
	"github.com/dshills/exline/internal/register"
	"github.com/dshills/exline/internal/ui"
)

// DefaultRegisterPrefix marks command lines that name a register, such as
// ":registers". Those lines are not recorded in ':' so that listing
// registers does not overwrite the command being inspected.
const DefaultRegisterPrefix = "reg"

const (
	promptText         = "Vim command line"
	historyPlaceholder = "Vim command history"
)

// ErrCommandPanic wraps a panic raised while a command executed.
var ErrCommandPanic = errors.New("cmdline: command panic")

// ErrParserPanic wraps a panic raised while a command line was parsed.
var ErrParserPanic = errors.New("cmdline: parser panic")

// Parser turns a command line into a command.
type Parser interface {
	Parse(raw string) (*excmd.Parsed, error)
}

// Settings reports whether delegation is switched on.
type Settings interface {
	DelegationEnabled() bool
}

// StatusSurface displays a command's outcome.
type StatusSurface interface {
	SetText(st *editor.State, text string, isError bool)
}

// Prompter asks the user for input.
type Prompter interface {
	PromptLine(ctx context.Context, opts ui.PromptOptions) (string, bool, error)
	PresentChoice(ctx context.Context, items []string, opts ui.ChoiceOptions) (string, bool, error)
}

// Options configures an Engine. Every field is optional.
type Options struct {
	// Parser defaults to excmd.NewParser().
	Parser Parser

	// Settings nil means delegation is off.
	Settings Settings

	// Status defaults to writing the editor state's status fields.
	Status StatusSurface

	// Prompter nil makes every prompt behave as if cancelled.
	Prompter Prompter

	// Gateway receives delegated command lines.
	Gateway delegate.Gateway

	// Registers holds the ':' slot. Defaults to a fresh store.
	Registers *register.Store

	// Persister backs the history. Nil keeps history in memory.
	Persister Persister

	Logger *logging.Logger

	// RegisterPrefix exempts lines starting with it from the ':' register.
	// The match is literal and case sensitive. Empty records every line.
	RegisterPrefix string
}

// Engine executes command lines and keeps their history.
//
// Run may be called from several goroutines: history, the cursor and the
// registers are guarded. Commands running against the same State are not
// serialized with each other; Session.Submit does that for one command line.
type Engine struct {
	parser    Parser
	settings  Settings
	status    StatusSurface
	prompter  Prompter
	gateway   delegate.Gateway
	registers *register.Store
	history   *History
	prefix    string
	logger    *logging.Logger

	mu     sync.Mutex
	cursor int
}

// NewEngine creates an engine.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		parser:    opts.Parser,
		settings:  opts.Settings,
		status:    opts.Status,
		prompter:  opts.Prompter,
		gateway:   opts.Gateway,
		registers: opts.Registers,
		prefix:    opts.RegisterPrefix,
		logger:    logging.OrNull(opts.Logger).WithComponent("cmdline"),
	}
	if e.parser == nil {
		e.parser = excmd.NewParser()
	}
	if e.status == nil {
		e.status = stateStatus{}
	}
	if e.registers == nil {
		e.registers = register.NewStore()
	}
	e.history = NewHistory(opts.Persister, opts.Logger)
	return e
}

// Load reads persisted history. It may be called once.
func (e *Engine) Load(ctx context.Context) error {
	if err := e.history.Load(ctx); err != nil {
		return err
	}
	e.resetCursor()
	return nil
}

// History returns the engine's history, for attaching to editor state.
func (e *Engine) History() *History {
	return e.history
}

// Registers returns the register store the engine records into.
func (e *Engine) Registers() *register.Store {
	return e.registers
}

// HistoryEntries returns a copy of the history, oldest first.
func (e *Engine) HistoryEntries() []string {
	return e.history.Get()
}

// HistoryCursor returns the browse position. It equals the history length
// when the user is not browsing.
func (e *Engine) HistoryCursor() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// SetHistoryCursor moves the browse position, clamped to [0, len].
func (e *Engine) SetHistoryCursor(n int) {
	n = max(0, min(n, e.history.Len()))
	e.mu.Lock()
	e.cursor = n
	e.mu.Unlock()
}

func (e *Engine) resetCursor() {
	n := e.history.Len()
	e.mu.Lock()
	e.cursor = n
	e.mu.Unlock()
}

// Run executes one command line against st.
//
// A non-empty line is always added to history and, unless it starts with
// the register prefix, recorded in ':' before it is parsed. Outcomes are
// reported on the status surface; nothing is returned.
func (e *Engine) Run(ctx context.Context, raw string, st *editor.State) {
	if raw == "" {
		return
	}

	e.history.Add(raw)
	e.resetCursor()
	if e.prefix == "" || !strings.HasPrefix(raw, e.prefix) {
		if err := e.registers.SetReadonly(register.Command, register.NewRecordedState(register.Command, raw)); err != nil {
			e.logger.WithField("err", err).Warn("record command register")
		}
	}

	parsed, err := e.parse(raw)
	if err != nil {
		e.handleParseError(ctx, raw, st, err)
		return
	}

	if e.shouldDelegate(parsed.Command) {
		res := e.gateway.Run(ctx, st, raw)
		e.status.SetText(st, res.StatusText, res.IsError)
		return
	}

	if err := e.execute(ctx, parsed, st); err != nil {
		e.logger.WithFields(map[string]any{"cmd": raw, "err": err.Error()}).Debug("command failed")
		e.status.SetText(st, err.Error(), true)
	}
}

// parse turns a panicking parser into an ordinary parse failure.
func (e *Engine) parse(raw string) (parsed *excmd.Parsed, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("stack", string(debug.Stack())).Error("parser panic: %v", r)
			parsed, err = nil, fmt.Errorf("%w: %v", ErrParserPanic, r)
		}
	}()
	return e.parser.Parse(raw)
}

func (e *Engine) handleParseError(ctx context.Context, raw string, st *editor.State, err error) {
	code, _ := excmd.CodeOf(err)
	switch {
	case code == excmd.NotAnEditorCommand && e.delegationAvailable():
		res := e.gateway.Run(ctx, st, raw)
		e.status.SetText(st, res.StatusText, true)
	default:
		e.logger.WithFields(map[string]any{"cmd": raw, "err": err.Error()}).Error("parse command line")
	}
}

func (e *Engine) delegationAvailable() bool {
	return e.settings != nil && e.settings.DelegationEnabled() &&
		e.gateway != nil && e.gateway.HasActiveSession()
}

func (e *Engine) shouldDelegate(cmd excmd.Command) bool {
	return cmd.DelegationCapable() && e.delegationAvailable()
}

func (e *Engine) execute(ctx context.Context, parsed *excmd.Parsed, st *editor.State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("stack", string(debug.Stack())).Error("command panic: %v", r)
			err = fmt.Errorf("%w: %v", ErrCommandPanic, r)
		}
	}()

	if parsed.Range != nil {
		return parsed.Command.ExecuteWithRange(ctx, st, *parsed.Range)
	}
	return parsed.Command.Execute(ctx, st)
}

// PromptAndRun asks for a command line, pre-filled with initialText, and
// runs the answer. A dismissed prompt runs the empty line, which does
// nothing.
func (e *Engine) PromptAndRun(ctx context.Context, initialText string, st *editor.State) {
	text, ok := e.promptLine(ctx, initialText)
	if !ok {
		text = ""
	}
	e.Run(ctx, text, st)
}

func (e *Engine) promptLine(ctx context.Context, initialText string) (string, bool) {
	if e.prompter == nil {
		return "", false
	}
	text, ok, err := e.prompter.PromptLine(ctx, ui.PromptOptions{
		Prompt:     promptText,
		Value:      initialText,
		CaretStart: len(initialText),
		CaretEnd:   len(initialText),
	})
	if err != nil {
		e.logger.WithField("err", err.Error()).Warn("command line prompt")
		return "", false
	}
	return text, ok
}

// ShowHistory appends initialText to history and lets the user pick an
// entry, newest first. It returns the pick and whether one was made.
func (e *Engine) ShowHistory(ctx context.Context, initialText string) (string, bool) {
	e.history.Add(initialText)
	e.resetCursor()

	entries := e.history.Get()
	items := make([]string, len(entries))
	for i, entry := range entries {
		items[len(entries)-1-i] = entry
	}

	if e.prompter == nil {
		return "", false
	}
	choice, ok, err := e.prompter.PresentChoice(ctx, items, ui.ChoiceOptions{Placeholder: historyPlaceholder})
	if err != nil {
		e.logger.WithField("err", err.Error()).Warn("history picker")
		return "", false
	}
	return choice, ok
}

// stateStatus writes outcomes straight into the editor state.
type stateStatus struct{}

func (stateStatus) SetText(st *editor.State, text string, isError bool) {
	if st != nil {
		st.SetStatus(text, isError)
	}
}
