package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sahilm/fuzzy"
)

// escape cancels a prompt when entered on its own.
const escape = "\x1b"

// PromptOptions describes a single-line prompt.
type PromptOptions struct {
	// Prompt is shown before the input.
	Prompt string
	// Value is the initial text.
	Value string
	// CaretStart and CaretEnd select the part of Value that typed text
	// replaces. Both equal to len(Value) appends.
	CaretStart int
	CaretEnd   int
}

// ChoiceOptions describes a pick-one list.
type ChoiceOptions struct {
	Placeholder string
}

type lineResult struct {
	text string
	err  error
}

// Prompter reads answers line by line from a reader.
//
// A single goroutine owns the reader so that a prompt abandoned through
// context cancellation does not lose the next line.
type Prompter struct {
	out         io.Writer
	interactive bool

	in    *bufio.Reader
	once  sync.Once
	lines chan lineResult
	eof   atomic.Bool
}

// PrompterOption configures a Prompter.
type PrompterOption func(*Prompter)

// WithInteractive overrides terminal detection.
func WithInteractive(interactive bool) PrompterOption {
	return func(p *Prompter) {
		p.interactive = interactive
	}
}

// NewPrompter reads from in and writes prompts to out. Prompts are only
// written when in is a terminal.
func NewPrompter(in io.Reader, out io.Writer, opts ...PrompterOption) *Prompter {
	p := &Prompter{
		out:         out,
		interactive: isTerminal(in),
		in:          bufio.NewReader(in),
		lines:       make(chan lineResult),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Prompter) readLoop() {
	for {
		text, err := p.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && text != "") {
			p.lines <- lineResult{err: err}
			close(p.lines)
			return
		}
		p.lines <- lineResult{text: strings.TrimRight(text, "\r\n")}
	}
}

// readLine returns the next line. ok is false at end of input.
func (p *Prompter) readLine(ctx context.Context) (string, bool, error) {
	p.once.Do(func() { go p.readLoop() })

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case res, open := <-p.lines:
		if !open || errors.Is(res.err, io.EOF) {
			p.eof.Store(true)
			return "", false, nil
		}
		if res.err != nil {
			return "", false, res.err
		}
		return res.text, true, nil
	}
}

// Exhausted reports whether a read has hit the end of input.
func (p *Prompter) Exhausted() bool {
	return p.eof.Load()
}

func (p *Prompter) show(format string, args ...any) {
	if p.interactive && p.out != nil {
		fmt.Fprintf(p.out, format, args...)
	}
}

// PromptLine reads one line. The typed text replaces the selected part of
// opts.Value. ok is false when the user cancels (end of input or a lone
// Escape).
func (p *Prompter) PromptLine(ctx context.Context, opts PromptOptions) (string, bool, error) {
	if opts.Value != "" {
		p.show("%s: %s", opts.Prompt, opts.Value)
	} else {
		p.show("%s: ", opts.Prompt)
	}

	typed, ok, err := p.readLine(ctx)
	if err != nil || !ok || typed == escape {
		return "", false, err
	}

	start, end := clampSelection(opts.Value, opts.CaretStart, opts.CaretEnd)
	return opts.Value[:start] + typed + opts.Value[end:], true, nil
}

func clampSelection(value string, start, end int) (int, int) {
	clamp := func(i int) int {
		if i < 0 {
			return 0
		}
		if i > len(value) {
			return len(value)
		}
		return i
	}
	start, end = clamp(start), clamp(end)
	if start > end {
		start, end = end, start
	}
	return start, end
}

// PresentChoice lists items and reads a choice: a 1-based number, or a query
// matched fuzzily against the items (best match wins). An empty answer, no
// match or end of input cancels.
func (p *Prompter) PresentChoice(ctx context.Context, items []string, opts ChoiceOptions) (string, bool, error) {
	if len(items) == 0 {
		return "", false, nil
	}

	if p.interactive && p.out != nil {
		for i, item := range items {
			fmt.Fprintf(p.out, "%3d  %s\n", i+1, item)
		}
	}
	p.show("%s: ", opts.Placeholder)

	answer, ok, err := p.readLine(ctx)
	if err != nil || !ok {
		return "", false, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" || answer == escape {
		return "", false, nil
	}

	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(items) {
			return items[n-1], true, nil
		}
		return "", false, nil
	}

	matches := fuzzy.Find(answer, items)
	if len(matches) == 0 {
		return "", false, nil
	}
	return items[matches[0].Index], true, nil
}
