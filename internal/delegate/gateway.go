// Package delegate hands raw Ex command lines to an external interpreter.
//
// The command-line engine consults a Gateway for commands whose descriptor
// reports DelegationCapable, and for command names the local parser does not
// know. LuaGateway is the in-process implementation: it runs each command
// line through a sandboxed gopher-lua state whose dispatcher can be extended
// by a user script.
package delegate

import (
	"context"
	"errors"

	"github.com/dshills/exline/internal/editor"
)

// Errors returned by gateway lifecycle operations.
var (
	// ErrSessionActive is returned when starting a session that is running.
	ErrSessionActive = errors.New("delegate: session already active")

	// ErrNoSession is returned when the gateway has no running session.
	ErrNoSession = errors.New("delegate: no active session")
)

// Result is the outcome of a delegated command. Failures of any kind are
// reported through IsError; Run never returns a Go error.
type Result struct {
	StatusText string
	IsError    bool
}

// Gateway executes raw command lines outside the local command set.
type Gateway interface {
	// Run executes raw against st. It honors ctx cancellation.
	Run(ctx context.Context, st *editor.State, raw string) Result

	// HasActiveSession reports whether Run can currently execute anything.
	HasActiveSession() bool
}

func errorResult(err error) Result {
	return Result{StatusText: err.Error(), IsError: true}
}
