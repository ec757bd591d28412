// Package excmd parses and executes Ex command lines.
//
// A command line is an optional range followed by a command name, an
// optional "!" and arguments:
//
//	:[range]name[!] [args]
//
// Ranges are built from addresses ("42", ".", "$", "'a", each with optional
// "+N"/"-N" offsets) joined by "," or ";", or "%" for the whole file. Names
// may be abbreviated down to Vim's minimum, so "d", "del" and "delete" are
// the same command.
//
// Parse errors and execution errors are *Error values carrying Vim's error
// numbers. Callers that need to tell an unknown command apart from other
// failures use CodeOf or errors.Is with a code-only *Error.
package excmd
