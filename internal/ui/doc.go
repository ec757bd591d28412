// Package ui provides the line-oriented input and output surfaces used by the
// command line: a status line that mirrors messages into the editor state and
// a prompter that reads command lines and history choices from a reader.
//
// Both detect whether they talk to a terminal with golang.org/x/term and
// only decorate output (prompts, colors) when they do.
package ui
