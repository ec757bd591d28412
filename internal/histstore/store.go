// Package histstore persists command-line history across sessions.
//
// Three backends share the Store interface: FileStore appends JSON lines to a
// file, SQLiteStore keeps a table in a SQLite database and MemoryStore keeps
// nothing beyond the process.
package histstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("histstore: unknown backend")

// Store loads and appends history entries, oldest first.
type Store interface {
	LoadHistory(ctx context.Context) ([]string, error)
	AppendHistory(ctx context.Context, entry string) error
	Clear(ctx context.Context) error
	Close() error
}

// Open creates the store for backend. An empty path selects DefaultPath.
// limit bounds how many entries LoadHistory returns; 0 means no bound.
func Open(backend, path string, limit int) (Store, error) {
	if path == "" && backend != BackendMemory {
		path = DefaultPath(backend)
	}
	switch backend {
	case BackendFile, "":
		return NewFileStore(path, limit), nil
	case BackendSQLite:
		return NewSQLiteStore(path, limit)
	case BackendMemory:
		return NewMemoryStore(limit), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// DefaultPath returns the history location under $XDG_STATE_HOME (or
// ~/.local/state) for backend.
func DefaultPath(backend string) string {
	name := "history.jsonl"
	if backend == BackendSQLite {
		name = "history.db"
	}
	return filepath.Join(stateDir(), "exline", name)
}

func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state")
	}
	return "."
}

// tail returns the last limit entries of entries.
func tail(entries []string, limit int) []string {
	if limit > 0 && len(entries) > limit {
		return entries[len(entries)-limit:]
	}
	return entries
}
