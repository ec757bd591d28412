package cmdline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/exline/internal/logging"
)

// ErrHistoryLoaded is returned by a second History.Load. Loading twice
// would duplicate every persisted entry.
var ErrHistoryLoaded = errors.New("cmdline: history already loaded")

// Persister stores history across sessions.
type Persister interface {
	LoadHistory(ctx context.Context) ([]string, error)
	AppendHistory(ctx context.Context, entry string) error
}

// History is the chronological list of submitted command lines.
//
// Entries are never deduplicated, capped or removed during a session; any
// retention limit belongs to the Persister.
type History struct {
	mu        sync.RWMutex
	entries   []string
	loaded    bool
	persister Persister
	logger    *logging.Logger
}

// NewHistory creates an empty history. A nil persister keeps history in
// memory only.
func NewHistory(persister Persister, logger *logging.Logger) *History {
	return &History{
		entries:   make([]string, 0, 64),
		persister: persister,
		logger:    logging.OrNull(logger).WithComponent("history"),
	}
}

// Load populates the history from the persister. It may be called once.
func (h *History) Load(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.loaded {
		return ErrHistoryLoaded
	}
	h.loaded = true

	if h.persister == nil {
		return nil
	}
	stored, err := h.persister.LoadHistory(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	merged := make([]string, 0, len(stored)+len(h.entries))
	merged = append(merged, stored...)
	h.entries = append(merged, h.entries...)
	return nil
}

// Add appends entry and forwards it to the persister. Persistence failures
// are logged; the in-memory append always happens. Empty entries, such as
// the draft ShowHistory adds, are kept in memory only.
func (h *History) Add(entry string) {
	h.mu.Lock()
	h.entries = append(h.entries, entry)
	h.mu.Unlock()

	if h.persister == nil || entry == "" {
		return
	}
	if err := h.persister.AppendHistory(context.Background(), entry); err != nil {
		h.logger.WithField("err", err).Warn("persist history entry")
	}
}

// Get returns a copy of the entries, oldest first.
func (h *History) Get() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Entries is Get for readers such as :history. It tolerates a nil History.
func (h *History) Entries() []string {
	if h == nil {
		return []string{}
	}
	return h.Get()
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
