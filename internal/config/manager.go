package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/exline/internal/logging"
)

// reloadDebounce coalesces the burst of events editors produce on save.
const reloadDebounce = 100 * time.Millisecond

// Override adjusts a freshly loaded Config, e.g. from command-line flags.
// Overrides are re-applied on every reload.
type Override func(*Config)

// Manager owns the active configuration.
type Manager struct {
	path      string
	overrides []Override
	logger    *logging.Logger

	current atomic.Pointer[Config]

	mu          sync.Mutex
	subscribers []func(*Config)
}

// NewManager loads the configuration at path and applies overrides.
func NewManager(path string, logger *logging.Logger, overrides ...Override) (*Manager, error) {
	m := &Manager{
		path:      path,
		overrides: overrides,
		logger:    logging.OrNull(logger).WithComponent("config"),
	}
	cfg, err := m.load()
	if err != nil {
		return nil, err
	}
	m.current.Store(cfg)
	return m, nil
}

func (m *Manager) load() (*Config, error) {
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	for _, o := range m.overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetLogger replaces the logger, typically once logging has been configured
// from the loaded settings.
func (m *Manager) SetLogger(logger *logging.Logger) {
	m.mu.Lock()
	m.logger = logging.OrNull(logger).WithComponent("config")
	m.mu.Unlock()
}

func (m *Manager) log() *logging.Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logger
}

// Path returns the config file path.
func (m *Manager) Path() string {
	return m.path
}

// Config returns the active configuration. Callers must not modify it.
func (m *Manager) Config() *Config {
	return m.current.Load()
}

// DelegationEnabled reports the current delegation.enabled setting.
func (m *Manager) DelegationEnabled() bool {
	return m.current.Load().Delegation.Enabled
}

// Subscribe registers fn to be called with each successfully reloaded
// configuration.
func (m *Manager) Subscribe(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Reload re-reads the file. On failure the active configuration is kept.
func (m *Manager) Reload() error {
	cfg, err := m.load()
	if err != nil {
		return err
	}
	m.current.Store(cfg)

	m.mu.Lock()
	subs := make([]func(*Config), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(cfg)
	}
	return nil
}

// Watch reloads the configuration whenever the file changes, until ctx is
// done. The parent directory is watched so that editors which replace the
// file on save are noticed.
func (m *Manager) Watch(ctx context.Context) error {
	if m.path == "" {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	target := filepath.Clean(m.path)
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", target, err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, m.reloadFromWatch)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			m.log().Warn("watch error: %v", err)
		}
	}
}

func (m *Manager) reloadFromWatch() {
	if err := m.Reload(); err != nil {
		m.log().Error("reloading %s: %v", m.path, err)
		return
	}
	m.log().Info("reloaded %s", m.path)
}
