package app

import (
	"context"
	"errors"
	"os"

	"github.com/dshills/exline/internal/buffer"
	"github.com/dshills/exline/internal/cmdline"
	"github.com/dshills/exline/internal/config"
	"github.com/dshills/exline/internal/delegate"
	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/excmd"
	"github.com/dshills/exline/internal/histstore"
	"github.com/dshills/exline/internal/logging"
	"github.com/dshills/exline/internal/register"
	"github.com/dshills/exline/internal/ui"
)

// bootstrapper handles component initialization with proper cleanup on failure.
type bootstrapper struct {
	app       *Application
	opts      Options
	initOrder []string
}

// newBootstrapper creates a new bootstrapper for the application.
func newBootstrapper(app *Application, opts Options) *bootstrapper {
	return &bootstrapper{
		app:       app,
		opts:      opts,
		initOrder: make([]string, 0, 8),
	}
}

// bootstrap initializes all components in dependency order.
// On failure, it cleans up already-initialized components.
func (b *bootstrapper) bootstrap(ctx context.Context) error {
	steps := []func(context.Context) error{
		b.initConfig,
		b.initLogging,
		b.initHistory,
		b.initState,
		b.initGateway,
		b.initEngine,
		b.initWatcher,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			b.cleanup()
			return err
		}
	}
	return nil
}

// overrides turns command-line flags into config overrides, re-applied on
// every reload.
func (b *bootstrapper) overrides() []config.Override {
	var out []config.Override
	if b.opts.LogLevel != "" {
		level := b.opts.LogLevel
		out = append(out, func(c *config.Config) { c.Log.Level = level })
	}
	if b.opts.LogFile != "" {
		file := b.opts.LogFile
		out = append(out, func(c *config.Config) { c.Log.File = file })
	}
	if b.opts.HistoryFile != "" {
		path := b.opts.HistoryFile
		out = append(out, func(c *config.Config) { c.History.Path = path })
	}
	if b.opts.Delegate {
		out = append(out, func(c *config.Config) { c.Delegation.Enabled = true })
	}
	return out
}

// initConfig loads the configuration file.
func (b *bootstrapper) initConfig(context.Context) error {
	mgr, err := config.NewManager(b.opts.ConfigPath, nil, b.overrides()...)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	b.app.config = mgr
	b.initOrder = append(b.initOrder, "config")
	return nil
}

// initLogging creates the logger from the loaded configuration.
func (b *bootstrapper) initLogging(context.Context) error {
	b.app.logger = logging.NewLogger(b.app.config.Config().LoggerConfig())
	b.app.config.SetLogger(b.app.logger)
	b.initOrder = append(b.initOrder, "logging")
	return nil
}

// initHistory opens the history store.
func (b *bootstrapper) initHistory(context.Context) error {
	h := b.app.config.Config().History
	store, err := histstore.Open(h.Backend, h.Path, h.Limit)
	if err != nil {
		return &InitError{Component: "history", Err: err}
	}
	b.app.history = store
	b.initOrder = append(b.initOrder, "history")
	return nil
}

// initState loads the file being edited.
func (b *bootstrapper) initState(context.Context) error {
	buf := buffer.New()
	if b.opts.File != "" {
		loaded, err := buffer.Load(b.opts.File)
		if err != nil {
			return &InitError{Component: "buffer", Err: err}
		}
		buf = loaded
	}
	b.app.state = editor.NewState(buf, register.NewStore())
	b.initOrder = append(b.initOrder, "state")
	return nil
}

// initGateway creates the Lua gateway. Its session is started by
// applyConfig when delegation is enabled.
func (b *bootstrapper) initGateway(context.Context) error {
	b.app.gateway = delegate.NewLuaGateway(delegate.WithLogger(b.app.logger))
	b.initOrder = append(b.initOrder, "gateway")
	return nil
}

// initEngine builds the terminal surfaces, the engine and the session, loads
// the persisted history and applies the configuration.
func (b *bootstrapper) initEngine(ctx context.Context) error {
	cfg := b.app.config.Config()
	b.app.status = ui.NewStatusLine(b.opts.Out)
	b.app.prompter = ui.NewPrompter(b.opts.In, b.opts.Out, b.opts.PrompterOptions...)

	parser := excmd.NewParser()
	b.app.engine = cmdline.NewEngine(cmdline.Options{
		Parser:         parser,
		Settings:       b.app.config,
		Status:         b.app.status,
		Prompter:       b.app.prompter,
		Gateway:        b.app.gateway,
		Registers:      b.app.state.Registers,
		Persister:      b.app.history,
		Logger:         b.app.logger,
		RegisterPrefix: cfg.Cmdline.RegisterPrefix,
	})
	if err := b.app.engine.Load(ctx); err != nil {
		return &InitError{Component: "history", Err: err}
	}
	b.app.state.History = b.app.engine.History()
	b.app.session = cmdline.NewSession(b.app.engine, parser.Names())

	b.app.applyConfig(ctx, cfg)
	b.app.config.Subscribe(func(c *config.Config) {
		b.app.applyConfig(context.Background(), c)
	})
	b.initOrder = append(b.initOrder, "engine")
	return nil
}

// initWatcher starts reloading the configuration on change.
func (b *bootstrapper) initWatcher(ctx context.Context) error {
	if !b.opts.Watch {
		return nil
	}
	if _, err := os.Stat(b.app.config.Path()); errors.Is(err, os.ErrNotExist) {
		b.app.logger.Debug("no config file at %s; not watching", b.app.config.Path())
		return nil
	}

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := b.app.config.Watch(watchCtx); err != nil {
			b.app.logger.Warn("config watch stopped: %v", err)
		}
	}()
	b.app.watchCancel = cancel
	b.app.watchDone = done
	b.initOrder = append(b.initOrder, "watcher")
	return nil
}

// cleanup performs cleanup in reverse initialization order.
// Called when bootstrap fails partway through.
func (b *bootstrapper) cleanup() {
	for i := len(b.initOrder) - 1; i >= 0; i-- {
		b.cleanupComponent(b.initOrder[i])
	}
}

// cleanupComponent cleans up a single component.
func (b *bootstrapper) cleanupComponent(component string) {
	switch component {
	case "watcher":
		if b.app.watchCancel != nil {
			b.app.watchCancel()
			<-b.app.watchDone
			b.app.watchCancel = nil
		}
	case "engine":
		b.app.engine = nil
		b.app.session = nil
	case "gateway":
		if b.app.gateway != nil {
			_ = b.app.gateway.Close()
			b.app.gateway = nil
		}
	case "state":
		b.app.state = nil
	case "history":
		if b.app.history != nil {
			_ = b.app.history.Close()
			b.app.history = nil
		}
	case "logging":
		if b.app.logger != nil {
			_ = b.app.logger.Close()
			b.app.logger = nil
		}
	case "config":
		b.app.config = nil
	}
}
