// Package app wires the exline components together: configuration,
// logging, history persistence, the Lua delegation gateway, the terminal
// surfaces and the command-line engine.
package app

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dshills/exline/internal/cmdline"
	"github.com/dshills/exline/internal/config"
	"github.com/dshills/exline/internal/delegate"
	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/histstore"
	"github.com/dshills/exline/internal/logging"
	"github.com/dshills/exline/internal/ui"
)

// Application owns every long-lived component of one exline process.
type Application struct {
	opts Options

	config   *config.Manager
	logger   *logging.Logger
	history  histstore.Store
	gateway  *delegate.LuaGateway
	state    *editor.State
	status   *ui.StatusLine
	prompter *ui.Prompter
	engine   *cmdline.Engine
	session  *cmdline.Session

	// applied is the configuration the components were last set up from.
	applied atomic.Pointer[config.Config]

	watchCancel context.CancelFunc
	watchDone   chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool
}

// Options configures the application.
type Options struct {
	// ConfigPath is the configuration file. Empty uses config.DefaultPath.
	ConfigPath string

	// File is the file to edit. Empty starts with an unnamed buffer.
	File string

	// LogLevel, LogFile and HistoryFile override the configuration file.
	LogLevel    string
	LogFile     string
	HistoryFile string

	// Delegate forces delegation on.
	Delegate bool

	// Watch reloads the configuration when the file changes.
	Watch bool

	// In and Out default to the process's stdin and stdout.
	In  io.Reader
	Out io.Writer

	// PrompterOptions are passed to ui.NewPrompter.
	PrompterOptions []ui.PrompterOption
}

// New builds and starts every component. On failure the components started
// so far are closed again.
func New(ctx context.Context, opts Options) (*Application, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.DefaultPath()
	}

	app := &Application{opts: opts}
	if err := newBootstrapper(app, opts).bootstrap(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// Engine returns the command-line engine.
func (app *Application) Engine() *cmdline.Engine { return app.engine }

// Session returns the interactive command-line session.
func (app *Application) Session() *cmdline.Session { return app.session }

// State returns the editor state commands run against.
func (app *Application) State() *editor.State { return app.state }

// Config returns the active configuration.
func (app *Application) Config() *config.Config { return app.config.Config() }

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger { return app.logger }

// Exec runs each line as if typed on the command line. It stops with
// ErrQuit once a quit command succeeds.
func (app *Application) Exec(ctx context.Context, lines []string) error {
	if app.closed.Load() {
		return ErrClosed
	}
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		app.session.Open(app.state.Mode())
		app.session.SetText(line)
		var err error
		app.report(func() { err = app.session.Submit(ctx, app.state) })
		if err != nil {
			return err
		}
		if app.state.QuitRequested() {
			return ErrQuit
		}
	}
	return nil
}

// Interactive prompts for command lines until the input ends, ctx is done
// or a quit command succeeds.
func (app *Application) Interactive(ctx context.Context) error {
	if app.closed.Load() {
		return ErrClosed
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		app.report(func() { app.engine.PromptAndRun(ctx, "", app.state) })
		if app.state.QuitRequested() {
			return ErrQuit
		}
		if app.prompter.Exhausted() {
			return nil
		}
	}
}

// report clears the status, runs fn and shows whatever status it left.
func (app *Application) report(fn func()) {
	app.state.SetStatus("", false)
	fn()
	app.status.Flush(app.state)
}

// PickHistory lets the user choose a history entry, newest first.
func (app *Application) PickHistory(ctx context.Context) (string, bool) {
	return app.engine.ShowHistory(ctx, "")
}

// ClearHistory removes every persisted history entry.
func (app *Application) ClearHistory(ctx context.Context) error {
	if err := app.history.Clear(ctx); err != nil {
		return NewComponentError("history", "clear", err)
	}
	return nil
}

// Close stops the config watcher and releases the gateway, the history store
// and the log file.
func (app *Application) Close() error {
	var errs ErrorList
	app.closeOnce.Do(func() {
		app.closed.Store(true)
		if app.watchCancel != nil {
			app.watchCancel()
			<-app.watchDone
		}
		if app.gateway != nil {
			if err := app.gateway.Close(); err != nil {
				errs.Add(NewComponentError("delegate", "close", err))
			}
		}
		if app.history != nil {
			if err := app.history.Close(); err != nil {
				errs.Add(NewComponentError("history", "close", err))
			}
		}
		if app.logger != nil {
			errs.Add(app.logger.Close())
		}
	})
	return errs.AsError()
}

// applyConfig brings running components in line with a reloaded
// configuration.
func (app *Application) applyConfig(ctx context.Context, cfg *config.Config) {
	prev := app.applied.Load()
	app.logger.SetLevel(logging.ParseLogLevel(cfg.Log.Level))

	if prev == nil || prev.Delegation != cfg.Delegation {
		app.applyDelegation(ctx, cfg.Delegation)
	}
	if prev != nil && prev.History != cfg.History {
		app.logger.Info("history settings changed; restart to apply")
	}
	app.applied.Store(cfg.Clone())
}

func (app *Application) applyDelegation(ctx context.Context, d config.DelegationConfig) {
	if !d.Enabled {
		if err := app.gateway.Close(); err != nil {
			app.logger.Warn("closing delegation session: %v", err)
		}
		return
	}
	err := app.gateway.Restart(ctx,
		delegate.WithScript(d.Script),
		delegate.WithTimeout(d.Timeout.Std()),
		delegate.WithCallStackSize(d.CallStackSize),
	)
	if err != nil {
		// Commands still run locally without a session.
		app.logger.Warn("starting delegation session: %v", err)
	}
}
