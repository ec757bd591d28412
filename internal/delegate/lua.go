package delegate

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/logging"
)

// Defaults for LuaGateway.
const (
	DefaultTimeout       = 5 * time.Second
	DefaultCallStackSize = 120
)

//go:embed prelude.lua
var prelude string

// LuaGateway runs delegated command lines in a sandboxed Lua state.
//
// A session exists between Start and Close. gopher-lua's LState is not
// goroutine-safe, so every call into the state holds mu.
type LuaGateway struct {
	mu sync.Mutex
	L  *lua.LState

	active    atomic.Bool
	sessionID string

	script        string
	timeout       time.Duration
	callStackSize int
	logger        *logging.Logger

	// Bound for the duration of Run.
	current *editor.State
	echo    []string
}

// Option configures a LuaGateway.
type Option func(*LuaGateway)

// WithScript loads a Lua file into every new session after the prelude.
func WithScript(path string) Option {
	return func(g *LuaGateway) {
		g.script = path
	}
}

// WithTimeout bounds each Run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(g *LuaGateway) {
		g.timeout = d
	}
}

// WithCallStackSize sets the Lua call stack depth.
func WithCallStackSize(n int) Option {
	return func(g *LuaGateway) {
		if n > 0 {
			g.callStackSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *LuaGateway) {
		g.logger = l
	}
}

// NewLuaGateway creates a gateway without a session.
func NewLuaGateway(opts ...Option) *LuaGateway {
	g := &LuaGateway{
		timeout:       DefaultTimeout,
		callStackSize: DefaultCallStackSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.OrNull(g.logger).WithComponent("delegate")
	return g
}

// Start opens a session: a fresh sandboxed state with the prelude and the
// configured script loaded.
func (g *LuaGateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.L != nil {
		return ErrSessionActive
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: g.callStackSize,
	})
	openSafeLibraries(L)
	installSandbox(L)

	mod := g.newModule(L)
	L.SetGlobal(moduleName, mod)
	L.PreloadModule(moduleName, func(L *lua.LState) int {
		L.Push(mod)
		return 1
	})

	L.SetContext(ctx)
	err := doWithRecovery(func() error {
		if err := L.DoString(prelude); err != nil {
			return fmt.Errorf("loading prelude: %w", err)
		}
		if g.script != "" {
			if err := L.DoFile(g.script); err != nil {
				return fmt.Errorf("loading %s: %w", g.script, err)
			}
		}
		return nil
	})
	L.RemoveContext()
	if err != nil {
		L.Close()
		return err
	}

	g.L = L
	g.sessionID = uuid.NewString()
	g.active.Store(true)
	g.logger.Info("session %s started", g.sessionID)
	return nil
}

// Close ends the session. Closing a gateway without a session is a no-op.
func (g *LuaGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.L == nil {
		return nil
	}
	g.active.Store(false)
	g.L.Close()
	g.L = nil
	g.logger.Info("session %s closed", g.sessionID)
	g.sessionID = ""
	return nil
}

// Restart closes any running session, applies opts and starts a new one.
func (g *LuaGateway) Restart(ctx context.Context, opts ...Option) error {
	if err := g.Close(); err != nil {
		return err
	}
	g.mu.Lock()
	logger := g.logger
	for _, opt := range opts {
		opt(g)
	}
	if g.logger != logger {
		g.logger = logging.OrNull(g.logger).WithComponent("delegate")
	}
	g.mu.Unlock()
	return g.Start(ctx)
}

// HasActiveSession reports whether a session is open.
func (g *LuaGateway) HasActiveSession() bool {
	return g.active.Load()
}

// SessionID returns the current session's identifier, or "" without one.
func (g *LuaGateway) SessionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessionID
}

// Run passes raw to ex.run. The handler's string result, or failing that the
// text queued with ex.echo, becomes the status text.
func (g *LuaGateway) Run(ctx context.Context, st *editor.State, raw string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.L == nil {
		return errorResult(ErrNoSession)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.current, g.echo = st, nil
	g.L.SetContext(ctx)
	defer func() {
		g.L.RemoveContext()
		g.current, g.echo = nil, nil
	}()

	g.logger.Debug("session %s: %q", g.sessionID, raw)

	ret, err := g.callRun(raw)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			g.logger.Warn("session %s: %q aborted: %v", g.sessionID, raw, ctxErr)
			return errorResult(fmt.Errorf("delegation aborted: %w", ctxErr))
		}
		return Result{StatusText: luaErrorText(err), IsError: true}
	}

	switch v := ret.(type) {
	case lua.LString:
		return Result{StatusText: string(v)}
	case *lua.LNilType:
		return Result{StatusText: strings.Join(g.echo, "\n")}
	default:
		return Result{StatusText: v.String()}
	}
}

func (g *LuaGateway) callRun(raw string) (ret lua.LValue, err error) {
	err = doWithRecovery(func() error {
		mod, ok := g.L.GetGlobal(moduleName).(*lua.LTable)
		if !ok {
			return errors.New("ex module is missing")
		}
		fn := g.L.GetField(mod, "run")
		if fn.Type() != lua.LTFunction {
			return errors.New("ex.run is not a function")
		}
		if err := g.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(raw)); err != nil {
			return err
		}
		ret = g.L.Get(-1)
		g.L.Pop(1)
		return nil
	})
	return ret, err
}

// doWithRecovery executes a function with panic recovery.
func doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// luaErrorText extracts the message a script raised. Errors raised with
// level 0 carry no position prefix.
func luaErrorText(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}
