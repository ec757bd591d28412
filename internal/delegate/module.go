package delegate

import (
	"strings"
	"unicode/utf8"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/exline/internal/editor"
	"github.com/dshills/exline/internal/excmd"
)

// moduleName is the global table (and require name) of the editor API.
const moduleName = "ex"

// newModule builds the ex table. Its functions operate on the editor state
// bound by Run and fail when called outside a command.
func (g *LuaGateway) newModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"line_count": g.luaLineCount,
		"get_line":   g.luaGetLine,
		"set_line":   g.luaSetLine,
		"append":     g.luaAppend,
		"delete":     g.luaDelete,
		"cursor":     g.luaCursor,
		"set_cursor": g.luaSetCursor,
		"mark":       g.luaMark,
		"set_mark":   g.luaSetMark,
		"echo":       g.luaEcho,
		"eval":       g.luaEval,
		"range":      g.luaRange,
	})
	return mod
}

func (g *LuaGateway) state(L *lua.LState) *editor.State {
	if g.current == nil {
		L.RaiseError("ex: no command is running")
	}
	return g.current
}

func (g *LuaGateway) luaLineCount(L *lua.LState) int {
	st := g.state(L)
	L.Push(lua.LNumber(st.Buffer.LineCount()))
	return 1
}

// ex.get_line(n) returns line n (1-based).
func (g *LuaGateway) luaGetLine(L *lua.LState) int {
	st := g.state(L)
	n := L.CheckInt(1)
	text, err := st.Buffer.Line(n - 1)
	if err != nil {
		L.ArgError(1, "line out of range")
	}
	L.Push(lua.LString(text))
	return 1
}

func (g *LuaGateway) luaSetLine(L *lua.LState) int {
	st := g.state(L)
	n := L.CheckInt(1)
	text := L.CheckString(2)
	if err := st.Buffer.SetLine(n-1, text); err != nil {
		L.ArgError(1, "line out of range")
	}
	return 0
}

// ex.append(n, text) inserts text (a string or a list of strings) after
// line n; 0 inserts at the top.
func (g *LuaGateway) luaAppend(L *lua.LState) int {
	st := g.state(L)
	n := L.CheckInt(1)

	var lines []string
	switch v := L.Get(2).(type) {
	case lua.LString:
		lines = []string{string(v)}
	case *lua.LTable:
		for i := 1; i <= v.Len(); i++ {
			lines = append(lines, v.RawGetInt(i).String())
		}
	default:
		L.ArgError(2, "string or table expected")
	}

	if err := st.Buffer.InsertLines(n, lines); err != nil {
		L.ArgError(1, "line out of range")
	}
	return 0
}

// ex.delete(first [, last]) removes the given lines.
func (g *LuaGateway) luaDelete(L *lua.LState) int {
	st := g.state(L)
	first := L.CheckInt(1)
	last := L.OptInt(2, first)
	if first < 1 || last < first {
		L.ArgError(1, "invalid range")
	}
	if _, err := st.Buffer.DeleteLines(first-1, last); err != nil {
		L.ArgError(2, "line out of range")
	}
	st.SetCursor(first)
	return 0
}

func (g *LuaGateway) luaCursor(L *lua.LState) int {
	st := g.state(L)
	L.Push(lua.LNumber(st.Cursor()))
	return 1
}

func (g *LuaGateway) luaSetCursor(L *lua.LState) int {
	st := g.state(L)
	st.SetCursor(L.CheckInt(1))
	return 0
}

// ex.mark(name) returns the line of a mark, or nil when it is not set.
func (g *LuaGateway) luaMark(L *lua.LState) int {
	st := g.state(L)
	line, ok := st.Mark(g.markName(L))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(line))
	return 1
}

// ex.set_mark(name, line) sets a mark for later 'x addresses.
func (g *LuaGateway) luaSetMark(L *lua.LState) int {
	st := g.state(L)
	name := g.markName(L)
	line := L.CheckInt(2)
	if line < 1 || line > st.Buffer.LineCount() {
		L.ArgError(2, "line out of range")
	}
	st.SetMark(name, line)
	return 0
}

func (g *LuaGateway) markName(L *lua.LState) rune {
	s := L.CheckString(1)
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || !excmd.IsMarkName(r) {
		L.ArgError(1, "invalid mark name")
	}
	return r
}

// ex.echo(...) queues a message for the status line.
func (g *LuaGateway) luaEcho(L *lua.LState) int {
	g.state(L)
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.Get(i).String())
	}
	g.echo = append(g.echo, strings.Join(parts, " "))
	return 0
}

// ex.eval(chunk) compiles and runs a chunk in the sandboxed environment.
func (g *LuaGateway) luaEval(L *lua.LState) int {
	g.state(L)
	fn, err := L.LoadString(L.CheckString(1))
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
	L.Push(fn)
	L.Call(0, 0)
	return 0
}

// ex.range(line) splits a range prefix off line and resolves it. It returns
// first, last and the rest of the line; first and last are nil without a
// range.
func (g *LuaGateway) luaRange(L *lua.LState) int {
	st := g.state(L)
	r, rest, err := excmd.ParseRange(L.CheckString(1))
	if err != nil {
		L.Error(lua.LString(err.Error()), 0)
	}
	if r == nil {
		L.Push(lua.LNil)
		L.Push(lua.LNil)
		L.Push(lua.LString(rest))
		return 3
	}
	first, last, err := r.Resolve(st)
	if err != nil {
		L.Error(lua.LString(err.Error()), 0)
	}
	if first == 0 {
		first = 1
	}
	if last == 0 {
		last = 1
	}
	L.Push(lua.LNumber(first))
	L.Push(lua.LNumber(last))
	L.Push(lua.LString(rest))
	return 3
}
