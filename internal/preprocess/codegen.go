package preprocess

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Markers delimiting an embedded code-generation region. Lines strictly
// between them are raw Lua source, never subject to tag filtering.
const (
	BeginMarker = "--code-begin--"
	EndMarker   = "--code-end--"
)

// CodeGen captures a delimited region of embedded Lua source and executes it
// once, splicing emitted lines into the resolved output in place of the
// region. The script sees exactly two things: an emit(line) function and a
// read-only `task` string holding the active task name.
type CodeGen struct {
	buf       []string
	capturing bool
	openLine  int
}

// Begin opens capture of a generation region.
func (g *CodeGen) Begin(line int) {
	g.capturing = true
	g.openLine = line
	g.buf = g.buf[:0]
}

// Capturing reports whether a region is currently being captured.
func (g *CodeGen) Capturing() bool { return g.capturing }

// OpenLine returns the line number of the current region's begin marker.
func (g *CodeGen) OpenLine() int { return g.openLine }

// Append adds one verbatim line to the captured region.
func (g *CodeGen) Append(line string) {
	g.buf = append(g.buf, line)
}

// Execute closes the region and runs the buffered source in a sandboxed Lua
// VM. Each emit(line) call invokes the supplied callback. Compile or runtime
// failure aborts the whole preprocessing pass; it is never downgraded to a
// per-line skip.
func (g *CodeGen) Execute(task string, emit func(string)) error {
	src := strings.Join(g.buf, "\n")
	g.capturing = false
	g.buf = nil

	L, err := newSandbox()
	if err != nil {
		return fmt.Errorf("code block at line %d: %w", g.openLine, err)
	}
	defer L.Close()

	L.SetGlobal("task", lua.LString(task))
	L.SetGlobal("emit", L.NewFunction(func(L *lua.LState) int {
		emit(L.CheckString(1))
		return 0
	}))

	if err := L.DoString(src); err != nil {
		return fmt.Errorf("code block at line %d: %w", g.openLine, err)
	}
	return nil
}

// newSandbox builds a restricted Lua state: string/table/math plus the safe
// parts of the base library. No os, no io, no code loading, no metatable
// access.
func newSandbox() (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	libs := []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("opening lua %s library: %w", lib.name, err)
		}
	}

	// The base library carries escape hatches the scripts must not have.
	blocked := []string{
		"dofile", "loadfile", "load", "loadstring",
		"collectgarbage", "getmetatable", "setmetatable",
		"rawget", "rawset", "rawequal", "print",
	}
	for _, name := range blocked {
		L.SetGlobal(name, lua.LNil)
	}

	return L, nil
}
