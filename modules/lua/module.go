// Package lua evaluates module scripts written in Lua.
//
// Each module runs in its own interpreter state. Prerequisite exports are
// visible as the global table `deps`, keyed by module name, and through
// `require(name)`, which only resolves declared prerequisites. The value
// returned by the chunk becomes the module's exports. When the chunk returns
// nothing, the shim's exports global is used, then a global named `exports`.
package lua

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/engine"
	"github.com/vk/shimloader/internal/task"
	lua "github.com/yuin/gopher-lua"
	"github.com/zclconf/go-cty/cty"
)

// Extension is the script extension handled by this engine.
const Extension = ".lua"

// Module implements the engine.Module interface for this package.
type Module struct{}

// Register adds the Lua engine to the registry.
func (m *Module) Register(r *engine.Registry) {
	r.Register(New())
}

// Engine is the Lua implementation of engine.Engine.
type Engine struct{}

// New creates a Lua engine.
func New() *Engine {
	return &Engine{}
}

func (e *Engine) Name() string         { return "lua" }
func (e *Engine) Extensions() []string { return []string{Extension} }

// Run implements engine.Engine.
func (e *Engine) Run(ctx context.Context, t *task.Task) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("module", t.Module.ID, "engine", e.Name())

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		top := L.GetTop()
		parts := make([]string, 0, top)
		for i := 1; i <= top; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		logger.Info(strings.Join(parts, "\t"))
		return 0
	}))

	deps := L.NewTable()
	for name, v := range t.Deps {
		lv, err := toLua(L, v)
		if err != nil {
			return cty.NilVal, fmt.Errorf("failed to expose prerequisite %q: %w", name, err)
		}
		L.SetField(deps, name, lv)
	}
	L.SetGlobal("deps", deps)
	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if _, ok := t.Deps[name]; !ok {
			L.RaiseError("module %q is not a declared prerequisite of %q", name, t.Module.ID)
			return 0
		}
		L.Push(deps.RawGetString(name))
		return 1
	}))

	fn, err := L.LoadString(string(t.Source.Body))
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to load %s: %w", t.Name(), err)
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return cty.NilVal, fmt.Errorf("failed to execute %s: %w", t.Name(), err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	if ret != lua.LNil {
		return fromLua(ret)
	}
	if t.Module.Exports != "" {
		v := lookupGlobal(L, t.Module.Exports)
		if v == lua.LNil {
			return cty.NilVal, fmt.Errorf("exports global %q is not defined by %s", t.Module.Exports, t.Name())
		}
		return fromLua(v)
	}
	return fromLua(L.GetGlobal("exports"))
}

// lookupGlobal resolves a dotted global path such as "Backbone.Model".
func lookupGlobal(L *lua.LState, path string) lua.LValue {
	parts := strings.Split(path, ".")
	v := L.GetGlobal(parts[0])
	for _, p := range parts[1:] {
		tbl, ok := v.(*lua.LTable)
		if !ok {
			return lua.LNil
		}
		v = tbl.RawGetString(p)
	}
	return v
}
