// Package starlark evaluates module scripts written in Starlark.
//
// Prerequisite exports are predeclared as the frozen dict `deps` and through
// the builtin `require(name)`. After the script runs, the shim's exports
// global becomes the module's exports, falling back to a global named
// `exports`. Starlark files cannot return a value at top level.
package starlark

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/engine"
	"github.com/vk/shimloader/internal/task"
	"github.com/zclconf/go-cty/cty"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Extension is the script extension handled by this engine.
const Extension = ".star"

// Module implements the engine.Module interface for this package.
type Module struct{}

// Register adds the Starlark engine to the registry.
func (m *Module) Register(r *engine.Registry) {
	r.Register(New())
}

// Engine is the Starlark implementation of engine.Engine.
type Engine struct {
	opts *syntax.FileOptions
}

// New creates a Starlark engine. Top-level reassignment is allowed so that
// scripts can build up `exports` incrementally.
func New() *Engine {
	return &Engine{opts: &syntax.FileOptions{
		GlobalReassign:  true,
		TopLevelControl: true,
	}}
}

func (e *Engine) Name() string         { return "starlark" }
func (e *Engine) Extensions() []string { return []string{Extension} }

// Run implements engine.Engine.
func (e *Engine) Run(ctx context.Context, t *task.Task) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("module", t.Module.ID, "engine", e.Name())

	deps := starlarkLib.NewDict(len(t.Deps))
	for name, v := range t.Deps {
		sv, err := toStarlark(v)
		if err != nil {
			return cty.NilVal, fmt.Errorf("failed to expose prerequisite %q: %w", name, err)
		}
		if err := deps.SetKey(starlarkLib.String(name), sv); err != nil {
			return cty.NilVal, err
		}
	}
	deps.Freeze()

	predeclared := starlarkLib.StringDict{
		"deps": deps,
		"require": starlarkLib.NewBuiltin("require", func(thread *starlarkLib.Thread, b *starlarkLib.Builtin, args starlarkLib.Tuple, kwargs []starlarkLib.Tuple) (starlarkLib.Value, error) {
			var name string
			if err := starlarkLib.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
				return nil, err
			}
			v, found, err := deps.Get(starlarkLib.String(name))
			if err != nil {
				return nil, err
			}
			if !found {
				return nil, fmt.Errorf("module %q is not a declared prerequisite of %q", name, t.Module.ID)
			}
			return v, nil
		}),
	}

	f, err := e.opts.Parse(t.Name(), t.Source.Body, 0)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to parse %s: %w", t.Name(), err)
	}
	prog, err := starlarkLib.FileProgram(f, predeclared.Has)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to compile %s: %w", t.Name(), err)
	}

	thread := &starlarkLib.Thread{
		Name: t.Module.ID.String(),
		Print: func(_ *starlarkLib.Thread, msg string) {
			logger.Info(msg)
		},
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	globals, err := prog.Init(thread, predeclared)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to execute %s: %w", t.Name(), err)
	}

	if t.Module.Exports != "" {
		v, ok := lookupGlobal(globals, t.Module.Exports)
		if !ok {
			return cty.NilVal, fmt.Errorf("exports global %q is not defined by %s", t.Module.Exports, t.Name())
		}
		return fromStarlark(v)
	}
	if v, ok := globals["exports"]; ok {
		return fromStarlark(v)
	}
	return cty.NullVal(cty.DynamicPseudoType), nil
}

// lookupGlobal resolves a dotted path through dicts and struct-like values.
func lookupGlobal(globals starlarkLib.StringDict, path string) (starlarkLib.Value, bool) {
	parts := strings.Split(path, ".")
	v, ok := globals[parts[0]]
	if !ok {
		return nil, false
	}
	for _, p := range parts[1:] {
		switch c := v.(type) {
		case *starlarkLib.Dict:
			next, found, err := c.Get(starlarkLib.String(p))
			if err != nil || !found {
				return nil, false
			}
			v = next
		case starlarkLib.HasAttrs:
			next, err := c.Attr(p)
			if err != nil || next == nil {
				return nil, false
			}
			v = next
		default:
			return nil, false
		}
	}
	return v, true
}
