package engine

import (
	"context"
	"fmt"

	"github.com/vk/shimloader/internal/task"
	"github.com/zclconf/go-cty/cty"
)

// Engine evaluates module scripts of one language.
type Engine interface {
	// Name identifies the engine in logs, e.g. "lua".
	Name() string
	// Extensions lists the file extensions the engine handles, with the dot.
	Extensions() []string
	// Run evaluates the task's source. The prerequisite exports in t.Deps are
	// visible to the script, and the returned value becomes the module's
	// exports.
	Run(ctx context.Context, t *task.Task) (cty.Value, error)
}

// Module is the interface script engine packages implement to be wired into
// an application.
type Module interface {
	Register(r *Registry)
}

// Registry maps file extensions to engines.
type Registry struct {
	engines map[string]Engine
	order   []string
}

// NewRegistry creates an empty engine registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register adds an engine for all of its extensions. Registering an
// extension twice panics, since it is a wiring mistake.
func (r *Registry) Register(e Engine) {
	for _, ext := range e.Extensions() {
		if existing, ok := r.engines[ext]; ok {
			panic(fmt.Sprintf("engine: extension %q registered by both %s and %s", ext, existing.Name(), e.Name()))
		}
		r.engines[ext] = e
		r.order = append(r.order, ext)
	}
}

// ForExtension returns the engine handling ext.
func (r *Registry) ForExtension(ext string) (Engine, bool) {
	e, ok := r.engines[ext]
	return e, ok
}

// Extensions returns the registered extensions in registration order.
func (r *Registry) Extensions() []string {
	return append([]string(nil), r.order...)
}

// Run dispatches the task to the engine for its source extension. Native
// modules bypass engines entirely.
func (r *Registry) Run(ctx context.Context, t *task.Task) (cty.Value, error) {
	if t.Module.IsNative() {
		return t.Module.Native(ctx, t.Deps)
	}
	if t.Source == nil {
		return cty.NilVal, fmt.Errorf("module '%s' has no source", t.Module.ID)
	}
	e, ok := r.engines[t.Source.Ext]
	if !ok {
		return cty.NilVal, fmt.Errorf("no engine registered for %q (%s)", t.Source.Ext, t.Source.Origin)
	}
	return e.Run(ctx, t)
}
