package task

import (
	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/source"
	"github.com/zclconf/go-cty/cty"
)

// Task represents a module that is fully prepared for initialization.
// It is produced by the builder and consumed by a script engine or a
// native function.
type Task struct {
	// Module is the module definition from the graph.
	Module *module.Module

	// Source is the fetched script. It is nil for native modules.
	Source *source.Source

	// Deps holds the exports of every prerequisite, keyed by module name.
	Deps map[string]cty.Value
}

// Name returns a human-readable name for diagnostics, the source origin when
// one is known.
func (t *Task) Name() string {
	if t.Source != nil {
		return t.Source.Origin
	}
	return t.Module.ID.String()
}
