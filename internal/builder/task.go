package builder

import (
	"context"
	"fmt"

	"github.com/vk/shimloader/internal/graph"
	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/source"
	"github.com/vk/shimloader/internal/task"
)

// Task assembles the unit of work for a module whose prerequisites have all
// completed. src is nil for native modules.
func Task(ctx context.Context, g graph.Graph, m *module.Module, src *source.Source) (*task.Task, error) {
	deps, err := g.DepExports(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to collect prerequisites of '%s': %w", m.ID, err)
	}
	if src == nil && !m.IsNative() {
		return nil, fmt.Errorf("module '%s' has no source", m.ID)
	}
	return &task.Task{Module: m, Source: src, Deps: deps}, nil
}
