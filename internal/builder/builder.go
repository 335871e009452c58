package builder

import (
	"context"
	"fmt"

	"github.com/vk/shimloader/internal/config"
	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/graph"
	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
)

// Build populates g with every module reachable from entries and validates
// the result. natives maps module names to Go implementations; those modules
// are never fetched.
func Build(ctx context.Context, g graph.Graph, model *config.Model, entries []moduleid.ID, natives map[moduleid.ID]module.NativeFunc) error {
	logger := ctxlog.FromContext(ctx)
	if len(entries) == 0 {
		return fmt.Errorf("no entry modules requested")
	}

	closure, err := closureOf(model, entries)
	if err != nil {
		return err
	}
	logger.Debug("Computed module closure.", "entries", len(entries), "modules", len(closure))

	topo := g.Topology()
	for _, id := range closure {
		m, err := newModule(model, id, natives)
		if err != nil {
			return err
		}
		if err := topo.AddModule(ctx, m); err != nil {
			return fmt.Errorf("failed to add module '%s': %w", id, err)
		}
	}
	for _, id := range closure {
		m, _ := topo.GetModule(ctx, id)
		for _, dep := range m.Deps {
			if err := topo.AddDependency(ctx, dep, id); err != nil {
				return fmt.Errorf("failed to link '%s' -> '%s': %w", id, dep, err)
			}
		}
	}

	if err := g.DetectCycles(ctx); err != nil {
		return err
	}
	logger.Debug("Load graph built.", "modules", len(closure))
	return nil
}

// closureOf walks the shim map breadth-first from the entries and returns
// every reachable module in discovery order.
func closureOf(model *config.Model, entries []moduleid.ID) ([]moduleid.ID, error) {
	seen := make(map[moduleid.ID]struct{})
	queue := append([]moduleid.ID{}, entries...)
	var out []moduleid.ID

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)

		deps, err := moduleid.ParseAll(model.DepsOf(id.String()))
		if err != nil {
			return nil, fmt.Errorf("module '%s': %w", id, err)
		}
		queue = append(queue, deps...)
	}
	return out, nil
}

func newModule(model *config.Model, id moduleid.ID, natives map[moduleid.ID]module.NativeFunc) (*module.Module, error) {
	deps, err := moduleid.ParseAll(model.DepsOf(id.String()))
	if err != nil {
		return nil, fmt.Errorf("module '%s': %w", id, err)
	}
	m := &module.Module{
		ID:       id,
		Location: moduleid.Resolve(id, model.BaseURL, model.Paths),
		Deps:     deps,
		Native:   natives[id],
	}
	if shim, ok := model.Shims[id.String()]; ok {
		m.Exports = shim.Exports
	}
	return m, nil
}
