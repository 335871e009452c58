package graph

import (
	"context"
	"sort"

	"github.com/vk/shimloader/internal/moduleid"
)

// Order linearizes the graph with Kahn's algorithm. Among modules whose
// prerequisites are all placed, the smallest ID goes first, which makes the
// result reproducible across runs.
func (m *Manager) Order(ctx context.Context) ([]moduleid.ID, error) {
	if err := m.DetectCycles(ctx); err != nil {
		return nil, err
	}

	modules := m.topology.AllModules(ctx)
	pending := make(map[moduleid.ID]int, len(modules))
	var ready []moduleid.ID
	for _, mod := range modules {
		deps, err := m.topology.DependenciesOf(ctx, mod.ID)
		if err != nil {
			return nil, err
		}
		pending[mod.ID] = len(deps)
		if len(deps) == 0 {
			ready = append(ready, mod.ID)
		}
	}

	order := make([]moduleid.ID, 0, len(modules))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		dependents, err := m.topology.DependentsOf(ctx, next)
		if err != nil {
			return nil, err
		}
		for _, d := range dependents {
			pending[d]--
			if pending[d] == 0 {
				ready = append(ready, d)
			}
		}
	}
	return order, nil
}
