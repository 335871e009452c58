package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vk/shimloader/internal/builder"
	"github.com/vk/shimloader/internal/graph"
	"github.com/vk/shimloader/internal/inmemorystore"
	"github.com/vk/shimloader/internal/inmemorytopology"
	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
)

// Plan resolves the load order of the named modules without fetching or
// initializing anything.
func (a *App) Plan(ctx context.Context, names ...string) ([]*module.Module, error) {
	ids, err := moduleid.ParseAll(names)
	if err != nil {
		return nil, err
	}
	g := graph.New(inmemorytopology.New(), inmemorystore.New())
	if err := builder.Build(ctx, g, a.model, ids, a.natives); err != nil {
		return nil, fmt.Errorf("failed to build load graph: %w", err)
	}
	order, err := g.Order(ctx)
	if err != nil {
		return nil, err
	}

	plan := make([]*module.Module, 0, len(order))
	for _, id := range order {
		m, _ := g.Module(ctx, id)
		plan = append(plan, m)
	}
	return plan, nil
}

// WritePlan prints one numbered line per module, in load order.
func WritePlan(w io.Writer, plan []*module.Module) error {
	for i, m := range plan {
		line := fmt.Sprintf("%d. %s", i+1, m)
		if len(m.Deps) > 0 {
			deps := make([]string, len(m.Deps))
			for j, d := range m.Deps {
				deps[j] = d.String()
			}
			line += " <- " + strings.Join(deps, ", ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
