package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/vk/shimloader/internal/statestore"
	"github.com/vk/shimloader/internal/topologystore"
	"github.com/zclconf/go-cty/cty"
)

// Manager provides a high-level, thread-safe interface to the load graph by
// composing the topology and state stores.
type Manager struct {
	topology topologystore.Store
	state    statestore.Store

	// transitions serializes status changes so that the terminal-state
	// check and the write are atomic.
	transitions sync.Mutex
}

// New creates a new graph manager.
func New(ts topologystore.Store, ss statestore.Store) Graph {
	return &Manager{topology: ts, state: ss}
}

func (m *Manager) Topology() topologystore.Store {
	return m.topology
}

func (m *Manager) Module(ctx context.Context, id moduleid.ID) (*module.Module, bool) {
	return m.topology.GetModule(ctx, id)
}

func (m *Manager) AllModules(ctx context.Context) []*module.Module {
	return m.topology.AllModules(ctx)
}

func (m *Manager) DependenciesOf(ctx context.Context, id moduleid.ID) ([]*module.Module, error) {
	ids, err := m.topology.DependenciesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	deps := make([]*module.Module, 0, len(ids))
	for _, depID := range ids {
		dep, ok := m.topology.GetModule(ctx, depID)
		if !ok {
			return nil, fmt.Errorf("module '%s' requires unknown module '%s'", id, depID)
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

func (m *Manager) DependentsOf(ctx context.Context, id moduleid.ID) ([]moduleid.ID, error) {
	return m.topology.DependentsOf(ctx, id)
}

func (m *Manager) Status(ctx context.Context, id moduleid.ID) (module.Status, error) {
	return m.state.GetStatus(ctx, id)
}

func (m *Manager) Exports(ctx context.Context, id moduleid.ID) (cty.Value, bool) {
	v, ok, err := m.state.GetExports(ctx, id)
	if err != nil {
		return cty.NullVal(cty.DynamicPseudoType), false
	}
	return v, ok
}

func (m *Manager) Err(ctx context.Context, id moduleid.ID) error {
	err, _ := m.state.GetError(ctx, id)
	return err
}

func (m *Manager) DepExports(ctx context.Context, id moduleid.ID) (map[string]cty.Value, error) {
	deps, err := m.topology.DependenciesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make(map[string]cty.Value, len(deps))
	for _, dep := range deps {
		status, err := m.state.GetStatus(ctx, dep)
		if err != nil {
			return nil, err
		}
		if status != module.StatusCompleted {
			return nil, fmt.Errorf("prerequisite '%s' of '%s' is %s, not completed", dep, id, status)
		}
		v, _, err := m.state.GetExports(ctx, dep)
		if err != nil {
			return nil, err
		}
		out[dep.String()] = v
	}
	return out, nil
}

func (m *Manager) MarkFetching(ctx context.Context, id moduleid.ID) error {
	return m.transition(ctx, id, module.StatusFetching, nil)
}

func (m *Manager) MarkRunning(ctx context.Context, id moduleid.ID) error {
	return m.transition(ctx, id, module.StatusRunning, nil)
}

func (m *Manager) MarkCompleted(ctx context.Context, id moduleid.ID, exports cty.Value) error {
	return m.transition(ctx, id, module.StatusCompleted, func() error {
		return m.state.SetExports(ctx, id, exports)
	})
}

func (m *Manager) MarkFailed(ctx context.Context, id moduleid.ID, modErr error) error {
	return m.transition(ctx, id, module.StatusFailed, func() error {
		return m.state.SetError(ctx, id, modErr)
	})
}

func (m *Manager) MarkSkipped(ctx context.Context, id moduleid.ID, cause error) error {
	return m.transition(ctx, id, module.StatusSkipped, func() error {
		if cause == nil {
			return nil
		}
		return m.state.SetError(ctx, id, cause)
	})
}

func (m *Manager) transition(ctx context.Context, id moduleid.ID, to module.Status, record func() error) error {
	if _, ok := m.topology.GetModule(ctx, id); !ok {
		return fmt.Errorf("module '%s' not found in graph", id)
	}

	m.transitions.Lock()
	defer m.transitions.Unlock()

	from, err := m.state.GetStatus(ctx, id)
	if err != nil {
		return err
	}
	if from.Terminal() {
		return fmt.Errorf("module '%s' is already %s, cannot mark %s", id, from, to)
	}
	if record != nil {
		if err := record(); err != nil {
			return err
		}
	}
	if err := m.state.SetStatus(ctx, id, to); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Module status changed.", "module", id, "from", from, "to", to)
	return nil
}
