package graph

import (
	"context"

	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/vk/shimloader/internal/topologystore"
	"github.com/zclconf/go-cty/cty"
)

// Graph is the single API the scheduler and executor use to read the load
// graph and record load outcomes. All methods are safe for concurrent use.
type Graph interface {
	// Topology exposes the underlying structure store for population.
	Topology() topologystore.Store

	Module(ctx context.Context, id moduleid.ID) (*module.Module, bool)
	AllModules(ctx context.Context) []*module.Module
	// DependenciesOf returns the prerequisite modules in declaration order.
	DependenciesOf(ctx context.Context, id moduleid.ID) ([]*module.Module, error)
	DependentsOf(ctx context.Context, id moduleid.ID) ([]moduleid.ID, error)

	// DetectCycles returns a *CycleError when any prerequisite cycle exists.
	DetectCycles(ctx context.Context) error
	// Order returns a deterministic linearization in which every module
	// follows all of its prerequisites.
	Order(ctx context.Context) ([]moduleid.ID, error)

	Status(ctx context.Context, id moduleid.ID) (module.Status, error)
	Exports(ctx context.Context, id moduleid.ID) (cty.Value, bool)
	Err(ctx context.Context, id moduleid.ID) error
	// DepExports collects the exports of every prerequisite of id, keyed by
	// prerequisite name. All prerequisites must have completed.
	DepExports(ctx context.Context, id moduleid.ID) (map[string]cty.Value, error)

	MarkFetching(ctx context.Context, id moduleid.ID) error
	MarkRunning(ctx context.Context, id moduleid.ID) error
	MarkCompleted(ctx context.Context, id moduleid.ID, exports cty.Value) error
	MarkFailed(ctx context.Context, id moduleid.ID, modErr error) error
	MarkSkipped(ctx context.Context, id moduleid.ID, cause error) error
}
