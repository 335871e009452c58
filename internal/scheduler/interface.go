package scheduler

import (
	"context"

	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/zclconf/go-cty/cty"
)

// Scheduler streams ready modules and tracks outcomes.
type Scheduler interface {
	// Start seeds the ready channel with modules that have no
	// prerequisites. It must be called once, before any outcome is reported.
	Start(ctx context.Context) error

	// ReadyModules streams each module exactly once, as soon as it is ready.
	// The channel is closed when every module reached a terminal state, so
	// the executor MUST report an outcome for every module it receives.
	ReadyModules() <-chan *module.Module

	// Complete records a successful initialization and releases dependents.
	Complete(ctx context.Context, id moduleid.ID, exports cty.Value) error

	// Fail records a failed module and skips its transitive dependents,
	// returning the IDs that were skipped.
	Fail(ctx context.Context, id moduleid.ID, err error) ([]moduleid.ID, error)

	// Skip records that a ready module was not run, for example because the
	// run was canceled, and skips its transitive dependents as well.
	Skip(ctx context.Context, id moduleid.ID, cause error) ([]moduleid.ID, error)
}
