// Package statestore defines the interface for the mutable, per-session load
// state of every module: its status, its exports and its error.
package statestore

import (
	"context"

	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/zclconf/go-cty/cty"
)

// Store holds runtime state keyed by module ID. Implementations MUST be safe
// for concurrent use, since workers update different modules in parallel.
type Store interface {
	SetStatus(ctx context.Context, id moduleid.ID, status module.Status) error
	// GetStatus returns StatusPending for modules never written.
	GetStatus(ctx context.Context, id moduleid.ID) (module.Status, error)

	SetExports(ctx context.Context, id moduleid.ID, exports cty.Value) error
	// GetExports returns a null value and false when nothing was recorded.
	GetExports(ctx context.Context, id moduleid.ID) (cty.Value, bool, error)

	SetError(ctx context.Context, id moduleid.ID, modErr error) error
	GetError(ctx context.Context, id moduleid.ID) (error, error)
}
