// Package topologystore defines the interface for storing and retrieving the
// static structure of the load graph.
//
// The topology store isolates the immutable graph (modules and their
// prerequisite edges) from the mutable load state held by statestore. It is
// created once per load session, populated by the builder, and only read
// while modules are being loaded.
package topologystore

import (
	"context"

	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
)

// Store manages the static topology of the load graph.
//
// Implementations MUST be safe for concurrent reads and writes.
type Store interface {
	// AddModule registers a module. Adding the same ID twice is a no-op.
	AddModule(ctx context.Context, m *module.Module) error

	// AddDependency records that `to` requires `from`, meaning `from` must
	// finish initialization before `to` may start. Both modules must already
	// exist. Edges keep insertion order.
	AddDependency(ctx context.Context, from, to moduleid.ID) error

	// GetModule retrieves a single module by ID.
	GetModule(ctx context.Context, id moduleid.ID) (*module.Module, bool)

	// AllModules returns a snapshot of every module, sorted by ID.
	AllModules(ctx context.Context) []*module.Module

	// DependenciesOf returns the direct prerequisites of a module in
	// declaration order.
	DependenciesOf(ctx context.Context, id moduleid.ID) ([]moduleid.ID, error)

	// DependentsOf returns the modules that directly require the given one,
	// sorted by ID.
	DependentsOf(ctx context.Context, id moduleid.ID) ([]moduleid.ID, error)
}
