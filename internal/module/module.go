// Package module defines the vertex of the load graph: one loadable module
// and its lifecycle status.
package module

import (
	"context"
	"fmt"

	"github.com/vk/shimloader/internal/moduleid"
	"github.com/zclconf/go-cty/cty"
)

// NativeFunc initializes a module implemented in Go. deps holds the exports
// of every declared prerequisite keyed by module name.
type NativeFunc func(ctx context.Context, deps map[string]cty.Value) (cty.Value, error)

// Module is a single vertex in the load graph. It carries only the static,
// configuration-derived facts; runtime state lives in a statestore.
type Module struct {
	// ID is the canonical module name.
	ID moduleid.ID
	// Location is where the module source is fetched from. Unused for
	// native modules.
	Location moduleid.Location
	// Deps is the ordered list of declared prerequisites.
	Deps []moduleid.ID
	// Exports names the global that becomes the module's exports when the
	// script does not produce a value.
	Exports string
	// Native, when set, replaces script fetching and evaluation.
	Native NativeFunc
}

// IsNative reports whether the module is implemented in Go.
func (m *Module) IsNative() bool {
	return m.Native != nil
}

func (m *Module) String() string {
	if m.IsNative() {
		return fmt.Sprintf("%s (native)", m.ID)
	}
	return fmt.Sprintf("%s (%s)", m.ID, m.Location)
}

// Status represents the load state of a module.
type Status int32

const (
	// StatusPending means the module has not been started.
	StatusPending Status = iota
	// StatusFetching means the module source is being retrieved.
	StatusFetching
	// StatusRunning means the module initialization is executing.
	StatusRunning
	// StatusCompleted means the module initialized successfully.
	StatusCompleted
	// StatusFailed means fetching or initialization failed.
	StatusFailed
	// StatusSkipped means a prerequisite failed, so the module never ran.
	StatusSkipped
)

var statusNames = [...]string{"pending", "fetching", "running", "completed", "failed", "skipped"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int32(s))
	}
	return statusNames[s]
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusSkipped
}
