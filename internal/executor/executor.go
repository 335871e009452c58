// Package executor defines the contract for running a built load graph and
// the errors a run reports.
package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/shimloader/internal/moduleid"
)

// Executor initializes every module of a built graph in dependency order.
type Executor interface {
	// Execute blocks until every module reached a terminal state. It returns
	// nil only if all modules completed.
	Execute(ctx context.Context) error
}

// FetchError reports a module whose source could not be retrieved.
type FetchError struct {
	Module     moduleid.ID
	RequiredBy []moduleid.ID
	Err        error
}

func (e *FetchError) Error() string {
	if len(e.RequiredBy) == 0 {
		return fmt.Sprintf("failed to load module '%s': %v", e.Module, e.Err)
	}
	return fmt.Sprintf("failed to load module '%s' (required by %s): %v", e.Module, joinIDs(e.RequiredBy), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// InitError reports a module whose own initialization code failed.
type InitError struct {
	Module moduleid.ID
	Err    error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("module '%s' failed to initialize: %v", e.Module, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// SkippedError marks a module that never ran. Prerequisite names the failed
// prerequisite; it is empty when the run was canceled.
type SkippedError struct {
	Module       moduleid.ID
	Prerequisite moduleid.ID
	Cause        error
}

func (e *SkippedError) Error() string {
	if e.Prerequisite != "" {
		return fmt.Sprintf("skipped '%s' due to upstream failure of '%s'", e.Module, e.Prerequisite)
	}
	return fmt.Sprintf("skipped '%s': %v", e.Module, e.Cause)
}

func (e *SkippedError) Unwrap() error { return e.Cause }

func joinIDs(ids []moduleid.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
