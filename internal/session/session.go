// Package session defines the unit of work for one load request: a freshly
// built graph plus the executor that loads it. Sessions are short-lived;
// state shared between requests lives in the module registry.
package session

import (
	"context"

	"github.com/vk/shimloader/internal/config"
	"github.com/vk/shimloader/internal/executor"
	"github.com/vk/shimloader/internal/graph"
	"github.com/vk/shimloader/internal/moduleid"
)

// Factory creates sessions.
type Factory interface {
	NewSession(ctx context.Context, cfg *config.Model, entries []moduleid.ID) (Session, error)
}

// Session is one load run.
type Session interface {
	ID() string
	Graph() graph.Graph
	GetExecutor() (executor.Executor, error)
	Close(ctx context.Context) error
}
