// Package localsession provides a concrete implementation of the
// session.Session and session.Factory interfaces for local, in-process
// loading.
package localsession

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/shimloader/internal/builder"
	"github.com/vk/shimloader/internal/config"
	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/engine"
	"github.com/vk/shimloader/internal/events"
	"github.com/vk/shimloader/internal/executor"
	"github.com/vk/shimloader/internal/graph"
	"github.com/vk/shimloader/internal/inmemorystore"
	"github.com/vk/shimloader/internal/inmemorytopology"
	"github.com/vk/shimloader/internal/localexecutor"
	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/vk/shimloader/internal/registry"
	"github.com/vk/shimloader/internal/scheduler"
	"github.com/vk/shimloader/internal/session"
	"github.com/vk/shimloader/internal/source"
)

// Factory implements session.Factory for local runs. The fields are shared
// by every session it creates.
type Factory struct {
	Fetcher source.Fetcher
	Engines *engine.Registry
	Modules *registry.Registry
	Natives map[moduleid.ID]module.NativeFunc
	Sink    events.Sink
	Workers int
}

var _ session.Factory = (*Factory)(nil)

// NewSession builds the load graph for the entries and wires a fresh
// executor around it.
func (f *Factory) NewSession(ctx context.Context, cfg *config.Model, entries []moduleid.ID) (session.Session, error) {
	runID := uuid.NewString()
	ctx, logger := ctxlog.With(ctx, "run", runID)
	logger.Debug("Creating local session.", "entries", len(entries))

	// --- This is where the dependency injection wiring happens ---
	topoStore := inmemorytopology.New()
	stateStore := inmemorystore.New()
	g := graph.New(topoStore, stateStore)
	if err := builder.Build(ctx, g, cfg, entries, f.Natives); err != nil {
		return nil, err
	}
	sched := scheduler.New(g)
	exec := localexecutor.New(localexecutor.Options{
		Graph:     g,
		Scheduler: sched,
		Fetcher:   f.Fetcher,
		Engines:   f.Engines,
		Modules:   f.Modules,
		Sink:      f.Sink,
		RunID:     runID,
		Workers:   f.Workers,
		Wait:      time.Duration(cfg.Wait()) * time.Second,
	})
	// --- End of dependency injection ---

	return &Session{id: runID, graph: g, executor: exec}, nil
}

// Session implements session.Session for local runs.
type Session struct {
	id       string
	graph    graph.Graph
	executor executor.Executor
}

// ID returns the run identifier.
func (s *Session) ID() string { return s.id }

// Graph returns the load graph of this session.
func (s *Session) Graph() graph.Graph { return s.graph }

// GetExecutor returns the executor that was created and wired up by the factory.
func (s *Session) GetExecutor() (executor.Executor, error) {
	if s.executor == nil {
		return nil, fmt.Errorf("session %s has no executor", s.id)
	}
	return s.executor, nil
}

// Close releases the session. The module registry outlives sessions, so
// there is nothing to tear down beyond logging.
func (s *Session) Close(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Local session closed.", "run", s.id)
	return nil
}
