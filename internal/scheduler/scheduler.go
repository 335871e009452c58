package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/executor"
	"github.com/vk/shimloader/internal/graph"
	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/zclconf/go-cty/cty"
)

// DefaultScheduler counts unmet prerequisites per module and emits a module
// when its count drops to zero.
type DefaultScheduler struct {
	g graph.Graph

	mu        sync.Mutex
	unmet     map[moduleid.ID]int
	emitted   map[moduleid.ID]bool
	remaining int
	ready     chan *module.Module
	started   bool
	closed    bool
}

// New creates a scheduler for a fully built graph.
func New(g graph.Graph) Scheduler {
	return &DefaultScheduler{g: g}
}

func (s *DefaultScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.started = true

	modules := s.g.AllModules(ctx)
	// The buffer holds every module, so emitting never blocks while the lock
	// is held.
	s.ready = make(chan *module.Module, len(modules))
	s.unmet = make(map[moduleid.ID]int, len(modules))
	s.emitted = make(map[moduleid.ID]bool, len(modules))
	s.remaining = len(modules)

	roots := 0
	for _, m := range modules {
		deps, err := s.g.Topology().DependenciesOf(ctx, m.ID)
		if err != nil {
			return err
		}
		s.unmet[m.ID] = len(deps)
	}
	for _, m := range modules {
		if s.unmet[m.ID] == 0 {
			s.emit(m)
			roots++
		}
	}
	ctxlog.FromContext(ctx).Debug("Scheduler started.", "modules", len(modules), "roots", roots)
	s.closeIfDone()
	return nil
}

func (s *DefaultScheduler) ReadyModules() <-chan *module.Module {
	return s.ready
}

func (s *DefaultScheduler) Complete(ctx context.Context, id moduleid.ID, exports cty.Value) error {
	if err := s.g.MarkCompleted(ctx, id, exports); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining--

	dependents, err := s.g.DependentsOf(ctx, id)
	if err != nil {
		return err
	}
	for _, d := range dependents {
		s.unmet[d]--
		if s.unmet[d] > 0 || s.emitted[d] {
			continue
		}
		status, err := s.g.Status(ctx, d)
		if err != nil {
			return err
		}
		if status.Terminal() {
			continue
		}
		m, ok := s.g.Module(ctx, d)
		if !ok {
			return fmt.Errorf("dependent module '%s' not found", d)
		}
		ctxlog.FromContext(ctx).Debug("Unlocking dependent module.", "module", d, "prerequisite", id)
		s.emit(m)
	}
	s.closeIfDone()
	return nil
}

func (s *DefaultScheduler) Fail(ctx context.Context, id moduleid.ID, err error) ([]moduleid.ID, error) {
	if markErr := s.g.MarkFailed(ctx, id, err); markErr != nil {
		return nil, markErr
	}
	return s.finishUnsuccessful(ctx, id, func(d moduleid.ID) error {
		return &executor.SkippedError{Module: d, Prerequisite: id, Cause: err}
	})
}

func (s *DefaultScheduler) Skip(ctx context.Context, id moduleid.ID, cause error) ([]moduleid.ID, error) {
	if err := s.g.MarkSkipped(ctx, id, &executor.SkippedError{Module: id, Cause: cause}); err != nil {
		return nil, err
	}
	return s.finishUnsuccessful(ctx, id, func(d moduleid.ID) error {
		return &executor.SkippedError{Module: d, Cause: cause}
	})
}

// finishUnsuccessful accounts for id and walks its transitive dependents,
// marking each non-terminal one skipped.
func (s *DefaultScheduler) finishUnsuccessful(ctx context.Context, id moduleid.ID, reason func(moduleid.ID) error) ([]moduleid.ID, error) {
	logger := ctxlog.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining--

	var skipped []moduleid.ID
	queue := []moduleid.ID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		dependents, err := s.g.DependentsOf(ctx, cur)
		if err != nil {
			return skipped, err
		}
		for _, d := range dependents {
			status, err := s.g.Status(ctx, d)
			if err != nil {
				return skipped, err
			}
			// Emitted modules are owned by a worker, which reports them.
			if status.Terminal() || s.emitted[d] {
				continue
			}
			logger.Warn("Skipping dependent module due to upstream failure.", "module", d, "dependency", cur)
			if err := s.g.MarkSkipped(ctx, d, reason(d)); err != nil {
				return skipped, err
			}
			s.remaining--
			skipped = append(skipped, d)
			queue = append(queue, d)
		}
	}
	s.closeIfDone()
	return skipped, nil
}

func (s *DefaultScheduler) emit(m *module.Module) {
	s.emitted[m.ID] = true
	s.ready <- m
}

func (s *DefaultScheduler) closeIfDone() {
	if s.remaining == 0 && !s.closed {
		s.closed = true
		close(s.ready)
	}
}
