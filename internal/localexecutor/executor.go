// Package localexecutor provides a concrete, in-process implementation of the
// executor.Executor interface.
//
// A run has two phases that overlap. Prefetching downloads the source of
// every script module concurrently, bounded by the worker count. The worker
// pool consumes ready modules from the scheduler; a worker waits only for the
// source of the module it is about to initialize. Initialization goes through
// the module registry, so a module already initialized by an earlier run is
// reused and never fetched again.
package localexecutor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vk/shimloader/internal/builder"
	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/engine"
	"github.com/vk/shimloader/internal/events"
	"github.com/vk/shimloader/internal/executor"
	"github.com/vk/shimloader/internal/graph"
	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/vk/shimloader/internal/registry"
	"github.com/vk/shimloader/internal/scheduler"
	"github.com/vk/shimloader/internal/source"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/errgroup"
)

// Options wires an Executor.
type Options struct {
	Graph     graph.Graph
	Scheduler scheduler.Scheduler
	Fetcher   source.Fetcher
	Engines   *engine.Registry
	Modules   *registry.Registry
	Sink      events.Sink
	RunID     string
	// Workers bounds both concurrent fetches and concurrent initializations.
	Workers int
	// Wait bounds each module fetch. Zero disables the timeout.
	Wait time.Duration
}

// Executor implements the executor.Executor interface for local execution.
type Executor struct {
	opts Options

	mu       sync.Mutex
	failures []failure
}

type failure struct {
	id  moduleid.ID
	err error
}

// fetchResult is filled by the prefetcher; done is closed once src or err
// is set.
type fetchResult struct {
	done chan struct{}
	src  *source.Source
	err  error
}

var _ executor.Executor = (*Executor)(nil)

// New creates a new local executor.
func New(opts Options) *Executor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Sink == nil {
		opts.Sink = events.Multi{}
	}
	return &Executor{opts: opts}
}

// Execute runs every module of the graph. The first real failure cancels the
// run; modules that could not run are reported as skipped. The returned
// error names every failed module and wraps the first failure.
func (e *Executor) Execute(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()
	e.emit(ctx, events.Event{Kind: events.RunStarted})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	fetches, waitFetches := e.prefetch(runCtx)

	if err := e.opts.Scheduler.Start(runCtx); err != nil {
		cancel()
		waitFetches()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Debug("Starting worker pool.", "workers", e.opts.Workers)
	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.worker(runCtx, cancel, fetches, workerID)
		}(i)
	}
	wg.Wait()

	// Unneeded fetches are abandoned once every module is terminal.
	cancel()
	waitFetches()

	err := e.result(ctx)
	finished := events.Event{Kind: events.RunFinished, Duration: time.Since(start)}
	if err != nil {
		finished.Err = err.Error()
	}
	e.emit(ctx, finished)
	logger.Debug("All modules reached a terminal state.", "duration", time.Since(start))
	return err
}

// prefetch starts downloading every script module not yet claimed by the
// registry. The returned function blocks until every fetch has returned.
func (e *Executor) prefetch(ctx context.Context) (map[moduleid.ID]*fetchResult, func()) {
	logger := ctxlog.FromContext(ctx)
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(e.opts.Workers)

	fetches := make(map[moduleid.ID]*fetchResult)
	var toFetch []*module.Module
	for _, m := range e.opts.Graph.AllModules(ctx) {
		if m.IsNative() || e.opts.Modules.Has(m.ID) {
			continue
		}
		fetches[m.ID] = &fetchResult{done: make(chan struct{})}
		toFetch = append(toFetch, m)
	}
	logger.Debug("Prefetching module sources.", "count", len(toFetch))

	// Scheduling happens in the background so that a full errgroup never
	// delays the worker pool.
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for _, m := range toFetch {
			res := fetches[m.ID]
			m := m
			group.Go(func() error {
				defer close(res.done)
				res.src, res.err = e.fetch(gctx, m)
				// Fetch errors are reported by the worker that needs the
				// module, so the group itself never fails.
				return nil
			})
		}
	}()
	return fetches, func() {
		<-launched
		_ = group.Wait()
	}
}

func (e *Executor) fetch(ctx context.Context, m *module.Module) (*source.Source, error) {
	if e.opts.Wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Wait)
		defer cancel()
	}
	start := time.Now()
	src, err := e.opts.Fetcher.Fetch(ctx, m.Location, e.opts.Engines.Extensions())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("load timeout after %s: %w", e.opts.Wait, err)
		}
		return nil, err
	}
	e.emit(ctx, events.Event{Kind: events.Fetched, Module: m.ID, Duration: time.Since(start)})
	return src, nil
}

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, cancel context.CancelFunc, fetches map[moduleid.ID]*fetchResult, workerID int) {
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)
	logger.Debug("Worker started.")

	for m := range e.opts.Scheduler.ReadyModules() {
		wctx := ctxlog.WithLogger(ctx, logger.With("module", m.ID))
		if ctx.Err() != nil {
			e.skip(wctx, m.ID, ctx.Err())
			continue
		}

		start := time.Now()
		exports, ran, err := e.opts.Modules.Load(wctx, m.ID, func(ctx context.Context) (cty.Value, error) {
			return e.initialize(ctx, m, fetches[m.ID])
		})

		switch {
		case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
			e.skip(wctx, m.ID, err)
		case err != nil:
			logger.Debug("Module failed.", "module", m.ID, "error", err)
			e.recordFailure(m.ID, err)
			cancel()
			e.emit(wctx, events.Event{Kind: events.Failed, Module: m.ID, Duration: time.Since(start), Err: err.Error()})
			skipped, schedErr := e.opts.Scheduler.Fail(wctx, m.ID, err)
			if schedErr != nil {
				logger.Error("Failed to record module failure.", "module", m.ID, "error", schedErr)
			}
			for _, id := range skipped {
				e.emit(wctx, events.Event{Kind: events.Skipped, Module: id, Err: fmt.Sprintf("prerequisite '%s' failed", m.ID)})
			}
		default:
			kind := events.Completed
			if !ran {
				kind = events.Cached
			}
			if schedErr := e.opts.Scheduler.Complete(wctx, m.ID, exports); schedErr != nil {
				logger.Error("Failed to record module completion.", "module", m.ID, "error", schedErr)
			}
			e.emit(wctx, events.Event{Kind: kind, Module: m.ID, Duration: time.Since(start)})
		}
	}
	logger.Debug("Worker finished.")
}

// initialize runs inside the registry's exactly-once guard.
func (e *Executor) initialize(ctx context.Context, m *module.Module, fr *fetchResult) (cty.Value, error) {
	g := e.opts.Graph
	var src *source.Source
	if !m.IsNative() {
		if err := g.MarkFetching(ctx, m.ID); err != nil {
			return cty.NilVal, err
		}
		if fr == nil {
			// Claimed by another run after prefetching started, then
			// undefined; fetch inline.
			fr = &fetchResult{done: make(chan struct{})}
			fr.src, fr.err = e.fetch(ctx, m)
			close(fr.done)
		}
		select {
		case <-fr.done:
		case <-ctx.Done():
			return cty.NilVal, ctx.Err()
		}
		if fr.err != nil {
			return cty.NilVal, e.fetchError(ctx, m.ID, fr.err)
		}
		src = fr.src
	}

	if err := g.MarkRunning(ctx, m.ID); err != nil {
		return cty.NilVal, err
	}
	t, err := builder.Task(ctx, g, m, src)
	if err != nil {
		return cty.NilVal, err
	}
	exports, err := e.opts.Engines.Run(ctx, t)
	if err != nil {
		if ctx.Err() != nil {
			// Interpreters report cancellation in their own words.
			return cty.NilVal, fmt.Errorf("initialization of '%s' interrupted: %w", m.ID, ctx.Err())
		}
		return cty.NilVal, &executor.InitError{Module: m.ID, Err: err}
	}
	return exports, nil
}

func (e *Executor) fetchError(ctx context.Context, id moduleid.ID, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("fetching '%s' interrupted: %w", id, ctx.Err())
	}
	requiredBy, _ := e.opts.Graph.DependentsOf(ctx, id)
	return &executor.FetchError{Module: id, RequiredBy: requiredBy, Err: err}
}

func (e *Executor) skip(ctx context.Context, id moduleid.ID, cause error) {
	skipped, err := e.opts.Scheduler.Skip(ctx, id, cause)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to record skipped module.", "module", id, "error", err)
	}
	for _, s := range append([]moduleid.ID{id}, skipped...) {
		e.emit(ctx, events.Event{Kind: events.Skipped, Module: s, Err: cause.Error()})
	}
}

func (e *Executor) recordFailure(id moduleid.ID, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures = append(e.failures, failure{id: id, err: err})
}

// result builds the run error: every root failure by name, wrapping the
// first one. Without failures, a canceled parent context is reported.
func (e *Executor) result(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.failures) == 0 {
		return ctx.Err()
	}
	names := make([]string, len(e.failures))
	for i, f := range e.failures {
		names[i] = f.id.String()
	}
	sort.Strings(names)
	return fmt.Errorf("load failed for %s: %w", strings.Join(names, ", "), e.failures[0].err)
}

func (e *Executor) emit(ctx context.Context, ev events.Event) {
	ev.RunID = e.opts.RunID
	ev.Time = time.Now()
	if err := e.opts.Sink.Emit(ctx, ev); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to emit load event.", "kind", ev.Kind, "error", err)
	}
}
