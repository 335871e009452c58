package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/localsession"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/vk/shimloader/modules/socketio"
	"github.com/zclconf/go-cty/cty"
)

// ErrNoEntries is returned when neither the configuration nor the caller
// names a module to load.
var ErrNoEntries = errors.New("no entry modules: set require in the configuration or pass -require")

// Run executes the main application logic: it loads the entry modules, or
// prints their load order in plan mode.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.cfg.HealthcheckPort > 0 {
		a.startHealthCheckServer(ctx)
	}
	if a.cfg.EventsURL != "" {
		if err := a.connectEvents(ctx); err != nil {
			return err
		}
	}

	entries := a.entries()
	if len(entries) == 0 {
		return ErrNoEntries
	}

	if a.cfg.Plan {
		plan, err := a.Plan(ctx, entries...)
		if err != nil {
			return err
		}
		return WritePlan(a.outW, plan)
	}

	a.logger.Info("🚀 Loading modules...", "entries", entries)
	exports, err := a.Require(ctx, entries...)
	if err != nil {
		return err
	}
	a.logger.Info("🏁 Load finished.", "entries", len(exports), "registered", len(a.modules.Loaded()))
	return nil
}

// entries returns the modules requested at startup. The command line list
// replaces the configured one.
func (a *App) entries() []string {
	if len(a.cfg.Require) > 0 {
		return a.cfg.Require
	}
	return a.model.Require
}

// Require loads the named modules and their prerequisites, initializing
// each module at most once for the lifetime of the App, and returns the
// exports of the named modules.
func (a *App) Require(ctx context.Context, names ...string) (map[moduleid.ID]cty.Value, error) {
	if ctxlog.FromContext(ctx) != a.logger {
		ctx = ctxlog.WithLogger(ctx, a.logger)
	}
	ids, err := moduleid.ParseAll(names)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	sinks := append(a.sinks[:0:0], a.sinks...)
	if a.socket != nil {
		sinks = append(sinks, a.socket)
	}
	a.mu.Unlock()

	factory := &localsession.Factory{
		Fetcher: a.fetcher,
		Engines: a.engines,
		Modules: a.modules,
		Natives: a.natives,
		Sink:    sinks,
		Workers: a.cfg.Workers,
	}
	s, err := factory.NewSession(ctx, a.model, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build load graph: %w", err)
	}
	defer s.Close(ctx)

	exec, err := s.GetExecutor()
	if err != nil {
		return nil, err
	}
	if err := exec.Execute(ctx); err != nil {
		return nil, err
	}

	out := make(map[moduleid.ID]cty.Value, len(ids))
	for _, id := range ids {
		v, _ := s.Graph().Exports(ctx, id)
		out[id] = v
	}
	return out, nil
}

func (a *App) connectEvents(ctx context.Context) error {
	sink, err := socketio.Dial(ctx, socketio.Options{URL: a.cfg.EventsURL})
	if err != nil {
		return fmt.Errorf("failed to connect to event server: %w", err)
	}
	a.mu.Lock()
	a.socket = sink
	a.mu.Unlock()
	return nil
}
