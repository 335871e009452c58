package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/vk/shimloader/internal/config"
	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/engine"
	"github.com/vk/shimloader/internal/events"
	"github.com/vk/shimloader/internal/hcl"
	"github.com/vk/shimloader/internal/journal"
	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/vk/shimloader/internal/registry"
	"github.com/vk/shimloader/internal/source"
	"github.com/vk/shimloader/modules/socketio"
	"github.com/zclconf/go-cty/cty"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config
	model  *config.Model

	modules *registry.Registry
	engines *engine.Registry
	natives map[moduleid.ID]module.NativeFunc
	fetcher source.Fetcher
	remote  *source.HTTPFetcher
	journal journal.Store
	sinks   events.Multi

	mu         sync.Mutex
	socket     *socketio.Sink
	httpServer *http.Server
	closeOnce  sync.Once
	closeErr   error

	engineModules []engine.Module
}

// Option customizes an App at construction.
type Option func(*App)

// WithEngines replaces the built-in script engines.
func WithEngines(mods ...engine.Module) Option {
	return func(a *App) { a.engineModules = mods }
}

// WithNative registers a module implemented in Go. It panics on an invalid
// module name.
func WithNative(name string, fn module.NativeFunc) Option {
	return func(a *App) { a.natives[moduleid.MustParse(name)] = fn }
}

// WithGoModule registers a native module written against plain Go values.
// Prerequisite exports arrive as JSON-shaped values; the result may be any
// value the cty converter understands.
func WithGoModule(name string, fn func(ctx context.Context, deps map[string]any) (any, error)) Option {
	conv := hcl.NewConverter()
	return WithNative(name, func(ctx context.Context, deps map[string]cty.Value) (cty.Value, error) {
		in := make(map[string]any, len(deps))
		for k, v := range deps {
			goVal, err := conv.ToGo(v)
			if err != nil {
				return cty.NilVal, fmt.Errorf("prerequisite '%s': %w", k, err)
			}
			in[k] = goVal
		}
		out, err := fn(ctx, in)
		if err != nil {
			return cty.NilVal, err
		}
		return conv.ToCtyValue(out)
	})
}

// WithFetcher replaces the default file system and HTTP fetchers.
func WithFetcher(f source.Fetcher) Option {
	return func(a *App) { a.fetcher = f }
}

// WithSink adds an event sink.
func WithSink(s events.Sink) Option {
	return func(a *App) { a.sinks = append(a.sinks, s) }
}

// WithJournal replaces the journal chosen from the configuration.
func WithJournal(s journal.Store) Option {
	return func(a *App) { a.journal = s }
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and module
// registry. Configuration errors are fatal and panic.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.ConfigPaths...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	if err := model.Validate(); err != nil {
		panic(err)
	}
	logger.Debug("Configuration loaded and validated.", "shims", len(model.Shims), "paths", len(model.Paths))

	a := &App{
		outW:    outW,
		logger:  logger,
		cfg:     cfg,
		model:   model,
		modules: registry.New(),
		engines: engine.NewRegistry(),
		natives: make(map[moduleid.ID]module.NativeFunc),
		sinks:   events.Multi{events.LogSink{}},
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.engineModules == nil {
		a.engineModules = coreEngines
	}
	for _, mod := range a.engineModules {
		mod.Register(a.engines)
	}
	logger.Debug("Script engines registered.", "extensions", a.engines.Extensions())

	if a.fetcher == nil {
		a.remote = source.NewHTTPFetcher(model.URLArgs)
		a.fetcher = &source.Multi{Local: source.NewDirFetcher(cfg.Root), Remote: a.remote}
	}

	if a.journal == nil {
		if cfg.JournalPath != "" {
			j, err := journal.OpenSQLite(ctx, cfg.JournalPath)
			if err != nil {
				panic(err)
			}
			a.journal = j
			logger.Debug("Journal opened.", "path", cfg.JournalPath)
		} else {
			a.journal = journal.NewMemory()
		}
	}
	a.sinks = append(a.sinks, &journal.Sink{Store: a.journal})

	return a
}

// Registry returns the application's module registry.
func (a *App) Registry() *registry.Registry {
	return a.modules
}

// Journal returns the store recording every run.
func (a *App) Journal() journal.Store {
	return a.journal
}

// Close stops background servers and tears down the registry and the
// journal. It is safe to call more than once.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		ctx = ctxlog.WithLogger(ctx, a.logger)
		var errs []error
		if err := a.closeHealthCheckServer(ctx); err != nil {
			errs = append(errs, err)
		}
		a.mu.Lock()
		if a.socket != nil {
			errs = append(errs, a.socket.Close())
		}
		a.mu.Unlock()
		if a.remote != nil {
			errs = append(errs, a.remote.Close())
		}
		errs = append(errs, a.modules.Close(ctx), a.journal.Close())
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}
