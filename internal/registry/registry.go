package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/zclconf/go-cty/cty"
)

// ErrClosed is returned by Load after Close.
var ErrClosed = errors.New("registry is closed")

// InitFunc initializes a module and returns its exports.
type InitFunc func(ctx context.Context) (cty.Value, error)

// State describes an entry in a registry snapshot.
type State string

const (
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateFailed  State = "failed"
)

type entry struct {
	done     chan struct{}
	value    cty.Value
	err      error
	started  time.Time
	finished time.Time
}

// Registry is the exactly-once module cache.
type Registry struct {
	mu      sync.Mutex
	entries map[moduleid.ID]*entry
	closed  bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[moduleid.ID]*entry)}
}

// Load returns the exports of id, running init if and only if no earlier
// call has claimed the module. The boolean reports whether this call ran
// init.
func (r *Registry) Load(ctx context.Context, id moduleid.ID, init InitFunc) (cty.Value, bool, error) {
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return cty.NilVal, false, ErrClosed
		}
		e, ok := r.entries[id]
		if !ok {
			break
		}
		r.mu.Unlock()

		select {
		case <-e.done:
		case <-ctx.Done():
			return cty.NilVal, false, ctx.Err()
		}
		// The claimer was interrupted and its entry forgotten; try to
		// claim the module ourselves.
		if isInterrupted(e.err) && ctx.Err() == nil {
			continue
		}
		return e.value, false, e.err
	}

	e := &entry{done: make(chan struct{}), started: time.Now()}
	r.entries[id] = e
	r.mu.Unlock()

	e.value, e.err = r.run(ctx, id, init)
	e.finished = time.Now()

	if isInterrupted(e.err) {
		r.mu.Lock()
		if r.entries[id] == e {
			delete(r.entries, id)
		}
		r.mu.Unlock()
	}
	close(e.done)
	return e.value, true, e.err
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (r *Registry) run(ctx context.Context, id moduleid.ID, init InitFunc) (v cty.Value, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("module '%s' panicked during initialization: %v", id, p)
		}
	}()
	ctxlog.FromContext(ctx).Debug("Initializing module.", "module", id)
	return init(ctx)
}

// Get returns the exports of a successfully initialized module.
func (r *Registry) Get(id moduleid.ID) (cty.Value, bool) {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return cty.NilVal, false
	}
	select {
	case <-e.done:
		if e.err != nil {
			return cty.NilVal, false
		}
		return e.value, true
	default:
		return cty.NilVal, false
	}
}

// Has reports whether the module was claimed, whatever its outcome.
func (r *Registry) Has(id moduleid.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Undef forgets a module, successful or failed, so that the next Load runs
// its initialization again. An initialization in flight still delivers its
// result to the callers already waiting for it.
func (r *Registry) Undef(id moduleid.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.entries[id]
	delete(r.entries, id)
	return ok
}

// Reset forgets every module.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[moduleid.ID]*entry)
}

// Close tears the registry down. Further loads fail with ErrClosed. Close is
// idempotent.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	ctxlog.FromContext(ctx).Debug("Closing module registry.", "modules", len(r.entries))
	r.closed = true
	r.entries = make(map[moduleid.ID]*entry)
	return nil
}

// Entry is a point-in-time view of one registry entry.
type Entry struct {
	ID       moduleid.ID   `json:"id"`
	State    State         `json:"state"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Snapshot lists every known module sorted by ID.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	ids := make([]moduleid.ID, 0, len(r.entries))
	entries := make(map[moduleid.ID]*entry, len(r.entries))
	for id, e := range r.entries {
		ids = append(ids, id)
		entries[id] = e
	}
	r.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		e := entries[id]
		item := Entry{ID: id, State: StateLoading}
		select {
		case <-e.done:
			item.Duration = e.finished.Sub(e.started)
			item.State = StateLoaded
			if e.err != nil {
				item.State = StateFailed
				item.Error = e.err.Error()
			}
		default:
		}
		out = append(out, item)
	}
	return out
}

// Loaded returns the IDs of successfully initialized modules, sorted.
func (r *Registry) Loaded() []moduleid.ID {
	var ids []moduleid.ID
	for _, e := range r.Snapshot() {
		if e.State == StateLoaded {
			ids = append(ids, e.ID)
		}
	}
	return ids
}
