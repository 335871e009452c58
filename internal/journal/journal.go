// Package journal keeps a durable record of load runs. Every event emitted by
// an executor can be appended to a Store and queried afterwards, grouped by
// run.
package journal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vk/shimloader/internal/events"
)

// Run summarizes one load run.
type Run struct {
	ID      string    `json:"id"`
	Started time.Time `json:"started"`
	// Finished is zero while the run is in progress.
	Finished time.Time `json:"finished,omitzero"`
	Err      string    `json:"error,omitempty"`
}

// Store is the interface for a journal backend.
type Store interface {
	// Record appends an event.
	Record(ctx context.Context, e events.Event) error
	// Runs lists every recorded run, oldest first.
	Runs(ctx context.Context) ([]Run, error)
	// Events returns the events of one run in recording order.
	Events(ctx context.Context, runID string) ([]events.Event, error)
	Close() error
}

// Sink adapts a Store to events.Sink.
type Sink struct {
	Store Store
}

var _ events.Sink = (*Sink)(nil)

func (s *Sink) Emit(ctx context.Context, e events.Event) error {
	return s.Store.Record(ctx, e)
}

// Memory is an in-process Store, used when no journal file is configured.
type Memory struct {
	mu     sync.RWMutex
	events []events.Event
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(_ context.Context, e events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) Runs(_ context.Context) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byID := make(map[string]*Run)
	var order []string
	for _, e := range m.events {
		r, ok := byID[e.RunID]
		if !ok {
			r = &Run{ID: e.RunID, Started: e.Time}
			byID[e.RunID] = r
			order = append(order, e.RunID)
		}
		if e.Time.Before(r.Started) {
			r.Started = e.Time
		}
		if e.Kind == events.RunFinished {
			r.Finished = e.Time
			r.Err = e.Err
		}
	}

	runs := make([]Run, 0, len(order))
	for _, id := range order {
		runs = append(runs, *byID[id])
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Started.Before(runs[j].Started)
	})
	return runs, nil
}

func (m *Memory) Events(_ context.Context, runID string) ([]events.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []events.Event
	for _, e := range m.events {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
