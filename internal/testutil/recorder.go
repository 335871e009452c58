package testutil

import (
	"context"
	"sync"

	"github.com/vk/shimloader/internal/events"
	"github.com/vk/shimloader/internal/moduleid"
)

// EventRecorder is an events.Sink that keeps every event it receives.
type EventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

// Emit implements events.Sink.
func (r *EventRecorder) Emit(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Modules returns, in order, the modules of every event of the given kind.
func (r *EventRecorder) Modules(kind events.Kind) []moduleid.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []moduleid.ID
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e.Module)
		}
	}
	return out
}

// Positions maps each module to the index of its event of the given kind.
func (r *EventRecorder) Positions(kind events.Kind) map[moduleid.ID]int {
	pos := make(map[moduleid.ID]int)
	for i, id := range r.Modules(kind) {
		pos[id] = i
	}
	return pos
}
