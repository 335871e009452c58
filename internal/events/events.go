// Package events describes what happens during a load run and fans those
// events out to sinks such as the log, the journal or a socket.io server.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/moduleid"
)

// Kind classifies an event.
type Kind string

const (
	RunStarted  Kind = "run_started"
	RunFinished Kind = "run_finished"
	Fetched     Kind = "fetched"
	Completed   Kind = "completed"
	Cached      Kind = "cached"
	Failed      Kind = "failed"
	Skipped     Kind = "skipped"
)

// Event is one observation in a load run. Module is empty for run-level
// events.
type Event struct {
	RunID    string        `json:"run_id"`
	Module   moduleid.ID   `json:"module,omitempty"`
	Kind     Kind          `json:"kind"`
	Duration time.Duration `json:"duration_ns,omitempty"`
	Err      string        `json:"error,omitempty"`
	Time     time.Time     `json:"time"`
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// LogSink writes events to the context logger.
type LogSink struct{}

// Emit implements Sink.
func (LogSink) Emit(ctx context.Context, e Event) error {
	logger := ctxlog.FromContext(ctx)
	args := []any{"run", e.RunID, "kind", e.Kind}
	if e.Module != "" {
		args = append(args, "module", e.Module)
	}
	if e.Duration > 0 {
		args = append(args, "duration", e.Duration)
	}
	switch e.Kind {
	case Failed:
		logger.Error("Module failed.", append(args, "error", e.Err)...)
	case Skipped:
		logger.Warn("Module skipped.", append(args, "reason", e.Err)...)
	default:
		logger.Debug("Load event.", args...)
	}
	return nil
}

// Multi emits to every sink and joins their errors.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Emit(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e Event) error

// Emit implements Sink.
func (f SinkFunc) Emit(ctx context.Context, e Event) error {
	return f(ctx, e)
}
