package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/shimloader/internal/moduleid"
)

// CycleError reports a circular dependency. Path starts and ends with the
// same module, each element requiring the next.
type CycleError struct {
	Path []moduleid.ID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = id.String()
	}
	return fmt.Sprintf("circular dependency: %s", strings.Join(parts, " -> "))
}

// DetectCycles runs a depth-first search over prerequisite edges. Modules and
// edges are visited in a deterministic order so the reported path is stable.
func (m *Manager) DetectCycles(ctx context.Context) error {
	const (
		unvisited = iota
		inStack
		done
	)
	state := make(map[moduleid.ID]int)
	var stack []moduleid.ID

	var visit func(id moduleid.ID) error
	visit = func(id moduleid.ID) error {
		switch state[id] {
		case done:
			return nil
		case inStack:
			start := 0
			for i, s := range stack {
				if s == id {
					start = i
					break
				}
			}
			path := append(append([]moduleid.ID{}, stack[start:]...), id)
			return &CycleError{Path: path}
		}

		state[id] = inStack
		stack = append(stack, id)

		deps, err := m.topology.DependenciesOf(ctx, id)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, mod := range m.topology.AllModules(ctx) {
		if err := visit(mod.ID); err != nil {
			return err
		}
	}
	return nil
}
