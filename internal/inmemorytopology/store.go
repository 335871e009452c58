// Package inmemorytopology provides a simple, thread-safe, in-memory
// implementation of the topologystore.Store interface.
package inmemorytopology

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/vk/shimloader/internal/topologystore"
)

// Store implements the topologystore.Store interface using maps and a mutex
// for thread-safe concurrent access.
type Store struct {
	mu         sync.RWMutex
	modules    map[moduleid.ID]*module.Module
	deps       map[moduleid.ID][]moduleid.ID            // Key: module, Value: prerequisites in insertion order
	dependents map[moduleid.ID]map[moduleid.ID]struct{} // Key: module, Value: set of modules requiring it
}

// New creates a new, empty in-memory topology store.
func New() topologystore.Store {
	return &Store{
		modules:    make(map[moduleid.ID]*module.Module),
		deps:       make(map[moduleid.ID][]moduleid.ID),
		dependents: make(map[moduleid.ID]map[moduleid.ID]struct{}),
	}
}

// AddModule adds a new module to the store.
func (s *Store) AddModule(ctx context.Context, m *module.Module) error {
	if m == nil {
		return fmt.Errorf("cannot add nil module")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.modules[m.ID]; exists {
		// Adding the same module twice is not an error, it's idempotent.
		return nil
	}
	s.modules[m.ID] = m
	return nil
}

// AddDependency records that `to` requires `from`.
func (s *Store) AddDependency(ctx context.Context, from, to moduleid.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.modules[from]; !exists {
		return fmt.Errorf("dependency source module '%s' not found in topology", from)
	}
	if _, exists := s.modules[to]; !exists {
		return fmt.Errorf("dependency target module '%s' not found in topology", to)
	}

	if s.dependents[from] == nil {
		s.dependents[from] = make(map[moduleid.ID]struct{})
	}
	if _, dup := s.dependents[from][to]; dup {
		return nil
	}
	s.dependents[from][to] = struct{}{}
	s.deps[to] = append(s.deps[to], from)
	return nil
}

// GetModule retrieves a single module by ID.
func (s *Store) GetModule(ctx context.Context, id moduleid.ID) (*module.Module, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.modules[id]
	return m, ok
}

// AllModules returns a slice of all modules in the topology, sorted by ID.
func (s *Store) AllModules(ctx context.Context) []*module.Module {
	s.mu.RLock()
	defer s.mu.RUnlock()

	modules := make([]*module.Module, 0, len(s.modules))
	for _, m := range s.modules {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].ID < modules[j].ID })
	return modules
}

// DependenciesOf returns the prerequisites of a module in declaration order.
func (s *Store) DependenciesOf(ctx context.Context, id moduleid.ID) ([]moduleid.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.modules[id]; !exists {
		return nil, fmt.Errorf("module '%s' not found in topology", id)
	}
	return append([]moduleid.ID{}, s.deps[id]...), nil
}

// DependentsOf returns the modules requiring the given one, sorted by ID.
func (s *Store) DependentsOf(ctx context.Context, id moduleid.ID) ([]moduleid.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.modules[id]; !exists {
		return nil, fmt.Errorf("module '%s' not found in topology", id)
	}
	out := make([]moduleid.ID, 0, len(s.dependents[id]))
	for dep := range s.dependents[id] {
		out = append(out, dep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
