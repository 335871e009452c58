// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the statestore.Store interface.
//
// Each load session gets a fresh store. Status, exports and errors live in
// independent sync.Maps, since workers write different keys concurrently and
// the key space is fixed once the graph is built.
package inmemorystore

import (
	"context"
	"sync"

	"github.com/vk/shimloader/internal/module"
	"github.com/vk/shimloader/internal/moduleid"
	"github.com/vk/shimloader/internal/statestore"
	"github.com/zclconf/go-cty/cty"
)

// Store is an in-memory implementation of statestore.Store.
type Store struct {
	states  sync.Map // Key: moduleid.ID, Value: module.Status
	exports sync.Map // Key: moduleid.ID, Value: cty.Value
	errors  sync.Map // Key: moduleid.ID, Value: error
}

// New creates a new, empty in-memory state store.
func New() statestore.Store {
	return &Store{}
}

// SetStatus updates the load status of a module.
func (s *Store) SetStatus(ctx context.Context, id moduleid.ID, status module.Status) error {
	s.states.Store(id, status)
	return nil
}

// GetStatus retrieves the load status of a module.
// If a status has not been set, it returns StatusPending.
func (s *Store) GetStatus(ctx context.Context, id moduleid.ID) (module.Status, error) {
	status, ok := s.states.Load(id)
	if !ok {
		return module.StatusPending, nil
	}
	return status.(module.Status), nil
}

// SetExports records the exports of an initialized module.
func (s *Store) SetExports(ctx context.Context, id moduleid.ID, exports cty.Value) error {
	s.exports.Store(id, exports)
	return nil
}

// GetExports retrieves the recorded exports of a module.
func (s *Store) GetExports(ctx context.Context, id moduleid.ID) (cty.Value, bool, error) {
	v, ok := s.exports.Load(id)
	if !ok {
		return cty.NullVal(cty.DynamicPseudoType), false, nil
	}
	return v.(cty.Value), true, nil
}

// SetError records the failure of a module.
func (s *Store) SetError(ctx context.Context, id moduleid.ID, modErr error) error {
	s.errors.Store(id, modErr)
	return nil
}

// GetError retrieves the recorded error of a failed module.
func (s *Store) GetError(ctx context.Context, id moduleid.ID) (error, error) {
	err, ok := s.errors.Load(id)
	if !ok {
		return nil, nil // If not found, there is no error.
	}
	return err.(error), nil
}
