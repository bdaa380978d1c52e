// Package memstore is an in-memory Gateway backed by the reference query
// evaluator. It is used by tests, the scenario harness and
// --store memory.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/query"
	"github.com/roach88/studiodesk/internal/store"
)

// Store holds collections in insertion order.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]doc.Record
	closed      bool
}

var _ store.Gateway = (*Store)(nil)
var _ store.Clearer = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{collections: make(map[string][]doc.Record)}
}

// FindMany returns copies of the matching records.
func (s *Store) FindMany(ctx context.Context, collection string, filter query.Predicate) ([]doc.Record, error) {
	if err := s.check(ctx, filter); err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []doc.Record{}
	for _, rec := range s.collections[collection] {
		if query.Match(filter, rec) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// FindOne returns a copy of the first matching record.
func (s *Store) FindOne(ctx context.Context, collection string, filter query.Predicate) (doc.Record, error) {
	if err := s.check(ctx, filter); err != nil {
		return nil, fmt.Errorf("find one %s: %w", collection, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.collections[collection] {
		if query.Match(filter, rec) {
			return rec.Clone(), nil
		}
	}
	return nil, store.ErrNotFound
}

// Aggregate runs pipeline with the reference evaluator.
func (s *Store) Aggregate(ctx context.Context, collection string, pipeline query.Pipeline) ([]doc.Record, error) {
	if err := s.check(ctx, nil); err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}
	s.mu.RLock()
	recs := s.collections[collection]
	s.mu.RUnlock()

	rows, err := query.Run(pipeline, recs)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}
	return rows, nil
}

// Insert appends a normalized copy of rec.
func (s *Store) Insert(ctx context.Context, collection string, rec doc.Record) (string, error) {
	if err := s.check(ctx, nil); err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	stored, id, err := store.PrepareInsert(rec)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.collections[collection] {
		if existing.ID() == id {
			return "", fmt.Errorf("insert %s: duplicate id %q", collection, id)
		}
	}
	s.collections[collection] = append(s.collections[collection], stored)
	return id, nil
}

// Clear empties a collection.
func (s *Store) Clear(ctx context.Context, collection string) error {
	if err := s.check(ctx, nil); err != nil {
		return fmt.Errorf("clear %s: %w", collection, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collection)
	return nil
}

// Close marks the store closed; later calls fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) check(ctx context.Context, filter query.Predicate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return fmt.Errorf("store is closed")
	}
	return query.ValidateFilter(filter)
}
