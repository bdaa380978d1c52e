package store

import (
	"context"
	"fmt"

	"github.com/roach88/studiodesk/internal/doc"
)

// Insert stores rec in collection and returns its identity. Records
// without an _id get a UUIDv7. Inserting a second record with the same
// identity into a collection fails.
//
// The document is serialized as canonical JSON so identical records are
// stored byte-identically.
func (s *Store) Insert(ctx context.Context, collection string, rec doc.Record) (string, error) {
	stored, id, err := PrepareInsert(rec)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}

	data, err := marshalDoc(stored)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}

	if _, err := s.db.ExecContext(ctx, s.compiler.Insert(), collection, id, data); err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}

	return id, nil
}

// Clear deletes every record of collection.
func (s *Store) Clear(ctx context.Context, collection string) error {
	if _, err := s.db.ExecContext(ctx, s.compiler.Delete(), collection); err != nil {
		return fmt.Errorf("clear %s: %w", collection, err)
	}
	return nil
}
