package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/query"
)

// ErrNotFound is returned by FindOne when no record matches.
var ErrNotFound = errors.New("record not found")

// Gateway is the record store surface consumed by the engines.
//
// Implementations must be safe for concurrent use and must return records
// in insertion order.
type Gateway interface {
	// FindMany returns every record of collection matching filter. A nil
	// filter matches all records. The result is never nil.
	FindMany(ctx context.Context, collection string, filter query.Predicate) ([]doc.Record, error)

	// FindOne returns the first record matching filter, or ErrNotFound.
	FindOne(ctx context.Context, collection string, filter query.Predicate) (doc.Record, error)

	// Aggregate runs a pipeline over collection. Output rows carry
	// query.GroupKey and the group's accumulator field.
	Aggregate(ctx context.Context, collection string, pipeline query.Pipeline) ([]doc.Record, error)

	// Insert stores rec and returns its identity. A record without an
	// identity gets a fresh one.
	Insert(ctx context.Context, collection string, rec doc.Record) (string, error)

	// Close releases the backend.
	Close() error
}

// Clearer is implemented by gateways that can empty a collection. The
// seeding command uses it to replace fixture data.
type Clearer interface {
	Clear(ctx context.Context, collection string) error
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// PrepareInsert normalizes rec for storage and assigns a UUIDv7 identity
// when it has none. The caller's record is not modified.
func PrepareInsert(rec doc.Record) (doc.Record, string, error) {
	out := doc.NormalizeRecord(rec)
	if out == nil {
		out = doc.Record{}
	}
	if id := out.ID(); id != "" {
		return out, id, nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, "", fmt.Errorf("generate record id: %w", err)
	}
	out[doc.IDField] = id.String()
	return out, id.String(), nil
}
