package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/query"
)

// FindMany returns the records of collection matching filter in insertion
// order. Returns an empty slice (not nil) when nothing matches.
func (s *Store) FindMany(ctx context.Context, collection string, filter query.Predicate) ([]doc.Record, error) {
	q, params, err := s.compiler.Select(collection, filter)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}

	rows, err := s.db.QueryContext(ctx, q, params...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer rows.Close()

	recs := []doc.Record{}
	for rows.Next() {
		rec, err := scanDoc(rows)
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", collection, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", collection, err)
	}

	return recs, nil
}

// FindOne returns the first record of collection matching filter.
// Returns ErrNotFound when nothing matches.
func (s *Store) FindOne(ctx context.Context, collection string, filter query.Predicate) (doc.Record, error) {
	q, params, err := s.compiler.SelectOne(collection, filter)
	if err != nil {
		return nil, fmt.Errorf("find one %s: %w", collection, err)
	}

	rec, err := scanDoc(s.db.QueryRowContext(ctx, q, params...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find one %s: %w", collection, err)
	}
	return rec, nil
}

// Aggregate runs pipeline over collection and returns one row per group.
func (s *Store) Aggregate(ctx context.Context, collection string, pipeline query.Pipeline) ([]doc.Record, error) {
	q, params, err := s.compiler.Aggregate(collection, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}
	into := query.GroupOf(pipeline).Into

	rows, err := s.db.QueryContext(ctx, q, params...)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}
	defer rows.Close()

	out := []doc.Record{}
	for rows.Next() {
		var (
			grp   sql.NullString
			total any
		)
		if err := rows.Scan(&grp, &total); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		key, err := unmarshalGroupKey(grp)
		if err != nil {
			return nil, err
		}
		out = append(out, doc.Record{
			query.GroupKey: key,
			into:           normalizeTotal(total),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}

	return out, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanDoc reads a single doc column. Postgres returns jsonb as text or
// bytes depending on the driver path, so both are accepted.
func scanDoc(row scanner) (doc.Record, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		return nil, err
	}
	return unmarshalDoc(raw)
}
