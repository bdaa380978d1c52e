package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/query"
	"github.com/roach88/studiodesk/internal/store"
	"github.com/roach88/studiodesk/internal/store/storetest"
)

// createTestStore creates a new SQLite store in a temp directory.
func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Gateway {
		s, err := store.Open(filepath.Join(t.TempDir(), "conformance.db"))
		require.NoError(t, err)
		return s
	})
}

func TestPostgresConformance(t *testing.T) {
	dsn := os.Getenv("STUDIODESK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STUDIODESK_TEST_POSTGRES_DSN not set")
	}
	collections := []string{"clients", "orders", "payments", "classes", "records", "enquiries"}

	storetest.Run(t, func(t *testing.T) store.Gateway {
		s, err := store.OpenPostgres(context.Background(), dsn)
		require.NoError(t, err)
		for _, c := range collections {
			require.NoError(t, s.Clear(context.Background(), c))
		}
		return s
	})
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := store.Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s1, err := store.Open(path)
	require.NoError(t, err)
	_, err = s1.Insert(ctx, "clients", doc.Record{"_id": "c001", "name": "Priya Sharma"})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := store.Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.FindOne(ctx, "clients", query.Eq{Field: "_id", Value: "c001"})
	require.NoError(t, err)
	assert.Equal(t, "Priya Sharma", got["name"])
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := store.Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := store.Open(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	assert.Error(t, err)
}

func TestInsert_RoundTripsValues(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, "orders", doc.Record{
		"order_id": "ORD001",
		"amount":   3000,
		"discount": 12.5,
		"paid":     false,
		"tags":     []string{"yoga", "beginner"},
		"meta":     map[string]any{"room": "A"},
		"note":     nil,
	})
	require.NoError(t, err)

	got, err := s.FindOne(ctx, "orders", query.Eq{Field: "order_id", Value: "ORD001"})
	require.NoError(t, err)

	assert.Equal(t, int64(3000), got["amount"])
	assert.Equal(t, 12.5, got["discount"])
	assert.Equal(t, false, got["paid"])
	assert.Equal(t, []any{"yoga", "beginner"}, got["tags"])
	assert.Equal(t, doc.Record{"room": "A"}, got["meta"])
	assert.Contains(t, got, "note")
	assert.Nil(t, got["note"])
}

func TestAggregate_IntegerSumStaysInteger(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, paid := range []int{2500, 1000} {
		_, err := s.Insert(ctx, "payments", doc.Record{"paid": paid})
		require.NoError(t, err)
	}

	rows, err := s.Aggregate(ctx, "payments", query.Pipeline{query.Group{Sum: "paid", Into: "total"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3500), rows[0]["total"])
}

func TestAggregate_MissingKeyGroupsWithNull(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, rec := range []doc.Record{{"service_name": "Yoga"}, {}, {"service_name": nil}} {
		_, err := s.Insert(ctx, "orders", rec)
		require.NoError(t, err)
	}

	rows, err := s.Aggregate(ctx, "orders", query.Pipeline{query.Group{By: "service_name", Into: "count"}})
	require.NoError(t, err)
	assert.Equal(t, []doc.Record{
		{"_id": "Yoga", "count": int64(1)},
		{"_id": nil, "count": int64(2)},
	}, rows)
}

func TestAggregate_SortByKey(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, v := range []any{"b", 10, "a", 9, nil} {
		_, err := s.Insert(ctx, "r", doc.Record{"k": v})
		require.NoError(t, err)
	}

	rows, err := s.Aggregate(ctx, "r", query.Pipeline{
		query.Group{By: "k", Into: "n"},
		query.Sort{By: query.GroupKey},
	})
	require.NoError(t, err)

	want, err := query.Run(query.Pipeline{
		query.Group{By: "k", Into: "n"},
		query.Sort{By: query.GroupKey},
	}, []doc.Record{{"k": "b"}, {"k": int64(10)}, {"k": "a"}, {"k": int64(9)}, {"k": nil}})
	require.NoError(t, err)
	assert.Equal(t, want, rows)
}

func TestFindOne_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.FindOne(context.Background(), "orders", query.Eq{Field: "order_id", Value: "NOPE"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPrepareInsert(t *testing.T) {
	rec := doc.Record{"n": 1}
	out, id, err := store.PrepareInsert(rec)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.Equal(t, id, out.ID())
	assert.Equal(t, int64(1), out["n"])
	assert.NotContains(t, rec, "_id")

	out, id, err = store.PrepareInsert(doc.Record{"_id": "c002"})
	require.NoError(t, err)
	assert.Equal(t, "c002", id)
	assert.Equal(t, "c002", out.ID())
}
