// Package storetest is a conformance suite shared by every Gateway
// implementation.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/query"
	"github.com/roach88/studiodesk/internal/store"
)

// Factory returns a fresh, empty gateway. The suite closes it.
type Factory func(t *testing.T) store.Gateway

// Run exercises the Gateway contract against gateways built by newGateway.
func Run(t *testing.T, newGateway Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, gw store.Gateway)
	}{
		{"InsertAssignsID", testInsertAssignsID},
		{"InsertKeepsID", testInsertKeepsID},
		{"FindManyInsertionOrder", testFindManyInsertionOrder},
		{"FindManyEmpty", testFindManyEmpty},
		{"FindOne", testFindOne},
		{"Predicates", testPredicates},
		{"CollectionsIsolated", testCollectionsIsolated},
		{"AggregateCount", testAggregateCount},
		{"AggregateSum", testAggregateSum},
		{"AggregateEmpty", testAggregateEmpty},
		{"Clear", testClear},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw := newGateway(t)
			t.Cleanup(func() { gw.Close() })
			tc.fn(t, gw)
		})
	}
}

func insertAll(t *testing.T, gw store.Gateway, collection string, recs ...doc.Record) {
	t.Helper()
	for _, rec := range recs {
		_, err := gw.Insert(context.Background(), collection, rec)
		require.NoError(t, err)
	}
}

func names(recs []doc.Record, field string) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.String(field))
	}
	return out
}

func testInsertAssignsID(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	rec := doc.Record{"name": "Priya Sharma"}

	id, err := gw.Insert(ctx, "clients", rec)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NotContains(t, rec, doc.IDField, "caller's record must not be modified")

	got, err := gw.FindOne(ctx, "clients", query.Eq{Field: "name", Value: "Priya Sharma"})
	require.NoError(t, err)
	assert.Equal(t, id, got.ID())
}

func testInsertKeepsID(t *testing.T, gw store.Gateway) {
	ctx := context.Background()

	id, err := gw.Insert(ctx, "clients", doc.Record{doc.IDField: "c001", "name": "Priya Sharma"})
	require.NoError(t, err)
	assert.Equal(t, "c001", id)

	got, err := gw.FindOne(ctx, "clients", query.Eq{Field: doc.IDField, Value: "c001"})
	require.NoError(t, err)
	assert.Equal(t, "Priya Sharma", got["name"])

	_, err = gw.Insert(ctx, "clients", doc.Record{doc.IDField: "c001", "name": "Duplicate"})
	assert.Error(t, err, "identities are unique per collection")
}

func testFindManyInsertionOrder(t *testing.T, gw store.Gateway) {
	insertAll(t, gw, "orders",
		doc.Record{"order_id": "ORD003", "status": "paid"},
		doc.Record{"order_id": "ORD001", "status": "pending"},
		doc.Record{"order_id": "ORD002", "status": "paid"},
	)

	all, err := gw.FindMany(context.Background(), "orders", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ORD003", "ORD001", "ORD002"}, names(all, "order_id"))

	paid, err := gw.FindMany(context.Background(), "orders", query.Eq{Field: "status", Value: "paid"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ORD003", "ORD002"}, names(paid, "order_id"))
}

func testFindManyEmpty(t *testing.T, gw store.Gateway) {
	recs, err := gw.FindMany(context.Background(), "classes", query.Eq{Field: "status", Value: "scheduled"})
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func testFindOne(t *testing.T, gw store.Gateway) {
	ctx := context.Background()
	insertAll(t, gw, "clients",
		doc.Record{"name": "Amit Verma"},
		doc.Record{"name": "Priya Sharma"},
		doc.Record{"name": "Priya Nair"},
	)

	got, err := gw.FindOne(ctx, "clients", query.Contains{Field: "name", Substring: "priya"})
	require.NoError(t, err)
	assert.Equal(t, "Priya Sharma", got["name"], "first match in insertion order")

	_, err = gw.FindOne(ctx, "clients", query.Contains{Field: "name", Substring: "zed"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.True(t, store.IsNotFound(err))
}

func testPredicates(t *testing.T, gw store.Gateway) {
	insertAll(t, gw, "records",
		doc.Record{"n": "a", "amount": 3000, "dob": "1990-10-18", "created_at": "2026-10-01T09:00:00", "present": false},
		doc.Record{"n": "b", "amount": 2500.5, "dob": "1985-03-02", "created_at": "2026-09-30T23:59:59", "present": true, "name": "ÉLODIE Martin"},
		doc.Record{"n": "c", "amount": "3000", "dob": 19901018, "created_at": "2026-10-18T00:00:00"},
	)

	tests := []struct {
		name string
		pred query.Predicate
		want []string
	}{
		{"eq number matches float form", query.Eq{Field: "amount", Value: 3000.0}, []string{"a"}},
		{"eq string is not a number", query.Eq{Field: "amount", Value: "3000"}, []string{"c"}},
		{"eq false", query.Eq{Field: "present", Value: false}, []string{"a"}},
		{"eq nil matches missing", query.Eq{Field: "present", Value: nil}, []string{"c"}},
		{"contains ignores case", query.Contains{Field: "created_at", Substring: "T09"}, []string{"a"}},
		{"contains folds non-ascii case", query.Contains{Field: "name", Substring: "élodie"}, []string{"b"}},
		{"contains folds pattern case", query.Contains{Field: "name", Substring: "Élodie MARTIN"}, []string{"b"}},
		{"gte timestamp", query.Gte{Field: "created_at", Value: "2026-10-01"}, []string{"a", "c"}},
		{"gte number", query.Gte{Field: "amount", Value: 2600}, []string{"a"}},
		{"suffix", query.HasSuffix{Field: "dob", Suffix: "-10-18"}, []string{"a"}},
		{"and", query.All(query.Gte{Field: "created_at", Value: "2026-10-01"}, query.Eq{Field: "present", Value: false}), []string{"a"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recs, err := gw.FindMany(context.Background(), "records", tc.pred)
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(recs, "n"))
		})
	}
}

func testCollectionsIsolated(t *testing.T, gw store.Gateway) {
	insertAll(t, gw, "clients", doc.Record{"name": "Priya Sharma"})
	insertAll(t, gw, "enquiries", doc.Record{"client_name": "Priya Sharma"})

	recs, err := gw.FindMany(context.Background(), "clients", nil)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func testAggregateCount(t *testing.T, gw store.Gateway) {
	for _, svc := range []string{"Spin", "Zumba Pro", "Yoga Beginner", "Zumba Pro", "Pilates Core", "Yoga Beginner", "Zumba Pro"} {
		insertAll(t, gw, "orders", doc.Record{"service_name": svc})
	}

	rows, err := gw.Aggregate(context.Background(), "orders", query.Pipeline{
		query.Group{By: "service_name", Into: "count"},
		query.Sort{By: "count", Descending: true},
		query.Limit{N: 3},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Zumba Pro", "Yoga Beginner", "Spin"}, names(rows, query.GroupKey),
		"ties keep first appearance")
	assert.Equal(t, []float64{3, 2, 1}, totals(rows, "count"))
}

func testAggregateSum(t *testing.T, gw store.Gateway) {
	insertAll(t, gw, "payments",
		doc.Record{"paid": 2500},
		doc.Record{"paid": 1000},
		doc.Record{"paid": "n/a"},
		doc.Record{"method": "cash"},
	)

	rows, err := gw.Aggregate(context.Background(), "payments", query.Pipeline{
		query.Group{Sum: "paid", Into: "total"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0][query.GroupKey])
	assert.Equal(t, []float64{3500}, totals(rows, "total"))
}

func testAggregateEmpty(t *testing.T, gw store.Gateway) {
	rows, err := gw.Aggregate(context.Background(), "payments", query.Pipeline{
		query.Group{Sum: "paid", Into: "total"},
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func testClear(t *testing.T, gw store.Gateway) {
	clearer, ok := gw.(store.Clearer)
	if !ok {
		t.Skip("gateway cannot clear collections")
	}
	insertAll(t, gw, "clients", doc.Record{"name": "A"}, doc.Record{"name": "B"})
	insertAll(t, gw, "orders", doc.Record{"order_id": "ORD001"})

	require.NoError(t, clearer.Clear(context.Background(), "clients"))

	clients, err := gw.FindMany(context.Background(), "clients", nil)
	require.NoError(t, err)
	assert.Empty(t, clients)

	orders, err := gw.FindMany(context.Background(), "orders", nil)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func totals(rows []doc.Record, field string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Float(field))
	}
	return out
}
