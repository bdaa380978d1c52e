package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/query"
	"github.com/roach88/studiodesk/internal/store"
	"github.com/roach88/studiodesk/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Gateway { return New() })
}

func TestFindMany_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.Insert(ctx, "clients", doc.Record{"name": "Priya Sharma"})
	require.NoError(t, err)

	recs, err := s.FindMany(ctx, "clients", nil)
	require.NoError(t, err)
	recs[0]["name"] = "mutated"

	again, err := s.FindOne(ctx, "clients", nil)
	require.NoError(t, err)
	assert.Equal(t, "Priya Sharma", again["name"])
}

func TestInsert_Normalizes(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.Insert(ctx, "orders", doc.Record{"amount": 3000, "qty": int32(2)})
	require.NoError(t, err)

	got, err := s.FindOne(ctx, "orders", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got["amount"])
	assert.Equal(t, int64(2), got["qty"])
}

func TestClosedStoreFails(t *testing.T) {
	s := New()
	require.NoError(t, s.Close())

	_, err := s.FindMany(context.Background(), "clients", nil)
	assert.Error(t, err)
	_, err = s.Insert(context.Background(), "clients", doc.Record{})
	assert.Error(t, err)
}

func TestCanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FindOne(ctx, "clients", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvalidFilter(t *testing.T) {
	_, err := New().FindMany(context.Background(), "clients", query.Eq{Field: "a.b", Value: "x"})
	var ve *query.ValidationError
	assert.ErrorAs(t, err, &ve)
}
