package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/query"
	"github.com/roach88/studiodesk/internal/store"
	"github.com/roach88/studiodesk/internal/store/storetest"
)

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		pred query.Predicate
		want bson.D
	}{
		{"nil", nil, bson.D{}},
		{"eq", query.Eq{Field: "status", Value: "paid"}, bson.D{{Key: "status", Value: "paid"}}},
		{"eq int normalized", query.Eq{Field: "amount", Value: 3000}, bson.D{{Key: "amount", Value: int64(3000)}}},
		{"eq nil", query.Eq{Field: "status", Value: nil}, bson.D{{Key: "status", Value: nil}}},
		{
			"contains quotes metacharacters",
			query.Contains{Field: "name", Substring: "a.b*"},
			bson.D{{Key: "name", Value: primitive.Regex{Pattern: `a\.b\*`, Options: "i"}}},
		},
		{
			"gte",
			query.Gte{Field: "start_time", Value: "2026-10-18T09:00:00"},
			bson.D{{Key: "start_time", Value: bson.D{{Key: "$gte", Value: "2026-10-18T09:00:00"}}}},
		},
		{
			"suffix",
			query.HasSuffix{Field: "dob", Suffix: "-10-18"},
			bson.D{{Key: "dob", Value: primitive.Regex{Pattern: `-10-18$`}}},
		},
		{
			"empty suffix",
			query.HasSuffix{Field: "dob"},
			bson.D{{Key: "dob", Value: bson.D{{Key: "$type", Value: "string"}}}},
		},
		{
			"and",
			query.All(query.Eq{Field: "a", Value: "x"}, query.Eq{Field: "b", Value: true}),
			bson.D{{Key: "$and", Value: bson.A{
				bson.D{{Key: "a", Value: "x"}},
				bson.D{{Key: "b", Value: true}},
			}}},
		},
		{"empty and", query.And{}, bson.D{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Filter(tc.pred)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFilter_RejectsInvalidField(t *testing.T) {
	_, err := Filter(query.Eq{Field: "$where", Value: "1"})
	assert.Error(t, err)
}

func TestPipeline(t *testing.T) {
	got, err := Pipeline(query.Pipeline{
		query.Group{By: "service_name", Into: "count"},
		query.Sort{By: "count", Descending: true},
		query.Limit{N: 3},
	})
	require.NoError(t, err)

	want := []bson.D{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$service_name"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "_first", Value: bson.D{{Key: "$min", Value: "$_seq"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_first", Value: 1}}}},
		{{Key: "$limit", Value: int64(3)}},
		{{Key: "$project", Value: bson.D{{Key: "_first", Value: 0}}}},
	}
	assert.Equal(t, want, got)
}

func TestPipeline_WholeCollectionSum(t *testing.T) {
	got, err := Pipeline(query.Pipeline{query.Group{Sum: "paid", Into: "total"}})
	require.NoError(t, err)

	group := got[0][0].Value.(bson.D)
	assert.Equal(t, bson.E{Key: "_id", Value: nil}, group[0])
	assert.Equal(t, bson.E{Key: "total", Value: bson.D{{Key: "$sum", Value: "$paid"}}}, group[1])
}

func TestPipeline_LaterSortTakesPrecedence(t *testing.T) {
	got, err := Pipeline(query.Pipeline{
		query.Group{By: "service_name", Into: "count"},
		query.Sort{By: "_id"},
		query.Sort{By: "count", Descending: true},
		query.Sort{By: "_id"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}, {Key: "count", Value: -1}, {Key: "_first", Value: 1}}}},
		got[1])
}

func TestPipeline_SortAfterLimit(t *testing.T) {
	_, err := Pipeline(query.Pipeline{
		query.Group{By: "x", Into: "n"},
		query.Limit{N: 1},
		query.Sort{By: "n"},
	})
	assert.Error(t, err)
}

func TestToRecord(t *testing.T) {
	oid := primitive.NewObjectID()
	when := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

	rec := toRecord(bson.M{
		"_id":        oid,
		"_seq":       int64(4),
		"start_time": primitive.NewDateTimeFromTime(when),
		"count":      int32(3),
		"nested":     bson.M{"room": "A"},
		"tags":       bson.A{"yoga", int32(1)},
	})

	assert.Equal(t, doc.Record{
		"_id":        oid.Hex(),
		"start_time": "2026-10-18T09:30:00",
		"count":      int64(3),
		"nested":     doc.Record{"room": "A"},
		"tags":       []any{"yoga", int64(1)},
	}, rec)
}

func TestConformance(t *testing.T) {
	uri := os.Getenv("STUDIODESK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("STUDIODESK_TEST_MONGO_URI not set")
	}

	n := 0
	storetest.Run(t, func(t *testing.T) store.Gateway {
		n++
		ctx := context.Background()
		s, err := Open(ctx, uri, fmt.Sprintf("studiodesk_test_%d_%d", time.Now().UnixNano(), n))
		require.NoError(t, err)
		return droppingStore{s}
	})
}

// droppingStore drops the test database before disconnecting.
type droppingStore struct {
	*Store
}

func (d droppingStore) Close() error {
	_ = d.db.Drop(context.Background())
	return d.Store.Close()
}
