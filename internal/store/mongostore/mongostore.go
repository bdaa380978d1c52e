// Package mongostore is a Gateway over MongoDB collections.
//
// Each document carries a hidden insertion sequence (allocated from a
// counters collection) so reads and aggregate tie-breaks follow insertion
// order like the other backends.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/query"
	"github.com/roach88/studiodesk/internal/store"
)

// countersCollection holds one sequence document per collection.
const countersCollection = "_counters"

// Store is a Gateway backed by one MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Gateway = (*Store)(nil)
var _ store.Clearer = (*Store)(nil)

// Open connects to uri and uses database dbName.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, db: client.Database(dbName)}, nil
}

// FindMany returns matching documents in insertion order.
func (s *Store) FindMany(ctx context.Context, collection string, filter query.Predicate) ([]doc.Record, error) {
	f, err := Filter(filter)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}

	cur, err := s.db.Collection(collection).Find(ctx, f, options.Find().SetSort(bson.D{{Key: seqField, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}

	out := make([]doc.Record, 0, len(raw))
	for _, m := range raw {
		out = append(out, toRecord(m))
	}
	return out, nil
}

// FindOne returns the first matching document in insertion order.
func (s *Store) FindOne(ctx context.Context, collection string, filter query.Predicate) (doc.Record, error) {
	f, err := Filter(filter)
	if err != nil {
		return nil, fmt.Errorf("find one %s: %w", collection, err)
	}

	var m bson.M
	err = s.db.Collection(collection).
		FindOne(ctx, f, options.FindOne().SetSort(bson.D{{Key: seqField, Value: 1}})).
		Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find one %s: %w", collection, err)
	}
	return toRecord(m), nil
}

// Aggregate runs the translated pipeline.
func (s *Store) Aggregate(ctx context.Context, collection string, pipeline query.Pipeline) ([]doc.Record, error) {
	stages, err := Pipeline(pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}

	mp := make(mongo.Pipeline, len(stages))
	copy(mp, stages)
	cur, err := s.db.Collection(collection).Aggregate(ctx, mp)
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", collection, err)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}

	out := make([]doc.Record, 0, len(raw))
	for _, m := range raw {
		out = append(out, toRecord(m))
	}
	return out, nil
}

// Insert stores rec with the next insertion sequence of the collection.
func (s *Store) Insert(ctx context.Context, collection string, rec doc.Record) (string, error) {
	stored, id, err := store.PrepareInsert(rec)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	seq, err := s.nextSeq(ctx, collection)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	stored[seqField] = seq

	if _, err := s.db.Collection(collection).InsertOne(ctx, map[string]any(stored)); err != nil {
		return "", fmt.Errorf("insert %s: %w", collection, err)
	}
	return id, nil
}

// Clear deletes every document of collection.
func (s *Store) Clear(ctx context.Context, collection string) error {
	if _, err := s.db.Collection(collection).DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clear %s: %w", collection, err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *Store) nextSeq(ctx context.Context, collection string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: collection}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate sequence: %w", err)
	}
	return counter.Seq, nil
}
