package mongostore

import (
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roach88/studiodesk/internal/doc"
	"github.com/roach88/studiodesk/internal/query"
)

// seqField holds the insertion sequence on every document written by this
// package. It is stripped from records on the way out.
const seqField = "_seq"

// firstField carries the smallest sequence of a group through an
// aggregation so ties sort by first appearance.
const firstField = "_first"

// Filter translates a predicate to a BSON filter document. A nil predicate
// yields an empty filter.
func Filter(p query.Predicate) (bson.D, error) {
	if err := query.ValidateFilter(p); err != nil {
		return nil, err
	}
	return filter(p), nil
}

func filter(p query.Predicate) bson.D {
	switch pred := p.(type) {
	case query.Eq:
		// {field: null} also matches documents without the field.
		return bson.D{{Key: pred.Field, Value: doc.Normalize(pred.Value)}}
	case query.Contains:
		return bson.D{{Key: pred.Field, Value: primitive.Regex{Pattern: regexp.QuoteMeta(pred.Substring), Options: "i"}}}
	case query.Gte:
		// Comparison operators only match values of the same BSON type
		// bracket, so strings never compare against numbers.
		return bson.D{{Key: pred.Field, Value: bson.D{{Key: "$gte", Value: doc.Normalize(pred.Value)}}}}
	case query.HasSuffix:
		if pred.Suffix == "" {
			return bson.D{{Key: pred.Field, Value: bson.D{{Key: "$type", Value: "string"}}}}
		}
		return bson.D{{Key: pred.Field, Value: primitive.Regex{Pattern: regexp.QuoteMeta(pred.Suffix) + "$"}}}
	case query.And:
		if len(pred.Predicates) == 0 {
			return bson.D{}
		}
		parts := make(bson.A, 0, len(pred.Predicates))
		for _, child := range pred.Predicates {
			parts = append(parts, filter(child))
		}
		return bson.D{{Key: "$and", Value: parts}}
	default:
		return bson.D{}
	}
}

// Pipeline translates an IR pipeline to aggregation stages.
//
// Sort stages fold into one $sort whose trailing key is the group's first
// sequence, matching the SQL and in-memory backends. A Sort after a Limit
// is rejected for the same reason as in SQL.
func Pipeline(pl query.Pipeline) ([]bson.D, error) {
	if err := query.ValidatePipeline(pl); err != nil {
		return nil, err
	}
	g := query.GroupOf(pl)

	var key any
	if g.By != "" {
		key = "$" + g.By
	}
	var acc any = bson.D{{Key: "$sum", Value: 1}}
	if g.Sum != "" {
		acc = bson.D{{Key: "$sum", Value: "$" + g.Sum}}
	}

	stages := []bson.D{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: key},
			{Key: g.Into, Value: acc},
			{Key: firstField, Value: bson.D{{Key: "$min", Value: "$" + seqField}}},
		}}},
	}

	var sortKeys bson.D
	limit := 0
	for _, st := range pl[1:] {
		switch stage := st.(type) {
		case query.Sort:
			if limit > 0 {
				return nil, fmt.Errorf("translate pipeline: sort after limit is not supported")
			}
			dir := 1
			if stage.Descending {
				dir = -1
			}
			sortKeys = append(bson.D{{Key: stage.By, Value: dir}}, sortKeys...)
		case query.Limit:
			if limit == 0 || stage.N < limit {
				limit = stage.N
			}
		}
	}
	sortKeys = append(dedupe(sortKeys), bson.E{Key: firstField, Value: 1})

	stages = append(stages, bson.D{{Key: "$sort", Value: sortKeys}})
	if limit > 0 {
		stages = append(stages, bson.D{{Key: "$limit", Value: int64(limit)}})
	}
	stages = append(stages, bson.D{{Key: "$project", Value: bson.D{{Key: firstField, Value: 0}}}})
	return stages, nil
}

// dedupe keeps the first occurrence of each sort key; $sort rejects
// repeated keys.
func dedupe(keys bson.D) bson.D {
	seen := map[string]bool{}
	out := bson.D{}
	for _, e := range keys {
		if seen[e.Key] {
			continue
		}
		seen[e.Key] = true
		out = append(out, e)
	}
	return out
}

// toRecord converts a decoded BSON document to a normalized record and
// drops bookkeeping fields.
func toRecord(m bson.M) doc.Record {
	rec := make(doc.Record, len(m))
	for k, v := range m {
		if k == seqField || k == firstField {
			continue
		}
		rec[k] = fromBSON(v)
	}
	return rec
}

func fromBSON(v any) any {
	switch val := v.(type) {
	case primitive.M:
		return toRecord(bson.M(val))
	case primitive.D:
		rec := make(doc.Record, len(val))
		for _, e := range val {
			rec[e.Key] = fromBSON(e.Value)
		}
		return rec
	case primitive.A:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = fromBSON(elem)
		}
		return out
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC().Format(doc.TimeLayout)
	case primitive.Timestamp:
		return time.Unix(int64(val.T), 0).UTC().Format(doc.TimeLayout)
	case primitive.Decimal128:
		f, err := decimalToFloat(val)
		if err != nil {
			return val.String()
		}
		return f
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return doc.Normalize(val)
	}
}

func decimalToFloat(d primitive.Decimal128) (float64, error) {
	var f float64
	_, err := fmt.Sscan(d.String(), &f)
	return f, err
}
