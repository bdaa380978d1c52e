package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/studiodesk/internal/doc"
)

// marshalDoc converts a record to canonical JSON TEXT for storage.
func marshalDoc(rec doc.Record) (string, error) {
	data, err := doc.MarshalCanonical(rec)
	if err != nil {
		return "", fmt.Errorf("marshal doc: %w", err)
	}
	return string(data), nil
}

// unmarshalDoc parses a stored document. Numbers are decoded via
// json.Number so integers survive as int64 without float64 precision loss.
func unmarshalDoc(data []byte) (doc.Record, error) {
	v, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal doc: %w", err)
	}
	rec, ok := v.(doc.Record)
	if !ok {
		return nil, fmt.Errorf("unmarshal doc: stored document is %T, not an object", v)
	}
	return rec, nil
}

// unmarshalGroupKey decodes the JSON text of a group value. SQL NULL
// (whole-collection groups) decodes to nil.
func unmarshalGroupKey(grp sql.NullString) (any, error) {
	if !grp.Valid {
		return nil, nil
	}
	v, err := decodeJSON([]byte(grp.String))
	if err != nil {
		return nil, fmt.Errorf("unmarshal group key: %w", err)
	}
	return v, nil
}

// normalizeTotal maps driver numeric types onto int64/float64. Some
// drivers report numeric aggregates as text.
func normalizeTotal(v any) any {
	switch n := v.(type) {
	case nil:
		return int64(0)
	case []byte:
		return doc.Normalize(json.Number(string(n)))
	case string:
		return doc.Normalize(json.Number(n))
	default:
		return doc.Normalize(n)
	}
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return doc.Normalize(v), nil
}
