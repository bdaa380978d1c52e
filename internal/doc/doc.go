// Package doc defines the schemaless record exchanged between the query
// engines and the record store gateways.
//
// A Record is a plain map from field name to value. Values crossing a
// gateway boundary are normalized (see Normalize) so that every backend
// hands the engines the same small set of Go types:
//
//	nil, string, bool, int64, float64, []any, Record
//
// Timestamps carried natively by a backend (time.Time, BSON datetimes)
// are rendered as strings in TimeLayout. Canonical JSON (MarshalCanonical)
// gives a byte-stable encoding used by golden transcripts and the CLI.
package doc
