// Package querysql compiles query IR to parameterized SQL over the records
// table.
//
// Every collection lives in one table of JSON documents:
//
//	records(seq, collection, id, doc)
//
// seq is the insertion sequence. It is the only ordering key: every
// statement ends in ORDER BY seq (or MIN(seq) for groups) so results are
// identical across runs and match the in-memory evaluator.
//
// Values and JSON paths are always bound parameters, never interpolated.
// Field names are validated as identifiers before compilation.
//
// Two dialects are supported. SQLite reads fields with json_extract and
// json_type; Postgres stores doc as jsonb and reads fields with -> and ->>.
//
// SQLite statements call ulower, a Unicode-aware lower() that the store
// registers on every connection.
package querysql
