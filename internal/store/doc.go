// Package store is the Record Store Gateway: the narrow read/aggregate/
// insert surface the engines use to reach persisted records.
//
// Gateway is implemented by:
//   - Store: SQLite (Open) or Postgres (OpenPostgres), one records table
//     of JSON documents queried through internal/querysql
//   - memstore.Store: in memory, for tests and the scenario harness
//   - mongostore.Store: MongoDB collections
//
// # Ordering
//
// Every backend returns records in insertion order and breaks ties in
// aggregate sorts by first appearance, so identical data gives identical
// answers regardless of backend.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Records are stored as canonical JSON (internal/doc) and come back
// normalized: integers as int64, other numbers as float64, timestamps as
// strings in doc.TimeLayout.
package store
