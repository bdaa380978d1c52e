// Package query provides the filter and aggregation IR consumed by every
// record store gateway.
//
// The IR is the boundary between the query engines and the backends:
//
//	[engine handler] → [query IR] → [SQL compiler]   (sqlite, postgres)
//	                              → [BSON translator] (mongo)
//	                              → [Match / Run]     (in-memory)
//
// Predicate and Stage are sealed interfaces using the marker method
// pattern, so backends can switch exhaustively over the node types.
//
// Predicates:
//   - Eq: field equals a literal
//   - Contains: case-insensitive substring match on a string field
//   - Gte: field >= literal (lexical for strings, numeric for numbers)
//   - HasSuffix: string field ends with a literal suffix
//   - And: conjunction (empty = always true)
//
// Pipeline stages (Group must come first):
//   - Group: group by a field (or everything) with a sum or count accumulator
//   - Sort: order group rows by key or accumulator
//   - Limit: keep the first N rows
//
// Match and Run are the reference semantics. Every backend must produce the
// same rows in the same order for the same input, including ties, which
// are broken by first appearance in insertion order.
package query
