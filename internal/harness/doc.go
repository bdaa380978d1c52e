// Package harness runs prompt scenarios against the assembled engines.
//
// Each scenario runs on a fresh in-memory store seeded from fixtures,
// with a fixed clock and sequential order and enquiry ids, so the trace
// of a scenario is fully deterministic and can be compared against a
// golden transcript.
//
// # Scenario Format
//
//	name: support_order_lifecycle
//	description: "What this scenario validates"
//	now: "2026-03-10T09:00:00"
//	payment_policy: single          # optional
//	seed: default                   # optional: "default" or a fixtures file
//	fixtures:                       # optional inline records
//	  clients:
//	    - {_id: c001, name: Priya Sharma}
//	steps:
//	  - agent: support
//	    prompt: "Has order ORD001 been paid?"
//	    expect:
//	      kind: ok
//	      intent: order_status
//	      payload: {message: "Order ORD001 status: paid"}
//	assertions:
//	  - type: trace_order
//	    intents: [create_order, order_status]
//	  - type: final_state
//	    collection: orders
//	    where: {order_id: ORD0001}
//	    expect: {status: pending}
//
// # Assertion Types
//
//   - trace_contains: a step resolved to intent, optionally with a payload subset
//   - trace_order: intents appear in the given order
//   - trace_count: intent appears exactly count times
//   - final_state: exactly one record matches where and contains expect
//   - record_count: exactly count records match where
package harness
