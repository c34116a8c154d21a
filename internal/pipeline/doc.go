// Package pipeline orchestrates the feedback flow: request in, ledger
// decision, persisted copy, taste weight, score-cache and pantry side
// effects, acknowledgment out.
//
// FLOW:
//
//  1. Validate the client verb and load the original event plus its
//     existing feedback copies through the storage port.
//  2. Hand the snapshot to the ledger. The ledger is pure; every
//     policy outcome (success, duplicate, not_autopilot,
//     outside_window) comes back as a structured result, never an
//     error.
//  3. On success, persist the new copy. A zero-row insert means a
//     racing duplicate slipped past the in-process check; it is
//     acknowledged exactly like one.
//  4. Compute the taste weight and apply the side effects the ledger
//     predicates allow: score-cache upsert, pantry consumption.
//
// Acks always carry recorded=true. A duplicate or out-of-policy
// request is a satisfied request whose effect already happened (or
// never applies); only storage and validation failures surface as
// errors.
//
// The storage port is an interface so the harness and tests can wrap
// or replace the sqlite adapter. The service holds no other state than
// the port and a clock; all reconciliation logic lives in the ledger
// package, all arithmetic in taste.
package pipeline
