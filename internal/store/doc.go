// Package store provides SQLite-backed durable storage for the decision
// ledger.
//
// The store holds three tenant-scoped tables:
//   - decision_events: the append-only ledger (originals and feedback
//     copies; rows are never updated or deleted)
//   - meal_scores: the mutable per-meal personalization cache, updated
//     through a single-row accumulating upsert
//   - pantry_items: household stock, decremented on approvals
//
// # Critical Patterns
//
// Tenant scope on every statement:
//   - household_key is always parameter $1
//   - every statement passes the sqlguard checks before it executes;
//     a guard abort means the statement never ran
//   - the full statement registry is exported for offline linting
//
// Storage-level idempotency:
//   - UNIQUE(household_key, idempotency_key) plus ON CONFLICT DO NOTHING
//     collapses racing duplicate copies; RowsAffected distinguishes a
//     fresh insert from an absorbed duplicate
//
// Deterministic query results:
//   - every multi-row query orders by a stable column list ending in
//     id COLLATE BINARY
//   - list reads return empty slices, not nil
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Payloads are stored as RFC 8785 canonical JSON TEXT; timestamps are
// stored as UTC RFC 3339 TEXT so equality matching on decided_at is
// byte-stable.
package store
