// Package event defines the data model for the feedback ledger.
//
// A DecisionEvent is an immutable fact about one decision occasion. The
// original event is created when a decision is presented to a household and
// never carries an action. Feedback appends a new event row (a "feedback
// copy") that shares the original's identity fields and owns its own
// action, marker, and actioned-at timestamp. Rows are never updated after
// insert.
//
// Only three actions are ever persisted: approved, rejected, and
// drm_triggered. The client verb "undo" is translated at construction time
// into a rejected action carrying the undo_autopilot marker; no other path
// may fabricate that combination.
//
// The package also owns the deterministic identity machinery:
//
//   - Copy row ids are random UUIDs so concurrent copies never collide.
//   - Context fingerprints and idempotency keys are domain-separated
//     SHA-256 hashes over RFC 8785 canonical JSON, so the same logical
//     input always produces the same key on every platform.
//
// Canonical JSON here follows the RFC 8785 rules: object keys sorted by
// UTF-16 code units, NFC-normalized strings, no HTML escaping, and no
// floats (floats would break cross-platform determinism).
package event
