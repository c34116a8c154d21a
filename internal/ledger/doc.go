// Package ledger reconciles feedback requests against the append-only
// decision-event log.
//
// The ledger is a pure function over a snapshot: the original event, its
// existing feedback copies, and a now timestamp go in; a structured Result
// and at most one new immutable copy come out. Nothing here locks, blocks,
// or touches storage. Persistence is a port implemented elsewhere, and
// correctness under racing identical requests is finished off by the
// store's uniqueness backstop (the in-process duplicate check is the fast
// path, not the sole guarantee).
//
// # Reconciliation rules
//
// Client verbs translate to persisted facts at exactly one construction
// point (CreateFeedbackCopy):
//
//	approved      → approved   (+ autopilot marker when automation approved)
//	rejected      → rejected
//	drm_triggered → drm_triggered
//	undo          → rejected   + undo_autopilot marker
//
// Duplicate detection is time-boxed to a 10-minute idempotency window,
// with one permanent exception: once an autopilot approval exists, a later
// client approval is a no-op forever (the double-learn guard), while a
// later rejection or undo is never blocked by that rule.
//
// Undo is only honored against an autopilot approval and only inside a
// 10-minute undo window measured from that approval's actioned-at,
// boundary inclusive.
//
// # Outcomes are results, not errors
//
// Every policy outcome (duplicate, stale undo, undo against nothing)
// returns Result{Recorded: true} with a distinguishing Reason. Callers
// acknowledge the request either way; only the Reason says whether a row
// was actually built. Storage failures are the caller's concern and never
// originate here.
package ledger
