package ledger

import (
	"time"

	"github.com/forkful/tasteledger/internal/event"
)

// IdempotencyWindow bounds duplicate detection for repeated feedback.
// A copy with the same persisted action whose actioned-at falls within
// this window of now is treated as the same request arriving twice.
const IdempotencyWindow = 10 * time.Minute

// UndoWindow bounds how long after an autopilot approval an undo is
// honored, measured from the approval's actioned-at. The boundary is
// inclusive: an undo at exactly UndoWindow succeeds.
const UndoWindow = 10 * time.Minute

// CreateFeedbackCopy builds the immutable copy row for a client verb
// against an original event. This is the single point where client verbs
// become persisted action/marker pairs; nothing else in the module
// translates "undo".
//
// The copy shares the original's identity fields (household, subject,
// decided-at, payload, context fingerprint) and gets its own ID, an
// actioned-at of now, and a bucketed idempotency key for the storage
// backstop.
func CreateFeedbackCopy(original event.DecisionEvent, clientAction event.Action, autopilot bool, now time.Time) event.DecisionEvent {
	action := clientAction
	marker := event.MarkerNone
	switch clientAction {
	case event.ActionApproved:
		if autopilot {
			marker = event.MarkerAutopilot
		}
	case event.ActionUndo:
		action = event.ActionRejected
		marker = event.MarkerUndoAutopilot
	}

	actionedAt := now
	c := event.DecisionEvent{
		ID:                 event.NewID(),
		HouseholdKey:       original.HouseholdKey,
		SubjectID:          original.SubjectID,
		SubjectMealID:      original.SubjectMealID,
		DecisionKind:       original.DecisionKind,
		DecidedAt:          original.DecidedAt,
		ActionedAt:         &actionedAt,
		Action:             action,
		Marker:             marker,
		Payload:            original.ClonePayload(),
		ContextFingerprint: original.ContextFingerprint,
	}
	c.IdempotencyKey = event.CopyIdempotencyKey(c, IdempotencyWindow)
	return c
}

// HasDuplicateFeedback reports whether a prior copy already records the
// given client action. Two rules apply:
//
//   - Window rule: a copy whose persisted action (and marker, for undo)
//     matches the request and whose actioned-at is within
//     IdempotencyWindow of now is a duplicate. Boundary inclusive.
//   - Double-learn guard: once any autopilot approval exists, a later
//     approval is a duplicate regardless of age. Rejections and undos
//     are never blocked by this rule.
func HasDuplicateFeedback(copies []event.DecisionEvent, clientAction event.Action, now time.Time) bool {
	wantAction := clientAction
	wantMarker := event.MarkerNone
	matchMarker := false
	if clientAction == event.ActionUndo {
		wantAction = event.ActionRejected
		wantMarker = event.MarkerUndoAutopilot
		matchMarker = true
	}

	for _, c := range copies {
		if !c.Actioned() {
			continue
		}
		if clientAction == event.ActionApproved && IsAutopilotEvent(c) {
			return true
		}
		if c.Action != wantAction {
			continue
		}
		if matchMarker && c.Marker != wantMarker {
			continue
		}
		if now.Sub(*c.ActionedAt) <= IdempotencyWindow {
			return true
		}
	}
	return false
}

// IsAutopilotEvent reports whether e is an approval recorded by
// automation.
func IsAutopilotEvent(e event.DecisionEvent) bool {
	return e.Action == event.ActionApproved && e.Marker == event.MarkerAutopilot
}

// IsUndoEvent reports whether e is the persisted form of an undo.
func IsUndoEvent(e event.DecisionEvent) bool {
	return e.Action == event.ActionRejected && e.Marker == event.MarkerUndoAutopilot
}

// IsWithinUndoWindow reports whether an undo arriving at now is still
// honored against e. Events that were never actioned have no window.
func IsWithinUndoWindow(e event.DecisionEvent, now time.Time) bool {
	if !e.Actioned() {
		return false
	}
	return now.Sub(*e.ActionedAt) <= UndoWindow
}

// FindAutopilotApprovedCopy returns the most recently actioned autopilot
// approval among copies, or false when none exists. Recency is by
// actioned-at so the undo window is always measured against the newest
// approval.
func FindAutopilotApprovedCopy(copies []event.DecisionEvent) (event.DecisionEvent, bool) {
	var best event.DecisionEvent
	found := false
	for _, c := range copies {
		if !IsAutopilotEvent(c) || !c.Actioned() {
			continue
		}
		if !found || c.ActionedAt.After(*best.ActionedAt) {
			best = c
			found = true
		}
	}
	return best, found
}
