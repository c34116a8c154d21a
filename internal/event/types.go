package event

import "time"

// Action is a decision outcome. Three values are persisted; ActionUndo is a
// client verb only and is translated before anything reaches storage.
type Action string

const (
	// ActionApproved records that the household accepted the decision.
	ActionApproved Action = "approved"

	// ActionRejected records that the household declined the decision.
	ActionRejected Action = "rejected"

	// ActionDRMTriggered records that the household invoked decision rescue
	// mode instead of giving a taste verdict.
	ActionDRMTriggered Action = "drm_triggered"

	// ActionUndo is the client verb reversing a prior autopilot approval.
	// It is never stored as-is: the ledger persists it as ActionRejected
	// plus MarkerUndoAutopilot.
	ActionUndo Action = "undo"
)

// PersistedActions lists the actions that may appear on a stored row.
var PersistedActions = []Action{ActionApproved, ActionRejected, ActionDRMTriggered}

// IsPersisted reports whether the action is one of the three stored outcomes.
func (a Action) IsPersisted() bool {
	return a == ActionApproved || a == ActionRejected || a == ActionDRMTriggered
}

// IsClientVerb reports whether the action is accepted from clients at all.
func (a Action) IsClientVerb() bool {
	return a.IsPersisted() || a == ActionUndo
}

// Marker qualifies how an action came to be.
type Marker string

const (
	// MarkerNone is the zero marker for plain client feedback.
	MarkerNone Marker = ""

	// MarkerAutopilot marks an approval made by automation on the
	// household's behalf. Its presence permanently blocks a second
	// client approval and opens the undo window.
	MarkerAutopilot Marker = "autopilot"

	// MarkerUndoAutopilot marks a rejection that reverses a prior
	// autopilot approval. Undo copies are persisted but must never move
	// the meal score cache.
	MarkerUndoAutopilot Marker = "undo_autopilot"
)

// StatusExpired is the runtime-only status for a decision that timed out
// without ever being acted on. It is set by the selection layer when it
// hands an event to the weight engine and is never persisted; the stored
// schema carries action and marker only.
const StatusExpired = "expired"

// DecisionEvent is one immutable row in the feedback ledger.
//
// Originals carry no Action and a nil ActionedAt. Feedback copies share
// HouseholdKey, SubjectID, DecidedAt, and Payload with their original and
// own their Action, Marker, and ActionedAt.
type DecisionEvent struct {
	// ID is the row id. Copies get random UUIDs so concurrent
	// constructions never collide.
	ID string

	// HouseholdKey is the tenant partition key. Never cross-visible.
	HouseholdKey string

	// SubjectID identifies the decision occasion this event belongs to.
	SubjectID string

	// SubjectMealID is the meal the decision proposed.
	SubjectMealID string

	// DecisionKind is an opaque classification copied verbatim between an
	// original and its copies.
	DecisionKind string

	// DecidedAt is when the decision was presented.
	DecidedAt time.Time

	// ActionedAt is when feedback was given. Nil if never acted on.
	ActionedAt *time.Time

	// Action is empty on originals.
	Action Action

	// Marker is empty unless the copy is an autopilot approval or an undo.
	Marker Marker

	// Payload is opaque correlation data copied verbatim onto copies.
	Payload map[string]string

	// ContextFingerprint is an opaque correlation hash copied verbatim.
	ContextFingerprint string

	// IdempotencyKey is the race backstop for duplicate feedback. Set on
	// copies only; two identical requests in the same window produce the
	// same key and collide on the store's unique index.
	IdempotencyKey string

	// Status carries runtime-only state such as StatusExpired. Never
	// persisted.
	Status string
}

// Actioned reports whether the event has an actioned-at timestamp.
func (e DecisionEvent) Actioned() bool {
	return e.ActionedAt != nil
}

// IsOriginal reports whether the event is an original (no action recorded).
func (e DecisionEvent) IsOriginal() bool {
	return e.Action == ""
}

// ClonePayload returns a copy of the payload map so copies never alias the
// original's map.
func (e DecisionEvent) ClonePayload() map[string]string {
	if e.Payload == nil {
		return nil
	}
	out := make(map[string]string, len(e.Payload))
	for k, v := range e.Payload {
		out[k] = v
	}
	return out
}

// MealScore is the mutable personalization cache row for one meal in one
// household. It is not part of the ledger; its atomicity is delegated to the
// store's single-row upsert.
type MealScore struct {
	HouseholdKey string
	MealID       string
	Score        float64
	Approvals    int64
	Rejections   int64
	UpdatedAt    time.Time
}

// PantryItem is one stocked ingredient in a household, linked to the
// meal that consumes it. Approvals decrement Quantity; the floor is zero.
type PantryItem struct {
	HouseholdKey string
	ItemID       string
	MealID       string
	Name         string
	Quantity     float64
	Unit         string
	UpdatedAt    time.Time
}

// FeedbackRequest is the inbound shape: a resolved tenant, the original
// event id, and a client verb. Autopilot marks an approval as made by
// automation rather than a person.
type FeedbackRequest struct {
	HouseholdKey string
	EventID      string
	Action       Action
	Autopilot    bool
}
