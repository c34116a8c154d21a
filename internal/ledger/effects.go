package ledger

import "github.com/forkful/tasteledger/internal/event"

// Side-effect predicates. Downstream stages (pantry consumption, taste
// signal, meal-score cache) ask these instead of re-deriving policy from
// raw action/marker pairs.

// ShouldRunConsumption reports whether the persisted action triggers
// pantry consumption. Only approvals consume.
func ShouldRunConsumption(action event.Action) bool {
	return action == event.ActionApproved
}

// ShouldUpdateTasteSignal reports whether the persisted action feeds the
// taste signal. Every persisted action does; undo arrives here already
// translated to a rejection and still emits a signal (the weight engine
// keys its magnitude on the marker).
func ShouldUpdateTasteSignal(action event.Action) bool {
	return action.IsPersisted()
}

// ShouldUpdateMealScoreCache reports whether the copy touches the
// meal-score cache. Undo copies skip the cache: the cache's counters
// track first-class decisions, not reversals.
func ShouldUpdateMealScoreCache(c event.DecisionEvent) bool {
	return c.Action.IsPersisted() && c.Marker != event.MarkerUndoAutopilot
}

// ShouldReverseConsumption reports whether an undo claws back pantry
// consumption. It always returns false: consumption reversal is not
// implemented, undo only corrects the learning signal. Kept as a named
// predicate so call sites read as policy and the limitation is tested.
func ShouldReverseConsumption(event.DecisionEvent) bool {
	return false
}
