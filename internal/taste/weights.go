// Package taste derives the bounded numeric taste signal from decision
// events for the personalization score cache.
//
// The engine is deterministic and pure: same event, same weight. Base
// weights dispatch on the persisted action (with the undo marker taking
// precedence), a late-evening multiplier scales the magnitude, and the
// result is clamped to [WeightMin, WeightMax] unconditionally.
//
// Undo and drm_triggered intentionally share magnitude: both are autonomy
// signals ("the automation overstepped"), not taste rejections, and must
// stay distinguishable from a real rejection.
package taste

import (
	"time"

	"github.com/forkful/tasteledger/internal/event"
)

// Base weights per outcome.
const (
	// WeightApproved is the signal for an accepted decision.
	WeightApproved = 1.0

	// WeightRejected is the signal for a declined decision.
	WeightRejected = -1.0

	// WeightDRMTriggered is the autonomy signal for decision rescue mode.
	WeightDRMTriggered = -0.5

	// WeightExpired is the mild negative for a decision that timed out
	// with no action at all.
	WeightExpired = -0.2

	// WeightUndo is the autonomy signal for reversing an autopilot
	// approval. Deliberately equal to WeightDRMTriggered and deliberately
	// NOT equal to WeightRejected.
	WeightUndo = -0.5
)

// Bounds for every weight this package emits.
const (
	WeightMin = -2.0
	WeightMax = 2.0
)

// Late-evening stress multiplier. Decisions actioned at or after 20:00
// (as encoded) carry slightly more signal: late-evening feedback is
// deliberate, not drive-by.
const (
	lateHourStart    = 20
	stressMultiplier = 1.10
)

// BaseWeight returns the unscaled signal for an event.
//
// The undo marker wins over the action: an undo copy is stored as a
// rejection, but it must contribute the undo weight, not the rejection
// weight. Events with no action contribute the expired weight only when
// the runtime status says the decision timed out; otherwise zero.
func BaseWeight(e event.DecisionEvent) float64 {
	if e.Marker == event.MarkerUndoAutopilot {
		return WeightUndo
	}

	switch e.Action {
	case event.ActionApproved:
		return WeightApproved
	case event.ActionRejected:
		return WeightRejected
	case event.ActionDRMTriggered:
		return WeightDRMTriggered
	}

	if e.Status == event.StatusExpired {
		return WeightExpired
	}
	return 0
}

// ComputeWeight returns the final clamped taste signal for an event.
//
// Zero-weight events return exactly 0 and never see the multiplier. The
// multiplier scales magnitude and preserves sign.
func ComputeWeight(e event.DecisionEvent) float64 {
	base := BaseWeight(e)
	if base == 0 {
		return 0
	}

	if isLateHour(signalTime(e)) {
		base *= stressMultiplier
	}

	return clamp(base, WeightMin, WeightMax)
}

// signalTime picks the timestamp the multiplier is judged on: when the
// household acted, falling back to when the decision was presented.
func signalTime(e event.DecisionEvent) time.Time {
	if e.ActionedAt != nil {
		return *e.ActionedAt
	}
	return e.DecidedAt
}

// ShouldSkipMealScoreCache reports whether the score cache must ignore the
// event even though it is persisted and emits a taste signal. True exactly
// for undo copies. This mirrors the ledger's cache predicate but is kept
// independently callable: the weight engine and the ledger are used from
// different call sites and each must be testable alone.
func ShouldSkipMealScoreCache(e event.DecisionEvent) bool {
	return e.Marker == event.MarkerUndoAutopilot
}
