package taste

import "github.com/forkful/tasteledger/internal/event"

// ScoreDelta is the increment a single event contributes to its meal's
// cache row. The store applies it atomically in one upsert.
type ScoreDelta struct {
	// Score is added to the running score.
	Score float64

	// Approvals and Rejections increment the verdict counters. Counters
	// track explicit taste verdicts only: drm_triggered moves the score
	// but neither counter.
	Approvals  int64
	Rejections int64
}

// ScoreCacheDelta computes the cache increment for an event, or ok=false
// when the cache must not be touched (undo copies, events with no action).
func ScoreCacheDelta(e event.DecisionEvent, weight float64) (ScoreDelta, bool) {
	if ShouldSkipMealScoreCache(e) {
		return ScoreDelta{}, false
	}

	switch e.Action {
	case event.ActionApproved:
		return ScoreDelta{Score: weight, Approvals: 1}, true
	case event.ActionRejected:
		return ScoreDelta{Score: weight, Rejections: 1}, true
	case event.ActionDRMTriggered:
		return ScoreDelta{Score: weight}, true
	}

	return ScoreDelta{}, false
}
