package ledger

import (
	"time"

	"github.com/forkful/tasteledger/internal/event"
)

// Reason labels the outcome of a reconciliation. Values are stable wire
// strings; clients branch on them.
type Reason string

const (
	// ReasonSuccess means a new feedback copy was built.
	ReasonSuccess Reason = "success"

	// ReasonDuplicate means an equivalent copy already exists; nothing
	// new was built.
	ReasonDuplicate Reason = "duplicate"

	// ReasonNotAutopilot means an undo found no autopilot approval to
	// act against.
	ReasonNotAutopilot Reason = "not_autopilot"

	// ReasonOutsideWindow means an undo arrived after the undo window
	// closed.
	ReasonOutsideWindow Reason = "outside_window"
)

// Result is the outcome of reconciling one feedback request. Recorded is
// always true: policy outcomes acknowledge the request rather than fail
// it. FeedbackCopy is non-nil only when Reason is ReasonSuccess, and
// holds the copy the caller must persist.
type Result struct {
	Recorded     bool
	IsDuplicate  bool
	Reason       Reason
	FeedbackCopy *event.DecisionEvent
}

func success(c event.DecisionEvent) Result {
	return Result{Recorded: true, Reason: ReasonSuccess, FeedbackCopy: &c}
}

func noop(reason Reason) Result {
	return Result{Recorded: true, IsDuplicate: reason == ReasonDuplicate, Reason: reason}
}

// ProcessUndo reconciles an undo against a specific autopilot approval.
// Checks run in order: the target must be an autopilot approval, the
// undo must arrive inside the undo window, and no equivalent undo may
// already exist. Only then is the undo copy built.
func ProcessUndo(autopilotEvent event.DecisionEvent, copies []event.DecisionEvent, now time.Time) Result {
	if !IsAutopilotEvent(autopilotEvent) {
		return noop(ReasonNotAutopilot)
	}
	if !IsWithinUndoWindow(autopilotEvent, now) {
		return noop(ReasonOutsideWindow)
	}
	if HasDuplicateFeedback(copies, event.ActionUndo, now) {
		return noop(ReasonDuplicate)
	}
	return success(CreateFeedbackCopy(autopilotEvent, event.ActionUndo, false, now))
}

// ProcessFeedback reconciles one client request against the original
// event and its existing copies.
//
// Undo requests resolve their target first: the most recent autopilot
// approval among the copies, falling back to the original itself when it
// carries the autopilot marker. No target means ReasonNotAutopilot.
//
// All other verbs run the duplicate check and, when clear, build the
// copy. Callers validate the verb upstream; this layer assumes it is one
// of the known client actions.
func ProcessFeedback(original event.DecisionEvent, copies []event.DecisionEvent, req event.FeedbackRequest, now time.Time) Result {
	if req.Action == event.ActionUndo {
		target, ok := FindAutopilotApprovedCopy(copies)
		if !ok {
			if !IsAutopilotEvent(original) {
				return noop(ReasonNotAutopilot)
			}
			target = original
		}
		return ProcessUndo(target, copies, now)
	}

	if HasDuplicateFeedback(copies, req.Action, now) {
		return noop(ReasonDuplicate)
	}
	return success(CreateFeedbackCopy(original, req.Action, req.Autopilot, now))
}
