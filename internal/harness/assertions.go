package harness

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
)

// AssertionError is returned when a final-state assertion fails. It
// carries enough context to debug the failure without re-running.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// evaluateAssertions runs every final assertion and returns the failure
// messages. All assertions run even after one fails.
func (h *Harness) evaluateAssertions(ctx context.Context, scenario *Scenario, result *Result) []string {
	var msgs []string
	for i, a := range scenario.Assertions {
		var err error
		switch a.Type {
		case AssertCopyCount:
			err = h.assertCopyCount(ctx, a)
		case AssertMealScore:
			err = h.assertMealScore(ctx, scenario.Household, a)
		case AssertPantryItem:
			err = h.assertPantryItem(ctx, scenario.Household, a)
		case AssertTraceReasons:
			err = assertTraceReasons(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return msgs
}

// assertCopyCount checks the number of copies hanging off the seeded
// event.
func (h *Harness) assertCopyCount(ctx context.Context, a Assertion) error {
	copies, err := h.store.LoadCopies(ctx, h.original.HouseholdKey, h.original.SubjectID, h.original.DecidedAt)
	if err != nil {
		return fmt.Errorf("load copies: %w", err)
	}
	if len(copies) != a.Count {
		return &AssertionError{
			Type:     AssertCopyCount,
			Expected: fmt.Sprintf("%d copies", a.Count),
			Actual:   fmt.Sprintf("%d copies", len(copies)),
		}
	}
	return nil
}

// assertMealScore checks the cache row for a meal. Subset semantics:
// only set fields are compared. A missing row fails every check.
func (h *Harness) assertMealScore(ctx context.Context, household string, a Assertion) error {
	ms, err := h.store.GetMealScore(ctx, household, a.Meal)
	if err != nil {
		if err == sql.ErrNoRows {
			return &AssertionError{
				Type:     AssertMealScore,
				Expected: fmt.Sprintf("cache row for meal %s", a.Meal),
				Actual:   "row not found",
			}
		}
		return fmt.Errorf("get meal score: %w", err)
	}

	if a.Score != nil && math.Abs(*a.Score-ms.Score) > weightTolerance {
		return &AssertionError{
			Type:     AssertMealScore,
			Expected: fmt.Sprintf("meal %s score %v", a.Meal, *a.Score),
			Actual:   fmt.Sprintf("score %v", ms.Score),
		}
	}
	if a.Approvals != nil && *a.Approvals != ms.Approvals {
		return &AssertionError{
			Type:     AssertMealScore,
			Expected: fmt.Sprintf("meal %s approvals %d", a.Meal, *a.Approvals),
			Actual:   fmt.Sprintf("approvals %d", ms.Approvals),
		}
	}
	if a.Rejections != nil && *a.Rejections != ms.Rejections {
		return &AssertionError{
			Type:     AssertMealScore,
			Expected: fmt.Sprintf("meal %s rejections %d", a.Meal, *a.Rejections),
			Actual:   fmt.Sprintf("rejections %d", ms.Rejections),
		}
	}
	return nil
}

// assertPantryItem checks a stock row's remaining quantity.
func (h *Harness) assertPantryItem(ctx context.Context, household string, a Assertion) error {
	item, err := h.store.GetPantryItem(ctx, household, a.Item)
	if err != nil {
		if err == sql.ErrNoRows {
			return &AssertionError{
				Type:     AssertPantryItem,
				Expected: fmt.Sprintf("stock row for item %s", a.Item),
				Actual:   "row not found",
			}
		}
		return fmt.Errorf("get pantry item: %w", err)
	}

	if math.Abs(*a.Quantity-item.Quantity) > weightTolerance {
		return &AssertionError{
			Type:     AssertPantryItem,
			Expected: fmt.Sprintf("item %s quantity %v", a.Item, *a.Quantity),
			Actual:   fmt.Sprintf("quantity %v", item.Quantity),
		}
	}
	return nil
}

// assertTraceReasons checks the per-step outcome sequence, in order.
// Error steps contribute their error code instead of a reason.
func assertTraceReasons(result *Result, a Assertion) error {
	got := result.outcomes()
	if len(got) != len(a.Reasons) {
		return &AssertionError{
			Type:     AssertTraceReasons,
			Expected: fmt.Sprintf("%d outcomes: %v", len(a.Reasons), a.Reasons),
			Actual:   fmt.Sprintf("%d outcomes: %v", len(got), got),
		}
	}
	for i := range a.Reasons {
		if got[i] != a.Reasons[i] {
			return &AssertionError{
				Type:     AssertTraceReasons,
				Expected: fmt.Sprintf("step %d outcome %q", i+1, a.Reasons[i]),
				Actual:   fmt.Sprintf("outcome %q (full trace: %v)", got[i], got),
			}
		}
	}
	return nil
}
