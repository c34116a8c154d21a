// Package harness provides a conformance testing framework for the
// feedback pipeline.
//
// Each scenario runs against the real service wired to a fresh in-memory
// database: a decision event is seeded, pantry stock is written, and the
// flow's submissions go through pipeline.Service.Submit exactly as
// production requests would. Nothing is manufactured; every ack in the
// trace is the service's own answer.
//
// Determinism comes from two substitutions:
//
//   - the service clock is a testutil.WallClock that only moves when a
//     flow step says "advance", so windows and weights are exact
//   - copy ids, which are random, never reach the trace; events carry
//     ordinal labels assigned in insertion order
//
// Traces are therefore byte-stable and safe for golden comparison.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/forkful/tasteledger/internal/event"
	"github.com/forkful/tasteledger/internal/pipeline"
	"github.com/forkful/tasteledger/internal/store"
	"github.com/forkful/tasteledger/internal/testutil"
)

// weightTolerance bounds float comparison in expect clauses. Weights are
// products of exact constants, so any real mismatch is far larger.
const weightTolerance = 1e-9

// Harness is the scenario execution engine.
type Harness struct {
	store   *store.Store
	service *pipeline.Service
	clock   *testutil.WallClock
	logger  *slog.Logger

	start    time.Time
	original event.DecisionEvent
	copySeq  int
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Open a fresh in-memory database
//  2. Seed the scenario's decision event and pantry stock
//  3. Submit each flow step through the real service, validating expect
//     clauses and collecting the trace
//  4. Evaluate final assertions against the store and trace
//
// Run returns an error only for infrastructure failures; expectation
// mismatches land in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	start, err := scenario.startTime()
	if err != nil {
		return nil, err
	}

	clock := testutil.NewWallClock(start)
	svc := pipeline.New(st, pipeline.WithClock(clock.Now))

	h := &Harness{
		store:   st,
		service: svc,
		clock:   clock,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		start:   start,
	}

	ctx := context.Background()
	result := NewResult()

	if err := h.seed(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to seed scenario: %w", err)
	}

	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	for _, msg := range h.evaluateAssertions(ctx, scenario, result) {
		result.AddError(msg)
	}

	return result, nil
}

// seed writes the scenario's decision event and pantry stock.
func (h *Harness) seed(ctx context.Context, scenario *Scenario) error {
	original, err := h.service.Seed(ctx, pipeline.SeedRequest{
		HouseholdKey:  scenario.Household,
		SubjectID:     scenario.Subject,
		SubjectMealID: scenario.Meal,
		DecisionKind:  scenario.kind(),
		DecidedAt:     h.start,
		Payload:       scenario.Payload,
	})
	if err != nil {
		return err
	}
	h.original = original

	for i, p := range scenario.Pantry {
		item := event.PantryItem{
			HouseholdKey: scenario.Household,
			ItemID:       p.Item,
			MealID:       p.Meal,
			Name:         p.Name,
			Quantity:     p.Quantity,
			Unit:         p.Unit,
			UpdatedAt:    h.start,
		}
		if err := h.store.UpsertPantryItem(ctx, item); err != nil {
			return fmt.Errorf("pantry[%d]: %w", i, err)
		}
	}

	h.logger.Info("scenario seeded",
		"event", original.ID,
		"household", original.HouseholdKey,
		"pantry_items", len(scenario.Pantry),
	)

	return nil
}

// executeFlow submits each step through the service and validates its
// expect clause.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		if step.Advance != "" {
			d, err := time.ParseDuration(step.Advance)
			if err != nil {
				return fmt.Errorf("flow step %d: invalid advance: %w", i, err)
			}
			h.clock.Advance(d)
		}

		ev := TraceEvent{
			Step:      i + 1,
			At:        h.clock.Now().Sub(h.start).String(),
			Submit:    step.Submit,
			Autopilot: step.Autopilot,
		}

		ack, err := h.service.Submit(ctx, event.FeedbackRequest{
			HouseholdKey: h.original.HouseholdKey,
			EventID:      h.original.ID,
			Action:       event.Action(step.Submit),
			Autopilot:    step.Autopilot,
		})
		if err != nil {
			var reqErr *pipeline.RequestError
			if !errors.As(err, &reqErr) {
				return fmt.Errorf("flow step %d: %w", i, err)
			}
			ev.Error = reqErr.Code
			result.Trace = append(result.Trace, ev)

			if step.Expect != nil && step.Expect.Error != reqErr.Code {
				result.AddError(fmt.Sprintf("flow step %d: expected outcome %q, got error %q",
					i+1, expectLabel(step.Expect), reqErr.Code))
			}

			h.logger.Info("flow step rejected",
				"step", i,
				"submit", step.Submit,
				"code", reqErr.Code,
			)
			continue
		}

		ev.Reason = string(ack.Reason)
		ev.Duplicate = ack.Duplicate
		ev.Action = string(ack.Action)
		ev.Marker = string(ack.Marker)
		ev.Weight = ack.Weight
		ev.ScoreCacheUpdated = ack.ScoreCacheUpdated
		ev.PantryConsumed = ack.PantryConsumed
		if ack.EventID != "" {
			h.copySeq++
			ev.Copy = fmt.Sprintf("copy-%d", h.copySeq)
		}
		result.Trace = append(result.Trace, ev)

		if step.Expect != nil {
			for _, msg := range checkExpect(i+1, step.Expect, ack) {
				result.AddError(msg)
			}
		}

		h.logger.Info("flow step completed",
			"step", i,
			"submit", step.Submit,
			"reason", ack.Reason,
			"copy", ev.Copy,
		)
	}

	return nil
}

// checkExpect validates one ack against its expect clause. Subset
// semantics: only set fields are compared.
func checkExpect(step int, e *ExpectClause, ack pipeline.Ack) []string {
	var msgs []string
	fail := func(field string, want, got any) {
		msgs = append(msgs, fmt.Sprintf("flow step %d: expected %s %v, got %v", step, field, want, got))
	}

	if e.Error != "" {
		fail("error", e.Error, "ack with reason "+string(ack.Reason))
		return msgs
	}
	if e.Reason != string(ack.Reason) {
		fail("reason", e.Reason, ack.Reason)
	}
	if e.Duplicate != nil && *e.Duplicate != ack.Duplicate {
		fail("duplicate", *e.Duplicate, ack.Duplicate)
	}
	if e.Action != "" && e.Action != string(ack.Action) {
		fail("action", e.Action, ack.Action)
	}
	if e.Marker != "" && e.Marker != string(ack.Marker) {
		fail("marker", e.Marker, ack.Marker)
	}
	if e.Weight != nil && math.Abs(*e.Weight-ack.Weight) > weightTolerance {
		fail("weight", *e.Weight, ack.Weight)
	}
	if e.ScoreCache != nil && *e.ScoreCache != ack.ScoreCacheUpdated {
		fail("score_cache", *e.ScoreCache, ack.ScoreCacheUpdated)
	}
	if e.Consumed != nil && *e.Consumed != ack.PantryConsumed {
		fail("consumed", *e.Consumed, ack.PantryConsumed)
	}
	return msgs
}

// expectLabel names the outcome an expect clause asks for, for error
// messages.
func expectLabel(e *ExpectClause) string {
	if e.Error != "" {
		return "error " + e.Error
	}
	return "reason " + e.Reason
}
