package store

import (
	"context"
	"fmt"
	"time"

	"github.com/forkful/tasteledger/internal/event"
	"github.com/forkful/tasteledger/internal/taste"
)

// InsertOriginal appends an original decision event to the ledger.
// Uses ON CONFLICT (household_key, id) DO NOTHING for idempotency -
// re-seeding the same original is silently ignored.
func (s *Store) InsertOriginal(ctx context.Context, e event.DecisionEvent) error {
	payloadJSON, err := marshalPayload(e.Payload)
	if err != nil {
		return fmt.Errorf("insert original: %w", err)
	}

	_, err = s.guardedExec(ctx, sqlInsertOriginal,
		e.HouseholdKey,
		e.ID,
		e.SubjectID,
		e.SubjectMealID,
		e.DecisionKind,
		encodeTime(e.DecidedAt),
		encodeTimePtr(e.ActionedAt),
		nullableString(string(e.Action)),
		string(e.Marker),
		payloadJSON,
		e.ContextFingerprint,
		nullableString(e.IdempotencyKey),
	)
	if err != nil {
		return fmt.Errorf("insert original: %w", err)
	}

	return nil
}

// InsertCopy appends a feedback copy and reports whether a new row was
// actually written.
//
// The UNIQUE(household_key, idempotency_key) index plus ON CONFLICT DO
// NOTHING is the storage backstop for racing duplicates: two identical
// requests that both passed the in-process duplicate check collapse to
// one row here, and the loser sees inserted=false. Callers treat that
// exactly like an in-process duplicate, never as a failure.
func (s *Store) InsertCopy(ctx context.Context, c event.DecisionEvent) (inserted bool, err error) {
	payloadJSON, err := marshalPayload(c.Payload)
	if err != nil {
		return false, fmt.Errorf("insert copy: %w", err)
	}

	res, err := s.guardedExec(ctx, sqlInsertCopy,
		c.HouseholdKey,
		c.ID,
		c.SubjectID,
		c.SubjectMealID,
		c.DecisionKind,
		encodeTime(c.DecidedAt),
		encodeTimePtr(c.ActionedAt),
		nullableString(string(c.Action)),
		string(c.Marker),
		payloadJSON,
		c.ContextFingerprint,
		nullableString(c.IdempotencyKey),
	)
	if err != nil {
		return false, fmt.Errorf("insert copy: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert copy: rows affected: %w", err)
	}

	return affected > 0, nil
}

// UpsertMealScore applies one event's increment to the per-meal cache
// row. The accumulating DO UPDATE keeps the operation a single atomic
// statement; no read-modify-write cycle exists for concurrent updates to
// interleave with.
func (s *Store) UpsertMealScore(ctx context.Context, householdKey, mealID string, delta taste.ScoreDelta, at time.Time) error {
	_, err := s.guardedExec(ctx, sqlUpsertMealScore,
		householdKey,
		mealID,
		delta.Score,
		delta.Approvals,
		delta.Rejections,
		encodeTime(at),
	)
	if err != nil {
		return fmt.Errorf("upsert meal score: %w", err)
	}
	return nil
}

// UpsertPantryItem creates or replaces one stocked item.
func (s *Store) UpsertPantryItem(ctx context.Context, item event.PantryItem) error {
	_, err := s.guardedExec(ctx, sqlUpsertPantryItem,
		item.HouseholdKey,
		item.ItemID,
		item.MealID,
		item.Name,
		item.Quantity,
		item.Unit,
		encodeTime(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert pantry item: %w", err)
	}
	return nil
}

// ConsumeForMeal decrements stock for every item linked to the meal,
// flooring at zero, and returns how many items were consumed.
//
// Args are passed in textual parameter order ($2, $1, $3 appear in that
// order in the statement), matching SQLite's first-occurrence index
// assignment for $-style parameters.
func (s *Store) ConsumeForMeal(ctx context.Context, householdKey, mealID string, at time.Time) (int64, error) {
	res, err := s.guardedExec(ctx, sqlConsumePantry,
		encodeTime(at),
		householdKey,
		mealID,
	)
	if err != nil {
		return 0, fmt.Errorf("consume pantry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("consume pantry: rows affected: %w", err)
	}
	return affected, nil
}
