package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/forkful/tasteledger/internal/event"
)

// rowScanner abstracts sql.Row and sql.Rows for the shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

// LoadOriginal fetches one event by tenant and id.
// Returns sql.ErrNoRows if not found.
func (s *Store) LoadOriginal(ctx context.Context, householdKey, id string) (event.DecisionEvent, error) {
	row, err := s.guardedQueryRow(ctx, sqlLoadOriginal, householdKey, id)
	if err != nil {
		return event.DecisionEvent{}, err
	}
	return scanEvent(row)
}

// LoadCopies returns every feedback copy sharing the original's identity
// triple, ordered deterministically by actioned_at then id.
//
// Returns an empty slice (not nil) when no copies exist.
func (s *Store) LoadCopies(ctx context.Context, householdKey, subjectID string, decidedAt time.Time) ([]event.DecisionEvent, error) {
	return s.queryEvents(ctx, "load copies", sqlLoadCopies,
		householdKey, subjectID, encodeTime(decidedAt))
}

// ListSubjectEvents returns the full ledger slice for one subject:
// the original plus every copy, in deterministic order.
//
// Returns an empty slice (not nil) when the subject has no events.
func (s *Store) ListSubjectEvents(ctx context.Context, householdKey, subjectID string) ([]event.DecisionEvent, error) {
	return s.queryEvents(ctx, "list subject events", sqlListSubjectEvents,
		householdKey, subjectID)
}

// ListHouseholdEvents returns every ledger row for a tenant in
// deterministic order.
//
// Returns an empty slice (not nil) for an empty ledger.
func (s *Store) ListHouseholdEvents(ctx context.Context, householdKey string) ([]event.DecisionEvent, error) {
	return s.queryEvents(ctx, "list household events", sqlListHouseholdEvents, householdKey)
}

// queryEvents runs a guarded multi-row event query.
func (s *Store) queryEvents(ctx context.Context, op, query string, args ...any) ([]event.DecisionEvent, error) {
	rows, err := s.guardedQuery(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var events []event.DecisionEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}

	// Return empty slice instead of nil
	if events == nil {
		events = []event.DecisionEvent{}
	}
	return events, nil
}

// scanEvent reads one decision_events row.
func scanEvent(r rowScanner) (event.DecisionEvent, error) {
	var (
		e              event.DecisionEvent
		decidedAt      string
		actionedAt     sql.NullString
		action         sql.NullString
		marker         string
		payload        string
		idempotencyKey sql.NullString
	)

	err := r.Scan(
		&e.HouseholdKey,
		&e.ID,
		&e.SubjectID,
		&e.SubjectMealID,
		&e.DecisionKind,
		&decidedAt,
		&actionedAt,
		&action,
		&marker,
		&payload,
		&e.ContextFingerprint,
		&idempotencyKey,
	)
	if err != nil {
		return event.DecisionEvent{}, err
	}

	if e.DecidedAt, err = decodeTime(decidedAt); err != nil {
		return event.DecisionEvent{}, err
	}
	if e.ActionedAt, err = decodeTimePtr(actionedAt); err != nil {
		return event.DecisionEvent{}, err
	}
	if e.Payload, err = unmarshalPayload(payload); err != nil {
		return event.DecisionEvent{}, err
	}

	e.Action = event.Action(action.String)
	e.Marker = event.Marker(marker)
	e.IdempotencyKey = idempotencyKey.String

	return e, nil
}

// GetMealScore fetches one cache row.
// Returns sql.ErrNoRows if the meal has no row yet.
func (s *Store) GetMealScore(ctx context.Context, householdKey, mealID string) (event.MealScore, error) {
	row, err := s.guardedQueryRow(ctx, sqlGetMealScore, householdKey, mealID)
	if err != nil {
		return event.MealScore{}, err
	}
	return scanMealScore(row)
}

// ListMealScores returns every cache row for a tenant, ordered by meal.
//
// Returns an empty slice (not nil) when the tenant has no rows.
func (s *Store) ListMealScores(ctx context.Context, householdKey string) ([]event.MealScore, error) {
	rows, err := s.guardedQuery(ctx, sqlListMealScores, householdKey)
	if err != nil {
		return nil, fmt.Errorf("list meal scores: %w", err)
	}
	defer rows.Close()

	var scores []event.MealScore
	for rows.Next() {
		ms, err := scanMealScore(rows)
		if err != nil {
			return nil, fmt.Errorf("list meal scores: %w", err)
		}
		scores = append(scores, ms)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list meal scores: iterate: %w", err)
	}

	if scores == nil {
		scores = []event.MealScore{}
	}
	return scores, nil
}

// scanMealScore reads one meal_scores row.
func scanMealScore(r rowScanner) (event.MealScore, error) {
	var (
		ms        event.MealScore
		updatedAt string
	)

	err := r.Scan(&ms.HouseholdKey, &ms.MealID, &ms.Score, &ms.Approvals, &ms.Rejections, &updatedAt)
	if err != nil {
		return event.MealScore{}, err
	}

	if ms.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return event.MealScore{}, err
	}
	return ms, nil
}

// GetPantryItem fetches one stocked item.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetPantryItem(ctx context.Context, householdKey, itemID string) (event.PantryItem, error) {
	row, err := s.guardedQueryRow(ctx, sqlGetPantryItem, householdKey, itemID)
	if err != nil {
		return event.PantryItem{}, err
	}
	return scanPantryItem(row)
}

// ListPantryItems returns every stocked item for a tenant, ordered by
// item id.
//
// Returns an empty slice (not nil) when the pantry is empty.
func (s *Store) ListPantryItems(ctx context.Context, householdKey string) ([]event.PantryItem, error) {
	rows, err := s.guardedQuery(ctx, sqlListPantryItems, householdKey)
	if err != nil {
		return nil, fmt.Errorf("list pantry items: %w", err)
	}
	defer rows.Close()

	var items []event.PantryItem
	for rows.Next() {
		item, err := scanPantryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("list pantry items: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pantry items: iterate: %w", err)
	}

	if items == nil {
		items = []event.PantryItem{}
	}
	return items, nil
}

// scanPantryItem reads one pantry_items row.
func scanPantryItem(r rowScanner) (event.PantryItem, error) {
	var (
		item      event.PantryItem
		updatedAt string
	)

	err := r.Scan(&item.HouseholdKey, &item.ItemID, &item.MealID, &item.Name, &item.Quantity, &item.Unit, &updatedAt)
	if err != nil {
		return event.PantryItem{}, err
	}

	if item.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return event.PantryItem{}, err
	}
	return item, nil
}
