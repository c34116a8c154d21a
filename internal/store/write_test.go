package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/forkful/tasteledger/internal/event"
	"github.com/forkful/tasteledger/internal/taste"
)

func TestInsertOriginal_Basic(t *testing.T) {
	s := createTestStore(t)

	orig := seedOriginal("orig-1")
	if err := s.InsertOriginal(context.Background(), orig); err != nil {
		t.Fatalf("InsertOriginal() failed: %v", err)
	}

	// Verify stored correctly
	var householdKey, id, subjectID, decidedAt, marker string
	var action, actionedAt, idempotencyKey sql.NullString
	err := s.db.QueryRow(`
		SELECT household_key, id, subject_id, decided_at, actioned_at, action, marker, idempotency_key
		FROM decision_events
		WHERE id = ?
	`, orig.ID).Scan(&householdKey, &id, &subjectID, &decidedAt, &actionedAt, &action, &marker, &idempotencyKey)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if householdKey != orig.HouseholdKey {
		t.Errorf("household_key = %q, want %q", householdKey, orig.HouseholdKey)
	}
	if subjectID != orig.SubjectID {
		t.Errorf("subject_id = %q, want %q", subjectID, orig.SubjectID)
	}
	if decidedAt != encodeTime(orig.DecidedAt) {
		t.Errorf("decided_at = %q, want %q", decidedAt, encodeTime(orig.DecidedAt))
	}

	// Originals carry NULL action, NULL actioned_at, NULL idempotency_key
	if action.Valid {
		t.Errorf("action = %q, want NULL on an original", action.String)
	}
	if actionedAt.Valid {
		t.Errorf("actioned_at = %q, want NULL on an original", actionedAt.String)
	}
	if idempotencyKey.Valid {
		t.Errorf("idempotency_key = %q, want NULL on an original", idempotencyKey.String)
	}
	if marker != "" {
		t.Errorf("marker = %q, want empty", marker)
	}
}

func TestInsertOriginal_Idempotent(t *testing.T) {
	s := createTestStore(t)

	orig := seedOriginal("orig-1")

	// Seed twice - should not error
	if err := s.InsertOriginal(context.Background(), orig); err != nil {
		t.Fatalf("first InsertOriginal() failed: %v", err)
	}
	if err := s.InsertOriginal(context.Background(), orig); err != nil {
		t.Fatalf("second InsertOriginal() failed: %v", err)
	}

	// Verify only one row exists
	var count int
	s.db.QueryRow("SELECT COUNT(*) FROM decision_events WHERE id = ?", orig.ID).Scan(&count)
	if count != 1 {
		t.Errorf("count = %d, want 1 (idempotent seed)", count)
	}
}

func TestInsertOriginal_CanonicalPayload(t *testing.T) {
	s := createTestStore(t)

	orig := seedOriginal("orig-1")
	orig.Payload = map[string]string{
		"zebra": "z",
		"apple": "a",
		"mango": "m",
	}

	if err := s.InsertOriginal(context.Background(), orig); err != nil {
		t.Fatalf("InsertOriginal() failed: %v", err)
	}

	var payloadJSON string
	err := s.db.QueryRow("SELECT payload FROM decision_events WHERE id = ?", orig.ID).Scan(&payloadJSON)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	// Canonical JSON should have keys sorted
	expected := `{"apple":"a","mango":"m","zebra":"z"}`
	if payloadJSON != expected {
		t.Errorf("payload JSON = %q, want %q (canonical order)", payloadJSON, expected)
	}
}

func TestInsertOriginal_EmptyPayload(t *testing.T) {
	s := createTestStore(t)

	orig := seedOriginal("orig-1")
	orig.Payload = nil

	if err := s.InsertOriginal(context.Background(), orig); err != nil {
		t.Fatalf("InsertOriginal() failed: %v", err)
	}

	var payloadJSON string
	err := s.db.QueryRow("SELECT payload FROM decision_events WHERE id = ?", orig.ID).Scan(&payloadJSON)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if payloadJSON != "{}" {
		t.Errorf("payload JSON = %q, want {}", payloadJSON)
	}
}

func TestInsertCopy_ReportsInserted(t *testing.T) {
	s := createTestStore(t)

	orig := seedOriginal("orig-1")
	if err := s.InsertOriginal(context.Background(), orig); err != nil {
		t.Fatalf("InsertOriginal() failed: %v", err)
	}

	c := seedCopy(orig, "copy-1", event.ActionApproved, event.MarkerNone, storeBase)
	inserted, err := s.InsertCopy(context.Background(), c)
	if err != nil {
		t.Fatalf("InsertCopy() failed: %v", err)
	}
	if !inserted {
		t.Error("inserted = false, want true for a new copy")
	}
}

func TestInsertCopy_RacingDuplicateAbsorbed(t *testing.T) {
	s := createTestStore(t)

	orig := seedOriginal("orig-1")
	if err := s.InsertOriginal(context.Background(), orig); err != nil {
		t.Fatalf("InsertOriginal() failed: %v", err)
	}

	// Two copies in the same idempotency bucket collapse to one row even
	// though their ids differ. The loser sees inserted=false, not an
	// error.
	first := seedCopy(orig, "copy-1", event.ActionApproved, event.MarkerNone, storeBase)
	second := seedCopy(orig, "copy-2", event.ActionApproved, event.MarkerNone, storeBase.Add(time.Second))

	if first.IdempotencyKey != second.IdempotencyKey {
		t.Fatalf("fixture bug: keys differ (%q vs %q)", first.IdempotencyKey, second.IdempotencyKey)
	}

	inserted, err := s.InsertCopy(context.Background(), first)
	if err != nil {
		t.Fatalf("first InsertCopy() failed: %v", err)
	}
	if !inserted {
		t.Fatal("first inserted = false, want true")
	}

	inserted, err = s.InsertCopy(context.Background(), second)
	if err != nil {
		t.Fatalf("second InsertCopy() failed: %v", err)
	}
	if inserted {
		t.Error("second inserted = true, want false (absorbed duplicate)")
	}

	var count int
	s.db.QueryRow("SELECT COUNT(*) FROM decision_events WHERE action IS NOT NULL").Scan(&count)
	if count != 1 {
		t.Errorf("copy count = %d, want 1", count)
	}
}

func TestInsertCopy_DifferentBucketsBothInsert(t *testing.T) {
	s := createTestStore(t)

	orig := seedOriginal("orig-1")
	if err := s.InsertOriginal(context.Background(), orig); err != nil {
		t.Fatalf("InsertOriginal() failed: %v", err)
	}

	first := seedCopy(orig, "copy-1", event.ActionApproved, event.MarkerNone, storeBase)
	second := seedCopy(orig, "copy-2", event.ActionApproved, event.MarkerNone, storeBase.Add(20*time.Minute))

	if first.IdempotencyKey == second.IdempotencyKey {
		t.Fatal("fixture bug: keys should differ across buckets")
	}

	for _, c := range []event.DecisionEvent{first, second} {
		inserted, err := s.InsertCopy(context.Background(), c)
		if err != nil {
			t.Fatalf("InsertCopy(%s) failed: %v", c.ID, err)
		}
		if !inserted {
			t.Errorf("inserted = false for %s, want true", c.ID)
		}
	}
}

func TestInsertCopy_KeysScopedPerHousehold(t *testing.T) {
	s := createTestStore(t)

	orig := seedOriginal("orig-1")
	c1 := seedCopy(orig, "copy-1", event.ActionApproved, event.MarkerNone, storeBase)

	other := orig
	other.HouseholdKey = "hh-2"
	c2 := seedCopy(other, "copy-2", event.ActionApproved, event.MarkerNone, storeBase)

	// Same bucket timing, different tenants: both rows land because the
	// unique index is (household_key, idempotency_key).
	for _, c := range []event.DecisionEvent{c1, c2} {
		inserted, err := s.InsertCopy(context.Background(), c)
		if err != nil {
			t.Fatalf("InsertCopy(%s) failed: %v", c.ID, err)
		}
		if !inserted {
			t.Errorf("inserted = false for %s, want true", c.ID)
		}
	}
}

func TestUpsertMealScore_CreatesRow(t *testing.T) {
	s := createTestStore(t)

	delta := taste.ScoreDelta{Score: 1.0, Approvals: 1}
	if err := s.UpsertMealScore(context.Background(), "hh-1", "meal-1", delta, storeBase); err != nil {
		t.Fatalf("UpsertMealScore() failed: %v", err)
	}

	ms, err := s.GetMealScore(context.Background(), "hh-1", "meal-1")
	if err != nil {
		t.Fatalf("GetMealScore() failed: %v", err)
	}
	if ms.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", ms.Score)
	}
	if ms.Approvals != 1 {
		t.Errorf("approvals = %d, want 1", ms.Approvals)
	}
	if ms.Rejections != 0 {
		t.Errorf("rejections = %d, want 0", ms.Rejections)
	}
}

func TestUpsertMealScore_Accumulates(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	deltas := []taste.ScoreDelta{
		{Score: 1.0, Approvals: 1},
		{Score: 1.0, Approvals: 1},
		{Score: -1.0, Rejections: 1},
	}
	for i, d := range deltas {
		at := storeBase.Add(time.Duration(i) * time.Minute)
		if err := s.UpsertMealScore(ctx, "hh-1", "meal-1", d, at); err != nil {
			t.Fatalf("UpsertMealScore(%d) failed: %v", i, err)
		}
	}

	ms, err := s.GetMealScore(ctx, "hh-1", "meal-1")
	if err != nil {
		t.Fatalf("GetMealScore() failed: %v", err)
	}
	if ms.Score != 1.0 {
		t.Errorf("score = %v, want 1.0 (1 + 1 - 1)", ms.Score)
	}
	if ms.Approvals != 2 {
		t.Errorf("approvals = %d, want 2", ms.Approvals)
	}
	if ms.Rejections != 1 {
		t.Errorf("rejections = %d, want 1", ms.Rejections)
	}
	if !ms.UpdatedAt.Equal(storeBase.Add(2 * time.Minute)) {
		t.Errorf("updated_at = %v, want %v", ms.UpdatedAt, storeBase.Add(2*time.Minute))
	}
}

func TestUpsertPantryItem_CreateAndReplace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	item := event.PantryItem{
		HouseholdKey: "hh-1",
		ItemID:       "item-1",
		MealID:       "meal-1",
		Name:         "arborio rice",
		Quantity:     2,
		Unit:         "bag",
		UpdatedAt:    storeBase,
	}
	if err := s.UpsertPantryItem(ctx, item); err != nil {
		t.Fatalf("UpsertPantryItem() failed: %v", err)
	}

	item.Quantity = 5
	item.UpdatedAt = storeBase.Add(time.Hour)
	if err := s.UpsertPantryItem(ctx, item); err != nil {
		t.Fatalf("second UpsertPantryItem() failed: %v", err)
	}

	got, err := s.GetPantryItem(ctx, "hh-1", "item-1")
	if err != nil {
		t.Fatalf("GetPantryItem() failed: %v", err)
	}
	if got.Quantity != 5 {
		t.Errorf("quantity = %v, want 5", got.Quantity)
	}
	if got.Name != "arborio rice" {
		t.Errorf("name = %q, want %q", got.Name, "arborio rice")
	}
}

func TestConsumeForMeal_DecrementsMatchingItems(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	items := []event.PantryItem{
		{HouseholdKey: "hh-1", ItemID: "item-1", MealID: "meal-1", Name: "rice", Quantity: 3, Unit: "bag", UpdatedAt: storeBase},
		{HouseholdKey: "hh-1", ItemID: "item-2", MealID: "meal-1", Name: "stock", Quantity: 1, Unit: "carton", UpdatedAt: storeBase},
		{HouseholdKey: "hh-1", ItemID: "item-3", MealID: "meal-2", Name: "pasta", Quantity: 4, Unit: "box", UpdatedAt: storeBase},
	}
	for _, item := range items {
		if err := s.UpsertPantryItem(ctx, item); err != nil {
			t.Fatalf("UpsertPantryItem(%s) failed: %v", item.ItemID, err)
		}
	}

	at := storeBase.Add(time.Hour)
	consumed, err := s.ConsumeForMeal(ctx, "hh-1", "meal-1", at)
	if err != nil {
		t.Fatalf("ConsumeForMeal() failed: %v", err)
	}
	if consumed != 2 {
		t.Errorf("consumed = %d, want 2", consumed)
	}

	got, err := s.GetPantryItem(ctx, "hh-1", "item-1")
	if err != nil {
		t.Fatalf("GetPantryItem(item-1) failed: %v", err)
	}
	if got.Quantity != 2 {
		t.Errorf("item-1 quantity = %v, want 2", got.Quantity)
	}
	if !got.UpdatedAt.Equal(at) {
		t.Errorf("item-1 updated_at = %v, want %v", got.UpdatedAt, at)
	}

	// meal-2 stock untouched
	got, err = s.GetPantryItem(ctx, "hh-1", "item-3")
	if err != nil {
		t.Fatalf("GetPantryItem(item-3) failed: %v", err)
	}
	if got.Quantity != 4 {
		t.Errorf("item-3 quantity = %v, want 4", got.Quantity)
	}
}

func TestConsumeForMeal_FloorsAtZero(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	items := []event.PantryItem{
		{HouseholdKey: "hh-1", ItemID: "item-1", MealID: "meal-1", Name: "saffron", Quantity: 0.5, Unit: "g", UpdatedAt: storeBase},
		{HouseholdKey: "hh-1", ItemID: "item-2", MealID: "meal-1", Name: "rice", Quantity: 0, Unit: "bag", UpdatedAt: storeBase},
	}
	for _, item := range items {
		if err := s.UpsertPantryItem(ctx, item); err != nil {
			t.Fatalf("UpsertPantryItem(%s) failed: %v", item.ItemID, err)
		}
	}

	consumed, err := s.ConsumeForMeal(ctx, "hh-1", "meal-1", storeBase.Add(time.Hour))
	if err != nil {
		t.Fatalf("ConsumeForMeal() failed: %v", err)
	}

	// Only the in-stock item is touched; fractional stock floors at zero
	// instead of going negative.
	if consumed != 1 {
		t.Errorf("consumed = %d, want 1", consumed)
	}

	got, err := s.GetPantryItem(ctx, "hh-1", "item-1")
	if err != nil {
		t.Fatalf("GetPantryItem(item-1) failed: %v", err)
	}
	if got.Quantity != 0 {
		t.Errorf("item-1 quantity = %v, want 0", got.Quantity)
	}

	got, err = s.GetPantryItem(ctx, "hh-1", "item-2")
	if err != nil {
		t.Fatalf("GetPantryItem(item-2) failed: %v", err)
	}
	if !got.UpdatedAt.Equal(storeBase) {
		t.Errorf("item-2 updated_at = %v, want untouched %v", got.UpdatedAt, storeBase)
	}
}

func TestConsumeForMeal_ScopedToHousehold(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mine := event.PantryItem{HouseholdKey: "hh-1", ItemID: "item-1", MealID: "meal-1", Name: "rice", Quantity: 3, Unit: "bag", UpdatedAt: storeBase}
	theirs := event.PantryItem{HouseholdKey: "hh-2", ItemID: "item-1", MealID: "meal-1", Name: "rice", Quantity: 3, Unit: "bag", UpdatedAt: storeBase}
	for _, item := range []event.PantryItem{mine, theirs} {
		if err := s.UpsertPantryItem(ctx, item); err != nil {
			t.Fatalf("UpsertPantryItem() failed: %v", err)
		}
	}

	consumed, err := s.ConsumeForMeal(ctx, "hh-1", "meal-1", storeBase.Add(time.Hour))
	if err != nil {
		t.Fatalf("ConsumeForMeal() failed: %v", err)
	}
	if consumed != 1 {
		t.Errorf("consumed = %d, want 1", consumed)
	}

	got, err := s.GetPantryItem(ctx, "hh-2", "item-1")
	if err != nil {
		t.Fatalf("GetPantryItem(hh-2) failed: %v", err)
	}
	if got.Quantity != 3 {
		t.Errorf("hh-2 quantity = %v, want untouched 3", got.Quantity)
	}
}
