package store

// Statement is one named runtime statement. The registry exists so the
// lint command can sweep every statement the store will ever issue,
// offline, with the same guard that gates them at runtime.
type Statement struct {
	Name string
	SQL  string
}

// eventColumns is the full decision_events column list, in insert order.
const eventColumns = `household_key, id, subject_id, subject_meal_id, decision_kind,
	decided_at, actioned_at, action, marker, payload, context_fingerprint, idempotency_key`

// Parameter convention: household_key is always $1, and parameters
// appear in the statement text in increasing numeric order, so SQLite's
// first-occurrence index assignment lines up with positional args. The
// one exception (consume_pantry) documents its binding order in place.
const (
	sqlInsertOriginal = `INSERT INTO decision_events (` + eventColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (household_key, id) DO NOTHING`

	sqlInsertCopy = `INSERT INTO decision_events (` + eventColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (household_key, idempotency_key) DO NOTHING`

	sqlLoadOriginal = `SELECT ` + eventColumns + `
	FROM decision_events
	WHERE household_key = $1 AND id = $2`

	sqlLoadCopies = `SELECT ` + eventColumns + `
	FROM decision_events
	WHERE household_key = $1 AND subject_id = $2 AND decided_at = $3 AND action IS NOT NULL
	ORDER BY actioned_at ASC, id COLLATE BINARY ASC`

	sqlListSubjectEvents = `SELECT ` + eventColumns + `
	FROM decision_events
	WHERE household_key = $1 AND subject_id = $2
	ORDER BY decided_at ASC, actioned_at ASC, id COLLATE BINARY ASC`

	sqlListHouseholdEvents = `SELECT ` + eventColumns + `
	FROM decision_events
	WHERE household_key = $1
	ORDER BY decided_at ASC, actioned_at ASC, id COLLATE BINARY ASC`

	sqlUpsertMealScore = `INSERT INTO meal_scores (household_key, meal_id, score, approvals, rejections, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (household_key, meal_id) DO UPDATE SET
		score = meal_scores.score + excluded.score,
		approvals = meal_scores.approvals + excluded.approvals,
		rejections = meal_scores.rejections + excluded.rejections,
		updated_at = excluded.updated_at`

	sqlGetMealScore = `SELECT household_key, meal_id, score, approvals, rejections, updated_at
	FROM meal_scores
	WHERE household_key = $1 AND meal_id = $2`

	sqlListMealScores = `SELECT household_key, meal_id, score, approvals, rejections, updated_at
	FROM meal_scores
	WHERE household_key = $1
	ORDER BY meal_id COLLATE BINARY ASC`

	sqlUpsertPantryItem = `INSERT INTO pantry_items (household_key, item_id, meal_id, name, quantity, unit, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (household_key, item_id) DO UPDATE SET
		meal_id = excluded.meal_id,
		name = excluded.name,
		quantity = excluded.quantity,
		unit = excluded.unit,
		updated_at = excluded.updated_at`

	// Parameters here are numbered for the guard but appear out of order
	// in the text; ConsumeForMeal passes args in textual order so
	// first-occurrence indexing binds each value to its own slot.
	sqlConsumePantry = `UPDATE pantry_items
	SET quantity = max(quantity - 1, 0), updated_at = $2
	WHERE household_key = $1 AND meal_id = $3 AND quantity > 0`

	sqlGetPantryItem = `SELECT household_key, item_id, meal_id, name, quantity, unit, updated_at
	FROM pantry_items
	WHERE household_key = $1 AND item_id = $2`

	sqlListPantryItems = `SELECT household_key, item_id, meal_id, name, quantity, unit, updated_at
	FROM pantry_items
	WHERE household_key = $1
	ORDER BY item_id COLLATE BINARY ASC`
)

// Statements returns the full registry in a stable order.
func Statements() []Statement {
	return []Statement{
		{Name: "insert_original", SQL: sqlInsertOriginal},
		{Name: "insert_copy", SQL: sqlInsertCopy},
		{Name: "load_original", SQL: sqlLoadOriginal},
		{Name: "load_copies", SQL: sqlLoadCopies},
		{Name: "list_subject_events", SQL: sqlListSubjectEvents},
		{Name: "list_household_events", SQL: sqlListHouseholdEvents},
		{Name: "upsert_meal_score", SQL: sqlUpsertMealScore},
		{Name: "get_meal_score", SQL: sqlGetMealScore},
		{Name: "list_meal_scores", SQL: sqlListMealScores},
		{Name: "upsert_pantry_item", SQL: sqlUpsertPantryItem},
		{Name: "consume_pantry", SQL: sqlConsumePantry},
		{Name: "get_pantry_item", SQL: sqlGetPantryItem},
		{Name: "list_pantry_items", SQL: sqlListPantryItems},
	}
}
