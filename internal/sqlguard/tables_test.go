package sqlguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExtractTableReferences_SingleTable tests the plain FROM case.
func TestExtractTableReferences_SingleTable(t *testing.T) {
	refs := ExtractTableReferences("SELECT * FROM decision_events WHERE household_key = $1")
	require.Len(t, refs, 1)
	assert.Equal(t, TableRef{Name: "decision_events"}, refs[0])
}

// TestExtractTableReferences_Alias tests implicit and AS aliases.
func TestExtractTableReferences_Alias(t *testing.T) {
	refs := ExtractTableReferences("SELECT * FROM decision_events de WHERE de.household_key = $1")
	require.Len(t, refs, 1)
	assert.Equal(t, TableRef{Name: "decision_events", Alias: "de"}, refs[0])

	refs = ExtractTableReferences("SELECT * FROM decision_events AS de")
	require.Len(t, refs, 1)
	assert.Equal(t, TableRef{Name: "decision_events", Alias: "de"}, refs[0])
}

// TestExtractTableReferences_KeywordNeverBecomesAlias tests that clause
// keywords after the table name are not mistaken for aliases.
func TestExtractTableReferences_KeywordNeverBecomesAlias(t *testing.T) {
	refs := ExtractTableReferences("SELECT * FROM decision_events WHERE household_key = $1 ORDER BY id")
	require.Len(t, refs, 1)
	assert.Empty(t, refs[0].Alias)
}

// TestExtractTableReferences_Joins tests multiple joins with aliases.
func TestExtractTableReferences_Joins(t *testing.T) {
	sql := `SELECT * FROM decision_events de
	        JOIN meal_scores ms ON de.subject_meal_id = ms.meal_id
	        LEFT JOIN pantry_items pi ON pi.meal_id = ms.meal_id`

	refs := ExtractTableReferences(sql)
	require.Len(t, refs, 3)
	assert.Equal(t, TableRef{Name: "decision_events", Alias: "de"}, refs[0])
	assert.Equal(t, TableRef{Name: "meal_scores", Alias: "ms"}, refs[1])
	assert.Equal(t, TableRef{Name: "pantry_items", Alias: "pi"}, refs[2])
}

// TestExtractTableReferences_CommaList tests comma joins in FROM.
func TestExtractTableReferences_CommaList(t *testing.T) {
	refs := ExtractTableReferences("SELECT * FROM decision_events de, meal_scores ms WHERE de.household_key = $1")
	require.Len(t, refs, 2)
	assert.Equal(t, "decision_events", refs[0].Name)
	assert.Equal(t, "meal_scores", refs[1].Name)
}

// TestExtractTableReferences_Update tests UPDATE targets with and
// without alias.
func TestExtractTableReferences_Update(t *testing.T) {
	refs := ExtractTableReferences("UPDATE meal_scores SET score = $2 WHERE household_key = $1")
	require.Len(t, refs, 1)
	assert.Equal(t, TableRef{Name: "meal_scores"}, refs[0])

	refs = ExtractTableReferences("UPDATE meal_scores ms SET score = $2 WHERE ms.household_key = $1")
	require.Len(t, refs, 1)
	assert.Equal(t, TableRef{Name: "meal_scores", Alias: "ms"}, refs[0])
}

// TestExtractTableReferences_InsertInto tests the INSERT target.
func TestExtractTableReferences_InsertInto(t *testing.T) {
	refs := ExtractTableReferences("INSERT INTO decision_events (id, household_key) VALUES ($2, $1)")
	require.Len(t, refs, 1)
	assert.Equal(t, TableRef{Name: "decision_events"}, refs[0])
}

// TestExtractTableReferences_DoUpdateNotATable tests that the DO UPDATE
// arm of an upsert is not read as an UPDATE target.
func TestExtractTableReferences_DoUpdateNotATable(t *testing.T) {
	sql := `INSERT INTO meal_scores (household_key, meal_id, score)
	        VALUES ($1, $2, $3)
	        ON CONFLICT (household_key, meal_id)
	        DO UPDATE SET score = meal_scores.score + excluded.score`

	refs := ExtractTableReferences(sql)
	require.Len(t, refs, 1)
	assert.Equal(t, "meal_scores", refs[0].Name)
}

// TestExtractTableReferences_SchemaQualifiedAndQuoted tests name
// normalization during extraction.
func TestExtractTableReferences_SchemaQualifiedAndQuoted(t *testing.T) {
	refs := ExtractTableReferences(`SELECT * FROM public."Decision_Events" de`)
	require.Len(t, refs, 1)
	assert.Equal(t, TableRef{Name: "decision_events", Alias: "de"}, refs[0])
}

// TestExtractTableReferences_None tests statements with no tables.
func TestExtractTableReferences_None(t *testing.T) {
	assert.Empty(t, ExtractTableReferences("SELECT 1"))
}

// TestTableRef_Qualifiers tests qualifier candidates.
func TestTableRef_Qualifiers(t *testing.T) {
	assert.Equal(t, []string{"de", "decision_events"},
		TableRef{Name: "decision_events", Alias: "de"}.Qualifiers())
	assert.Equal(t, []string{"decision_events"},
		TableRef{Name: "decision_events"}.Qualifiers())
}
