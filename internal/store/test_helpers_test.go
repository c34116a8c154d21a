package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/forkful/tasteledger/internal/event"
)

// storeBase is a fixed reference instant for deterministic fixtures.
var storeBase = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

// createTestStore creates a fresh store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedOriginal builds an unactioned original decision event.
func seedOriginal(id string) event.DecisionEvent {
	e := event.DecisionEvent{
		ID:            id,
		HouseholdKey:  "hh-1",
		SubjectID:     "subj-1",
		SubjectMealID: "meal-1",
		DecisionKind:  "dinner",
		DecidedAt:     storeBase.Add(-time.Hour),
		Payload:       map[string]string{"slot": "dinner"},
	}
	e.ContextFingerprint = event.ContextFingerprint(e.HouseholdKey, e.SubjectID, e.DecidedAt, e.Payload)
	return e
}

// seedCopy builds an actioned feedback copy of orig with a fresh id and
// a bucketed idempotency key.
func seedCopy(orig event.DecisionEvent, id string, action event.Action, marker event.Marker, actionedAt time.Time) event.DecisionEvent {
	c := orig
	c.ID = id
	c.Payload = orig.ClonePayload()
	c.Action = action
	c.Marker = marker
	at := actionedAt
	c.ActionedAt = &at
	c.IdempotencyKey = event.CopyIdempotencyKey(c, 10*time.Minute)
	return c
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
