package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/forkful/tasteledger/internal/event"
)

// marshalPayload converts an event payload to canonical JSON TEXT for
// storage. Uses RFC 8785 canonical JSON so the stored bytes are
// deterministic; an empty payload stores as {}.
func marshalPayload(payload map[string]string) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	data, err := event.MarshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(data), nil
}

// unmarshalPayload parses stored payload TEXT. An empty object comes
// back as nil so round-trips preserve the zero value.
func unmarshalPayload(text string) (map[string]string, error) {
	if text == "" || text == "{}" {
		return nil, nil
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return payload, nil
}

// timeLayout is RFC 3339 with fixed nine-digit fractional seconds.
// Fixed width matters twice: equality matching on stored text is
// byte-stable, and lexicographic ORDER BY is chronological. Trimmed
// layouts break the latter ("...00.5Z" sorts before "...00Z").
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// encodeTime formats a timestamp for storage, always in UTC.
func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// decodeTime parses a stored timestamp. Accepts any fractional
// precision for compatibility, not just the fixed-width form.
func decodeTime(text string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode time %q: %w", text, err)
	}
	return t, nil
}

// encodeTimePtr formats an optional timestamp; nil stores as NULL.
func encodeTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeTime(*t), Valid: true}
}

// decodeTimePtr parses an optional stored timestamp.
func decodeTimePtr(text sql.NullString) (*time.Time, error) {
	if !text.Valid {
		return nil, nil
	}
	t, err := decodeTime(text.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullableString stores "" as NULL, preserving the original/copy
// distinction on the action column.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
