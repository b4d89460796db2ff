package repository

import (
	"database/sql"
	"encoding/json"
	"time"
)

// parseNullableTime parses a sql.NullString into a *time.Time using RFC3339.
// Returns nil if the value is NULL, empty, or fails to parse.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// nullableTimeToString converts a *time.Time to a value suitable for storage.
// Returns nil (SQL NULL) if the pointer is nil.
func nullableTimeToString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

// nullableString converts an empty string to SQL NULL.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableBytes converts an empty byte slice to SQL NULL, otherwise to the
// stored text form.
func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// rawResults converts a stored results column back to json.RawMessage,
// preserving absence as nil.
func rawResults(s sql.NullString) json.RawMessage {
	if !s.Valid || s.String == "" {
		return nil
	}
	return json.RawMessage(s.String)
}
