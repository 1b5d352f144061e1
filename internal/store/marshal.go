package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/casewise/checkpoint/internal/record"
)

// marshalData converts a column map to JSON TEXT for storage.
// record.Data marshals with sorted keys, so stored text is deterministic.
func marshalData(d record.Data) (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal data: %w", err)
	}
	return string(raw), nil
}

// unmarshalData parses JSON TEXT back into a column map.
// Empty or NULL text yields a nil map.
func unmarshalData(s sql.NullString) (record.Data, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var d record.Data
	if err := json.Unmarshal([]byte(s.String), &d); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	return d, nil
}

// marshalTools converts the executed-tool list to a JSON array TEXT.
// A nil list is stored as "[]" so json_insert can always append.
func marshalTools(tools []string) (string, error) {
	if tools == nil {
		tools = []string{}
	}
	raw, err := json.Marshal(tools)
	if err != nil {
		return "", fmt.Errorf("marshal tools: %w", err)
	}
	return string(raw), nil
}

// unmarshalTools parses the stored JSON array of tool names.
func unmarshalTools(s string) ([]string, error) {
	if s == "" {
		return []string{}, nil
	}
	var tools []string
	if err := json.Unmarshal([]byte(s), &tools); err != nil {
		return nil, fmt.Errorf("unmarshal tools: %w", err)
	}
	if tools == nil {
		tools = []string{}
	}
	return tools, nil
}

// toMillis converts a time to the stored unix-millisecond representation.
func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// fromMillis converts a stored unix-millisecond value back to UTC time.
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// fromNullMillis converts a nullable millisecond column to *time.Time.
func fromNullMillis(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := fromMillis(ms.Int64)
	return &t
}
