package types

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Compile-time interface assertions.
// Scan is on pointer receivers; Value is on value receivers.
var (
	_ sql.Scanner   = (*StringList)(nil)
	_ driver.Valuer = StringList(nil)
	_ sql.Scanner   = (*RawDocument)(nil)
	_ driver.Valuer = RawDocument(nil)
)

// scanJSONB is a generic helper that scans a JSONB database value into a Go pointer.
// It handles nil values, []byte, and string representations from different database drivers.
func scanJSONB(dest any, value any) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("jsonb: unsupported scan type %T", value)
	}
	return json.Unmarshal(data, dest)
}

// valueJSONB converts a Go value to a JSONB-compatible driver.Value.
func valueJSONB(v any) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// ---------------------------------------------------------------------------
// StringList
// ---------------------------------------------------------------------------

// StringList is a JSONB-backed list of strings (treatment names, tags).
type StringList []string

// Scan implements the sql.Scanner interface for reading JSONB from the database.
func (sl *StringList) Scan(value any) error {
	if value == nil {
		*sl = nil
		return nil
	}
	return scanJSONB(sl, value)
}

// Value implements the driver.Valuer interface for writing JSONB to the database.
func (sl StringList) Value() (driver.Value, error) {
	if sl == nil {
		return nil, nil
	}
	return valueJSONB([]string(sl))
}

// ---------------------------------------------------------------------------
// RawDocument
// ---------------------------------------------------------------------------

// RawDocument is an untyped JSON object as stored, before validation. The
// audit path works on raw documents so that malformed rows can still be
// reported field by field.
type RawDocument map[string]any

// Scan implements the sql.Scanner interface for reading JSONB from the database.
func (rd *RawDocument) Scan(value any) error {
	if value == nil {
		*rd = nil
		return nil
	}
	return scanJSONB(rd, value)
}

// Value implements the driver.Valuer interface for writing JSONB to the database.
func (rd RawDocument) Value() (driver.Value, error) {
	if rd == nil {
		return nil, nil
	}
	return valueJSONB(map[string]any(rd))
}
