package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind discriminates the variants of Value.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueText
	ValueNumber
	ValueBool
)

func (k ValueKind) String() string {
	switch k {
	case ValueText:
		return "string"
	case ValueNumber:
		return "number"
	case ValueBool:
		return "boolean"
	default:
		return "null"
	}
}

// Value is the tagged variant carried by sensor rules and context snapshots.
// The zero Value is null.
type Value struct {
	kind   ValueKind
	text   string
	number float64
	flag   bool
}

func Null() Value               { return Value{} }
func Text(s string) Value       { return Value{kind: ValueText, text: s} }
func Number(n float64) Value    { return Value{kind: ValueNumber, number: n} }
func Bool(b bool) Value         { return Value{kind: ValueBool, flag: b} }
func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool    { return v.kind == ValueNull }

// AsText returns the string payload when the value is text.
func (v Value) AsText() (string, bool) {
	return v.text, v.kind == ValueText
}

// AsNumber returns the numeric payload when the value is a number.
func (v Value) AsNumber() (float64, bool) {
	return v.number, v.kind == ValueNumber
}

// AsBool returns the boolean payload when the value is a boolean.
func (v Value) AsBool() (bool, bool) {
	return v.flag, v.kind == ValueBool
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueText:
		return v.text == o.text
	case ValueNumber:
		return v.number == o.number
	case ValueBool:
		return v.flag == o.flag
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case ValueText:
		return v.text
	case ValueNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.flag)
	default:
		return "null"
	}
}

// MarshalJSON encodes the payload as a bare JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueText:
		return json.Marshal(v.text)
	case ValueNumber:
		return json.Marshal(v.number)
	case ValueBool:
		return json.Marshal(v.flag)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, strings, numbers, and booleans. Objects and
// arrays are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Null()
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ValueFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueFromAny converts a decoded JSON scalar (as produced by encoding/json
// into an interface{}) into a Value.
func ValueFromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return Text(x), nil
	case float64:
		return Number(x), nil
	case int:
		return Number(float64(x)), nil
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return Null(), fmt.Errorf("invalid number %q: %w", x, err)
		}
		return Number(n), nil
	case bool:
		return Bool(x), nil
	default:
		return Null(), fmt.Errorf("unsupported value kind %T", raw)
	}
}

// KindOfAny names the JSON kind of a decoded value for diagnostics.
func KindOfAny(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64, int, json.Number:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", raw)
	}
}
