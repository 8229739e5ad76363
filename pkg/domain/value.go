package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ValueKind tags the scalar held by a Value.
type ValueKind string

const (
	KindNumber ValueKind = "number"
	KindText   ValueKind = "text"
	KindBool   ValueKind = "boolean"
)

// Value is a tagged scalar stored at the leaves of an attribute tree.
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
	Bool   bool
}

// Number builds a numeric Value.
func Number(n float64) Value { return Value{Kind: KindNumber, Number: n} }

// Text builds a textual Value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Bool builds a boolean Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

var numericLiteral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber reports whether raw is a finite decimal literal and returns its value.
// Surrounding whitespace is ignored.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if !numericLiteral.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// ParseValue applies the payload coercion policy: numeric literals become numbers,
// exactly "true" or "false" become booleans, anything else stays text.
func ParseValue(raw string) Value {
	if n, ok := ParseNumber(raw); ok {
		return Number(n)
	}
	switch raw {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return Text(raw)
}

// AsNumber returns the numeric payload when the value is a number.
func (v Value) AsNumber() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Number, true
}

// String formats the value as a change payload. ParseValue(v.String()) yields v back
// for every value that ParseValue can produce.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Text
	}
}

// Any returns the plain Go value (float64, string or bool).
func (v Value) Any() any {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindBool:
		return v.Bool
	default:
		return v.Text
	}
}

// MarshalJSON encodes the value as a bare JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes a bare JSON scalar.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case float64:
		*v = Number(x)
	case bool:
		*v = Bool(x)
	case string:
		*v = Text(x)
	default:
		return fmt.Errorf("%w: unsupported scalar %T", ErrInvalidFormat, raw)
	}
	return nil
}
