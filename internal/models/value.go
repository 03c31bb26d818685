package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ValueKind int

const (
	KindNone ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindDate
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	}
	return "none"
}

const dateLayout = "2006-01-02"

// Value is a response or condition literal. The zero Value is "no answer".
type Value struct {
	Kind ValueKind
	str  string
	num  float64
	b    bool
	t    time.Time
}

func NoValue() Value                { return Value{} }
func StringValue(s string) Value    { return Value{Kind: KindString, str: s} }
func NumberValue(n float64) Value   { return Value{Kind: KindNumber, num: n} }
func BoolValue(b bool) Value        { return Value{Kind: KindBool, b: b} }
func DateValue(t time.Time) Value   { return Value{Kind: KindDate, t: t} }
func (v Value) IsNone() bool        { return v.Kind == KindNone }
func (v Value) Str() (string, bool) { return v.str, v.Kind == KindString }

// Float returns the numeric reading of v. Numeric strings are accepted.
func (v Value) Float() (float64, bool) {
	var f float64
	switch v.Kind {
	case KindNumber:
		f = v.num
	case KindString:
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	// NaN and Inf are never valid answers.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Time returns the date of a date value.
func (v Value) Time() (time.Time, bool) { return v.t, v.Kind == KindDate }

// String is the canonical comparison form of v.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(dateLayout)
	}
	return ""
}

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindDate:
		return v.t.Equal(o.t)
	}
	return true
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString, KindDate:
		return json.Marshal(v.String())
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = NoValue()
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case 't', 'f':
		var x bool
		if err := json.Unmarshal(b, &x); err != nil {
			return err
		}
		*v = BoolValue(x)
	case '{', '[':
		return fmt.Errorf("value must be a string, number or boolean")
	default:
		var n float64
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*v = NumberValue(n)
	}
	return nil
}

func (v Value) MarshalYAML() (interface{}, error) {
	switch v.Kind {
	case KindString, KindDate:
		return v.String(), nil
	case KindNumber:
		return v.num, nil
	case KindBool:
		return v.b, nil
	}
	return nil, nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: value must be a scalar", node.Line)
	}
	switch node.ShortTag() {
	case "!!null":
		*v = NoValue()
	case "!!bool":
		var x bool
		if err := node.Decode(&x); err != nil {
			return err
		}
		*v = BoolValue(x)
	case "!!int", "!!float":
		var n float64
		if err := node.Decode(&n); err != nil {
			return err
		}
		*v = NumberValue(n)
	case "!!timestamp":
		var t time.Time
		if err := node.Decode(&t); err != nil {
			return err
		}
		*v = DateValue(t)
	default:
		*v = StringValue(node.Value)
	}
	return nil
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// ParseResponse converts a raw answer from a client into the Value expected
// for the question type.
func ParseResponse(q *Question, raw json.RawMessage) (Value, error) {
	var v Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return NoValue(), fmt.Errorf("decode answer: %w", err)
	}
	if v.IsNone() {
		return v, nil
	}
	switch q.Type {
	case TypeMultipleChoice:
		s, ok := v.Str()
		if !ok {
			return NoValue(), fmt.Errorf("answer for %s must be an option value", q.ID)
		}
		if _, found := q.Option(s); !found {
			return NoValue(), fmt.Errorf("unknown option %q for %s", s, q.ID)
		}
		return v, nil
	case TypeBoolean:
		s, ok := v.Str()
		if !ok || (s != "true" && s != "false") {
			return NoValue(), fmt.Errorf("answer for %s must be \"true\" or \"false\"", q.ID)
		}
		return v, nil
	case TypeScale:
		n, ok := v.Float()
		if !ok {
			return NoValue(), fmt.Errorf("answer for %s must be a finite number", q.ID)
		}
		min, max := q.Bounds()
		if n < float64(min) || n > float64(max) {
			return NoValue(), fmt.Errorf("answer for %s must be between %d and %d", q.ID, min, max)
		}
		return NumberValue(n), nil
	case TypeText:
		if _, ok := v.Str(); !ok {
			return NoValue(), fmt.Errorf("answer for %s must be text", q.ID)
		}
		return v, nil
	case TypeDate:
		s, ok := v.Str()
		if !ok {
			return NoValue(), fmt.Errorf("answer for %s must be a date", q.ID)
		}
		t, err := ParseDate(s)
		if err != nil {
			return NoValue(), fmt.Errorf("answer for %s: %w", q.ID, err)
		}
		return DateValue(t), nil
	}
	return NoValue(), fmt.Errorf("question %s does not accept answers", q.ID)
}
