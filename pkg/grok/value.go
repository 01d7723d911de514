package grok

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
)

// Kind identifies which member of a Value is set.
type Kind uint8

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Value is a single extracted field. The zero Value is an empty string.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// IntValue returns an int Value.
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

// FloatValue returns a float Value.
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

// BoolValue returns a bool Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind reports the type held by v.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string member. It is empty unless Kind is KindString.
func (v Value) Str() string { return v.s }

// Int returns the int member. It is zero unless Kind is KindInt.
func (v Value) Int() int64 { return v.i }

// Float returns the float member. It is zero unless Kind is KindFloat.
func (v Value) Float() float64 { return v.f }

// Bool returns the bool member. It is false unless Kind is KindBool.
func (v Value) Bool() bool { return v.b }

// Interface returns the value as a string, int64, float64 or bool.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	default:
		return v.s
	}
}

// String formats the value regardless of its kind.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.s
	}
}

// MarshalJSON encodes the value as a JSON string, number or boolean.
// NaN and infinities have no JSON number form and are written as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return json.Marshal(v.String())
		}
		return json.Marshal(v.f)
	case KindBool:
		return []byte(strconv.FormatBool(v.b)), nil
	default:
		return json.Marshal(v.s)
	}
}

// FieldType is the conversion requested by a placeholder's type tag.
type FieldType uint8

const (
	TypeString FieldType = iota
	TypeInt
	TypeFloat
	TypeBool
)

func (t FieldType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	default:
		return "string"
	}
}

// ParseFieldType maps a placeholder type tag to a FieldType. An empty tag is
// TypeString. The second result is false for tags outside
// int, float, bool and boolean.
func ParseFieldType(tag string) (FieldType, bool) {
	switch tag {
	case "":
		return TypeString, true
	case "int":
		return TypeInt, true
	case "float":
		return TypeFloat, true
	case "bool", "boolean":
		return TypeBool, true
	default:
		return TypeString, false
	}
}

var errNotBool = errors.New(`want "true" or "false"`)

// Convert turns raw into a Value of type t.
func Convert(raw string, t FieldType) (Value, error) {
	switch t {
	case TypeInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, err
		}
		return IntValue(i), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, err
		}
		return FloatValue(f), nil
	case TypeBool:
		// strconv.ParseBool also accepts "1", "T" and friends; only the
		// literal words are allowed here.
		switch raw {
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		}
		return Value{}, errNotBool
	default:
		return StringValue(raw), nil
	}
}
