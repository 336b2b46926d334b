package configdomain

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies which member of the Value union is populated.
type ValueKind int

const (
	KindString ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindList
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is an immutable configuration value.
type Value struct {
	kind ValueKind
	s    string
	b    bool
	i    int64
	f    float64
	list []string
}

// String creates a string value
func String(s string) Value { return Value{kind: KindString, s: s} }

// Bool creates a boolean value
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int creates an integer value
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float creates a floating point value
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// List creates a list value. A nil or empty slice yields an explicitly empty list.
func List(items ...string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Kind returns the populated member of the union
func (v Value) Kind() ValueKind { return v.kind }

// AsString returns the string member and whether the value is a string
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsBool returns the bool member and whether the value is a bool
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the int member and whether the value is an int
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the numeric value as float. Ints are widened.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsList returns a copy of the list member and whether the value is a list
func (v Value) AsList() ([]string, bool) {
	if v.kind != KindList {
		return nil, false
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp, true
}

// Equal reports whether two values have the same kind and content
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value in a TOML-like textual form used by debug output.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.s)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = strconv.Quote(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return ""
}

// Interface converts the value to a plain Go value for JSON/YAML encoding.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.s
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindList:
		list, _ := v.AsList()
		return list
	}
	return nil
}
