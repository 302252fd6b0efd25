package dataset

import (
	"strconv"
	"strings"
)

// Type is the declared type of a column. Every non-null cell in a column has
// the column's type; nulls are typeless.
type Type uint8

const (
	TypeString Type = iota + 1
	TypeInt
	TypeFloat
	TypeStringList
	TypeIntList
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeStringList:
		return "string_list"
	case TypeIntList:
		return "int_list"
	default:
		return "unknown"
	}
}

// IsList reports whether cells of this type hold a list of scalars.
func (t Type) IsList() bool { return t == TypeStringList || t == TypeIntList }

// Value is a single cell. The zero Value is null.
type Value struct {
	kind Type
	s    string
	i    int64
	f    float64
	ss   []string
	is   []int64
}

// Null returns the explicit null marker.
func Null() Value { return Value{} }

func Str(s string) Value        { return Value{kind: TypeString, s: s} }
func Int(i int64) Value         { return Value{kind: TypeInt, i: i} }
func Float(f float64) Value     { return Value{kind: TypeFloat, f: f} }
func Strings(ss []string) Value { return Value{kind: TypeStringList, ss: ss} }
func Ints(is []int64) Value     { return Value{kind: TypeIntList, is: is} }

// IsNull reports whether v is the null marker.
func (v Value) IsNull() bool { return v.kind == 0 }

// Kind returns the type of a non-null value, or 0 for null.
func (v Value) Kind() Type { return v.kind }

func (v Value) AsString() string    { return v.s }
func (v Value) AsInt() int64        { return v.i }
func (v Value) AsFloat() float64    { return v.f }
func (v Value) AsStrings() []string { return v.ss }
func (v Value) AsInts() []int64     { return v.is }

// IsEmpty reports whether v is null or an empty string.
func (v Value) IsEmpty() bool {
	return v.IsNull() || (v.kind == TypeString && v.s == "")
}

// Render returns the canonical text form of v. Null renders as "".
func (v Value) Render() string {
	switch v.kind {
	case TypeString:
		return v.s
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case TypeStringList:
		return "[" + strings.Join(v.ss, ", ") + "]"
	case TypeIntList:
		parts := make([]string, len(v.is))
		for i, n := range v.is {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}

// Any converts v to a driver-friendly Go value: nil, string, int64, float64,
// []string or []int64.
func (v Value) Any() any {
	switch v.kind {
	case TypeString:
		return v.s
	case TypeInt:
		return v.i
	case TypeFloat:
		return v.f
	case TypeStringList:
		return v.ss
	case TypeIntList:
		return v.is
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.IsNull() {
		return "<null>"
	}
	return v.Render()
}
