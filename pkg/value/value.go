package value

import "math"

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	KindError
)

var kindNames = [...]string{
	KindEmpty:  "empty",
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindString: "string",
	KindArray:  "array",
	KindObject: "object",
	KindError:  "error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is an engine value. The zero Value is Empty.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  *Array
	ref  any
}

// Empty returns the value of an unset cell.
func Empty() Value { return Value{} }

func Null() Value { return Value{kind: KindNull} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

func String(s string) Value { return Value{kind: KindString, s: s} }

// FromArray wraps an array. A nil array yields Empty.
func FromArray(a *Array) Value {
	if a == nil {
		return Value{}
	}
	return Value{kind: KindArray, arr: a}
}

// Object wraps an engine object handle. Objects never cross the wire.
func Object(ref any) Value { return Value{kind: KindObject, ref: ref} }

// ErrorCode wraps an engine error value such as a cell's #DIV/0!.
func ErrorCode(code string) Value { return Value{kind: KindError, s: code} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// IsNull reports whether v carries no data (Empty or Null).
func (v Value) IsNull() bool { return v.kind == KindEmpty || v.kind == KindNull }

func (v Value) AsBool() bool { return v.kind == KindBool && v.b }

// AsInt returns the integer held by v. Floats are truncated.
func (v Value) AsInt() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return 0
		}
		return int64(v.f)
	}
	return 0
}

// AsFloat returns the number held by v, converting integers.
func (v Value) AsFloat() float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return float64(v.i)
	}
	return 0
}

// AsString returns the text of a String value or the code of an Error value.
func (v Value) AsString() string {
	if v.kind == KindString || v.kind == KindError {
		return v.s
	}
	return ""
}

func (v Value) AsArray() *Array {
	if v.kind == KindArray {
		return v.arr
	}
	return nil
}

// Ref returns the handle of an Object value.
func (v Value) Ref() any {
	if v.kind == KindObject {
		return v.ref
	}
	return nil
}

// String implements fmt.Stringer with the wire encoding.
func (v Value) String() string { return Encode(v) }
