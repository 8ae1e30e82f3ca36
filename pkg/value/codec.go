package value

import (
	"math"
	"strconv"
	"strings"
)

// Encode renders v as a JSON fragment. It never fails: values with no wire
// form are written as null.
func Encode(v Value) string {
	var sb strings.Builder
	encode(&sb, v)
	return sb.String()
}

func encode(sb *strings.Builder, v Value) {
	switch v.kind {
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			sb.WriteString("null")
			return
		}
		sb.WriteString(strconv.FormatFloat(v.f, 'f', 6, 64))
	case KindString:
		quote(sb, v.s)
	case KindArray:
		encodeArray(sb, v.arr)
	default:
		sb.WriteString("null")
	}
}

func encodeArray(sb *strings.Builder, a *Array) {
	if a == nil {
		sb.WriteString("null")
		return
	}
	switch a.Rank() {
	case 1:
		writeList(sb, a.elems)
	case 2:
		cols := a.dims[1].Len
		sb.WriteByte('[')
		for r := range a.dims[0].Len {
			if r > 0 {
				sb.WriteByte(',')
			}
			writeList(sb, a.elems[r*cols:(r+1)*cols])
		}
		sb.WriteByte(']')
	default:
		sb.WriteString("null")
	}
}

func writeList(sb *strings.Builder, elems []Value) {
	sb.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			sb.WriteByte(',')
		}
		encode(sb, e)
	}
	sb.WriteByte(']')
}

// quote escapes only the quote and backslash characters.
func quote(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	sb.WriteByte('"')
}
