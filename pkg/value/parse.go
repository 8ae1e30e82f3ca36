package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Parse decodes a JSON fragment into a Value. Integer literals become Int,
// other numbers Float. An array whose elements are all arrays becomes a 2-D
// array; any other array becomes a 1-D array. Lower bounds are zero.
func Parse(text string) (Value, error) {
	if !gjson.Valid(text) {
		return Value{}, ErrInvalidJSON
	}
	return fromResult(gjson.Parse(text), 0)
}

func fromResult(r gjson.Result, depth int) (Value, error) {
	switch r.Type {
	case gjson.Null:
		return Null(), nil
	case gjson.False:
		return Bool(false), nil
	case gjson.True:
		return Bool(true), nil
	case gjson.String:
		return String(r.Str), nil
	case gjson.Number:
		return number(r), nil
	case gjson.JSON:
		if !r.IsArray() {
			return Value{}, fmt.Errorf("%w: object", ErrUnsupported)
		}
		if depth > 0 {
			return Value{}, fmt.Errorf("%w: nested array", ErrUnsupported)
		}
		return array(r.Array())
	}
	return Value{}, ErrInvalidJSON
}

func number(r gjson.Result) Value {
	raw := strings.TrimSpace(r.Raw)
	if !strings.ContainsAny(raw, ".eE") {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return Int(i)
		}
	}
	return Float(r.Num)
}

func array(items []gjson.Result) (Value, error) {
	if len(items) > 0 && allArrays(items) {
		rows := make([][]Value, len(items))
		for i, item := range items {
			cells := item.Array()
			row := make([]Value, len(cells))
			for j, c := range cells {
				v, err := fromResult(c, 1)
				if err != nil {
					return Value{}, err
				}
				row[j] = v
			}
			rows[i] = row
		}
		return FromArray(MatrixOf(rows...)), nil
	}

	elems := make([]Value, len(items))
	for i, item := range items {
		v, err := fromResult(item, 1)
		if err != nil {
			return Value{}, err
		}
		elems[i] = v
	}
	return FromArray(NewVector(0, elems...)), nil
}

func allArrays(items []gjson.Result) bool {
	for _, item := range items {
		if !item.IsArray() {
			return false
		}
	}
	return true
}
