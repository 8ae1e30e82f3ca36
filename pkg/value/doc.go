// Package value defines the typed values exchanged with a spreadsheet engine
// and the text form used to carry them over the wire.
//
// A Value is a tagged union of Empty, Null, Bool, Int, Float, String, Array,
// Object and Error. Arrays have one or two dimensions, each with its own lower
// bound, and store their elements in row-major order.
//
// # Encoding
//
// Encode renders a Value as a JSON fragment:
//
//   - Empty and Null become null
//   - Bool becomes true or false
//   - Int is written in decimal
//   - Float is written with six fixed decimals ("%f"); NaN and infinities become null
//   - String is quoted, escaping only '"' and '\'
//   - a 1-D array becomes a JSON array read from its lower bound upward
//   - a 2-D array becomes an array of rows, each row an array of columns
//   - Object and Error become null
//
// Parse goes the other way and is used for round trips. FromPayload builds the
// value of a write request from its value_bool, value_number and value fields,
// checked in that order.
//
// # Usage
//
//	v := value.String(`say "hi"`)
//	text := value.Encode(v) // "say \"hi\""
//
//	back, err := value.Parse(text)
//	if err != nil {
//		// handle malformed input
//	}
package value
