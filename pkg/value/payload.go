package value

// Payload carries the value of a write request. Exactly one field is used,
// chosen by the order value_bool, value_number, value.
type Payload struct {
	Bool   *bool    `json:"value_bool,omitempty"`
	Number *float64 `json:"value_number,omitempty"`
	Text   *string  `json:"value,omitempty"`
}

// FromPayload converts a write payload into a Value.
func FromPayload(p Payload) (Value, error) {
	switch {
	case p.Bool != nil:
		return Bool(*p.Bool), nil
	case p.Number != nil:
		return Float(*p.Number), nil
	case p.Text != nil:
		return String(*p.Text), nil
	}
	return Value{}, ErrMissingValue
}
