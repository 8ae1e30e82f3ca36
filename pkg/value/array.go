package value

import "fmt"

// Dim describes one array dimension.
type Dim struct {
	Lower int
	Len   int
}

// Upper returns the last valid index of the dimension.
func (d Dim) Upper() int { return d.Lower + d.Len - 1 }

// Array is a 1-D or 2-D array with per-dimension lower bounds.
// Elements are stored row-major.
type Array struct {
	dims  []Dim
	elems []Value
}

// NewVector returns a 1-D array starting at lower.
func NewVector(lower int, elems ...Value) *Array {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return &Array{dims: []Dim{{Lower: lower, Len: len(elems)}}, elems: cp}
}

// NewMatrix returns a rows x cols array filled with Empty.
func NewMatrix(rowLower, colLower, rows, cols int) *Array {
	rows, cols = max(rows, 0), max(cols, 0)
	return &Array{
		dims:  []Dim{{Lower: rowLower, Len: rows}, {Lower: colLower, Len: cols}},
		elems: make([]Value, rows*cols),
	}
}

// MatrixOf builds a 2-D array with zero lower bounds from rows.
// Short rows are padded with Empty.
func MatrixOf(rows ...[]Value) *Array {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	m := NewMatrix(0, 0, len(rows), cols)
	for i, r := range rows {
		copy(m.elems[i*cols:], r)
	}
	return m
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.dims) }

// Dim returns dimension n, counted from zero.
func (a *Array) Dim(n int) Dim {
	if n < 0 || n >= len(a.dims) {
		return Dim{}
	}
	return a.dims[n]
}

// Len returns the total element count.
func (a *Array) Len() int { return len(a.elems) }

// Elems returns the elements in row-major order. The slice must not be modified.
func (a *Array) Elems() []Value { return a.elems }

// At returns the element at the given indexes, expressed in declared bounds.
func (a *Array) At(idx ...int) (Value, error) {
	off, err := a.offset(idx)
	if err != nil {
		return Value{}, err
	}
	return a.elems[off], nil
}

// Set stores v at the given indexes, expressed in declared bounds.
func (a *Array) Set(v Value, idx ...int) error {
	off, err := a.offset(idx)
	if err != nil {
		return err
	}
	a.elems[off] = v
	return nil
}

func (a *Array) offset(idx []int) (int, error) {
	if len(idx) != len(a.dims) {
		return 0, fmt.Errorf("%w: want %d indexes, got %d", ErrOutOfBounds, len(a.dims), len(idx))
	}
	off := 0
	for n, i := range idx {
		d := a.dims[n]
		if i < d.Lower || i > d.Upper() {
			return 0, fmt.Errorf("%w: index %d not in [%d,%d]", ErrOutOfBounds, i, d.Lower, d.Upper())
		}
		off = off*d.Len + (i - d.Lower)
	}
	return off, nil
}
