package xlsx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dmitrymomot/sheetpool/pkg/engine"
	"github.com/dmitrymomot/sheetpool/pkg/value"
)

type cellRange struct {
	sheet *sheet
	ref   ref
}

func (r *cellRange) Get(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	wb := r.sheet.wb
	if err := wb.check(ctx); err != nil {
		return value.Value{}, err
	}
	switch name {
	case engine.Address:
		return value.String(r.ref.String()), nil
	case engine.Count:
		return value.Int(int64(r.ref.rows() * r.ref.cols())), nil
	case engine.Value:
	default:
		return value.Value{}, fmt.Errorf("%w: range.%s", engine.ErrUnknownMember, name)
	}

	wb.mu.Lock()
	defer wb.mu.Unlock()

	if r.ref.single() {
		cell, err := r.ref.cell(0, 0)
		if err != nil {
			return value.Value{}, err
		}
		return readCell(wb.file, r.sheet.name, cell)
	}

	m := value.NewMatrix(1, 1, r.ref.rows(), r.ref.cols())
	for i := range r.ref.rows() {
		if err := ctx.Err(); err != nil {
			return value.Value{}, err
		}
		for j := range r.ref.cols() {
			cell, err := r.ref.cell(i, j)
			if err != nil {
				return value.Value{}, err
			}
			v, err := readCell(wb.file, r.sheet.name, cell)
			if err != nil {
				return value.Value{}, err
			}
			if err := m.Set(v, i+1, j+1); err != nil {
				return value.Value{}, err
			}
		}
	}
	return value.FromArray(m), nil
}

func (r *cellRange) Set(ctx context.Context, name string, v value.Value) error {
	wb := r.sheet.wb
	if err := wb.check(ctx); err != nil {
		return err
	}
	if name != engine.Value {
		return fmt.Errorf("%w: range.%s", engine.ErrUnknownMember, name)
	}

	wb.mu.Lock()
	defer wb.mu.Unlock()

	for i := range r.ref.rows() {
		for j := range r.ref.cols() {
			cell, err := r.ref.cell(i, j)
			if err != nil {
				return err
			}
			if err := writeCell(wb.file, r.sheet.name, cell, elementAt(v, i, j)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *cellRange) Call(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	return value.Value{}, fmt.Errorf("%w: range.%s()", engine.ErrUnknownMember, name)
}

// elementAt picks the part of v written to the cell at offset (i, j).
// Scalars fill the whole range; arrays are laid over it from the top-left
// corner and leave uncovered cells empty.
func elementAt(v value.Value, i, j int) value.Value {
	arr := v.AsArray()
	if arr == nil {
		return v
	}
	switch arr.Rank() {
	case 1:
		if i != 0 || j >= arr.Dim(0).Len {
			return value.Empty()
		}
		e, _ := arr.At(arr.Dim(0).Lower + j)
		return e
	case 2:
		if i >= arr.Dim(0).Len || j >= arr.Dim(1).Len {
			return value.Empty()
		}
		e, _ := arr.At(arr.Dim(0).Lower+i, arr.Dim(1).Lower+j)
		return e
	}
	return value.Empty()
}

func readCell(f *excelize.File, sheet, cell string) (value.Value, error) {
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return value.Value{}, err
	}
	raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return value.Value{}, err
	}

	switch typ {
	case excelize.CellTypeBool:
		return value.Bool(raw == "1" || strings.EqualFold(raw, "true")), nil
	case excelize.CellTypeError:
		return value.ErrorCode(raw), nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return value.String(raw), nil
	}

	if raw == "" {
		return value.Empty(), nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return value.Float(n), nil
	}
	return value.String(raw), nil
}

func writeCell(f *excelize.File, sheet, cell string, v value.Value) error {
	switch v.Kind() {
	case value.KindEmpty, value.KindNull:
		return f.SetCellValue(sheet, cell, nil)
	case value.KindBool:
		return f.SetCellBool(sheet, cell, v.AsBool())
	case value.KindInt:
		return f.SetCellValue(sheet, cell, v.AsInt())
	case value.KindFloat:
		return f.SetCellFloat(sheet, cell, v.AsFloat(), -1, 64)
	case value.KindString:
		return f.SetCellStr(sheet, cell, v.AsString())
	}
	return errors.Join(engine.ErrBadArgument, fmt.Errorf("cannot store %s in a cell", v.Kind()))
}
