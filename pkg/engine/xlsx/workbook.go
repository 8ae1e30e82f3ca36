package xlsx

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/dmitrymomot/sheetpool/pkg/engine"
	"github.com/dmitrymomot/sheetpool/pkg/value"
)

type workbook struct {
	app    *application
	mu     sync.Mutex
	file   *excelize.File
	path   string
	closed bool
}

func (wb *workbook) Get(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	if err := wb.check(ctx); err != nil {
		return value.Value{}, err
	}
	switch name {
	case engine.Worksheets:
		return value.Object(&worksheets{wb: wb}), nil
	case engine.Name:
		return value.String(filepath.Base(wb.path)), nil
	}
	return value.Value{}, fmt.Errorf("%w: workbook.%s", engine.ErrUnknownMember, name)
}

func (wb *workbook) Set(ctx context.Context, name string, v value.Value) error {
	return fmt.Errorf("%w: workbook.%s", engine.ErrUnknownMember, name)
}

func (wb *workbook) Call(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	switch name {
	case engine.Close:
		err := wb.close()
		wb.app.forget(wb)
		return value.Empty(), err
	case engine.Save:
		if err := wb.check(ctx); err != nil {
			return value.Value{}, err
		}
		wb.mu.Lock()
		defer wb.mu.Unlock()
		return value.Empty(), wb.file.Save()
	}
	return value.Value{}, fmt.Errorf("%w: workbook.%s()", engine.ErrUnknownMember, name)
}

func (wb *workbook) close() error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	if wb.closed {
		return nil
	}
	wb.closed = true
	return wb.file.Close()
}

func (wb *workbook) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wb.mu.Lock()
	defer wb.mu.Unlock()
	if wb.closed {
		return engine.ErrClosed
	}
	return nil
}

// sheetName resolves name case-insensitively to the stored sheet name.
func (wb *workbook) sheetName(name string) (string, bool) {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	for _, s := range wb.file.GetSheetList() {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}

type worksheets struct {
	wb *workbook
}

func (ws *worksheets) Get(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	if err := ws.wb.check(ctx); err != nil {
		return value.Value{}, err
	}
	switch name {
	case engine.Count:
		ws.wb.mu.Lock()
		defer ws.wb.mu.Unlock()
		return value.Int(int64(ws.wb.file.SheetCount)), nil
	case engine.Item:
		return ws.item(args)
	}
	return value.Value{}, fmt.Errorf("%w: worksheets.%s", engine.ErrUnknownMember, name)
}

// item accepts a sheet name or a 1-based position.
func (ws *worksheets) item(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, fmt.Errorf("%w: Item takes one argument", engine.ErrBadArgument)
	}
	switch args[0].Kind() {
	case value.KindString:
		name, ok := ws.wb.sheetName(args[0].AsString())
		if !ok {
			return value.Value{}, fmt.Errorf("%w: sheet %q", engine.ErrNotFound, args[0].AsString())
		}
		return value.Object(&sheet{wb: ws.wb, name: name}), nil
	case value.KindInt, value.KindFloat:
		ws.wb.mu.Lock()
		list := ws.wb.file.GetSheetList()
		ws.wb.mu.Unlock()
		i := int(args[0].AsInt())
		if i < 1 || i > len(list) {
			return value.Value{}, fmt.Errorf("%w: sheet #%d", engine.ErrNotFound, i)
		}
		return value.Object(&sheet{wb: ws.wb, name: list[i-1]}), nil
	}
	return value.Value{}, fmt.Errorf("%w: Item expects a name or an index", engine.ErrBadArgument)
}

func (ws *worksheets) Set(ctx context.Context, name string, v value.Value) error {
	return fmt.Errorf("%w: worksheets.%s", engine.ErrUnknownMember, name)
}

func (ws *worksheets) Call(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	return value.Value{}, fmt.Errorf("%w: worksheets.%s()", engine.ErrUnknownMember, name)
}

type sheet struct {
	wb   *workbook
	name string
}

func (s *sheet) Get(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	if err := s.wb.check(ctx); err != nil {
		return value.Value{}, err
	}
	switch name {
	case engine.Name:
		return value.String(s.name), nil
	case engine.Range:
		addr, err := engine.StringArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		ref, err := parseRef(addr)
		if err != nil {
			return value.Value{}, errors.Join(engine.ErrNotFound, err)
		}
		return value.Object(&cellRange{sheet: s, ref: ref}), nil
	}
	return value.Value{}, fmt.Errorf("%w: sheet.%s", engine.ErrUnknownMember, name)
}

func (s *sheet) Set(ctx context.Context, name string, v value.Value) error {
	return fmt.Errorf("%w: sheet.%s", engine.ErrUnknownMember, name)
}

func (s *sheet) Call(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	return value.Value{}, fmt.Errorf("%w: sheet.%s()", engine.ErrUnknownMember, name)
}
