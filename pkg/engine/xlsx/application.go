package xlsx

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/dmitrymomot/sheetpool/pkg/engine"
	"github.com/dmitrymomot/sheetpool/pkg/value"
)

type application struct {
	mu            sync.Mutex
	visible       bool
	displayAlerts bool
	books         []*workbook
	quit          bool
}

func (a *application) Open(ctx context.Context, path string) (engine.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.quit {
		return nil, engine.ErrClosed
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Join(engine.ErrOpen, err)
	}
	wb := &workbook{app: a, file: f, path: path}
	a.books = append(a.books, wb)
	return wb, nil
}

func (a *application) Quit(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.quit {
		return nil
	}
	a.quit = true

	var errs []error
	for _, wb := range a.books {
		if err := wb.close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.books = nil
	return errors.Join(errs...)
}

func (a *application) Get(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	if err := a.check(ctx); err != nil {
		return value.Value{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	switch name {
	case engine.Visible:
		return value.Bool(a.visible), nil
	case engine.DisplayAlerts:
		return value.Bool(a.displayAlerts), nil
	case engine.Workbooks:
		return value.Object(&workbooks{app: a}), nil
	}
	return value.Value{}, fmt.Errorf("%w: application.%s", engine.ErrUnknownMember, name)
}

func (a *application) Set(ctx context.Context, name string, v value.Value) error {
	if err := a.check(ctx); err != nil {
		return err
	}
	if v.Kind() != value.KindBool {
		return fmt.Errorf("%w: application.%s expects a bool", engine.ErrBadArgument, name)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	switch name {
	case engine.Visible:
		a.visible = v.AsBool()
	case engine.DisplayAlerts:
		a.displayAlerts = v.AsBool()
	default:
		return fmt.Errorf("%w: application.%s", engine.ErrUnknownMember, name)
	}
	return nil
}

func (a *application) Call(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	if name == engine.Quit {
		return value.Empty(), a.Quit(ctx)
	}
	if err := a.check(ctx); err != nil {
		return value.Value{}, err
	}
	return value.Value{}, fmt.Errorf("%w: application.%s()", engine.ErrUnknownMember, name)
}

func (a *application) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.quit {
		return engine.ErrClosed
	}
	return nil
}

func (a *application) forget(wb *workbook) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.books = slices.DeleteFunc(a.books, func(b *workbook) bool { return b == wb })
}

// workbooks is the collection of open documents of an application.
type workbooks struct {
	app *application
}

func (w *workbooks) Get(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	if err := w.app.check(ctx); err != nil {
		return value.Value{}, err
	}
	if name != engine.Count {
		return value.Value{}, fmt.Errorf("%w: workbooks.%s", engine.ErrUnknownMember, name)
	}
	w.app.mu.Lock()
	defer w.app.mu.Unlock()
	return value.Int(int64(len(w.app.books))), nil
}

func (w *workbooks) Set(ctx context.Context, name string, v value.Value) error {
	return fmt.Errorf("%w: workbooks.%s", engine.ErrUnknownMember, name)
}

func (w *workbooks) Call(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	return value.Value{}, fmt.Errorf("%w: workbooks.%s()", engine.ErrUnknownMember, name)
}
