package engine

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/sheetpool/pkg/value"
)

// Member names understood by every driver.
const (
	Visible       = "Visible"
	DisplayAlerts = "DisplayAlerts"
	Workbooks     = "Workbooks"
	Quit          = "Quit"
	Worksheets    = "Worksheets"
	Item          = "Item"
	Count         = "Count"
	Range         = "Range"
	Value         = "Value"
	Address       = "Address"
	Name          = "Name"
	Close         = "Close"
	Save          = "Save"
)

// Object is a node of the engine object model.
// Objects returned by Get are wrapped in value.Object.
type Object interface {
	Get(ctx context.Context, name string, args ...value.Value) (value.Value, error)
	Set(ctx context.Context, name string, v value.Value) error
	Call(ctx context.Context, name string, args ...value.Value) (value.Value, error)
}

// Instance is one running engine. It is not safe for concurrent use;
// callers serialize access.
type Instance interface {
	Object

	// Open loads the document at path and returns its root object.
	Open(ctx context.Context, path string) (Object, error)

	// Quit terminates the instance and every document it holds.
	Quit(ctx context.Context) error
}

// Launcher starts engine instances.
type Launcher interface {
	Launch(ctx context.Context) (Instance, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context) (Instance, error)

func (f LauncherFunc) Launch(ctx context.Context) (Instance, error) { return f(ctx) }

// GetObject reads member name of o and unwraps it as an Object.
func GetObject(ctx context.Context, o Object, name string, args ...value.Value) (Object, error) {
	v, err := o.Get(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	obj, ok := v.Ref().(Object)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotObject, name, v.Kind())
	}
	return obj, nil
}

// StringArg returns args[i] as a string or ErrBadArgument.
func StringArg(args []value.Value, i int) (string, error) {
	if i >= len(args) || args[i].Kind() != value.KindString {
		return "", fmt.Errorf("%w: argument %d must be a string", ErrBadArgument, i)
	}
	return args[i].AsString(), nil
}
