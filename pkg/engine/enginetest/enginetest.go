// Package enginetest provides an in-memory engine for tests.
//
// Documents are registered on the Launcher by path. Sheets are ordered by
// name when addressed by position. Every Open hands out a
// private copy, so writes never leak between instances. Failures can be
// injected per launch and per path, and counters expose how often instances
// were launched, quit, opened and closed.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/sheetpool/pkg/engine"
	"github.com/dmitrymomot/sheetpool/pkg/value"
)

// Sheet maps a range address (upper-case, without '$') to its value.
type Sheet map[string]value.Value

// Book maps sheet names to sheets.
type Book map[string]Sheet

// Counters reports engine activity.
type Counters struct {
	Launched int
	Quit     int
	Opened   int
	Closed   int
}

var addrPattern = regexp.MustCompile(`^[A-Z]{1,3}[1-9][0-9]*(:[A-Z]{1,3}[1-9][0-9]*)?$`)

// Launcher is a fake engine.Launcher.
type Launcher struct {
	mu         sync.Mutex
	books      map[string]Book
	openErr    map[string]error
	launchErr  error
	failAfter  int
	counters   Counters
	instances  []*Instance
	beforeRead func(ctx context.Context)
}

// NewLauncher returns an empty fake engine.
func NewLauncher() *Launcher {
	return &Launcher{
		books:     make(map[string]Book),
		openErr:   make(map[string]error),
		failAfter: -1,
	}
}

// AddBook registers a document at path.
func (l *Launcher) AddBook(path string, b Book) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.books[path] = b
}

// FailOpen makes every Open of path fail with err. A nil err clears it.
func (l *Launcher) FailOpen(path string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.openErr, path)
		return
	}
	l.openErr[path] = err
}

// FailLaunch makes launches fail with err once n more launches succeeded.
// A nil err clears it.
func (l *Launcher) FailLaunch(n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launchErr = err
	l.failAfter = n
	if err == nil {
		l.failAfter = -1
	}
}

// BeforeRead registers a hook run at the start of every range read.
func (l *Launcher) BeforeRead(fn func(ctx context.Context)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.beforeRead = fn
}

func (l *Launcher) Counters() Counters {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counters
}

// Instances returns every instance launched so far.
func (l *Launcher) Instances() []*Instance {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*Instance(nil), l.instances...)
}

// OpenDocuments counts documents currently open across live instances.
func (l *Launcher) OpenDocuments() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, inst := range l.instances {
		for _, d := range inst.docs {
			if !d.closed {
				n++
			}
		}
	}
	return n
}

// Launch implements engine.Launcher.
func (l *Launcher) Launch(ctx context.Context) (engine.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.launchErr != nil {
		if l.failAfter == 0 {
			return nil, errors.Join(engine.ErrLaunch, l.launchErr)
		}
		l.failAfter--
	}
	l.counters.Launched++
	inst := &Instance{launcher: l, id: l.counters.Launched, visible: true, displayAlerts: true}
	l.instances = append(l.instances, inst)
	return inst, nil
}

// Instance is a fake engine.Instance. Its state is guarded by the launcher lock.
type Instance struct {
	launcher      *Launcher
	id            int
	visible       bool
	displayAlerts bool
	quit          bool
	docs          []*Document
}

// ID is the 1-based launch order of the instance.
func (i *Instance) ID() int { return i.id }

func (i *Instance) DisplayAlerts() bool {
	i.launcher.mu.Lock()
	defer i.launcher.mu.Unlock()
	return i.displayAlerts
}

func (i *Instance) IsQuit() bool {
	i.launcher.mu.Lock()
	defer i.launcher.mu.Unlock()
	return i.quit
}

func (i *Instance) Open(ctx context.Context, path string) (engine.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := i.launcher
	l.mu.Lock()
	defer l.mu.Unlock()
	if i.quit {
		return nil, engine.ErrClosed
	}
	if err := l.openErr[path]; err != nil {
		return nil, errors.Join(engine.ErrOpen, err)
	}
	b, ok := l.books[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s does not exist", engine.ErrOpen, path)
	}

	cp := make(Book, len(b))
	for name, sh := range b {
		cp[name] = maps.Clone(sh)
		if cp[name] == nil {
			cp[name] = Sheet{}
		}
	}
	l.counters.Opened++
	d := &Document{inst: i, path: path, book: cp}
	i.docs = append(i.docs, d)
	return d, nil
}

func (i *Instance) Quit(ctx context.Context) error {
	l := i.launcher
	l.mu.Lock()
	defer l.mu.Unlock()
	if i.quit {
		return nil
	}
	i.quit = true
	for _, d := range i.docs {
		d.closed = true
	}
	l.counters.Quit++
	return nil
}

func (i *Instance) Get(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	l := i.launcher
	l.mu.Lock()
	defer l.mu.Unlock()
	if i.quit {
		return value.Value{}, engine.ErrClosed
	}
	switch name {
	case engine.Visible:
		return value.Bool(i.visible), nil
	case engine.DisplayAlerts:
		return value.Bool(i.displayAlerts), nil
	}
	return value.Value{}, fmt.Errorf("%w: %s", engine.ErrUnknownMember, name)
}

func (i *Instance) Set(ctx context.Context, name string, v value.Value) error {
	l := i.launcher
	l.mu.Lock()
	defer l.mu.Unlock()
	if i.quit {
		return engine.ErrClosed
	}
	switch name {
	case engine.Visible:
		i.visible = v.AsBool()
	case engine.DisplayAlerts:
		i.displayAlerts = v.AsBool()
	default:
		return fmt.Errorf("%w: %s", engine.ErrUnknownMember, name)
	}
	return nil
}

func (i *Instance) Call(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	if name == engine.Quit {
		return value.Empty(), i.Quit(ctx)
	}
	return value.Value{}, fmt.Errorf("%w: %s()", engine.ErrUnknownMember, name)
}

// Document is an open fake document.
type Document struct {
	inst   *Instance
	path   string
	book   Book
	closed bool
}

func (d *Document) Path() string { return d.path }

func (d *Document) Closed() bool {
	d.inst.launcher.mu.Lock()
	defer d.inst.launcher.mu.Unlock()
	return d.closed
}

func (d *Document) Get(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	if err := d.check(ctx); err != nil {
		return value.Value{}, err
	}
	if name != engine.Worksheets {
		return value.Value{}, fmt.Errorf("%w: %s", engine.ErrUnknownMember, name)
	}
	return value.Object(&worksheets{doc: d}), nil
}

func (d *Document) Set(ctx context.Context, name string, v value.Value) error {
	return fmt.Errorf("%w: %s", engine.ErrUnknownMember, name)
}

func (d *Document) Call(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	if name != engine.Close {
		return value.Value{}, fmt.Errorf("%w: %s()", engine.ErrUnknownMember, name)
	}
	l := d.inst.launcher
	l.mu.Lock()
	defer l.mu.Unlock()
	if !d.closed {
		d.closed = true
		l.counters.Closed++
	}
	return value.Empty(), nil
}

func (d *Document) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := d.inst.launcher
	l.mu.Lock()
	defer l.mu.Unlock()
	if d.closed || d.inst.quit {
		return engine.ErrClosed
	}
	return nil
}

type worksheets struct {
	doc *Document
}

func (w *worksheets) Get(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	if err := w.doc.check(ctx); err != nil {
		return value.Value{}, err
	}
	if name == engine.Count {
		return value.Int(int64(len(w.doc.book))), nil
	}
	if name != engine.Item {
		return value.Value{}, fmt.Errorf("%w: %s", engine.ErrUnknownMember, name)
	}
	if len(args) == 1 && args[0].Kind() == value.KindInt {
		names := slices.Sorted(maps.Keys(w.doc.book))
		i := int(args[0].AsInt())
		if i < 1 || i > len(names) {
			return value.Value{}, fmt.Errorf("%w: sheet #%d", engine.ErrNotFound, i)
		}
		return value.Object(&worksheet{doc: w.doc, name: names[i-1]}), nil
	}
	sheet, err := engine.StringArg(args, 0)
	if err != nil {
		return value.Value{}, err
	}
	if _, ok := w.doc.book[sheet]; !ok {
		return value.Value{}, fmt.Errorf("%w: sheet %q", engine.ErrNotFound, sheet)
	}
	return value.Object(&worksheet{doc: w.doc, name: sheet}), nil
}

func (w *worksheets) Set(ctx context.Context, name string, v value.Value) error {
	return fmt.Errorf("%w: %s", engine.ErrUnknownMember, name)
}

func (w *worksheets) Call(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	return value.Value{}, fmt.Errorf("%w: %s()", engine.ErrUnknownMember, name)
}

type worksheet struct {
	doc  *Document
	name string
}

func (s *worksheet) Get(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	if err := s.doc.check(ctx); err != nil {
		return value.Value{}, err
	}
	if name == engine.Name {
		return value.String(s.name), nil
	}
	if name != engine.Range {
		return value.Value{}, fmt.Errorf("%w: %s", engine.ErrUnknownMember, name)
	}
	addr, err := engine.StringArg(args, 0)
	if err != nil {
		return value.Value{}, err
	}
	addr = strings.ToUpper(strings.ReplaceAll(addr, "$", ""))
	if !addrPattern.MatchString(addr) {
		return value.Value{}, fmt.Errorf("%w: range %q", engine.ErrNotFound, addr)
	}
	return value.Object(&cells{doc: s.doc, sheet: s.name, addr: addr}), nil
}

func (s *worksheet) Set(ctx context.Context, name string, v value.Value) error {
	return fmt.Errorf("%w: %s", engine.ErrUnknownMember, name)
}

func (s *worksheet) Call(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	return value.Value{}, fmt.Errorf("%w: %s()", engine.ErrUnknownMember, name)
}

type cells struct {
	doc   *Document
	sheet string
	addr  string
}

func (c *cells) Get(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	l := c.doc.inst.launcher
	l.mu.Lock()
	hook := l.beforeRead
	l.mu.Unlock()
	if hook != nil && name == engine.Value {
		hook(ctx)
	}
	if err := c.doc.check(ctx); err != nil {
		return value.Value{}, err
	}
	if name != engine.Value {
		return value.Value{}, fmt.Errorf("%w: %s", engine.ErrUnknownMember, name)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return c.doc.book[c.sheet][c.addr], nil
}

func (c *cells) Set(ctx context.Context, name string, v value.Value) error {
	if err := c.doc.check(ctx); err != nil {
		return err
	}
	if name != engine.Value {
		return fmt.Errorf("%w: %s", engine.ErrUnknownMember, name)
	}
	if v.Kind() == value.KindObject {
		return fmt.Errorf("%w: cannot store an object", engine.ErrBadArgument)
	}
	l := c.doc.inst.launcher
	l.mu.Lock()
	defer l.mu.Unlock()
	c.doc.book[c.sheet][c.addr] = v
	return nil
}

func (c *cells) Call(ctx context.Context, name string, args ...value.Value) (value.Value, error) {
	return value.Value{}, fmt.Errorf("%w: %s()", engine.ErrUnknownMember, name)
}
