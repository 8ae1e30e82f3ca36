package slotpool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/sheetpool/pkg/engine"
	"github.com/dmitrymomot/sheetpool/pkg/logger"
	"github.com/dmitrymomot/sheetpool/pkg/value"
)

type slot struct {
	index int

	// op serializes engine calls on the slot. Take it before Pool.mu, never after.
	op       sync.Mutex
	instance engine.Instance
	doc      engine.Object

	// Guarded by Pool.mu.
	session  string
	identity string
	path     string
	inUse    bool
	broken   bool
	gen      uint64
	lastUsed time.Time
}

// Pool binds sessions to a fixed set of engine instances.
// It is safe for concurrent use.
type Pool struct {
	launcher     engine.Launcher
	log          *slog.Logger
	metrics      *metrics
	now          func() time.Time
	idleTimeout  time.Duration
	reapInterval time.Duration

	mu        sync.Mutex
	slots     []*slot
	bySession map[string]*slot
	closed    bool
}

// New starts size engine instances. If any of them fails to start the ones
// already running are quit and ErrInstanceCreate is returned.
func New(ctx context.Context, launcher engine.Launcher, size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		return nil, ErrInvalidSize
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	log := o.logger
	if log == nil {
		log = logger.Discard()
	}

	p := &Pool{
		launcher:     launcher,
		log:          log.With(logger.Component("slotpool")),
		now:          o.now,
		idleTimeout:  o.idleTimeout,
		reapInterval: o.reapInterval,
		slots:        make([]*slot, 0, size),
		bySession:    make(map[string]*slot, size),
	}

	for i := range size {
		inst, err := p.launch(ctx)
		if err != nil {
			for _, s := range p.slots {
				_ = s.instance.Quit(context.WithoutCancel(ctx))
			}
			p.log.ErrorContext(ctx, "engine instance failed to start", logger.Slot(i), logger.Error(err))
			return nil, errors.Join(ErrInstanceCreate, err)
		}
		p.slots = append(p.slots, &slot{index: i, instance: inst})
	}
	p.metrics = newMetrics(p, o.registerer)

	p.log.InfoContext(ctx, "slot pool ready", slog.Int("size", size))
	return p, nil
}

// NewFromConfig creates a pool sized and tuned from cfg.
func NewFromConfig(ctx context.Context, launcher engine.Launcher, cfg Config, opts ...Option) (*Pool, error) {
	return New(ctx, launcher, cfg.Size, append(cfg.Options(), opts...)...)
}

// Acquire returns the slot bound to sessionID, binding the first free slot if
// the session has none. It never waits.
func (p *Pool) Acquire(sessionID, identity string) (int, error) {
	if sessionID == "" {
		return -1, ErrNoSession
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return -1, ErrClosed
	}
	if s, ok := p.bySession[sessionID]; ok {
		s.lastUsed = p.now()
		return s.index, nil
	}
	for _, s := range p.slots {
		if s.inUse || s.broken {
			continue
		}
		p.bind(s, sessionID, identity)
		p.log.Debug("slot acquired", logger.Slot(s.index), logger.Session(sessionID), logger.Identity(identity))
		return s.index, nil
	}

	p.metrics.rejected.Inc()
	return -1, ErrResourceExhausted
}

// LoadDocument opens path in a bound slot, closing the slot's current document
// first. On failure the slot is freed and ErrLoadFailed is returned.
func (p *Pool) LoadDocument(ctx context.Context, index int, path string) error {
	p.mu.Lock()
	if index < 0 || index >= len(p.slots) {
		p.mu.Unlock()
		return ErrInvalidSlot
	}
	s := p.slots[index]
	if !s.inUse {
		p.mu.Unlock()
		return ErrNoSession
	}
	gen := s.gen
	p.mu.Unlock()

	s.op.Lock()
	defer s.op.Unlock()
	if !p.still(s, gen) {
		return ErrNoSession
	}
	return p.load(ctx, s, path)
}

// Load binds sessionID to a slot and opens path in it.
func (p *Pool) Load(ctx context.Context, sessionID, identity, path string) (int, error) {
	if _, err := p.Acquire(sessionID, identity); err != nil {
		return -1, err
	}
	s, err := p.bound(sessionID)
	if err != nil {
		return -1, err
	}
	defer s.op.Unlock()

	if err := p.load(ctx, s, path); err != nil {
		return -1, err
	}
	return s.index, nil
}

// ReadRange reads the value of addr on sheet in the session's document.
func (p *Pool) ReadRange(ctx context.Context, sessionID, sheet, addr string) (value.Value, error) {
	s, err := p.bound(sessionID)
	if err != nil {
		return value.Value{}, err
	}
	defer s.op.Unlock()

	if s.doc == nil {
		return value.Value{}, ErrNoDocument
	}
	defer p.metrics.observe("read", time.Now())

	rng, err := resolveRange(ctx, s.doc, sheet, addr)
	if err != nil {
		return value.Value{}, err
	}
	v, err := rng.Get(ctx, engine.Value)
	if err != nil {
		return value.Value{}, errors.Join(ErrEngine, err)
	}
	return v, nil
}

// WriteRange stores v into addr on sheet in the session's document.
func (p *Pool) WriteRange(ctx context.Context, sessionID, sheet, addr string, v value.Value) error {
	s, err := p.bound(sessionID)
	if err != nil {
		return err
	}
	defer s.op.Unlock()

	if s.doc == nil {
		return ErrNoDocument
	}
	defer p.metrics.observe("write", time.Now())

	rng, err := resolveRange(ctx, s.doc, sheet, addr)
	if err != nil {
		return err
	}
	if err := rng.Set(ctx, engine.Value, v); err != nil {
		return errors.Join(ErrEngine, err)
	}
	return nil
}

// SheetNames lists the sheets of the session's document in workbook order.
func (p *Pool) SheetNames(ctx context.Context, sessionID string) ([]string, error) {
	s, err := p.bound(sessionID)
	if err != nil {
		return nil, err
	}
	defer s.op.Unlock()

	if s.doc == nil {
		return nil, ErrNoDocument
	}
	defer p.metrics.observe("sheets", time.Now())

	sheets, err := engine.GetObject(ctx, s.doc, engine.Worksheets)
	if err != nil {
		return nil, errors.Join(ErrEngine, err)
	}
	count, err := sheets.Get(ctx, engine.Count)
	if err != nil {
		return nil, errors.Join(ErrEngine, err)
	}

	names := make([]string, 0, count.AsInt())
	for i := int64(1); i <= count.AsInt(); i++ {
		sh, err := engine.GetObject(ctx, sheets, engine.Item, value.Int(i))
		if err != nil {
			return nil, errors.Join(ErrEngine, err)
		}
		name, err := sh.Get(ctx, engine.Name)
		if err != nil {
			return nil, errors.Join(ErrEngine, err)
		}
		names = append(names, name.AsString())
	}
	return names, nil
}

// Release closes the session's document and frees its slot. With restart the
// engine instance is quit and replaced first; if the replacement fails the
// slot is taken out of rotation and ErrRestartFailed is returned.
func (p *Pool) Release(ctx context.Context, sessionID string, restart bool) error {
	s, err := p.bound(sessionID)
	if err != nil {
		return err
	}
	defer s.op.Unlock()

	return p.release(ctx, s, restart)
}

// Close closes every document and quits every instance. The pool cannot be
// used afterwards.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	slots := p.slots
	p.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	var errs []error
	for _, s := range slots {
		s.op.Lock()
		p.closeDocument(ctx, s)
		if s.instance != nil {
			if err := s.instance.Quit(ctx); err != nil {
				errs = append(errs, err)
			}
			s.instance = nil
		}
		p.mu.Lock()
		if s.inUse {
			p.unbind(s)
		}
		p.mu.Unlock()
		s.op.Unlock()
	}

	p.log.InfoContext(ctx, "slot pool closed")
	return errors.Join(errs...)
}

// bound resolves sessionID and returns its slot with the operation lock held.
func (p *Pool) bound(sessionID string) (*slot, error) {
	p.mu.Lock()
	s, ok := p.bySession[sessionID]
	if !ok {
		p.mu.Unlock()
		return nil, ErrNoSession
	}
	gen := s.gen
	p.mu.Unlock()

	s.op.Lock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if !s.inUse || s.gen != gen || s.session != sessionID {
		s.op.Unlock()
		return nil, ErrNoSession
	}
	s.lastUsed = p.now()
	return s, nil
}

// still reports whether s keeps the binding generation gen.
func (p *Pool) still(s *slot, gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return s.inUse && s.gen == gen
}

func (p *Pool) bind(s *slot, sessionID, identity string) {
	s.inUse = true
	s.session = sessionID
	s.identity = identity
	s.gen++
	s.lastUsed = p.now()
	p.bySession[sessionID] = s
}

func (p *Pool) unbind(s *slot) {
	delete(p.bySession, s.session)
	s.inUse = false
	s.session = ""
	s.identity = ""
	s.path = ""
	s.gen++
}

// load runs with s.op held.
func (p *Pool) load(ctx context.Context, s *slot, path string) error {
	p.closeDocument(ctx, s)

	start := time.Now()
	doc, err := s.instance.Open(ctx, path)
	p.metrics.observe("open", start)
	if err != nil {
		p.metrics.loadFailures.Inc()
		p.mu.Lock()
		p.unbind(s)
		p.mu.Unlock()
		p.log.WarnContext(ctx, "document failed to open", logger.Slot(s.index), logger.Path(path), logger.Error(err))
		return errors.Join(ErrLoadFailed, err)
	}
	if err := s.instance.Set(ctx, engine.DisplayAlerts, value.Bool(false)); err != nil {
		p.log.DebugContext(ctx, "display alerts not disabled", logger.Slot(s.index), logger.Error(err))
	}

	s.doc = doc
	p.mu.Lock()
	s.path = path
	s.lastUsed = p.now()
	p.mu.Unlock()

	p.log.InfoContext(ctx, "document loaded", logger.Slot(s.index), logger.Path(path), logger.Duration(time.Since(start)))
	return nil
}

// release runs with s.op held.
func (p *Pool) release(ctx context.Context, s *slot, restart bool) error {
	ctx = context.WithoutCancel(ctx)
	p.closeDocument(ctx, s)

	var err error
	if restart {
		err = p.restart(ctx, s)
	}

	p.mu.Lock()
	session := s.session
	p.unbind(s)
	if err != nil {
		s.broken = true
	}
	p.mu.Unlock()

	p.log.DebugContext(ctx, "slot released", logger.Slot(s.index), logger.Session(session), slog.Bool("restart", restart))
	return err
}

// closeDocument runs with s.op held.
func (p *Pool) closeDocument(ctx context.Context, s *slot) {
	if s.doc == nil {
		return
	}
	if _, err := s.doc.Call(context.WithoutCancel(ctx), engine.Close); err != nil {
		p.log.WarnContext(ctx, "document failed to close", logger.Slot(s.index), logger.Error(err))
	}
	s.doc = nil
	p.mu.Lock()
	s.path = ""
	p.mu.Unlock()
}

// restart runs with s.op held.
func (p *Pool) restart(ctx context.Context, s *slot) error {
	if s.instance != nil {
		if err := s.instance.Quit(ctx); err != nil {
			p.log.WarnContext(ctx, "engine instance failed to quit", logger.Slot(s.index), logger.Error(err))
		}
		s.instance = nil
	}

	inst, err := p.launch(ctx)
	p.metrics.restart(err)
	if err != nil {
		p.log.ErrorContext(ctx, "engine instance failed to restart", logger.Slot(s.index), logger.Error(err))
		return errors.Join(ErrRestartFailed, err)
	}
	s.instance = inst
	return nil
}

// launch starts an instance hidden and with alerts off.
func (p *Pool) launch(ctx context.Context) (engine.Instance, error) {
	inst, err := p.launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	for _, prop := range []string{engine.Visible, engine.DisplayAlerts} {
		if err := inst.Set(ctx, prop, value.Bool(false)); err != nil {
			p.log.DebugContext(ctx, "instance property not set", slog.String("property", prop), logger.Error(err))
		}
	}
	return inst, nil
}

func resolveRange(ctx context.Context, doc engine.Object, sheet, addr string) (engine.Object, error) {
	sheets, err := engine.GetObject(ctx, doc, engine.Worksheets)
	if err != nil {
		return nil, errors.Join(ErrEngine, err)
	}
	sh, err := engine.GetObject(ctx, sheets, engine.Item, value.String(sheet))
	if err != nil {
		if isContextErr(err) {
			return nil, errors.Join(ErrEngine, err)
		}
		return nil, errors.Join(ErrSheetNotFound, err)
	}
	rng, err := engine.GetObject(ctx, sh, engine.Range, value.String(addr))
	if err != nil {
		if isContextErr(err) {
			return nil, errors.Join(ErrEngine, err)
		}
		return nil, errors.Join(ErrRangeNotFound, err)
	}
	return rng, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
