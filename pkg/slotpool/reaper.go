package slotpool

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sheetpool/pkg/logger"
)

// Run releases idle slots and repairs broken ones every reap interval until
// ctx is done. Idle release only happens when an idle timeout is set.
func (p *Pool) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if p.idleTimeout > 0 {
				if n := p.Reap(ctx, p.idleTimeout); n > 0 {
					p.log.InfoContext(ctx, "idle slots released", slog.Int("count", n))
				}
			}
			if n := p.Repair(ctx); n > 0 {
				p.log.InfoContext(ctx, "broken slots repaired", slog.Int("count", n))
			}
		}
	}
}

// Reap releases, with restart, every bound slot unused for longer than idle.
// It returns how many slots were released.
func (p *Pool) Reap(ctx context.Context, idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := p.now().Add(-idle)

	type candidate struct {
		s   *slot
		gen uint64
	}
	var stale []candidate
	p.mu.Lock()
	for _, s := range p.slots {
		if s.inUse && s.lastUsed.Before(cutoff) {
			stale = append(stale, candidate{s: s, gen: s.gen})
		}
	}
	p.mu.Unlock()

	released := 0
	for _, c := range stale {
		c.s.op.Lock()
		p.mu.Lock()
		ok := c.s.inUse && c.s.gen == c.gen && c.s.lastUsed.Before(cutoff)
		session := c.s.session
		p.mu.Unlock()

		if ok {
			if err := p.release(ctx, c.s, true); err != nil {
				p.log.WarnContext(ctx, "idle slot released with errors", logger.Slot(c.s.index), logger.Error(err))
			}
			p.log.DebugContext(ctx, "idle session evicted", logger.Slot(c.s.index), logger.Session(session))
			released++
		}
		c.s.op.Unlock()
	}
	return released
}

// Repair tries to start a new instance for every broken slot and returns how
// many slots are back in rotation.
func (p *Pool) Repair(ctx context.Context) int {
	p.mu.Lock()
	var broken []*slot
	for _, s := range p.slots {
		if s.broken {
			broken = append(broken, s)
		}
	}
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return 0
	}

	repaired := 0
	for _, s := range broken {
		s.op.Lock()
		p.mu.Lock()
		skip := p.closed || !s.broken
		p.mu.Unlock()
		if skip {
			s.op.Unlock()
			continue
		}
		if err := p.restart(ctx, s); err == nil {
			p.mu.Lock()
			s.broken = false
			p.mu.Unlock()
			repaired++
		}
		s.op.Unlock()
	}
	return repaired
}

// Stats summarizes slot usage.
type Stats struct {
	Size   int `json:"size"`
	InUse  int `json:"in_use"`
	Broken int `json:"broken"`
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Stats{Size: len(p.slots)}
	for _, s := range p.slots {
		if s.inUse {
			st.InUse++
		}
		if s.broken {
			st.Broken++
		}
	}
	return st
}

// SlotInfo describes one slot. Session tokens are never exposed.
type SlotInfo struct {
	Index    int           `json:"index"`
	InUse    bool          `json:"in_use"`
	Broken   bool          `json:"broken"`
	Identity string        `json:"identity,omitempty"`
	Path     string        `json:"path,omitempty"`
	IdleFor  time.Duration `json:"idle_for,omitempty"`
}

// Snapshot returns the state of every slot.
func (p *Pool) Snapshot() []SlotInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	out := make([]SlotInfo, len(p.slots))
	for i, s := range p.slots {
		out[i] = SlotInfo{Index: s.index, InUse: s.inUse, Broken: s.broken}
		if s.inUse {
			out[i].Identity = s.identity
			out[i].Path = s.path
			out[i].IdleFor = now.Sub(s.lastUsed)
		}
	}
	return out
}
