package xlsx

import (
	"context"
	"sync/atomic"

	"github.com/dmitrymomot/sheetpool/pkg/engine"
)

// Launcher starts xlsx instances.
type Launcher struct {
	launched atomic.Int64
}

// NewLauncher returns a Launcher.
func NewLauncher() *Launcher {
	return &Launcher{}
}

// Launch implements engine.Launcher.
func (l *Launcher) Launch(ctx context.Context) (engine.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.launched.Add(1)
	return &application{visible: true, displayAlerts: true}, nil
}

// Launched returns how many instances were started.
func (l *Launcher) Launched() int64 {
	return l.launched.Load()
}
