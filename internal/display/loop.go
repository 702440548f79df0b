package display

import (
	"context"
	"io"
	"time"
)

// DefaultInterval is the redraw cadence: ten frames per second.
const DefaultInterval = 100 * time.Millisecond

// Loop redraws the terminal from a Source on a fixed cadence.
type Loop struct {
	src      Source
	out      io.Writer
	interval time.Duration
}

func NewLoop(src Source, out io.Writer, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{src: src, out: out, interval: interval}
}

// Run draws immediately and then on every tick until ctx is done.
// Cancellation is the normal way out and returns nil.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if err := l.draw(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// draw emits clear + frame in one write so the terminal never shows half a frame.
func (l *Loop) draw() error {
	_, err := io.WriteString(l.out, ClearScreen+Frame(l.src.Snapshot()))
	return err
}
