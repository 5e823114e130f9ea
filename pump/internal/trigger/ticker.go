package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultInterval is the polling period used when none is configured.
const DefaultInterval = 500 * time.Millisecond

// Ticker emits an event every interval.
type Ticker struct {
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewTicker starts a ticker that runs until ctx is cancelled or Close is called.
func NewTicker(ctx context.Context, interval time.Duration) (*Ticker, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("trigger: interval must be positive, got %v", interval)
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Ticker{
		events: make(chan Event, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go t.run(ctx, interval)
	return t, nil
}

func (t *Ticker) run(ctx context.Context, interval time.Duration) {
	defer close(t.done)
	defer close(t.events)

	tk := time.NewTicker(interval)
	defer tk.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tk.C:
			offer(t.events, Event{Op: OpTick, At: now})
		}
	}
}

// Events returns the tick channel.
func (t *Ticker) Events() <-chan Event { return t.events }

// Close stops the ticker and waits for its goroutine to exit.
func (t *Ticker) Close() error {
	t.once.Do(t.cancel)
	<-t.done
	return nil
}
