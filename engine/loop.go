// Package engine provides a minimal fixed-tick update loop with per-cycle
// message queues. It is the host side of the bridge: producers hand events
// across goroutines through non-blocking senders, and the loop drains them
// once per tick for its systems to consume.
package engine

import (
	"context"
	"sync"
	"time"
)

// System is one unit of per-tick work. Systems run on the loop goroutine in
// registration order.
type System func()

// Loop drives a repeating update cycle. Drain steps installed by AddChannel
// run at the start of every tick, before user systems.
type Loop struct {
	mu      sync.Mutex
	drains  []System
	systems []System
	ticks   uint64
}

// New creates an empty loop.
func New() *Loop {
	return &Loop{}
}

// AddSystem appends a system to the per-tick schedule.
func (l *Loop) AddSystem(fn System) *Loop {
	l.mu.Lock()
	l.systems = append(l.systems, fn)
	l.mu.Unlock()
	return l
}

// addDrain appends a drain step. Drains always run before systems so the
// current cycle's messages are visible to every system.
func (l *Loop) addDrain(fn System) {
	l.mu.Lock()
	l.drains = append(l.drains, fn)
	l.mu.Unlock()
}

// Tick runs one full cycle: all drain steps, then all systems.
func (l *Loop) Tick() {
	l.mu.Lock()
	drains := l.drains
	systems := l.systems
	l.ticks++
	l.mu.Unlock()

	for _, fn := range drains {
		fn()
	}
	for _, fn := range systems {
		fn()
	}
}

// Ticks returns the number of completed or in-progress cycles.
func (l *Loop) Ticks() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticks
}

// Run ticks the loop at the given interval until ctx is done.
func (l *Loop) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick()
		}
	}
}
