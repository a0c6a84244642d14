package engine

import (
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the feed buffer size used when AddChannel is given a
// non-positive capacity.
const DefaultCapacity = 256

// Messages is a double-buffered mailbox for values of type T. The loop
// refills it from its feed channel at the start of every tick; a batch stays
// live for the cycle it arrived in plus the next one, so a system ordered
// before the producing step still observes it the following tick. Events
// returns everything live; a Reader delivers each message exactly once.
type Messages[T any] struct {
	feed chan T

	mu   sync.Mutex
	prev []T
	cur  []T

	// Absolute indices of prev[0] and cur[0] in the stream, for reader
	// cursors.
	prevStart uint64
	curStart  uint64
}

// Events returns every live message: the batch drained or pushed this cycle
// and the previous cycle's batch. The returned slice is valid until the next
// tick. Systems that must see each message exactly once use a Reader instead.
func (m *Messages[T]) Events() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prev) == 0 {
		return m.cur
	}
	out := make([]T, 0, len(m.prev)+len(m.cur))
	out = append(out, m.prev...)
	return append(out, m.cur...)
}

// Push appends a message directly to the current cycle's batch, making it
// visible to systems that run later in the same tick. Loop goroutine only.
func (m *Messages[T]) Push(v T) {
	m.mu.Lock()
	m.cur = append(m.cur, v)
	m.mu.Unlock()
}

// Reader returns a new cursor over the stream. The first Read sees whatever
// is still live at that point.
func (m *Messages[T]) Reader() *Reader[T] {
	return &Reader[T]{m: m}
}

// drain rotates the buffers and fills the fresh one from the feed. The
// outgoing previous batch has been live for two cycles and is discarded;
// values still arriving stay queued for the next cycle.
func (m *Messages[T]) drain() {
	var batch []T
	for {
		select {
		case v := <-m.feed:
			batch = append(batch, v)
		default:
			m.mu.Lock()
			m.prevStart = m.curStart
			m.curStart += uint64(len(m.cur))
			m.prev = m.cur
			m.cur = batch
			m.mu.Unlock()
			return
		}
	}
}

// Reader consumes a Messages stream, delivering each message exactly once.
// Each system owns its reader; cursors are independent. A reader that skips
// a cycle still catches messages from the previous one, older messages are
// gone.
type Reader[T any] struct {
	m      *Messages[T]
	cursor uint64
}

// Read returns the messages that are still live and not yet seen by this
// reader, then advances the cursor past them.
func (r *Reader[T]) Read() []T {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.curStart + uint64(len(m.cur))
	from := r.cursor
	if from < m.prevStart {
		from = m.prevStart
	}
	r.cursor = total
	if from >= total {
		return nil
	}

	out := make([]T, 0, total-from)
	if from < m.curStart {
		out = append(out, m.prev[from-m.prevStart:]...)
		out = append(out, m.cur...)
	} else {
		out = append(out, m.cur[from-m.curStart:]...)
	}
	return out
}

// Sender is the producer half of a message channel. Send never blocks: when
// the feed is full or the sender is closed the value is dropped.
type Sender[T any] struct {
	feed    chan T
	closed  atomic.Bool
	dropped atomic.Uint64
}

// Send hands a value to the loop. It reports whether the value was accepted.
func (s *Sender[T]) Send(v T) bool {
	if s.closed.Load() {
		s.dropped.Add(1)
		return false
	}
	select {
	case s.feed <- v:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Close marks the sender closed. Subsequent sends are silently dropped; the
// feed channel itself stays open so in-flight drains never race a close.
func (s *Sender[T]) Close() {
	s.closed.Store(true)
}

// Dropped returns the number of values discarded by Send.
func (s *Sender[T]) Dropped() uint64 {
	return s.dropped.Load()
}

// AddChannel creates a message queue for T on the loop: a buffered feed
// channel, a Sender for producers, and a Messages drained at the start of
// every tick.
func AddChannel[T any](l *Loop, capacity int) (*Sender[T], *Messages[T]) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	feed := make(chan T, capacity)
	m := &Messages[T]{feed: feed}
	l.addDrain(m.drain)
	return &Sender[T]{feed: feed}, m
}
