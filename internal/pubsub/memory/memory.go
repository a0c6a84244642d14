// Package memory implements pubsub in-process, for tests and single-binary
// setups. It mirrors the nats package surface so callers can swap engines.
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syntrixbase/gamelink/internal/pubsub"
)

var (
	// ErrEngineClosed is returned when the engine has been shut down.
	ErrEngineClosed = errors.New("memory pubsub: engine closed")
	// ErrPatternSubscribed is returned when a pattern already has a consumer.
	ErrPatternSubscribed = errors.New("memory pubsub: pattern already subscribed")
)

// Engine routes messages between in-process publishers and consumers.
type Engine struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	closed atomic.Bool
}

type subscription struct {
	pattern string
	msgCh   chan pubsub.Message
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new in-memory pubsub engine.
func New() *Engine {
	return &Engine{subs: make(map[string]*subscription)}
}

// Publisher returns a Publisher that routes through this engine.
func (e *Engine) Publisher() pubsub.Publisher {
	return &memoryPublisher{engine: e}
}

// Consumer returns a Consumer for the given subject pattern.
func (e *Engine) Consumer(pattern string, bufSize int) pubsub.Consumer {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &memoryConsumer{engine: e, pattern: pattern, bufSize: bufSize}
}

// Close shuts down the engine and cancels all subscriptions.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for pattern, sub := range e.subs {
		sub.cancel()
		delete(e.subs, pattern)
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, subject string, data []byte) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	for pattern, sub := range e.subs {
		if !matchSubject(pattern, subject) {
			continue
		}
		msg := &memoryMessage{data: data, subject: subject, timestamp: time.Now()}
		select {
		case sub.msgCh <- msg:
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.ctx.Done():
			// Subscription cancelled, skip
		}
	}
	return nil
}

func (e *Engine) subscribe(ctx context.Context, pattern string, bufSize int) (<-chan pubsub.Message, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	e.mu.Lock()
	if e.subs[pattern] != nil {
		e.mu.Unlock()
		return nil, ErrPatternSubscribed
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		pattern: pattern,
		msgCh:   make(chan pubsub.Message, bufSize),
		ctx:     subCtx,
		cancel:  cancel,
	}
	e.subs[pattern] = sub
	e.mu.Unlock()

	go func() {
		<-subCtx.Done()
		e.mu.Lock()
		if e.subs[pattern] == sub {
			delete(e.subs, pattern)
		}
		e.mu.Unlock()
		close(sub.msgCh)
	}()

	return sub.msgCh, nil
}

type memoryPublisher struct {
	engine *Engine
}

func (p *memoryPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	return p.engine.publish(ctx, subject, data)
}

func (p *memoryPublisher) Close() error { return nil }

type memoryConsumer struct {
	engine  *Engine
	pattern string
	bufSize int
}

func (c *memoryConsumer) Subscribe(ctx context.Context) (<-chan pubsub.Message, error) {
	return c.engine.subscribe(ctx, c.pattern, c.bufSize)
}

// memoryMessage implements pubsub.Message for in-memory delivery.
type memoryMessage struct {
	data      []byte
	subject   string
	timestamp time.Time
}

func (m *memoryMessage) Data() []byte         { return m.data }
func (m *memoryMessage) Subject() string      { return m.subject }
func (m *memoryMessage) Ack() error           { return nil }
func (m *memoryMessage) Timestamp() time.Time { return m.timestamp }
