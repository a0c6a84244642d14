package gamelink

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/syntrixbase/gamelink/client"
	"github.com/syntrixbase/gamelink/engine"
)

// Bridge is the built plugin: it owns the connection, the loop wiring and
// the per-type queue table.
type Bridge struct {
	loop     *engine.Loop
	conn     *client.Conn
	queueCap int

	mu          sync.Mutex
	queues      map[reflect.Type]any
	reconcilers map[reconcilerKey]struct{}
}

func newBridge(loop *engine.Loop, conn *client.Conn, queueCap int) *Bridge {
	return &Bridge{
		loop:        loop,
		conn:        conn,
		queueCap:    queueCap,
		queues:      make(map[reflect.Type]any),
		reconcilers: make(map[reconcilerKey]struct{}),
	}
}

// Conn returns the underlying client connection, for subscribing and calls
// from systems.
func (b *Bridge) Conn() *client.Conn {
	return b.conn
}

// Connected returns the queue of completed handshakes.
func (b *Bridge) Connected() *engine.Messages[ConnectedEvent] {
	return queueFor[ConnectedEvent](b).msgs
}

// Disconnected returns the queue of connection terminations.
func (b *Bridge) Disconnected() *engine.Messages[DisconnectedEvent] {
	return queueFor[DisconnectedEvent](b).msgs
}

// ConnectErrors returns the queue of failed connection attempts.
func (b *Bridge) ConnectErrors() *engine.Messages[ConnectErrorEvent] {
	return queueFor[ConnectErrorEvent](b).msgs
}

// queue pairs the producer and consumer halves of one typed message channel.
type queue[T any] struct {
	send *engine.Sender[T]
	msgs *engine.Messages[T]
}

func typeFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// queueFor returns the queue for T, creating it and its loop channel on
// first use. The lock covers only the lookup-or-insert. A handle of the
// wrong concrete type under T's key is an internal consistency bug.
func queueFor[T any](b *Bridge) *queue[T] {
	key := typeFor[T]()

	b.mu.Lock()
	defer b.mu.Unlock()

	if h, ok := b.queues[key]; ok {
		q, ok := h.(*queue[T])
		if !ok {
			panic(fmt.Sprintf("gamelink: queue handle type mismatch for %v", key))
		}
		return q
	}

	send, msgs := engine.AddChannel[T](b.loop, b.queueCap)
	q := &queue[T]{send: send, msgs: msgs}
	b.queues[key] = q
	return q
}

// Inserts returns the insert queue for Row, creating it on first use.
func Inserts[Row any](b *Bridge) *engine.Messages[InsertEvent[Row]] {
	return queueFor[InsertEvent[Row]](b).msgs
}

// Updates returns the update queue for Row.
func Updates[Row any](b *Bridge) *engine.Messages[UpdateEvent[Row]] {
	return queueFor[UpdateEvent[Row]](b).msgs
}

// Deletes returns the delete queue for Row.
func Deletes[Row any](b *Bridge) *engine.Messages[DeleteEvent[Row]] {
	return queueFor[DeleteEvent[Row]](b).msgs
}

// InsertUpdates returns the merged insert/update queue for Row.
func InsertUpdates[Row any](b *Bridge) *engine.Messages[InsertUpdateEvent[Row]] {
	return queueFor[InsertUpdateEvent[Row]](b).msgs
}

// ReducerResults returns the completion queue for reducer result type R.
func ReducerResults[R any](b *Bridge) *engine.Messages[ReducerResultEvent[R]] {
	return queueFor[ReducerResultEvent[R]](b).msgs
}
