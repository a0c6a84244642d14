package gamelink

import (
	"fmt"
	"reflect"

	"github.com/syntrixbase/gamelink/client"
	"github.com/syntrixbase/gamelink/engine"
)

// viewDelta buffers one view membership change for a cycle. Tagged rather
// than split into two queues so one drain sees entries and exits in arrival
// order.
type viewDelta[Row any] struct {
	kind deltaKind
	row  Row
}

type deltaKind uint8

const (
	deltaEntered deltaKind = iota
	deltaLeft
)

// reconcilerKey identifies one installed reconcile step.
type reconcilerKey struct {
	row reflect.Type
	key reflect.Type
}

// AddView registers a view-like stream whose rows carry a stable key but
// whose membership changes arrive as independent entry/exit events. A
// per-cycle reconcile step coalesces same-cycle exit+entry of one key into a
// single UpdateEvent; unmatched entries and exits pass through as inserts
// and deletes.
//
// The view must produce at most one live row per key at a time.
//
// Exactly one reconciler may exist per (Row, Key) pair; registering a second
// one is a configuration error and panics at Build, since two reconcilers
// would double-consume the buffered stream.
func AddView[Row any, Key comparable](p *Plugin, accessor func(*client.Conn) client.Table[Row], keyFn func(Row) Key) *Plugin {
	p.registers = append(p.registers, func(b *Bridge) {
		view := accessor(b.conn)

		buf := queueFor[viewDelta[Row]](b)
		view.OnInsert(func(row Row) {
			buf.send.Send(viewDelta[Row]{kind: deltaEntered, row: row})
		})
		view.OnDelete(func(row Row) {
			buf.send.Send(viewDelta[Row]{kind: deltaLeft, row: row})
		})

		rk := reconcilerKey{row: typeFor[Row](), key: typeFor[Key]()}
		b.mu.Lock()
		if _, dup := b.reconcilers[rk]; dup {
			b.mu.Unlock()
			panic(fmt.Sprintf("gamelink: view reconciler for (%v, %v) registered twice", rk.row, rk.key))
		}
		b.reconcilers[rk] = struct{}{}
		b.mu.Unlock()

		inserts := queueFor[InsertEvent[Row]](b)
		updates := queueFor[UpdateEvent[Row]](b)
		deletes := queueFor[DeleteEvent[Row]](b)
		b.loop.AddSystem(reconcileStep(buf.msgs.Reader(), keyFn, inserts.msgs, updates.msgs, deletes.msgs))
	})
	return p
}

// reconcileStep builds the per-cycle system. Outputs are pushed into the
// current cycle's batches so systems added after Build observe them the same
// tick the deltas were drained.
func reconcileStep[Row any, Key comparable](
	buf *engine.Reader[viewDelta[Row]],
	keyFn func(Row) Key,
	inserts *engine.Messages[InsertEvent[Row]],
	updates *engine.Messages[UpdateEvent[Row]],
	deletes *engine.Messages[DeleteEvent[Row]],
) engine.System {
	return func() {
		// Per-cycle state only: both maps are rebuilt from empty, so an
		// entry and exit straddling a cycle boundary never coalesce. The
		// reader consumes each delta exactly once.
		entered := make(map[Key]Row)
		left := make(map[Key]Row)
		for _, d := range buf.Read() {
			k := keyFn(d.row)
			switch d.kind {
			case deltaEntered:
				entered[k] = d.row
			case deltaLeft:
				left[k] = d.row
			}
		}

		for k, newRow := range entered {
			if oldRow, ok := left[k]; ok {
				updates.Push(UpdateEvent[Row]{Old: oldRow, New: newRow})
				delete(left, k)
			} else {
				inserts.Push(InsertEvent[Row]{Row: newRow})
			}
		}
		for _, oldRow := range left {
			deletes.Push(DeleteEvent[Row]{Row: oldRow})
		}
	}
}
