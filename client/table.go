package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Table is the change-callback surface of a replicated collection. Callbacks
// fire on the source's read goroutine; handlers must not block.
type Table[Row any] interface {
	// OnInsert registers a callback for rows entering the collection.
	OnInsert(fn func(row Row))

	// OnDelete registers a callback for rows leaving the collection.
	OnDelete(fn func(row Row))
}

// TableWithPrimaryKey adds update callbacks, available when the server can
// correlate old and new rows by primary key.
type TableWithPrimaryKey[Row any] interface {
	Table[Row]

	// OnUpdate registers a callback for in-place row changes.
	OnUpdate(fn func(oldRow, newRow Row))
}

// dispatcher routes raw event documents to typed callbacks.
type dispatcher interface {
	dispatch(op Operation, doc, old json.RawMessage)
}

// Source owns table handles and feeds them decoded change events.
// Conn and NATSSource implement it.
type Source interface {
	table(collection string, mk func() dispatcher) dispatcher
}

// TableHandle binds a collection name to a row type and fans decoded events
// out to registered callbacks.
type TableHandle[Row any] struct {
	collection string

	mu       sync.Mutex
	onInsert []func(Row)
	onUpdate []func(Row, Row)
	onDelete []func(Row)
}

var _ TableWithPrimaryKey[struct{}] = (*TableHandle[struct{}])(nil)

// TableOf returns the handle binding collection to Row on the given source,
// creating it on first use. Binding the same collection to two different row
// types is an internal consistency bug and panics.
func TableOf[Row any](src Source, collection string) *TableHandle[Row] {
	d := src.table(collection, func() dispatcher {
		return &TableHandle[Row]{collection: collection}
	})
	h, ok := d.(*TableHandle[Row])
	if !ok {
		panic(fmt.Sprintf("client: collection %q already bound to a different row type", collection))
	}
	return h
}

// OnInsert registers a callback for rows entering the collection.
func (t *TableHandle[Row]) OnInsert(fn func(row Row)) {
	t.mu.Lock()
	t.onInsert = append(t.onInsert, fn)
	t.mu.Unlock()
}

// OnUpdate registers a callback for in-place row changes.
func (t *TableHandle[Row]) OnUpdate(fn func(oldRow, newRow Row)) {
	t.mu.Lock()
	t.onUpdate = append(t.onUpdate, fn)
	t.mu.Unlock()
}

// OnDelete registers a callback for rows leaving the collection.
func (t *TableHandle[Row]) OnDelete(fn func(row Row)) {
	t.mu.Lock()
	t.onDelete = append(t.onDelete, fn)
	t.mu.Unlock()
}

// dispatch decodes the document and invokes the callbacks for op. Callbacks
// run outside the handle lock. Rows that fail to decode are skipped.
func (t *TableHandle[Row]) dispatch(op Operation, doc, old json.RawMessage) {
	var row Row
	if err := json.Unmarshal(doc, &row); err != nil {
		slog.Debug("Dropping undecodable row", "collection", t.collection, "op", op, "error", err)
		return
	}

	t.mu.Lock()
	inserts := t.onInsert
	updates := t.onUpdate
	deletes := t.onDelete
	t.mu.Unlock()

	switch op {
	case OpInsert:
		for _, fn := range inserts {
			fn(row)
		}
	case OpUpdate:
		var prev Row
		if len(old) > 0 {
			if err := json.Unmarshal(old, &prev); err != nil {
				slog.Debug("Dropping undecodable previous row", "collection", t.collection, "error", err)
			}
		}
		for _, fn := range updates {
			fn(prev, row)
		}
	case OpDelete:
		for _, fn := range deletes {
			fn(row)
		}
	default:
		slog.Debug("Unknown operation", "collection", t.collection, "op", op)
	}
}
