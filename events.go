// Package gamelink bridges a realtime database's change-stream client to a
// fixed-tick game loop. Row callbacks and remote-call completions become
// typed per-cycle message queues drained by the loop's systems.
package gamelink

// InsertEvent reports a row entering a table.
type InsertEvent[Row any] struct {
	Row Row
}

// UpdateEvent reports an in-place row change.
type UpdateEvent[Row any] struct {
	Old Row
	New Row
}

// DeleteEvent reports a row leaving a table.
type DeleteEvent[Row any] struct {
	Row Row
}

// InsertUpdateEvent merges insert and update streams: Old is nil for inserts.
type InsertUpdateEvent[Row any] struct {
	Old *Row
	New Row
}

// ConnectedEvent reports a completed auth handshake.
type ConnectedEvent struct {
	Identity string
}

// DisconnectedEvent reports an established connection ending.
type DisconnectedEvent struct {
	Err error
}

// ConnectErrorEvent reports a failed connection attempt.
type ConnectErrorEvent struct {
	Err error
}

// ReducerResultEvent reports the completion of a named remote procedure.
type ReducerResultEvent[R any] struct {
	Result R
	Err    error
}
