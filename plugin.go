package gamelink

import (
	"context"
	"errors"
	"fmt"

	"github.com/syntrixbase/gamelink/client"
	"github.com/syntrixbase/gamelink/engine"
)

// ErrNoConnection means Build was called without WithConnection.
var ErrNoConnection = errors.New("gamelink: connection builder is not set, use WithConnection")

// registerFn wires one table, view or reducer onto a built bridge.
type registerFn func(b *Bridge)

// Plugin collects the connection builder and registrations, then Build wires
// them onto a loop.
type Plugin struct {
	connect   func() (*client.Conn, error)
	registers []registerFn
	queueCap  int
}

// New creates an empty plugin.
func New() *Plugin {
	return &Plugin{}
}

// WithConnection sets the builder producing the unconnected client.
func (p *Plugin) WithConnection(build func() (*client.Conn, error)) *Plugin {
	p.connect = build
	return p
}

// WithQueueCapacity overrides the per-queue buffer size.
func (p *Plugin) WithQueueCapacity(n int) *Plugin {
	p.queueCap = n
	return p
}

// Build creates the connection, wires lifecycle queues and all registered
// tables, views and reducers onto the loop, then connects. The returned
// Bridge gives systems access to the typed queues and the connection.
func (p *Plugin) Build(ctx context.Context, loop *engine.Loop) (*Bridge, error) {
	if p.connect == nil {
		return nil, ErrNoConnection
	}

	conn, err := p.connect()
	if err != nil {
		return nil, fmt.Errorf("build connection: %w", err)
	}

	b := newBridge(loop, conn, p.queueCap)

	connected := queueFor[ConnectedEvent](b)
	disconnected := queueFor[DisconnectedEvent](b)
	connectErrors := queueFor[ConnectErrorEvent](b)
	conn.OnConnect(func(identity string) {
		connected.send.Send(ConnectedEvent{Identity: identity})
	})
	conn.OnDisconnect(func(err error) {
		disconnected.send.Send(DisconnectedEvent{Err: err})
	})
	conn.OnConnectError(func(err error) {
		connectErrors.send.Send(ConnectErrorEvent{Err: err})
	})

	for _, register := range p.registers {
		register(b)
	}

	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return b, nil
}
