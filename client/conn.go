// Package client implements a websocket client for a realtime database's
// change streams: subscriptions deliver row insert/update/delete events per
// collection, and remote procedures complete asynchronously via call results.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Event batches carry full
	// documents, so the limit is far above the server-side request cap.
	maxMessageSize = 1 << 20
)

var (
	// ErrTokenExpired is returned by Connect when the configured auth token
	// is a JWT whose expiry has already passed.
	ErrTokenExpired = errors.New("client: auth token expired")

	// ErrSendBufferFull means an outbound message was dropped because the
	// write queue is full.
	ErrSendBufferFull = errors.New("client: send buffer full")

	// ErrNotConnected means the operation requires an established connection.
	ErrNotConnected = errors.New("client: not connected")
)

// Config holds connection settings.
type Config struct {
	// URL is the websocket endpoint, e.g. ws://localhost:8080/realtime.
	URL string

	// Database selects the logical database on the server.
	Database string

	// Token authenticates the connection. May be empty for open servers.
	Token string

	// SendBuffer is the outbound queue size. Defaults to 256.
	SendBuffer int

	// HandshakeTimeout bounds dial plus auth. Defaults to 10s.
	HandshakeTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
}

// Conn is a client connection. Create with New, register callbacks, then
// Connect. Callbacks fire on the read-pump goroutine.
type Conn struct {
	cfg Config

	send chan BaseMessage
	done chan struct{}

	mu           sync.Mutex
	ws           *websocket.Conn
	tables       map[string]dispatcher
	callHandlers map[string]func(result json.RawMessage, err error)
	identity     string

	onConnect      []func(identity string)
	onDisconnect   []func(err error)
	onConnectError []func(err error)

	closeOnce      sync.Once
	disconnectOnce sync.Once
}

var _ Source = (*Conn)(nil)

// New creates an unconnected Conn from cfg.
func New(cfg Config) *Conn {
	cfg.applyDefaults()
	return &Conn{
		cfg:          cfg,
		send:         make(chan BaseMessage, cfg.SendBuffer),
		done:         make(chan struct{}),
		tables:       make(map[string]dispatcher),
		callHandlers: make(map[string]func(json.RawMessage, error)),
	}
}

// OnConnect registers a callback fired once the auth handshake completes.
func (c *Conn) OnConnect(fn func(identity string)) {
	c.mu.Lock()
	c.onConnect = append(c.onConnect, fn)
	c.mu.Unlock()
}

// OnDisconnect registers a callback fired when an established connection ends.
func (c *Conn) OnDisconnect(fn func(err error)) {
	c.mu.Lock()
	c.onDisconnect = append(c.onDisconnect, fn)
	c.mu.Unlock()
}

// OnConnectError registers a callback fired when Connect fails.
func (c *Conn) OnConnectError(fn func(err error)) {
	c.mu.Lock()
	c.onConnectError = append(c.onConnectError, fn)
	c.mu.Unlock()
}

// OnCallResult registers the completion handler for a named remote procedure.
// The handler replaces any previous one for the same name.
func (c *Conn) OnCallResult(name string, fn func(result json.RawMessage, err error)) {
	c.mu.Lock()
	c.callHandlers[name] = fn
	c.mu.Unlock()
}

// table implements Source: lookup-or-create under the lock, dispatch outside.
func (c *Conn) table(collection string, mk func() dispatcher) dispatcher {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.tables[collection]
	if !ok {
		d = mk()
		c.tables[collection] = d
	}
	return d
}

// Connect dials the server, performs the auth handshake and starts the read
// and write pumps. Connect failures also fire the OnConnectError callbacks.
func (c *Conn) Connect(ctx context.Context) error {
	if err := checkToken(c.cfg.Token); err != nil {
		c.connectError(err)
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		err = fmt.Errorf("dial %s: %w", c.cfg.URL, err)
		c.connectError(err)
		return err
	}

	if err := c.handshake(ws); err != nil {
		ws.Close()
		c.connectError(err)
		return err
	}

	go c.writePump(ws)
	go c.readPump(ws)

	c.mu.Lock()
	c.ws = ws
	identity := c.identity
	callbacks := c.onConnect
	c.mu.Unlock()
	for _, fn := range callbacks {
		fn(identity)
	}
	return nil
}

// handshake sends auth and waits for the ack before any pump starts, so the
// first event can never outrun the identity.
func (c *Conn) handshake(ws *websocket.Conn) error {
	auth := BaseMessage{
		ID:      uuid.NewString(),
		Type:    TypeAuth,
		Payload: mustMarshal(AuthPayload{Token: c.cfg.Token, Database: c.cfg.Database}),
	}
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteJSON(auth); err != nil {
		return fmt.Errorf("send auth: %w", err)
	}

	ws.SetReadDeadline(time.Now().Add(c.cfg.HandshakeTimeout))
	var ack BaseMessage
	if err := ws.ReadJSON(&ack); err != nil {
		return fmt.Errorf("read auth ack: %w", err)
	}

	switch ack.Type {
	case TypeAuthAck:
		var payload AuthAckPayload
		if err := json.Unmarshal(ack.Payload, &payload); err != nil {
			return fmt.Errorf("decode auth ack: %w", err)
		}
		c.mu.Lock()
		c.identity = payload.Identity
		c.mu.Unlock()
		return nil
	case TypeError:
		var payload ErrorPayload
		if err := json.Unmarshal(ack.Payload, &payload); err != nil {
			return fmt.Errorf("decode auth error: %w", err)
		}
		return fmt.Errorf("auth rejected: %s (%s)", payload.Message, payload.Code)
	default:
		return fmt.Errorf("unexpected handshake message type %q", ack.Type)
	}
}

// checkToken rejects JWTs that are already expired before dialing. Opaque
// tokens pass through for the server to judge.
func checkToken(token string) error {
	if token == "" {
		return nil
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return ErrTokenExpired
	}
	return nil
}

// Identity returns the identity assigned by the server during auth.
func (c *Conn) Identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}

// Subscribe subscribes to a collection's change stream with a snapshot of
// current state. It returns the subscription ID.
func (c *Conn) Subscribe(collection string) (string, error) {
	return c.SubscribeQuery(collection, "", true)
}

// SubscribeQuery subscribes with a server-side query filter.
func (c *Conn) SubscribeQuery(collection, query string, snapshot bool) (string, error) {
	id := uuid.NewString()
	msg := BaseMessage{
		ID:   id,
		Type: TypeSubscribe,
		Payload: mustMarshal(SubscribePayload{
			Collection:   collection,
			Query:        query,
			SendSnapshot: snapshot,
		}),
	}
	if err := c.enqueue(msg); err != nil {
		return "", err
	}
	return id, nil
}

// Unsubscribe removes a subscription by ID.
func (c *Conn) Unsubscribe(id string) error {
	return c.enqueue(BaseMessage{
		ID:      uuid.NewString(),
		Type:    TypeUnsubscribe,
		Payload: mustMarshal(UnsubscribePayload{ID: id}),
	})
}

// Call fires a named remote procedure. The completion arrives through the
// handler registered with OnCallResult. It returns the call ID.
func (c *Conn) Call(name string, args any) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("marshal args for %s: %w", name, err)
	}
	id := uuid.NewString()
	msg := BaseMessage{
		ID:      id,
		Type:    TypeCall,
		Payload: mustMarshal(CallPayload{Name: name, Args: raw}),
	}
	if err := c.enqueue(msg); err != nil {
		return "", err
	}
	return id, nil
}

// enqueue hands a message to the write pump without blocking.
func (c *Conn) enqueue(msg BaseMessage) error {
	c.mu.Lock()
	connected := c.ws != nil
	c.mu.Unlock()
	if !connected {
		return ErrNotConnected
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close tears the connection down. Safe to call multiple times.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()
		if ws != nil {
			ws.Close()
		}
	})
	return nil
}

// readPump pumps messages from the websocket connection to the table and
// call dispatchers. It is the only reader on the connection.
func (c *Conn) readPump(ws *websocket.Conn) {
	var readErr error
	defer func() {
		c.Close()
		c.disconnected(readErr)
	}()

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg BaseMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Connection closed unexpectedly", "error", err)
				readErr = err
			} else {
				slog.Debug("Connection closed")
			}
			return
		}
		c.handleMessage(msg)
	}
}

func (c *Conn) handleMessage(msg BaseMessage) {
	switch msg.Type {
	case TypeEvent:
		var payload EventPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			slog.Debug("Dropping undecodable event payload", "error", err)
			return
		}
		if d := c.lookupTable(payload.Collection); d != nil {
			d.dispatch(payload.Op, payload.Document, payload.Old)
		}

	case TypeSnapshot:
		var payload SnapshotPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			slog.Debug("Dropping undecodable snapshot payload", "error", err)
			return
		}
		d := c.lookupTable(payload.Collection)
		if d == nil {
			return
		}
		for _, doc := range payload.Documents {
			d.dispatch(OpInsert, doc, nil)
		}

	case TypeCallResult:
		var payload CallResultPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			slog.Debug("Dropping undecodable call result", "error", err)
			return
		}
		c.mu.Lock()
		handler := c.callHandlers[payload.Name]
		c.mu.Unlock()
		if handler == nil {
			return
		}
		var callErr error
		if payload.Status != CallStatusOK {
			callErr = fmt.Errorf("call %s failed: %s", payload.Name, payload.Error)
		}
		handler(payload.Result, callErr)

	case TypeSubscribeAck, TypeUnsubscribeAck:
		slog.Debug("Subscription acknowledged", "id", msg.ID, "type", msg.Type)

	case TypeError:
		var payload ErrorPayload
		if err := json.Unmarshal(msg.Payload, &payload); err == nil {
			slog.Warn("Server error", "code", payload.Code, "message", payload.Message)
		}

	default:
		slog.Debug("Unknown message type", "type", msg.Type)
	}
}

func (c *Conn) lookupTable(collection string) dispatcher {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tables[collection]
}

func (c *Conn) disconnected(err error) {
	c.disconnectOnce.Do(func() {
		c.mu.Lock()
		callbacks := c.onDisconnect
		c.mu.Unlock()
		for _, fn := range callbacks {
			fn(err)
		}
	})
}

func (c *Conn) connectError(err error) {
	c.mu.Lock()
	callbacks := c.onConnectError
	c.mu.Unlock()
	for _, fn := range callbacks {
		fn(err)
	}
}

// writePump pumps queued messages to the websocket connection and keeps the
// connection alive with pings. It is the only writer on the connection.
func (c *Conn) writePump(ws *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()
	for {
		select {
		case <-c.done:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case msg := <-c.send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
