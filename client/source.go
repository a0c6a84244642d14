package client

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/syntrixbase/gamelink/internal/pubsub"
)

// ChangeEvent is the envelope published to the broker for every row change.
// It carries the same fields the websocket event payload does, minus the
// subscription routing.
type ChangeEvent struct {
	EventID    string          `json:"eventId,omitempty"`
	Collection string          `json:"collection"`
	Op         Operation       `json:"op"`
	Document   json.RawMessage `json:"document,omitempty"`
	Old        json.RawMessage `json:"old,omitempty"`
	Timestamp  int64           `json:"timestamp,omitempty"`
}

// NATSSource feeds table handles from a broker subject instead of a
// websocket subscription. Used when the game process runs next to the
// database cluster and the change feed is already on NATS.
type NATSSource struct {
	consumer pubsub.Consumer

	mu     sync.Mutex
	tables map[string]dispatcher
}

var _ Source = (*NATSSource)(nil)

// NewNATSSource creates a source draining the given consumer.
func NewNATSSource(consumer pubsub.Consumer) *NATSSource {
	return &NATSSource{
		consumer: consumer,
		tables:   make(map[string]dispatcher),
	}
}

// table implements Source.
func (s *NATSSource) table(collection string, mk func() dispatcher) dispatcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.tables[collection]
	if !ok {
		d = mk()
		s.tables[collection] = d
	}
	return d
}

// Run consumes change events until ctx is done or the subscription closes.
// Events for collections without a table handle are skipped.
func (s *NATSSource) Run(ctx context.Context) error {
	msgs, err := s.consumer.Subscribe(ctx)
	if err != nil {
		return err
	}

	for msg := range msgs {
		var ev ChangeEvent
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			slog.Debug("Dropping undecodable change event", "subject", msg.Subject(), "error", err)
			continue
		}

		s.mu.Lock()
		d := s.tables[ev.Collection]
		s.mu.Unlock()
		if d != nil {
			d.dispatch(ev.Op, ev.Document, ev.Old)
		}
		_ = msg.Ack()
	}
	return ctx.Err()
}
