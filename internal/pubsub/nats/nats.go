// Package nats implements pubsub on a core NATS connection. The bridge sits
// on the consuming side of a change feed, so plain subscriptions are enough;
// durable stream state stays with the publishing service.
package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/syntrixbase/gamelink/internal/pubsub"
)

// Publisher implements pubsub.Publisher on a NATS connection.
type Publisher struct {
	nc *nats.Conn
}

var _ pubsub.Publisher = (*Publisher)(nil)

// NewPublisher creates a Publisher. The connection stays owned by the caller.
func NewPublisher(nc *nats.Conn) (*Publisher, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats connection cannot be nil")
	}
	return &Publisher{nc: nc}, nil
}

// Publish sends a message to the specified subject.
func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Close flushes buffered messages. It does not close the shared connection.
func (p *Publisher) Close() error {
	return p.nc.Flush()
}

// Consumer implements pubsub.Consumer on a NATS subscription.
type Consumer struct {
	nc      *nats.Conn
	subject string
	bufSize int
}

var _ pubsub.Consumer = (*Consumer)(nil)

// NewConsumer creates a Consumer for the given subject.
func NewConsumer(nc *nats.Conn, subject string, bufSize int) (*Consumer, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats connection cannot be nil")
	}
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if bufSize <= 0 {
		bufSize = 64
	}
	return &Consumer{nc: nc, subject: subject, bufSize: bufSize}, nil
}

// Subscribe starts consuming messages and returns a channel. The channel is
// closed when ctx is cancelled.
func (c *Consumer) Subscribe(ctx context.Context) (<-chan pubsub.Message, error) {
	natsCh := make(chan *nats.Msg, c.bufSize)
	sub, err := c.nc.ChanSubscribe(c.subject, natsCh)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", c.subject, err)
	}

	msgCh := make(chan pubsub.Message, c.bufSize)
	go func() {
		defer close(msgCh)
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-natsCh:
				if !ok {
					return
				}
				select {
				case msgCh <- &natsMessage{msg: m, timestamp: time.Now()}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return msgCh, nil
}

// natsMessage adapts *nats.Msg to pubsub.Message.
type natsMessage struct {
	msg       *nats.Msg
	timestamp time.Time
}

func (m *natsMessage) Data() []byte    { return m.msg.Data }
func (m *natsMessage) Subject() string { return m.msg.Subject }

// Ack is a no-op for core NATS messages without a reply subject.
func (m *natsMessage) Ack() error {
	if m.msg.Reply == "" {
		return nil
	}
	return m.msg.Ack()
}

func (m *natsMessage) Timestamp() time.Time { return m.timestamp }
