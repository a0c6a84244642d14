// Package pubsub provides a small pub/sub abstraction for consuming change
// events from a broker. The nats subpackage backs production use, the memory
// subpackage backs tests.
package pubsub

import (
	"context"
	"time"
)

// Message represents a received message.
type Message interface {
	// Data returns the raw message payload.
	Data() []byte

	// Subject returns the message subject/topic.
	Subject() string

	// Ack acknowledges successful processing. Implementations without
	// acknowledgment semantics treat this as a no-op.
	Ack() error

	// Timestamp returns the broker receive time.
	Timestamp() time.Time
}

// Publisher publishes messages to a subject.
type Publisher interface {
	// Publish sends a message to the specified subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Close releases resources.
	Close() error
}

// Consumer consumes messages from a subject.
type Consumer interface {
	// Subscribe starts consuming messages and returns a channel.
	// The channel is closed when the context is cancelled or an error occurs.
	Subscribe(ctx context.Context) (<-chan Message, error)
}
