package gamelink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntrixbase/gamelink/engine"
)

func TestQueueFor_ReusesHandle(t *testing.T) {
	b := newBridge(engine.New(), nil, 0)

	first := queueFor[InsertEvent[actor]](b)
	second := queueFor[InsertEvent[actor]](b)
	assert.Same(t, first, second)

	// Different event kinds of the same row type get their own queues.
	other := queueFor[DeleteEvent[actor]](b)
	assert.NotSame(t, first, other)
}

func TestQueueFor_TypeMismatchPanics(t *testing.T) {
	b := newBridge(engine.New(), nil, 0)

	// Force a broken invariant: a foreign handle under this type's key.
	b.queues[typeFor[InsertEvent[actor]]()] = "bogus"

	assert.Panics(t, func() { queueFor[InsertEvent[actor]](b) })
}

func TestQueueFor_SenderFeedsMessages(t *testing.T) {
	loop := engine.New()
	b := newBridge(loop, nil, 4)

	q := queueFor[InsertEvent[actor]](b)
	require.True(t, q.send.Send(InsertEvent[actor]{Row: actor{ID: 1}}))

	loop.Tick()
	events := Inserts[actor](b).Events()
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].Row.ID)
}

func TestBridge_LifecycleQueuesAreDistinct(t *testing.T) {
	b := newBridge(engine.New(), nil, 0)

	assert.NotNil(t, b.Connected())
	assert.NotNil(t, b.Disconnected())
	assert.NotNil(t, b.ConnectErrors())
	assert.Len(t, b.queues, 3)
}
