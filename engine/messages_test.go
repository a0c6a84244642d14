package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddChannel_DrainPerTick(t *testing.T) {
	l := New()
	send, msgs := AddChannel[int](l, 8)

	assert.True(t, send.Send(1))
	assert.True(t, send.Send(2))

	l.Tick()
	assert.Equal(t, []int{1, 2}, msgs.Events())
}

func TestMessages_BatchLivesTwoCycles(t *testing.T) {
	l := New()
	send, msgs := AddChannel[int](l, 8)

	send.Send(1)
	l.Tick()
	assert.Equal(t, []int{1}, msgs.Events())

	// Drained but unread: still live the next cycle.
	l.Tick()
	assert.Equal(t, []int{1}, msgs.Events())

	// Gone the cycle after.
	l.Tick()
	assert.Empty(t, msgs.Events())
}

func TestAddChannel_LateValuesPersistToNextTick(t *testing.T) {
	l := New()
	send, msgs := AddChannel[string](l, 8)

	l.Tick()
	assert.Empty(t, msgs.Events())

	// Sent after the drain ran: queued until the next cycle.
	send.Send("late")
	assert.Empty(t, msgs.Events())

	l.Tick()
	assert.Equal(t, []string{"late"}, msgs.Events())
}

func TestReader_ExactlyOnce(t *testing.T) {
	l := New()
	send, msgs := AddChannel[int](l, 8)
	rd := msgs.Reader()

	send.Send(1)
	send.Send(2)
	l.Tick()
	assert.Equal(t, []int{1, 2}, rd.Read())
	assert.Empty(t, rd.Read())

	// The batch is still live, but this reader has moved past it.
	l.Tick()
	assert.Equal(t, []int{1, 2}, msgs.Events())
	assert.Empty(t, rd.Read())
}

func TestReader_IndependentCursors(t *testing.T) {
	l := New()
	send, msgs := AddChannel[int](l, 8)
	first := msgs.Reader()
	second := msgs.Reader()

	send.Send(7)
	l.Tick()
	assert.Equal(t, []int{7}, first.Read())

	// A reader that skipped the first cycle catches up on the next one.
	l.Tick()
	assert.Equal(t, []int{7}, second.Read())
	assert.Empty(t, first.Read())
}

func TestReader_SeesPushFromLaterSystemNextTick(t *testing.T) {
	l := New()
	_, msgs := AddChannel[int](l, 8)

	// The consuming system is ordered before the producing one.
	rd := msgs.Reader()
	var seen []int
	l.AddSystem(func() { seen = append(seen, rd.Read()...) })

	pushed := false
	l.AddSystem(func() {
		if !pushed {
			msgs.Push(42)
			pushed = true
		}
	})

	l.Tick()
	assert.Empty(t, seen)

	l.Tick()
	assert.Equal(t, []int{42}, seen)

	l.Tick()
	assert.Equal(t, []int{42}, seen)
}

func TestSender_DropsWhenFull(t *testing.T) {
	l := New()
	send, msgs := AddChannel[int](l, 2)

	assert.True(t, send.Send(1))
	assert.True(t, send.Send(2))
	assert.False(t, send.Send(3))
	assert.Equal(t, uint64(1), send.Dropped())

	l.Tick()
	assert.Equal(t, []int{1, 2}, msgs.Events())
}

func TestSender_DropsWhenClosed(t *testing.T) {
	l := New()
	send, msgs := AddChannel[int](l, 8)

	send.Send(1)
	send.Close()
	assert.False(t, send.Send(2))
	assert.Equal(t, uint64(1), send.Dropped())

	// Values accepted before Close still arrive.
	l.Tick()
	assert.Equal(t, []int{1}, msgs.Events())
}

func TestMessages_PushVisibleSameTick(t *testing.T) {
	l := New()
	_, msgs := AddChannel[int](l, 8)

	pushed := false
	var seen []int
	l.AddSystem(func() {
		if !pushed {
			msgs.Push(42)
			pushed = true
		}
	})
	l.AddSystem(func() { seen = append([]int(nil), msgs.Events()...) })

	l.Tick()
	assert.Equal(t, []int{42}, seen)

	// Live for one more cycle, then gone.
	l.Tick()
	assert.Equal(t, []int{42}, msgs.Events())
	l.Tick()
	assert.Empty(t, msgs.Events())
}