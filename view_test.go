package gamelink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntrixbase/gamelink/client"
	"github.com/syntrixbase/gamelink/engine"
)

type actor struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Score int64  `json:"score"`
}

func actorKey(a actor) int { return a.ID }

// viewFixture wires one view onto a fresh loop and bridge.
func viewFixture(t *testing.T) (*engine.Loop, *Bridge, *fakeTable[actor]) {
	t.Helper()
	loop := engine.New()
	b := newBridge(loop, nil, 0)
	ft := &fakeTable[actor]{}

	p := New()
	AddView(p, func(*client.Conn) client.Table[actor] { return ft }, actorKey)
	require.Len(t, p.registers, 1)
	p.registers[0](b)
	return loop, b, ft
}

func TestView_ExitEntryCoalescesIntoUpdate(t *testing.T) {
	loop, b, ft := viewFixture(t)

	a0 := actor{ID: 1, Name: "ada", Score: 10}
	a1 := actor{ID: 1, Name: "ada", Score: 25}
	b1 := actor{ID: 2, Name: "bob", Score: 5}

	ft.emitInsert(a1)
	ft.emitDelete(a0)
	ft.emitInsert(b1)

	loop.Tick()

	updates := Updates[actor](b).Events()
	require.Len(t, updates, 1)
	assert.Equal(t, a0, updates[0].Old)
	assert.Equal(t, a1, updates[0].New)

	inserts := Inserts[actor](b).Events()
	require.Len(t, inserts, 1)
	assert.Equal(t, b1, inserts[0].Row)

	assert.Empty(t, Deletes[actor](b).Events())
}

func TestView_ExitOnlyBecomesDelete(t *testing.T) {
	loop, b, ft := viewFixture(t)

	c0 := actor{ID: 3, Name: "cyn", Score: 1}
	ft.emitDelete(c0)

	loop.Tick()

	deletes := Deletes[actor](b).Events()
	require.Len(t, deletes, 1)
	assert.Equal(t, c0, deletes[0].Row)
	assert.Empty(t, Inserts[actor](b).Events())
	assert.Empty(t, Updates[actor](b).Events())
}

func TestView_LastSeenWinsPerDirection(t *testing.T) {
	loop, b, ft := viewFixture(t)

	ft.emitInsert(actor{ID: 1, Score: 1})
	ft.emitInsert(actor{ID: 1, Score: 2})

	loop.Tick()

	inserts := Inserts[actor](b).Events()
	require.Len(t, inserts, 1)
	assert.Equal(t, int64(2), inserts[0].Row.Score)
}

func TestView_NoCrossCycleCoalescing(t *testing.T) {
	loop, b, ft := viewFixture(t)

	inserts := Inserts[actor](b).Reader()
	updates := Updates[actor](b).Reader()
	deletes := Deletes[actor](b).Reader()

	old := actor{ID: 1, Score: 1}
	ft.emitDelete(old)
	loop.Tick()

	batch := deletes.Read()
	require.Len(t, batch, 1)
	assert.Equal(t, old, batch[0].Row)
	assert.Empty(t, inserts.Read())

	// The matching entry lands in the next cycle: plain insert, no update.
	updated := actor{ID: 1, Score: 2}
	ft.emitInsert(updated)
	loop.Tick()

	entered := inserts.Read()
	require.Len(t, entered, 1)
	assert.Equal(t, updated, entered[0].Row)
	assert.Empty(t, updates.Read())
	assert.Empty(t, deletes.Read())
}

func TestView_EmptyCycleEmitsNothing(t *testing.T) {
	loop, b, _ := viewFixture(t)

	loop.Tick()
	loop.Tick()

	assert.Empty(t, Inserts[actor](b).Events())
	assert.Empty(t, Updates[actor](b).Events())
	assert.Empty(t, Deletes[actor](b).Events())
}

func TestView_SharedQueuesWithPlainTable(t *testing.T) {
	loop, b, ft := viewFixture(t)

	// A plain table of the same row type reuses the same queues.
	plain := &fakeTable[actor]{}
	p := New()
	AddTableWithoutPK(p, func(*client.Conn) client.Table[actor] { return plain })
	p.registers[0](b)

	ft.emitInsert(actor{ID: 1, Score: 1})
	plain.emitInsert(actor{ID: 9, Score: 9})

	loop.Tick()

	rows := make(map[int]bool)
	for _, ev := range Inserts[actor](b).Events() {
		rows[ev.Row.ID] = true
	}
	assert.Equal(t, map[int]bool{1: true, 9: true}, rows)
}

func TestView_DuplicateReconcilerPanics(t *testing.T) {
	loop := engine.New()
	b := newBridge(loop, nil, 0)
	ft := &fakeTable[actor]{}

	p := New()
	AddView(p, func(*client.Conn) client.Table[actor] { return ft }, actorKey)
	AddView(p, func(*client.Conn) client.Table[actor] { return ft }, actorKey)

	p.registers[0](b)
	assert.Panics(t, func() { p.registers[1](b) })
}

func TestView_DistinctKeyTypesCoexist(t *testing.T) {
	loop := engine.New()
	b := newBridge(loop, nil, 0)
	ft := &fakeTable[actor]{}

	p := New()
	AddView(p, func(*client.Conn) client.Table[actor] { return ft }, actorKey)
	AddView(p, func(*client.Conn) client.Table[actor] { return ft }, func(a actor) string { return a.Name })

	p.registers[0](b)
	assert.NotPanics(t, func() { p.registers[1](b) })
	_ = loop
}
