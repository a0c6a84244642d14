package gamelink

import "github.com/syntrixbase/gamelink/client"

// TableEvents selects which queues a table registration creates.
type TableEvents struct {
	// Insert registers the InsertEvent queue for the table. Combined with
	// Update it also registers the InsertUpdateEvent queue.
	Insert bool

	// Update registers the UpdateEvent queue for the table.
	Update bool

	// Delete registers the DeleteEvent queue for the table.
	Delete bool
}

// AllTableEvents enables every queue.
func AllTableEvents() TableEvents {
	return TableEvents{Insert: true, Update: true, Delete: true}
}

// TableEventsNoUpdate enables insert and delete only.
func TableEventsNoUpdate() TableEvents {
	return TableEvents{Insert: true, Delete: true}
}

// AddTable registers a keyed table with all queues enabled.
func AddTable[Row any](p *Plugin, accessor func(*client.Conn) client.TableWithPrimaryKey[Row]) *Plugin {
	return AddPartialTable(p, accessor, AllTableEvents())
}

// AddPartialTable registers a keyed table with the selected queues.
func AddPartialTable[Row any](p *Plugin, accessor func(*client.Conn) client.TableWithPrimaryKey[Row], events TableEvents) *Plugin {
	p.registers = append(p.registers, func(b *Bridge) {
		table := accessor(b.conn)
		if events.Insert {
			bindInsert[Row](b, table)
		}
		if events.Delete {
			bindDelete[Row](b, table)
		}
		if events.Update {
			bindUpdate[Row](b, table)
		}
		if events.Insert && events.Update {
			bindInsertUpdate[Row](b, table)
		}
	})
	return p
}

// AddTableWithoutPK registers a keyless table. Only insert and delete queues
// exist since the server cannot correlate rows into updates.
func AddTableWithoutPK[Row any](p *Plugin, accessor func(*client.Conn) client.Table[Row]) *Plugin {
	p.registers = append(p.registers, func(b *Bridge) {
		table := accessor(b.conn)
		bindInsert[Row](b, table)
		bindDelete[Row](b, table)
	})
	return p
}

func bindInsert[Row any](b *Bridge, table client.Table[Row]) {
	q := queueFor[InsertEvent[Row]](b)
	table.OnInsert(func(row Row) {
		q.send.Send(InsertEvent[Row]{Row: row})
	})
}

func bindDelete[Row any](b *Bridge, table client.Table[Row]) {
	q := queueFor[DeleteEvent[Row]](b)
	table.OnDelete(func(row Row) {
		q.send.Send(DeleteEvent[Row]{Row: row})
	})
}

func bindUpdate[Row any](b *Bridge, table client.TableWithPrimaryKey[Row]) {
	q := queueFor[UpdateEvent[Row]](b)
	table.OnUpdate(func(oldRow, newRow Row) {
		q.send.Send(UpdateEvent[Row]{Old: oldRow, New: newRow})
	})
}

func bindInsertUpdate[Row any](b *Bridge, table client.TableWithPrimaryKey[Row]) {
	q := queueFor[InsertUpdateEvent[Row]](b)
	table.OnUpdate(func(oldRow, newRow Row) {
		old := oldRow
		q.send.Send(InsertUpdateEvent[Row]{Old: &old, New: newRow})
	})
	table.OnInsert(func(row Row) {
		q.send.Send(InsertUpdateEvent[Row]{New: row})
	})
}
