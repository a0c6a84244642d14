package gamelink

import (
	"encoding/json"
	"fmt"
)

// AddReducer registers the completion queue for the named remote procedure.
// Each completion decodes into R and lands in the ReducerResults[R] queue;
// call failures arrive with Err set and a zero Result.
func AddReducer[R any](p *Plugin, name string) *Plugin {
	p.registers = append(p.registers, func(b *Bridge) {
		q := queueFor[ReducerResultEvent[R]](b)
		b.conn.OnCallResult(name, func(result json.RawMessage, callErr error) {
			var r R
			if callErr == nil && len(result) > 0 {
				if err := json.Unmarshal(result, &r); err != nil {
					callErr = fmt.Errorf("decode %s result: %w", name, err)
				}
			}
			q.send.Send(ReducerResultEvent[R]{Result: r, Err: callErr})
		})
	})
	return p
}
