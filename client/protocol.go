package client

import "encoding/json"

// Operation identifies the kind of change carried by an event.
// Values are lowercase to match the server's change stream semantics.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Message types
const (
	TypeAuth           = "auth"
	TypeAuthAck        = "auth_ack"
	TypeSubscribe      = "subscribe"
	TypeSubscribeAck   = "subscribe_ack"
	TypeUnsubscribe    = "unsubscribe"
	TypeUnsubscribeAck = "unsubscribe_ack"
	TypeEvent          = "event"
	TypeSnapshot       = "snapshot"
	TypeCall           = "call"
	TypeCallResult     = "call_result"
	TypeError          = "error"
)

// BaseMessage is the envelope for all messages
type BaseMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AuthPayload (Client -> Server)
type AuthPayload struct {
	Token    string `json:"token"`
	Database string `json:"database,omitempty"`
}

// AuthAckPayload (Server -> Client)
type AuthAckPayload struct {
	Identity string `json:"identity"`
}

// SubscribePayload (Client -> Server)
type SubscribePayload struct {
	Collection   string `json:"collection"`
	Query        string `json:"query,omitempty"`
	SendSnapshot bool   `json:"sendSnapshot"` // If true, sends current state immediately
}

// UnsubscribePayload (Client -> Server)
type UnsubscribePayload struct {
	ID string `json:"id"`
}

// EventPayload (Server -> Client)
type EventPayload struct {
	SubID      string          `json:"subId"`
	Collection string          `json:"collection"`
	Op         Operation       `json:"op"`
	Document   json.RawMessage `json:"document,omitempty"`
	Old        json.RawMessage `json:"old,omitempty"` // previous row, update only
	Timestamp  int64           `json:"timestamp,omitempty"`
}

// SnapshotPayload (Server -> Client)
type SnapshotPayload struct {
	SubID      string            `json:"subId"`
	Collection string            `json:"collection"`
	Documents  []json.RawMessage `json:"documents"`
}

// CallPayload (Client -> Server)
type CallPayload struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Call result statuses
const (
	CallStatusOK     = "ok"
	CallStatusFailed = "failed"
)

// CallResultPayload (Server -> Client)
type CallResultPayload struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ErrorPayload
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func mustMarshal(v interface{}) []byte {
	b, _ := json.Marshal(v)
	return b
}
