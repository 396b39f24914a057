package models

// Push message types. Every new connection receives exactly one "init" before
// any "tick"; tick counter values are non-decreasing.
const (
	MsgInit = "init"
	MsgTick = "tick"
)

// PushMessage is the wire envelope for websocket pushes.
type PushMessage struct {
	Type string      `json:"type"`
	Data CounterView `json:"data"`
}
