package client

import "encoding/json"

// Envelope is the symmetric wire format shared with the server.
// Every frame, in either direction, is {"type": ..., "data": ...}.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// OutboundEnvelope carries a still-unserialized payload for writes.
type OutboundEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Synthetic event kinds dispatched by the connection manager itself.
// They never travel on the wire and carry no payload.
const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
)
