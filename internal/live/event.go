package live

import "time"

type EventKind int

const (
	// EventConnected signals a successful transport handshake.
	EventConnected EventKind = iota
	// EventMessage carries one raw inbound payload.
	EventMessage
	// EventError signals a transport-level failure; the transport may keep
	// retrying underneath.
	EventError
	// EventReconnecting signals an automatic reconnect attempt in progress.
	EventReconnecting
	// EventClosed signals the connection went away. Clean distinguishes an
	// expected shutdown from a lost connection.
	EventClosed
)

// Event is one entry of the ordered transport event stream. Every source
// (MQTT, Kafka, REST, fakes in tests) reduces to this, so the session state
// machine stays testable without a broker.
type Event struct {
	Kind    EventKind
	Topic   string
	Payload []byte
	Err     error
	Clean   bool
	At      time.Time
}
