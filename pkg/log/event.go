package log

import (
	"time"

	"github.com/consist-sim/consist-go/pkg/wire"
)

// Event represents a protocol event captured on one car.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the consist run (UUID).
	SessionID string `cbor:"2,keyasint"`

	// CarID identifies the car that captured the event.
	CarID string `cbor:"3,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Type-specific payload (one of these will be set).
	Message     *MessageEvent     `cbor:"6,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"7,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"8,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates a dispatched (received) message.
	DirectionIn Direction = 0
	// DirectionOut indicates a published (sent) message.
	DirectionOut Direction = 1
	// DirectionLocal indicates an event with no message flow.
	DirectionLocal Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionLocal:
		return "LOCAL"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a published or dispatched message.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates a scoped failure.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures one message at the bus boundary.
type MessageEvent struct {
	Namespace  string      `cbor:"1,keyasint"`
	Identifier string      `cbor:"2,keyasint"`
	Source     wire.Source `cbor:"3,keyasint"`

	// Targets the message was published to (OUT only).
	Targets []string `cbor:"4,keyasint,omitempty"`

	// Payload is the raw CBOR payload.
	Payload []byte `cbor:"5,keyasint,omitempty"`

	// Subscribers is the number of callbacks invoked (IN only).
	// Zero means the message was dropped.
	Subscribers int `cbor:"6,keyasint"`
}

// Key returns the message key.
func (m *MessageEvent) Key() wire.Key {
	return wire.NewKey(m.Namespace, m.Identifier)
}

// NewMessageEvent builds the message part of an event from msg.
func NewMessageEvent(msg wire.Message) *MessageEvent {
	return &MessageEvent{
		Namespace:  msg.Key.Namespace,
		Identifier: msg.Key.Identifier,
		Source:     msg.Source,
		Payload:    msg.Payload,
	}
}

// StateChangeEvent captures coupling, line and arbitration changes.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// Name identifies the entity instance (line key, joint, switch unit).
	Name string `cbor:"2,keyasint,omitempty"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"3,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"4,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"5,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityCoupling indicates a joint was coupled or uncoupled.
	StateEntityCoupling StateEntity = 0
	// StateEntityLine indicates a coupling line changed its resolved value.
	StateEntityLine StateEntity = 1
	// StateEntityPermission indicates a line's propagation permission changed.
	StateEntityPermission StateEntity = 2
	// StateEntityArbitration indicates an arbitrated value changed.
	StateEntityArbitration StateEntity = 3
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityCoupling:
		return "COUPLING"
	case StateEntityLine:
		return "LINE"
	case StateEntityPermission:
		return "PERMISSION"
	case StateEntityArbitration:
		return "ARBITRATION"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures a failure local to one handler or operation.
type ErrorEventData struct {
	// Kind classifies the failure.
	Kind ErrorKind `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}

// ErrorKind classifies a captured failure.
type ErrorKind uint8

const (
	// ErrorKindDecode indicates a payload could not be decoded for a callback.
	ErrorKindDecode ErrorKind = 0
	// ErrorKindTransport indicates a publish could not be handed to the transport.
	ErrorKindTransport ErrorKind = 1
	// ErrorKindRouting indicates a target could not be resolved.
	ErrorKindRouting ErrorKind = 2
	// ErrorKindSettle indicates delivery did not settle.
	ErrorKindSettle ErrorKind = 3
)

// String returns the error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindDecode:
		return "DECODE"
	case ErrorKindTransport:
		return "TRANSPORT"
	case ErrorKindRouting:
		return "ROUTING"
	case ErrorKindSettle:
		return "SETTLE"
	default:
		return "UNKNOWN"
	}
}
