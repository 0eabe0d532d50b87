package wire

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ErrInvalidKey is returned for keys with an empty namespace or identifier.
var ErrInvalidKey = errors.New("invalid message key")

// Key identifies the shape of a message payload.
// Keys are compared by exact equality of both parts.
type Key struct {
	Namespace  string `cbor:"1,keyasint"`
	Identifier string `cbor:"2,keyasint"`
}

// NewKey returns the key for namespace and identifier.
func NewKey(namespace, identifier string) Key {
	return Key{Namespace: namespace, Identifier: identifier}
}

// String returns "namespace/identifier".
func (k Key) String() string {
	return k.Namespace + "/" + k.Identifier
}

// Validate checks that both parts of the key are set.
func (k Key) Validate() error {
	if k.Namespace == "" || k.Identifier == "" {
		return fmt.Errorf("%w: %q", ErrInvalidKey, k.String())
	}
	return nil
}

// Message is a typed payload plus routing metadata.
//
// CBOR encoding:
//
//	{
//	  1: {1: namespace, 2: identifier},
//	  2: source,       // uint8: 0=None, 1=Front, 2=Rear, 3=Self
//	  3: payload       // CBOR-encoded value
//	}
type Message struct {
	Key     Key             `cbor:"1,keyasint"`
	Source  Source          `cbor:"2,keyasint"`
	Payload cbor.RawMessage `cbor:"3,keyasint"`
}

// NewMessage encodes value as the payload of a new message under key.
// The source is SourceNone until the message is delivered.
func NewMessage(key Key, value any) (Message, error) {
	if err := key.Validate(); err != nil {
		return Message{}, err
	}
	payload, err := Marshal(value)
	if err != nil {
		return Message{}, fmt.Errorf("failed to encode %s payload: %w", key, err)
	}
	return Message{Key: key, Payload: payload}, nil
}

// WithSource returns a copy of the message arriving from src.
func (m Message) WithSource(src Source) Message {
	m.Source = src
	return m
}

// Decode decodes the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", m.Key)
	}
	if err := Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", m.Key, err)
	}
	return nil
}
