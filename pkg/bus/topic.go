package bus

import (
	"reflect"

	"github.com/consist-sim/consist-go/pkg/wire"
)

// Topic binds a message key to its payload type T.
type Topic[T any] struct {
	key wire.Key
}

// NewTopic returns the topic for namespace and identifier carrying T.
func NewTopic[T any](namespace, identifier string) Topic[T] {
	return Topic[T]{key: wire.NewKey(namespace, identifier)}
}

// Key returns the topic's message key.
func (t Topic[T]) Key() wire.Key {
	return t.key
}

// String returns the key as "namespace/identifier".
func (t Topic[T]) String() string {
	return t.key.String()
}

// Message encodes v as a message on this topic.
func (t Topic[T]) Message(v T) (wire.Message, error) {
	return wire.NewMessage(t.key, v)
}

// Decode extracts a T from msg.
func (t Topic[T]) Decode(msg wire.Message) (T, error) {
	var v T
	err := msg.Decode(&v)
	return v, err
}

// Subscribe registers fn for messages on topic. The payload is decoded into
// T before fn runs; a payload that does not decode skips fn.
func Subscribe[T any](b *MessageBus, topic Topic[T], fn func(src wire.Source, v T)) error {
	if err := b.claim(topic.key, reflect.TypeOf((*T)(nil)).Elem()); err != nil {
		return err
	}
	b.Register(topic.key, func(msg wire.Message) {
		v, err := topic.Decode(msg)
		if err != nil {
			b.decodeFailed(msg, err)
			return
		}
		fn(msg.Source, v)
	})
	return nil
}

// Publish sends v on topic to targets.
func Publish[T any](b *MessageBus, topic Topic[T], v T, targets ...wire.Target) error {
	if err := b.claim(topic.key, reflect.TypeOf((*T)(nil)).Elem()); err != nil {
		return err
	}
	return b.Publish(topic.key, v, targets...)
}
