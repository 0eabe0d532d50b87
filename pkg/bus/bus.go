package bus

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/consist-sim/consist-go/pkg/log"
	"github.com/consist-sim/consist-go/pkg/wire"
)

// Bus errors.
var (
	ErrNoTransport   = errors.New("bus has no transport")
	ErrNoTargets     = errors.New("publish without targets")
	ErrShapeMismatch = errors.New("payload shape mismatch")
)

// Handler receives a dispatched message.
type Handler func(msg wire.Message)

// Transport hands published messages to the host for delivery.
type Transport interface {
	// Send delivers msg to every target. The host sets the message source
	// on arrival. Delivery must not re-enter the sending bus before Send
	// returns; hosts queue messages and dispatch them afterwards.
	Send(msg wire.Message, targets []wire.Target) error
}

// Config configures a MessageBus.
type Config struct {
	// CarID identifies the owning car in log output.
	CarID string

	// SessionID identifies the consist run in protocol events.
	SessionID string

	// Transport delivers published messages. May be set later with SetTransport.
	Transport Transport

	// ProtocolLogger receives message, state and error events.
	// Nil disables capture.
	ProtocolLogger log.Logger

	// Logger is used for operational logging. Nil means slog.Default().
	Logger *slog.Logger

	// Clock stamps protocol events. Nil means time.Now.
	Clock func() time.Time
}

// MessageBus is a car's publish/subscribe registry.
type MessageBus struct {
	config   Config
	logger   *slog.Logger
	protocol log.Logger
	clock    func() time.Time

	handlers map[wire.Key][]Handler

	// Payload type claimed per key by typed topics.
	shapes map[wire.Key]reflect.Type
}

// New creates a bus for carID that publishes through transport.
func New(carID string, transport Transport) *MessageBus {
	return NewWithConfig(Config{CarID: carID, Transport: transport})
}

// NewWithConfig creates a bus with custom configuration.
func NewWithConfig(config Config) *MessageBus {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	return &MessageBus{
		config:   config,
		logger:   logger.With("car", config.CarID),
		protocol: log.OrNoop(config.ProtocolLogger),
		clock:    clock,
		handlers: make(map[wire.Key][]Handler),
		shapes:   make(map[wire.Key]reflect.Type),
	}
}

// CarID returns the owning car's identifier.
func (b *MessageBus) CarID() string {
	return b.config.CarID
}

// SessionID returns the session identifier stamped on protocol events.
func (b *MessageBus) SessionID() string {
	return b.config.SessionID
}

// Logger returns the bus's operational logger.
func (b *MessageBus) Logger() *slog.Logger {
	return b.logger
}

// SetTransport replaces the transport used by Publish.
func (b *MessageBus) SetTransport(t Transport) {
	b.config.Transport = t
}

// Register stores h under key. Registering the same handler twice makes it
// run twice per dispatch. Nil handlers are ignored.
func (b *MessageBus) Register(key wire.Key, h Handler) {
	if h == nil {
		return
	}
	b.handlers[key] = append(b.handlers[key], h)
}

// Dispatch invokes every handler registered under msg.Key, in registration
// order, and returns how many ran. Messages with no subscription are dropped.
func (b *MessageBus) Dispatch(msg wire.Message) int {
	handlers := b.handlers[msg.Key]

	event := log.NewMessageEvent(msg)
	event.Subscribers = len(handlers)
	b.record(log.DirectionIn, log.CategoryMessage, func(e *log.Event) { e.Message = event })

	if len(handlers) == 0 {
		b.logger.Debug("dropping message without subscription", "key", msg.Key.String(), "source", msg.Source.String())
		return 0
	}

	// Handlers registered during dispatch run from the next message on.
	for _, h := range handlers {
		h(msg)
	}
	return len(handlers)
}

// Publish encodes value under key and hands it to the transport.
func (b *MessageBus) Publish(key wire.Key, value any, targets ...wire.Target) error {
	msg, err := wire.NewMessage(key, value)
	if err != nil {
		return err
	}
	return b.PublishMessage(msg, targets...)
}

// PublishMessage hands an already encoded message to the transport.
func (b *MessageBus) PublishMessage(msg wire.Message, targets ...wire.Target) error {
	if err := msg.Key.Validate(); err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: %s", ErrNoTargets, msg.Key)
	}
	names := make([]string, len(targets))
	for i, t := range targets {
		if err := t.Validate(); err != nil {
			return err
		}
		names[i] = t.String()
	}
	if b.config.Transport == nil {
		return fmt.Errorf("%w: %s", ErrNoTransport, msg.Key)
	}

	event := log.NewMessageEvent(msg)
	event.Targets = names
	b.record(log.DirectionOut, log.CategoryMessage, func(e *log.Event) { e.Message = event })

	if err := b.config.Transport.Send(msg, targets); err != nil {
		b.logger.Warn("publish failed", "key", msg.Key.String(), "targets", strings.Join(names, ","), "error", err)
		b.RecordError(log.ErrorKindTransport, err, msg.Key.String())
		return fmt.Errorf("publish %s: %w", msg.Key, err)
	}
	return nil
}

// SubscriberCount returns the number of handlers registered under key.
func (b *MessageBus) SubscriberCount(key wire.Key) int {
	return len(b.handlers[key])
}

// Keys returns all keys with at least one handler, sorted.
func (b *MessageBus) Keys() []wire.Key {
	keys := make([]wire.Key, 0, len(b.handlers))
	for k := range b.handlers {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y wire.Key) int {
		return strings.Compare(x.String(), y.String())
	})
	return keys
}

// RecordState emits a state change event to the protocol logger.
func (b *MessageBus) RecordState(change log.StateChangeEvent) {
	b.record(log.DirectionLocal, log.CategoryState, func(e *log.Event) { e.StateChange = &change })
}

// RecordError emits an error event to the protocol logger.
func (b *MessageBus) RecordError(kind log.ErrorKind, err error, context string) {
	b.record(log.DirectionLocal, log.CategoryError, func(e *log.Event) {
		e.Error = &log.ErrorEventData{Kind: kind, Message: err.Error(), Context: context}
	})
}

// claim binds key to payload type t, or fails if another type owns it.
func (b *MessageBus) claim(key wire.Key, t reflect.Type) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if owner, ok := b.shapes[key]; ok && owner != t {
		return fmt.Errorf("%w: %s carries %s, not %s", ErrShapeMismatch, key, owner, t)
	}
	b.shapes[key] = t
	return nil
}

// Shape returns the payload type claimed for key, if any.
func (b *MessageBus) Shape(key wire.Key) (reflect.Type, bool) {
	t, ok := b.shapes[key]
	return t, ok
}

func (b *MessageBus) decodeFailed(msg wire.Message, err error) {
	b.logger.Warn("skipping callback", "key", msg.Key.String(), "source", msg.Source.String(), "error", err)
	b.record(log.DirectionIn, log.CategoryError, func(e *log.Event) {
		e.Error = &log.ErrorEventData{Kind: log.ErrorKindDecode, Message: err.Error(), Context: msg.Key.String()}
	})
}

func (b *MessageBus) record(dir log.Direction, cat log.Category, fill func(*log.Event)) {
	if _, off := b.protocol.(log.NoopLogger); off {
		return
	}
	e := log.Event{
		Timestamp: b.clock(),
		SessionID: b.config.SessionID,
		CarID:     b.config.CarID,
		Direction: dir,
		Category:  cat,
	}
	fill(&e)
	b.protocol.Log(e)
}
