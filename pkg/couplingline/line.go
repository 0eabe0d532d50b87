package couplingline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/consist-sim/consist-go/pkg/bus"
	"github.com/consist-sim/consist-go/pkg/log"
	"github.com/consist-sim/consist-go/pkg/messages"
	"github.com/consist-sim/consist-go/pkg/wire"
)

// ErrNoPolicy is returned when a line is configured without a policy.
var ErrNoPolicy = errors.New("coupling line has no merge policy")

// Config configures a Line.
type Config[T comparable] struct {
	// Topic carries the line's value between neighbours.
	Topic bus.Topic[T]

	// Policy merges contributions.
	Policy Policy[T]

	// Blocked closes propagation on a side from the start.
	// Use UpdatePermission to change it later.
	Blocked Sides[bool]

	// Samples are extra values CheckPolicy runs the merge contract on.
	Samples []T
}

// State is a copy of a line's internal state.
type State[T comparable] struct {
	Local    T
	Received Sides[T]
	LastSent Sides[T]
	Allowed  Sides[bool]
	Coupled  Sides[bool]
}

// Line keeps one value consistent with a car's two neighbours.
//
// A Line is owned by a single car and is not safe for concurrent use.
type Line[T comparable] struct {
	bus    *bus.MessageBus
	topic  bus.Topic[T]
	policy Policy[T]
	flip   func(T) T
	logger *slog.Logger

	state State[T]

	// Resolved value as of the last notification.
	value    T
	onChange []func(old, new T)
}

// New creates a line on b and subscribes it to its topic and to coupler
// notifications. Both sides start uncoupled.
func New[T comparable](b *bus.MessageBus, cfg Config[T]) (*Line[T], error) {
	if cfg.Policy == nil {
		return nil, fmt.Errorf("%s: %w", cfg.Topic, ErrNoPolicy)
	}
	if err := CheckPolicy(cfg.Policy, cfg.Samples...); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Topic, err)
	}

	l := &Line[T]{
		bus:    b,
		topic:  cfg.Topic,
		policy: cfg.Policy,
		logger: b.Logger().With("line", cfg.Topic.String()),
	}
	if f, ok := cfg.Policy.(Flipper[T]); ok {
		l.flip = f.Flip
	}
	l.state.Allowed = Sides[bool]{Front: !cfg.Blocked.Front, Rear: !cfg.Blocked.Rear}

	if err := bus.Subscribe(b, cfg.Topic, l.receive); err != nil {
		return nil, err
	}
	if err := bus.Subscribe(b, messages.Ecoupler, func(_ wire.Source, s messages.EcouplerState) {
		if !s.Coupling.IsValid() {
			return
		}
		l.OnCouplerEvent(s.Coupling, s.Connected)
	}); err != nil {
		return nil, err
	}
	return l, nil
}

// Topic returns the line's topic.
func (l *Line[T]) Topic() bus.Topic[T] {
	return l.topic
}

// OnChange registers fn to run whenever Value changes.
func (l *Line[T]) OnChange(fn func(old, new T)) {
	l.onChange = append(l.onChange, fn)
}

// UpdateLocal sets this car's own contribution. A value that is not equal
// to itself, such as a float NaN, is rejected.
func (l *Line[T]) UpdateLocal(v T) {
	if isNaN(v) {
		l.logger.Warn("ignoring local value not equal to itself", "value", v)
		return
	}
	if v == l.state.Local {
		return
	}
	l.state.Local = v
	l.recompute()
}

// OnCouplerEvent records a coupling connecting or disconnecting.
// Disconnecting forgets the value received over that side. What was last
// sent there is kept, so re-coupling only transmits a value that differs
// from it.
func (l *Line[T]) OnCouplerEvent(side wire.Coupling, connected bool) {
	if connected == l.state.Coupled.Get(side) {
		return
	}
	l.state.Coupled.Set(side, connected)
	if !connected {
		var zero T
		l.state.Received.Set(side, zero)
	}
	l.logger.Debug("coupler changed", "side", side.String(), "connected", connected)
	l.recompute()
}

// OnValueMessage records a value received from the neighbour on side.
// v must already be in this car's orientation. Values arriving over an
// uncoupled side are ignored, as are values not equal to themselves.
func (l *Line[T]) OnValueMessage(side wire.Coupling, v T) {
	if !l.state.Coupled.Get(side) {
		l.logger.Debug("ignoring value from uncoupled side", "side", side.String())
		return
	}
	if isNaN(v) {
		l.logger.Warn("ignoring received value not equal to itself", "side", side.String(), "value", v)
		return
	}
	if v == l.state.Received.Get(side) {
		return
	}
	l.state.Received.Set(side, v)
	l.recompute()
}

// UpdatePermission opens or closes propagation per side. The front is
// applied first, then the rear, each followed by its own recompute.
func (l *Line[T]) UpdatePermission(front, rear bool) {
	l.setAllowed(wire.CouplingFront, front)
	l.setAllowed(wire.CouplingRear, rear)
}

func (l *Line[T]) setAllowed(side wire.Coupling, allowed bool) {
	prev := l.state.Allowed.Get(side)
	if allowed == prev {
		return
	}
	l.state.Allowed.Set(side, allowed)
	l.bus.RecordState(log.StateChangeEvent{
		Entity:   log.StateEntityPermission,
		Name:     l.topic.String() + "/" + side.String(),
		OldState: permissionState(prev),
		NewState: permissionState(allowed),
	})
	l.recompute()
}

func permissionState(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "blocked"
}

// Value returns the consist-wide value as seen by this car.
func (l *Line[T]) Value() T {
	return l.policy.Merge(l.state.Local, l.policy.Merge(l.Front(), l.Rear()))
}

// Front returns the value received from the front neighbour, or the zero
// value if propagation from the front is not allowed.
func (l *Line[T]) Front() T {
	return l.gated(wire.CouplingFront)
}

// Rear returns the value received from the rear neighbour, or the zero
// value if propagation from the rear is not allowed.
func (l *Line[T]) Rear() T {
	return l.gated(wire.CouplingRear)
}

// Local returns this car's own contribution.
func (l *Line[T]) Local() T {
	return l.state.Local
}

// Snapshot returns a copy of the line's state.
func (l *Line[T]) Snapshot() State[T] {
	return l.state
}

func (l *Line[T]) gated(side wire.Coupling) T {
	if !l.state.Allowed.Get(side) {
		var zero T
		return zero
	}
	return l.state.Received.Get(side)
}

// outgoing is the value owed to the neighbour on side: the local value
// merged with what came from the other side, never with what came from
// side itself.
func (l *Line[T]) outgoing(side wire.Coupling) T {
	return l.policy.Merge(l.state.Local, l.gated(side.Opposite()))
}

func (l *Line[T]) recompute() {
	for _, side := range wire.Couplings {
		out := l.outgoing(side)
		if out == l.state.LastSent.Get(side) {
			continue
		}
		if !l.state.Coupled.Get(side) || !l.state.Allowed.Get(side) {
			continue
		}
		if err := l.send(side, out); err != nil {
			l.logger.Warn("send failed", "side", side.String(), "error", err)
			continue
		}
		l.state.LastSent.Set(side, out)
	}
	l.notify()
}

func (l *Line[T]) send(side wire.Coupling, v T) error {
	if l.flip != nil && side == wire.CouplingFront {
		v = l.flip(v)
	}
	return bus.Publish(l.bus, l.topic, v, wire.AcrossCoupling(side, false))
}

// receive handles a value message from the bus. Messages that did not
// arrive over a coupling are ignored.
func (l *Line[T]) receive(src wire.Source, v T) {
	side, ok := src.Coupling()
	if !ok {
		return
	}
	if l.flip != nil && side == wire.CouplingRear {
		v = l.flip(v)
	}
	l.OnValueMessage(side, v)
}

func (l *Line[T]) notify() {
	v := l.Value()
	if v == l.value {
		return
	}
	old := l.value
	l.value = v
	l.bus.RecordState(log.StateChangeEvent{
		Entity:   log.StateEntityLine,
		Name:     l.topic.String(),
		OldState: fmt.Sprint(old),
		NewState: fmt.Sprint(v),
	})
	for _, fn := range l.onChange {
		fn(old, v)
	}
}

// isNaN reports whether v is not equal to itself. Only float NaNs (or
// values containing one) behave this way.
func isNaN[T comparable](v T) bool {
	return v != v
}
