package arbitration

import (
	"errors"
	"fmt"
	"slices"
)

// ErrDuplicateSender is returned when a priority list names a sender twice.
var ErrDuplicateSender = errors.New("duplicate sender in priority list")

// Arbiter picks the highest priority non-neutral value.
type Arbiter[S, V comparable] struct {
	priorities []S
	neutral    V
	values     map[S]V
	current    V
}

// New creates an arbiter. priorities lists senders highest first.
func New[S, V comparable](priorities []S, neutral V) (*Arbiter[S, V], error) {
	seen := make(map[S]struct{}, len(priorities))
	for _, s := range priorities {
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateSender, s)
		}
		seen[s] = struct{}{}
	}
	return &Arbiter[S, V]{
		priorities: slices.Clone(priorities),
		neutral:    neutral,
		values:     make(map[S]V),
		current:    neutral,
	}, nil
}

// Set stores the value of sender. Senders missing from the priority list
// are stored but never selected.
func (a *Arbiter[S, V]) Set(sender S, v V) {
	a.values[sender] = v
}

// Get returns the stored value of sender.
func (a *Arbiter[S, V]) Get(sender S) (V, bool) {
	v, ok := a.values[sender]
	return v, ok
}

// Resolve returns the value of the first sender in priority order whose
// value is not neutral, or neutral if there is none.
func (a *Arbiter[S, V]) Resolve() V {
	for _, s := range a.priorities {
		if v, ok := a.values[s]; ok && v != a.neutral {
			return v
		}
	}
	return a.neutral
}

// Tick recomputes the current value and reports whether it changed.
func (a *Arbiter[S, V]) Tick() (V, bool) {
	next := a.Resolve()
	changed := next != a.current
	a.current = next
	return next, changed
}

// Value returns the value computed by the last Tick.
func (a *Arbiter[S, V]) Value() V {
	return a.current
}

// Priorities returns a copy of the priority list.
func (a *Arbiter[S, V]) Priorities() []S {
	return slices.Clone(a.priorities)
}

// Len returns the number of senders with a stored value.
func (a *Arbiter[S, V]) Len() int {
	return len(a.values)
}
