package couplingline

import (
	"fmt"

	"github.com/consist-sim/consist-go/pkg/wire"
)

// Sides holds one value per coupling.
type Sides[T any] struct {
	Front T
	Rear  T
}

// Both returns Sides with v on both couplings.
func Both[T any](v T) Sides[T] {
	return Sides[T]{Front: v, Rear: v}
}

// Get returns the value for c.
func (s Sides[T]) Get(c wire.Coupling) T {
	if c == wire.CouplingRear {
		return s.Rear
	}
	return s.Front
}

// Set stores v for c.
func (s *Sides[T]) Set(c wire.Coupling, v T) {
	if c == wire.CouplingRear {
		s.Rear = v
		return
	}
	s.Front = v
}

// String returns "front=<v> rear=<v>".
func (s Sides[T]) String() string {
	return fmt.Sprintf("front=%v rear=%v", s.Front, s.Rear)
}
