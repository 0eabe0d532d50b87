package couplingline

import (
	"cmp"
	"errors"
	"fmt"
)

// Policy errors.
var (
	ErrInvalidPolicy     = errors.New("invalid merge policy")
	ErrNotIdempotent     = errors.New("merge is not idempotent")
	ErrNoIdentity        = errors.New("zero value is not a merge identity")
	ErrNotDeterministic  = errors.New("merge is not deterministic")
	ErrFlipNotInvolution = errors.New("flip is not an involution")
)

// Policy combines two contributions into one.
type Policy[T any] interface {
	Merge(a, b T) T
}

// Flipper is implemented by policies whose values have a direction.
// Flip must be an involution and must map the zero value to itself.
type Flipper[T any] interface {
	Flip(v T) T
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc[T any] func(a, b T) T

// Merge calls f(a, b).
func (f PolicyFunc[T]) Merge(a, b T) T {
	return f(a, b)
}

// Or is the boolean "any car requests it" policy.
func Or() Policy[bool] {
	return PolicyFunc[bool](func(a, b bool) bool { return a || b })
}

// Max keeps the larger value. The zero value must be the smallest value in
// use, so negative contributions are not supported. Lines drop float NaN
// contributions since NaN never equals the last value sent.
func Max[T cmp.Ordered]() Policy[T] {
	return PolicyFunc[T](func(a, b T) T { return max(a, b) })
}

// SelfWins keeps a unless it is the zero value. Not commutative: the first
// argument, the local contribution, wins a conflict.
func SelfWins[T comparable]() Policy[T] {
	return PolicyFunc[T](func(a, b T) T {
		var zero T
		if a != zero {
			return a
		}
		return b
	})
}

// Mergeable is a value that knows how to merge with another of its kind.
type Mergeable[T any] interface {
	Merge(o T) T
}

// Orientable is a Mergeable value with a direction.
type Orientable[T any] interface {
	Mergeable[T]
	Flip() T
}

type merging[T Mergeable[T]] struct{}

func (merging[T]) Merge(a, b T) T { return a.Merge(b) }

// Merging uses T's own Merge method.
func Merging[T Mergeable[T]]() Policy[T] {
	return merging[T]{}
}

type oriented[T Orientable[T]] struct {
	merging[T]
}

func (oriented[T]) Flip(v T) T { return v.Flip() }

// Oriented uses T's own Merge and Flip methods.
func Oriented[T Orientable[T]]() Policy[T] {
	return oriented[T]{}
}

// CheckPolicy verifies the merge contract on the zero value and samples:
// merge(x, x) == x, merge(zero, x) == x == merge(x, zero), and for
// Flipper policies Flip(Flip(x)) == x and Flip(zero) == zero.
//
// Determinism is checked by evaluating every pair twice, the second time
// in reverse order after all other pairs have run. This catches policies
// whose result depends on call history; it cannot prove a policy pure.
func CheckPolicy[T comparable](p Policy[T], samples ...T) error {
	if p == nil {
		return fmt.Errorf("%w: nil", ErrInvalidPolicy)
	}
	var zero T
	values := append([]T{zero}, samples...)
	flipper, _ := p.(Flipper[T])

	for _, x := range values {
		if got := p.Merge(x, x); got != x {
			return fmt.Errorf("%w: %w: merge(%v, %v) = %v", ErrInvalidPolicy, ErrNotIdempotent, x, x, got)
		}
		if got := p.Merge(zero, x); got != x {
			return fmt.Errorf("%w: %w: merge(zero, %v) = %v", ErrInvalidPolicy, ErrNoIdentity, x, got)
		}
		if got := p.Merge(x, zero); got != x {
			return fmt.Errorf("%w: %w: merge(%v, zero) = %v", ErrInvalidPolicy, ErrNoIdentity, x, got)
		}
		if flipper != nil {
			if got := flipper.Flip(flipper.Flip(x)); got != x {
				return fmt.Errorf("%w: %w: flip(flip(%v)) = %v", ErrInvalidPolicy, ErrFlipNotInvolution, x, got)
			}
		}
	}
	if flipper != nil {
		if got := flipper.Flip(zero); got != zero {
			return fmt.Errorf("%w: %w: flip(zero) = %v", ErrInvalidPolicy, ErrFlipNotInvolution, got)
		}
	}

	first := make([]T, 0, len(values)*len(values))
	for _, a := range values {
		for _, b := range values {
			first = append(first, p.Merge(a, b))
		}
	}
	for i := len(first) - 1; i >= 0; i-- {
		a, b := values[i/len(values)], values[i%len(values)]
		if got := p.Merge(a, b); got != first[i] {
			return fmt.Errorf("%w: %w: merge(%v, %v) = %v, then %v", ErrInvalidPolicy, ErrNotDeterministic, a, b, first[i], got)
		}
	}
	return nil
}
