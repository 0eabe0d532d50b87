package wire

import (
	"errors"
	"fmt"
)

// ErrInvalidTarget is returned by Target.Validate.
var ErrInvalidTarget = errors.New("invalid message target")

// TargetKind selects how a message is routed.
type TargetKind uint8

const (
	// TargetAcrossCoupling sends to the neighbor behind one coupling.
	TargetAcrossCoupling TargetKind = 1
	// TargetMyself sends to the sending car only.
	TargetMyself TargetKind = 2
	// TargetBroadcast sends to the current car or the whole coupled group.
	TargetBroadcast TargetKind = 3
)

// String returns the target kind name.
func (k TargetKind) String() string {
	switch k {
	case TargetAcrossCoupling:
		return "AcrossCoupling"
	case TargetMyself:
		return "Myself"
	case TargetBroadcast:
		return "Broadcast"
	default:
		return "Unknown"
	}
}

// Target addresses a message. Build it with AcrossCoupling, Myself or Broadcast.
type Target struct {
	Kind TargetKind

	// Coupling and Cascade apply to TargetAcrossCoupling.
	Coupling Coupling
	Cascade  bool

	// AcrossCouplings and IncludeSelf apply to TargetBroadcast.
	AcrossCouplings bool
	IncludeSelf     bool
}

// AcrossCoupling addresses the neighbor behind coupling c.
// With cascade the message keeps travelling in the same direction.
func AcrossCoupling(c Coupling, cascade bool) Target {
	return Target{Kind: TargetAcrossCoupling, Coupling: c, Cascade: cascade}
}

// Myself addresses the sending car.
func Myself() Target {
	return Target{Kind: TargetMyself}
}

// Broadcast addresses the current car, and every coupled car if
// acrossCouplings is set. includeSelf controls delivery to the sender.
func Broadcast(acrossCouplings, includeSelf bool) Target {
	return Target{Kind: TargetBroadcast, AcrossCouplings: acrossCouplings, IncludeSelf: includeSelf}
}

// Validate checks the target is well-formed.
func (t Target) Validate() error {
	switch t.Kind {
	case TargetAcrossCoupling:
		if !t.Coupling.IsValid() {
			return fmt.Errorf("%w: coupling %d", ErrInvalidTarget, t.Coupling)
		}
	case TargetMyself, TargetBroadcast:
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidTarget, t.Kind)
	}
	return nil
}

// String returns a compact description used in logs.
func (t Target) String() string {
	switch t.Kind {
	case TargetAcrossCoupling:
		if t.Cascade {
			return fmt.Sprintf("across:%s+cascade", t.Coupling)
		}
		return "across:" + t.Coupling.String()
	case TargetMyself:
		return "myself"
	case TargetBroadcast:
		s := "broadcast:car"
		if t.AcrossCouplings {
			s = "broadcast:consist"
		}
		if !t.IncludeSelf {
			s += "-self"
		}
		return s
	default:
		return t.Kind.String()
	}
}
