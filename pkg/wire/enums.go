package wire

// Coupling names one of the two attachment points of a car.
type Coupling uint8

const (
	// CouplingFront is the coupling at the car's front end.
	CouplingFront Coupling = 0
	// CouplingRear is the coupling at the car's rear end.
	CouplingRear Coupling = 1
)

// Couplings lists both couplings in recomputation order.
var Couplings = [2]Coupling{CouplingFront, CouplingRear}

// String returns the coupling name.
func (c Coupling) String() string {
	switch c {
	case CouplingFront:
		return "FRONT"
	case CouplingRear:
		return "REAR"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for Front and Rear.
func (c Coupling) IsValid() bool {
	return c == CouplingFront || c == CouplingRear
}

// Opposite returns the other coupling of the same car.
func (c Coupling) Opposite() Coupling {
	if c == CouplingFront {
		return CouplingRear
	}
	return CouplingFront
}

// Source indicates where a delivered message came from.
type Source uint8

const (
	// SourceNone marks a message that has not been delivered yet.
	SourceNone Source = 0
	// SourceFront marks a message received over the front coupling.
	SourceFront Source = 1
	// SourceRear marks a message received over the rear coupling.
	SourceRear Source = 2
	// SourceSelf marks a message the car sent to itself.
	SourceSelf Source = 3
)

// SourceFromCoupling returns the source of a message arriving over c.
func SourceFromCoupling(c Coupling) Source {
	if c == CouplingFront {
		return SourceFront
	}
	return SourceRear
}

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceNone:
		return "NONE"
	case SourceFront:
		return "FRONT"
	case SourceRear:
		return "REAR"
	case SourceSelf:
		return "SELF"
	default:
		return "UNKNOWN"
	}
}

// Coupling returns the coupling the message arrived over.
// The boolean is false for SourceNone and SourceSelf.
func (s Source) Coupling() (Coupling, bool) {
	switch s {
	case SourceFront:
		return CouplingFront, true
	case SourceRear:
		return CouplingRear, true
	default:
		return 0, false
	}
}

// IsFront returns true if the message arrived over the front coupling.
func (s Source) IsFront() bool { return s == SourceFront }

// IsRear returns true if the message arrived over the rear coupling.
func (s Source) IsRear() bool { return s == SourceRear }
