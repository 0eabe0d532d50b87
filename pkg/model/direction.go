package model

import (
	"fmt"
	"strings"
)

// DrivingDirection reports which travel directions are requested anywhere
// in the consist, in the receiving car's orientation.
type DrivingDirection struct {
	Forward  bool `cbor:"1,keyasint"`
	Backward bool `cbor:"2,keyasint"`
}

// Merge ORs both flags.
func (d DrivingDirection) Merge(o DrivingDirection) DrivingDirection {
	return DrivingDirection{Forward: d.Forward || o.Forward, Backward: d.Backward || o.Backward}
}

// Flip swaps forward and backward.
func (d DrivingDirection) Flip() DrivingDirection {
	return DrivingDirection{Forward: d.Backward, Backward: d.Forward}
}

// String returns "neutral", "forward", "backward" or "conflict".
func (d DrivingDirection) String() string {
	switch {
	case d.Forward && d.Backward:
		return "conflict"
	case d.Forward:
		return "forward"
	case d.Backward:
		return "backward"
	default:
		return "neutral"
	}
}

// ParseDrivingDirection parses a name as returned by String.
func ParseDrivingDirection(s string) (DrivingDirection, error) {
	switch strings.ToLower(s) {
	case "neutral", "":
		return DrivingDirection{}, nil
	case "forward":
		return DrivingDirection{Forward: true}, nil
	case "backward":
		return DrivingDirection{Backward: true}, nil
	case "conflict":
		return DrivingDirection{Forward: true, Backward: true}, nil
	}
	return DrivingDirection{}, fmt.Errorf("unknown driving direction %q", s)
}

// Indicator is the turn indicator state requested anywhere in the consist.
type Indicator struct {
	Left  bool `cbor:"1,keyasint"`
	Right bool `cbor:"2,keyasint"`
	Warn  bool `cbor:"3,keyasint"`
}

// Merge ORs every lamp.
func (i Indicator) Merge(o Indicator) Indicator {
	return Indicator{Left: i.Left || o.Left, Right: i.Right || o.Right, Warn: i.Warn || o.Warn}
}

// Flip swaps left and right. Hazard lights are symmetric.
func (i Indicator) Flip() Indicator {
	return Indicator{Left: i.Right, Right: i.Left, Warn: i.Warn}
}

// String returns the lit lamps joined by "+", or "off".
func (i Indicator) String() string {
	var parts []string
	if i.Left {
		parts = append(parts, "left")
	}
	if i.Right {
		parts = append(parts, "right")
	}
	if i.Warn {
		parts = append(parts, "warn")
	}
	if len(parts) == 0 {
		return "off"
	}
	return strings.Join(parts, "+")
}

// ParseIndicator parses a value as returned by String.
func ParseIndicator(s string) (Indicator, error) {
	var i Indicator
	if s == "" || strings.EqualFold(s, "off") {
		return i, nil
	}
	for _, part := range strings.Split(s, "+") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "left":
			i.Left = true
		case "right":
			i.Right = true
		case "warn":
			i.Warn = true
		default:
			return Indicator{}, fmt.Errorf("unknown indicator lamp %q", part)
		}
	}
	return i, nil
}
