package model

import (
	"fmt"
	"strings"
)

// DoorTarget is the door command requested for one side of the consist.
// Values are ordered by precedence: Open beats Release, Release beats
// FastClose, FastClose beats Close.
type DoorTarget uint8

const (
	DoorClose     DoorTarget = 0
	DoorFastClose DoorTarget = 1
	DoorRelease   DoorTarget = 2
	DoorOpen      DoorTarget = 3
)

var doorTargetNames = map[DoorTarget]string{
	DoorClose:     "close",
	DoorFastClose: "fast_close",
	DoorRelease:   "release",
	DoorOpen:      "open",
}

// String returns the command name.
func (d DoorTarget) String() string {
	if s, ok := doorTargetNames[d]; ok {
		return s
	}
	return fmt.Sprintf("door(%d)", uint8(d))
}

// Merge returns the command with the higher precedence.
func (d DoorTarget) Merge(o DoorTarget) DoorTarget {
	return max(d, o)
}

// ParseDoorTarget parses a command name as returned by String.
func ParseDoorTarget(s string) (DoorTarget, error) {
	for d, name := range doorTargetNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown door target %q", s)
}

// DoorControl carries the door commands for both sides of the consist.
// Sides are given in the sending car's orientation.
type DoorControl struct {
	Left  DoorTarget `cbor:"1,keyasint"`
	Right DoorTarget `cbor:"2,keyasint"`
}

// Merge merges each side.
func (d DoorControl) Merge(o DoorControl) DoorControl {
	return DoorControl{Left: d.Left.Merge(o.Left), Right: d.Right.Merge(o.Right)}
}

// Flip swaps sides.
func (d DoorControl) Flip() DoorControl {
	return DoorControl{Left: d.Right, Right: d.Left}
}

// String returns "left/right".
func (d DoorControl) String() string {
	return d.Left.String() + "/" + d.Right.String()
}

// ParseDoorControl parses "left/right" as returned by String.
func ParseDoorControl(s string) (DoorControl, error) {
	l, r, ok := strings.Cut(s, "/")
	if !ok {
		return DoorControl{}, fmt.Errorf("door control %q: want left/right", s)
	}
	left, err := ParseDoorTarget(l)
	if err != nil {
		return DoorControl{}, err
	}
	right, err := ParseDoorTarget(r)
	if err != nil {
		return DoorControl{}, err
	}
	return DoorControl{Left: left, Right: right}, nil
}
