package model

import (
	"fmt"
	"strconv"
	"strings"
)

// RoutingDirection is a requested track switch direction.
type RoutingDirection uint8

const (
	// RoutingOff is the neutral value: no request.
	RoutingOff      RoutingDirection = 0
	RoutingLeft     RoutingDirection = 1
	RoutingRight    RoutingDirection = 2
	RoutingStraight RoutingDirection = 3
)

// String returns the direction name.
func (r RoutingDirection) String() string {
	switch r {
	case RoutingOff:
		return "off"
	case RoutingLeft:
		return "left"
	case RoutingRight:
		return "right"
	case RoutingStraight:
		return "straight"
	default:
		return fmt.Sprintf("routing(%d)", uint8(r))
	}
}

// ParseRoutingDirection parses a name as returned by String.
func ParseRoutingDirection(s string) (RoutingDirection, error) {
	switch strings.ToLower(s) {
	case "off", "":
		return RoutingOff, nil
	case "left":
		return RoutingLeft, nil
	case "right":
		return RoutingRight, nil
	case "straight":
		return RoutingStraight, nil
	}
	return RoutingOff, fmt.Errorf("unknown routing direction %q", s)
}

// SenderKind distinguishes the vehicle itself from a numbered control module.
type SenderKind uint8

const (
	SenderVehicle SenderKind = 0
	SenderModule  SenderKind = 1
)

// SwitchSender identifies who requested a switch direction.
type SwitchSender struct {
	Kind   SenderKind `cbor:"1,keyasint"`
	Module uint32     `cbor:"2,keyasint,omitempty"`
}

// Vehicle returns the sender for requests made by the vehicle itself.
func Vehicle() SwitchSender {
	return SwitchSender{Kind: SenderVehicle}
}

// Module returns the sender for control module n.
func Module(n uint32) SwitchSender {
	return SwitchSender{Kind: SenderModule, Module: n}
}

// String returns "vehicle" or "module(n)".
func (s SwitchSender) String() string {
	if s.Kind == SenderModule {
		return "module(" + strconv.FormatUint(uint64(s.Module), 10) + ")"
	}
	return "vehicle"
}

// ParseSwitchSender parses "vehicle", "module(n)" or "module:n".
func ParseSwitchSender(s string) (SwitchSender, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "vehicle" {
		return Vehicle(), nil
	}
	var rest string
	switch {
	case strings.HasPrefix(s, "module(") && strings.HasSuffix(s, ")"):
		rest = s[len("module(") : len(s)-1]
	case strings.HasPrefix(s, "module:"):
		rest = s[len("module:"):]
	default:
		return SwitchSender{}, fmt.Errorf("unknown switch sender %q", s)
	}
	n, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return SwitchSender{}, fmt.Errorf("switch sender %q: %w", s, err)
	}
	return Module(uint32(n)), nil
}
