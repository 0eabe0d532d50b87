package scenario

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/consist-sim/consist-go/pkg/bus"
	"github.com/consist-sim/consist-go/pkg/couplingline"
	"github.com/consist-sim/consist-go/pkg/messages"
	"github.com/consist-sim/consist-go/pkg/model"
	"github.com/consist-sim/consist-go/pkg/wire"
)

// Channel is a coupling line on one car, driven by strings.
type Channel interface {
	// Name returns the catalogue name.
	Name() string

	// SetLocal parses s and sets the car's own contribution.
	SetLocal(s string) error

	// Permit opens or closes propagation per side.
	Permit(front, rear bool)

	// Value returns the resolved value.
	Value() string

	// Local returns the car's own contribution.
	Local() string

	// Matches reports whether the resolved value equals s.
	Matches(s string) (bool, error)

	// State describes the line's internal state.
	State() string
}

type channelDef struct {
	build func(b *bus.MessageBus, blocked couplingline.Sides[bool]) (Channel, error)
}

type lineChannel[T comparable] struct {
	name  string
	line  *couplingline.Line[T]
	parse func(string) (T, error)
}

func define[T comparable](name string, topic bus.Topic[T], policy couplingline.Policy[T], parse func(string) (T, error), samples ...T) channelDef {
	return channelDef{
		build: func(b *bus.MessageBus, blocked couplingline.Sides[bool]) (Channel, error) {
			l, err := couplingline.New(b, couplingline.Config[T]{
				Topic:   topic,
				Policy:  policy,
				Blocked: blocked,
				Samples: samples,
			})
			if err != nil {
				return nil, err
			}
			return &lineChannel[T]{name: name, line: l, parse: parse}, nil
		},
	}
}

func (c *lineChannel[T]) Name() string { return c.name }

func (c *lineChannel[T]) SetLocal(s string) error {
	v, err := c.parse(s)
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	c.line.UpdateLocal(v)
	return nil
}

func (c *lineChannel[T]) Permit(front, rear bool) {
	c.line.UpdatePermission(front, rear)
}

func (c *lineChannel[T]) Value() string { return fmt.Sprint(c.line.Value()) }

func (c *lineChannel[T]) Local() string { return fmt.Sprint(c.line.Local()) }

func (c *lineChannel[T]) Matches(s string) (bool, error) {
	v, err := c.parse(s)
	if err != nil {
		return false, fmt.Errorf("%s: %w", c.name, err)
	}
	return c.line.Value() == v, nil
}

func (c *lineChannel[T]) State() string {
	st := c.line.Snapshot()
	return fmt.Sprintf("local=%v received[%v] sent[%v] allowed[%v] coupled[%v]",
		st.Local, st.Received, st.LastSent, st.Allowed, st.Coupled)
}

// catalogue maps channel names to their topic and policy.
var catalogue = map[string]channelDef{
	"car_active":      define("car_active", messages.CarActive, couplingline.Or(), strconv.ParseBool),
	"reverser":        define("reverser", messages.Reverser, couplingline.Oriented[model.DrivingDirection](), model.ParseDrivingDirection, model.DrivingDirection{Forward: true}, model.DrivingDirection{Backward: true}),
	"throttle":        define("throttle", messages.Throttle, couplingline.Max[float64](), parseLevel, 0.5, 1),
	"throttle_rear":   define("throttle_rear", messages.ThrottleRear, couplingline.Max[float64](), parseLevel, 0.5, 1),
	"railbrake":       define("railbrake", messages.Railbrake, couplingline.Or(), strconv.ParseBool),
	"spring_brake":    define("spring_brake", messages.SpringBrake, couplingline.Or(), strconv.ParseBool),
	"sanding":         define("sanding", messages.Sanding, couplingline.Or(), strconv.ParseBool),
	"emergency_brake": define("emergency_brake", messages.EmergencyBrake, couplingline.Or(), strconv.ParseBool),
	"door_control":    define("door_control", messages.DoorControl, couplingline.Oriented[model.DoorControl](), model.ParseDoorControl, model.DoorControl{Left: model.DoorOpen}, model.DoorControl{Right: model.DoorRelease}),
	"powerline_power": define("powerline_power", messages.PowerlinePower, couplingline.Max[float64](), parseLevel, 600, 750),
	"shunting_signal": define("shunting_signal", messages.ShuntingSignal, couplingline.Or(), strconv.ParseBool),
	"interior_light":  define("interior_light", messages.InteriorLight, couplingline.Or(), strconv.ParseBool),
	"indicator":       define("indicator", messages.Indicator, couplingline.Oriented[model.Indicator](), model.ParseIndicator, model.Indicator{Left: true}, model.Indicator{Warn: true}),
	"doors_open":      define("doors_open", messages.DoorsOpen, couplingline.Or(), strconv.ParseBool),
	"buggy_request":   define("buggy_request", messages.BuggyRequest, couplingline.Or(), strconv.ParseBool),
	"buggy_reset":     define("buggy_reset", messages.BuggyReset, couplingline.Or(), strconv.ParseBool),
	"stop_request":    define("stop_request", messages.StopRequest, couplingline.Or(), strconv.ParseBool),
}

// Channels returns the catalogue channel names, sorted.
func Channels() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// parseLevel parses a non-negative level such as a throttle position.
func parseLevel(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("level %q is not a number", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("level %v is negative", v)
	}
	return v, nil
}

func parseSide(s string) (wire.Coupling, error) {
	switch strings.ToLower(s) {
	case "front":
		return wire.CouplingFront, nil
	case "rear":
		return wire.CouplingRear, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}
