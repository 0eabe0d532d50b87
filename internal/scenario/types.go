// Package scenario loads and runs YAML consist scenarios.
//
// A scenario builds a consist, attaches coupling lines and switch control
// units to its cars and then executes steps (coupling, local value
// changes, permission changes, ticks, routing requests, sensor triggers),
// checking expectations after each step.
package scenario

import "strconv"

// Scenario is a single scenario loaded from YAML.
type Scenario struct {
	// ID is the unique scenario identifier (e.g., "SC-LINE-001").
	ID string `yaml:"id"`

	// Name is a human-readable name.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description,omitempty"`

	// Cars lists the consist head first.
	Cars []CarSpec `yaml:"cars"`

	// Lines lists the coupling line channels attached to every car.
	Lines []LineSpec `yaml:"lines"`

	// Switches lists switch control units.
	Switches []SwitchSpec `yaml:"switches,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Tags for categorising scenarios.
	Tags []string `yaml:"tags,omitempty"`

	// File is the path the scenario was loaded from.
	File string `yaml:"-"`
}

// CarSpec describes one car.
type CarSpec struct {
	Name     string `yaml:"name"`
	Reversed bool   `yaml:"reversed,omitempty"`
}

// LineSpec attaches a catalogue channel to every car.
type LineSpec struct {
	// Channel is the catalogue name (see Channels).
	Channel string `yaml:"channel"`

	// Blocked lists, per car, the sides ("front", "rear") closed at start.
	Blocked map[string][]string `yaml:"blocked,omitempty"`
}

// SwitchSpec attaches a switch control unit to a car.
type SwitchSpec struct {
	Car        string   `yaml:"car"`
	Sensor     uint32   `yaml:"sensor"`
	Priorities []string `yaml:"priorities"`
}

// Step is a single action.
type Step struct {
	// Action is the action to perform (e.g., "couple", "set_local").
	Action string `yaml:"action"`

	// Params are parameters for the action.
	Params map[string]any `yaml:"params,omitempty"`

	// Expect is checked after the action.
	Expect *Expectation `yaml:"expect,omitempty"`

	// Description explains what this step does.
	Description string `yaml:"description,omitempty"`
}

// Expectation lists observable values to check.
type Expectation struct {
	// Lines maps channel to car to expected resolved value.
	Lines map[string]map[string]any `yaml:"lines,omitempty"`

	// Switches maps car to expected switch state.
	Switches map[string]SwitchExpect `yaml:"switches,omitempty"`

	// Coupled maps joint index to expected coupling state.
	Coupled map[int]bool `yaml:"coupled,omitempty"`
}

// SwitchExpect is the expected state of a switch control unit.
type SwitchExpect struct {
	Value       string  `yaml:"value,omitempty"`
	Wheelchair  string  `yaml:"wheelchair,omitempty"`
	TriggerZone *bool   `yaml:"trigger_zone,omitempty"`
	RoutingCode *uint32 `yaml:"routing_code,omitempty"`
}

// LoadError provides details about a scenario loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Line is the line number where the error occurred (0 if unknown).
	Line int

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Line > 0 {
		return e.File + ":" + strconv.Itoa(e.Line) + ": " + msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
