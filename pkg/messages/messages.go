package messages

import (
	"github.com/consist-sim/consist-go/pkg/bus"
	"github.com/consist-sim/consist-go/pkg/model"
	"github.com/consist-sim/consist-go/pkg/wire"
)

// Namespaces.
const (
	NamespaceTrainBus = "Std_TrainBus"
	NamespaceCoupler  = "Std_Coupler"
	NamespacePis      = "Std_Pis"
)

// EcouplerState reports the physical state of one coupling of the
// receiving car.
type EcouplerState struct {
	Coupling  wire.Coupling `cbor:"1,keyasint"`
	Connected bool          `cbor:"2,keyasint"`
}

// Ecoupler is sent by the host to a car (Myself target) whenever one of its
// couplings connects or disconnects.
var Ecoupler = bus.NewTopic[EcouplerState](NamespaceTrainBus, "Ecoupler")

// Coupling line topics.
var (
	CarActive      = bus.NewTopic[bool](NamespaceCoupler, "CarActive")
	Reverser       = bus.NewTopic[model.DrivingDirection](NamespaceCoupler, "Reverser")
	Throttle       = bus.NewTopic[float64](NamespaceCoupler, "Throttle")
	ThrottleRear   = bus.NewTopic[float64](NamespaceCoupler, "ThrottleRear")
	Railbrake      = bus.NewTopic[bool](NamespaceCoupler, "Railbrake")
	SpringBrake    = bus.NewTopic[bool](NamespaceCoupler, "SpringBrake")
	Sanding        = bus.NewTopic[bool](NamespaceCoupler, "Sanding")
	EmergencyBrake = bus.NewTopic[bool](NamespaceCoupler, "EmergencyBrake")
	DoorControl    = bus.NewTopic[model.DoorControl](NamespaceCoupler, "DoorControl")
	PowerlinePower = bus.NewTopic[float64](NamespaceCoupler, "PowerlinePower")
	ShuntingSignal = bus.NewTopic[bool](NamespaceCoupler, "ShuntingSignal")
	InteriorLight  = bus.NewTopic[bool](NamespaceCoupler, "InteriorLight")
	Indicator      = bus.NewTopic[model.Indicator](NamespaceCoupler, "Indicator")
	DoorsOpen      = bus.NewTopic[bool](NamespaceCoupler, "DoorsOpen")
	BuggyRequest   = bus.NewTopic[bool](NamespaceCoupler, "BuggyRequest")
	BuggyReset     = bus.NewTopic[bool](NamespaceCoupler, "BuggyReset")
	StopRequest    = bus.NewTopic[bool](NamespaceCoupler, "StopRequest")
)

// SwitchRequest is a switch direction request tagged with its sender.
type SwitchRequest struct {
	Sender     model.SwitchSender     `cbor:"1,keyasint"`
	Direction  model.RoutingDirection `cbor:"2,keyasint"`
	Wheelchair bool                   `cbor:"3,keyasint,omitempty"`
}

// SensorEvent reports a vehicle entering or leaving a trackside sensor zone.
type SensorEvent struct {
	Sensor   uint32 `cbor:"1,keyasint"`
	Entering bool   `cbor:"2,keyasint"`
}

// PIS topics.
var (
	// RoutingDirection is the vehicle's own direction request.
	RoutingDirection = bus.NewTopic[model.RoutingDirection](NamespacePis, "RoutingDirection")
	SwitchDirection  = bus.NewTopic[SwitchRequest](NamespacePis, "SwitchDirection")
	RoutingCode      = bus.NewTopic[uint32](NamespacePis, "RoutingCode")
	// RoutingRequest asks switch control units to signal a pending request.
	RoutingRequest = bus.NewTopic[bool](NamespacePis, "RoutingRequest")
	SensorTrigger  = bus.NewTopic[SensorEvent](NamespacePis, "SensorTrigger")
)
