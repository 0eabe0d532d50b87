package arbitration

import (
	"fmt"
	"log/slog"

	"github.com/consist-sim/consist-go/pkg/bus"
	"github.com/consist-sim/consist-go/pkg/log"
	"github.com/consist-sim/consist-go/pkg/messages"
	"github.com/consist-sim/consist-go/pkg/model"
	"github.com/consist-sim/consist-go/pkg/wire"
)

// Requests is the request activity reported on the last tick.
type Requests struct {
	Switch  bool
	Signal  bool
	Routing bool
}

// SwitchControlUnit resolves the direction a track switch is asked to take.
type SwitchControlUnit struct {
	name       string
	regular    *Arbiter[model.SwitchSender, model.RoutingDirection]
	wheelchair *Arbiter[model.SwitchSender, model.RoutingDirection]

	sensorID         uint32
	triggerZone      bool
	routingCode      uint32
	routingRequested bool
	requests         Requests

	bus    *bus.MessageBus
	logger *slog.Logger
}

// NewSwitchControlUnit creates a unit that arbitrates between senders in
// priority order and watches sensorID for its trigger zone.
func NewSwitchControlUnit(priorities []model.SwitchSender, sensorID uint32) (*SwitchControlUnit, error) {
	regular, err := New(priorities, model.RoutingOff)
	if err != nil {
		return nil, err
	}
	wheelchair, err := New(priorities, model.RoutingOff)
	if err != nil {
		return nil, err
	}
	return &SwitchControlUnit{
		name:       fmt.Sprintf("switch(%d)", sensorID),
		regular:    regular,
		wheelchair: wheelchair,
		sensorID:   sensorID,
		logger:     slog.Default(),
	}, nil
}

// Register subscribes the unit to routing messages on b.
func (u *SwitchControlUnit) Register(b *bus.MessageBus) error {
	u.bus = b
	u.logger = b.Logger().With("unit", u.name)

	if err := bus.Subscribe(b, messages.RoutingDirection, func(_ wire.Source, d model.RoutingDirection) {
		u.OnDirection(model.Vehicle(), d)
	}); err != nil {
		return err
	}
	if err := bus.Subscribe(b, messages.SwitchDirection, func(_ wire.Source, r messages.SwitchRequest) {
		if r.Wheelchair {
			u.OnWheelchairDirection(r.Sender, r.Direction)
			return
		}
		u.OnDirection(r.Sender, r.Direction)
	}); err != nil {
		return err
	}
	if err := bus.Subscribe(b, messages.RoutingCode, func(_ wire.Source, code uint32) {
		u.routingCode = code
	}); err != nil {
		return err
	}
	if err := bus.Subscribe(b, messages.RoutingRequest, func(_ wire.Source, on bool) {
		u.routingRequested = on
	}); err != nil {
		return err
	}
	return bus.Subscribe(b, messages.SensorTrigger, func(_ wire.Source, e messages.SensorEvent) {
		u.OnTrigger(e.Sensor, e.Entering)
	})
}

// OnDirection stores a regular direction request from sender.
func (u *SwitchControlUnit) OnDirection(sender model.SwitchSender, d model.RoutingDirection) {
	u.regular.Set(sender, d)
}

// OnWheelchairDirection stores a wheelchair route request from sender.
func (u *SwitchControlUnit) OnWheelchairDirection(sender model.SwitchSender, d model.RoutingDirection) {
	u.wheelchair.Set(sender, d)
}

// OnTrigger updates the trigger zone when sensor is this unit's sensor.
// Other sensors are ignored.
func (u *SwitchControlUnit) OnTrigger(sensor uint32, entering bool) {
	if sensor != u.sensorID || entering == u.triggerZone {
		return
	}
	u.triggerZone = entering
	u.record("trigger_zone", fmt.Sprint(!entering), fmt.Sprint(entering))
}

// Tick records the current request activity and recomputes both
// arbitrated directions.
func (u *SwitchControlUnit) Tick(switchRequest, signalRequest, routingRequest bool) {
	u.requests = Requests{Switch: switchRequest, Signal: signalRequest, Routing: routingRequest}

	prev := u.regular.Value()
	if v, changed := u.regular.Tick(); changed {
		u.logger.Debug("switch direction changed", "from", prev.String(), "to", v.String())
		u.record("direction", prev.String(), v.String())
	}
	prevWheelchair := u.wheelchair.Value()
	if v, changed := u.wheelchair.Tick(); changed {
		u.record("wheelchair_direction", prevWheelchair.String(), v.String())
	}
}

// Value returns the resolved regular direction.
func (u *SwitchControlUnit) Value() model.RoutingDirection {
	return u.regular.Value()
}

// ValueWheelchair returns the resolved wheelchair route direction.
func (u *SwitchControlUnit) ValueWheelchair() model.RoutingDirection {
	return u.wheelchair.Value()
}

// InTriggerZone reports whether a vehicle is inside the sensor zone.
func (u *SwitchControlUnit) InTriggerZone() bool {
	return u.triggerZone
}

// SensorID returns the watched sensor.
func (u *SwitchControlUnit) SensorID() uint32 {
	return u.sensorID
}

// RoutingCode returns the last routing code received.
func (u *SwitchControlUnit) RoutingCode() uint32 {
	return u.routingCode
}

// RoutingRequested reports whether a routing request is pending.
func (u *SwitchControlUnit) RoutingRequested() bool {
	return u.routingRequested
}

// RequestsActive returns the request activity of the last tick.
func (u *SwitchControlUnit) RequestsActive() Requests {
	return u.requests
}

func (u *SwitchControlUnit) record(what, old, new string) {
	if u.bus == nil {
		return
	}
	u.bus.RecordState(log.StateChangeEvent{
		Entity:   log.StateEntityArbitration,
		Name:     u.name + "/" + what,
		OldState: old,
		NewState: new,
	})
}
