package consist

import (
	"fmt"
	"time"

	"github.com/consist-sim/consist-go/pkg/bus"
	"github.com/consist-sim/consist-go/pkg/log"
	"github.com/consist-sim/consist-go/pkg/wire"
)

// Car is one unit of a consist. It is the transport of its own bus.
type Car struct {
	Name     string
	Index    int
	Reversed bool
	Bus      *bus.MessageBus

	consist   *Consist
	tickHooks []func(dt time.Duration)
}

// OnTick registers fn to run on every consist tick.
func (car *Car) OnTick(fn func(dt time.Duration)) {
	car.tickHooks = append(car.tickHooks, fn)
}

// Coupled reports whether side is coupled to a neighbour.
func (car *Car) Coupled(side wire.Coupling) bool {
	_, _, ok := car.Neighbor(side)
	return ok
}

// Neighbor returns the car coupled at side and the coupling of that car
// that faces back.
func (car *Car) Neighbor(side wire.Coupling) (*Car, wire.Coupling, bool) {
	c := car.consist
	headward := car.faces(side)

	var joint, index int
	if headward {
		joint, index = car.Index-1, car.Index-1
	} else {
		joint, index = car.Index, car.Index+1
	}
	if joint < 0 || joint >= len(c.joints) || !c.joints[joint] {
		return nil, 0, false
	}
	n := c.cars[index]
	return n, n.couplingToward(!headward), true
}

// faces reports whether side points toward the head of the consist.
func (car *Car) faces(side wire.Coupling) bool {
	return (side == wire.CouplingFront) != car.Reversed
}

// couplingToward returns the coupling that points toward the head if
// headward is set, toward the tail otherwise.
func (car *Car) couplingToward(headward bool) wire.Coupling {
	if headward != car.Reversed {
		return wire.CouplingFront
	}
	return wire.CouplingRear
}

// Send implements bus.Transport. Messages are queued and delivered by the
// next Flush.
func (car *Car) Send(msg wire.Message, targets []wire.Target) error {
	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	for _, t := range targets {
		car.route(msg, t)
	}
	return nil
}

func (car *Car) route(msg wire.Message, t wire.Target) {
	c := car.consist
	switch t.Kind {
	case wire.TargetMyself:
		c.enqueue(car, msg.WithSource(wire.SourceSelf))

	case wire.TargetAcrossCoupling:
		side := t.Coupling
		from := car
		for {
			n, arrive, ok := from.Neighbor(side)
			if !ok {
				if from == car {
					car.Bus.Logger().Debug("no neighbour", "side", side.String(), "key", msg.Key.String())
					car.Bus.RecordError(log.ErrorKindRouting, fmt.Errorf("%s not coupled", side), msg.Key.String())
				}
				return
			}
			c.enqueue(n, msg.WithSource(wire.SourceFromCoupling(arrive)))
			if !t.Cascade {
				return
			}
			from, side = n, arrive.Opposite()
		}

	case wire.TargetBroadcast:
		if t.IncludeSelf {
			c.enqueue(car, msg.WithSource(wire.SourceSelf))
		}
		if !t.AcrossCouplings {
			return
		}
		for _, start := range wire.Couplings {
			from, side := car, start
			for {
				n, arrive, ok := from.Neighbor(side)
				if !ok {
					break
				}
				c.enqueue(n, msg.WithSource(wire.SourceFromCoupling(arrive)))
				from, side = n, arrive.Opposite()
			}
		}
	}
}

// Compile-time interface satisfaction check.
var _ bus.Transport = (*Car)(nil)
