package consist

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/consist-sim/consist-go/pkg/bus"
	"github.com/consist-sim/consist-go/pkg/log"
	"github.com/consist-sim/consist-go/pkg/messages"
	"github.com/consist-sim/consist-go/pkg/wire"
)

// Consist errors.
var (
	ErrNotSettled   = errors.New("consist did not settle")
	ErrNoCars       = errors.New("consist has no cars")
	ErrDuplicateCar = errors.New("duplicate car name")
	ErrNoJoint      = errors.New("no such joint")
)

// DefaultMaxDeliveries bounds the deliveries of a single Flush.
const DefaultMaxDeliveries = 100_000

// Config configures a Consist.
type Config struct {
	// SessionID identifies the run in protocol events. Zero means a new
	// random UUID.
	SessionID uuid.UUID

	// MaxDeliveries bounds a single Flush. Zero means DefaultMaxDeliveries.
	MaxDeliveries int

	// ProtocolLogger receives every car's protocol events.
	ProtocolLogger log.Logger

	// Logger is used for operational logging. Nil means slog.Default().
	Logger *slog.Logger

	// Clock stamps protocol events. Nil means time.Now.
	Clock func() time.Time
}

// CarSpec describes a car to add to a consist.
type CarSpec struct {
	Name     string
	Reversed bool
}

type delivery struct {
	to  *Car
	msg wire.Message
}

// Consist is an ordered chain of cars.
//
// A Consist is not safe for concurrent use.
type Consist struct {
	config  Config
	session uuid.UUID
	logger  *slog.Logger

	cars   []*Car
	byName map[string]*Car
	joints []bool

	queue     []delivery
	flushing  bool
	delivered int
}

// New creates a consist of the given cars, head first, with every joint
// uncoupled.
func New(config Config, specs ...CarSpec) (*Consist, error) {
	if len(specs) == 0 {
		return nil, ErrNoCars
	}
	if config.MaxDeliveries <= 0 {
		config.MaxDeliveries = DefaultMaxDeliveries
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	session := config.SessionID
	if session == uuid.Nil {
		session = uuid.New()
	}

	c := &Consist{
		config:  config,
		session: session,
		logger:  logger.With("session", session.String()),
		byName:  make(map[string]*Car, len(specs)),
		joints:  make([]bool, len(specs)-1),
	}
	for i, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("car %d: empty name", i)
		}
		if _, dup := c.byName[spec.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCar, spec.Name)
		}
		car := &Car{
			Name:     spec.Name,
			Index:    i,
			Reversed: spec.Reversed,
			consist:  c,
		}
		car.Bus = bus.NewWithConfig(bus.Config{
			CarID:          spec.Name,
			SessionID:      session.String(),
			Transport:      car,
			ProtocolLogger: config.ProtocolLogger,
			Logger:         logger,
			Clock:          config.Clock,
		})
		c.cars = append(c.cars, car)
		c.byName[spec.Name] = car
	}
	return c, nil
}

// SessionID returns the run's session identifier.
func (c *Consist) SessionID() string {
	return c.session.String()
}

// Cars returns the cars head first.
func (c *Consist) Cars() []*Car {
	return append([]*Car(nil), c.cars...)
}

// Car returns the car with the given name.
func (c *Consist) Car(name string) (*Car, bool) {
	car, ok := c.byName[name]
	return car, ok
}

// Joints returns the number of joints.
func (c *Consist) Joints() int {
	return len(c.joints)
}

// Coupled reports whether joint is coupled.
func (c *Consist) Coupled(joint int) bool {
	return joint >= 0 && joint < len(c.joints) && c.joints[joint]
}

// Couple couples joint and notifies both cars.
func (c *Consist) Couple(joint int) error {
	return c.setJoint(joint, true)
}

// Uncouple uncouples joint and notifies both cars.
func (c *Consist) Uncouple(joint int) error {
	return c.setJoint(joint, false)
}

// CoupleAll couples every joint, head to tail.
func (c *Consist) CoupleAll() error {
	for j := range c.joints {
		if err := c.Couple(j); err != nil {
			return err
		}
	}
	return nil
}

func (c *Consist) setJoint(joint int, coupled bool) error {
	if joint < 0 || joint >= len(c.joints) {
		return fmt.Errorf("%w: %d", ErrNoJoint, joint)
	}
	if c.joints[joint] == coupled {
		return nil
	}
	c.joints[joint] = coupled

	head, tail := c.cars[joint], c.cars[joint+1]
	old, state := "coupled", "uncoupled"
	if coupled {
		old, state = state, old
	}
	c.logger.Info("joint changed", "joint", joint, "head", head.Name, "tail", tail.Name, "state", state)

	for _, n := range []struct {
		car      *Car
		headward bool
	}{{head, false}, {tail, true}} {
		side := n.car.couplingToward(n.headward)
		msg, err := messages.Ecoupler.Message(messages.EcouplerState{Coupling: side, Connected: coupled})
		if err != nil {
			return err
		}
		n.car.Bus.RecordState(log.StateChangeEvent{
			Entity:   log.StateEntityCoupling,
			Name:     side.String(),
			OldState: old,
			NewState: state,
		})
		c.enqueue(n.car, msg.WithSource(wire.SourceSelf))
	}
	return c.Flush()
}

// Do runs fn and delivers every message it caused.
func (c *Consist) Do(fn func()) error {
	fn()
	return c.Flush()
}

// Tick runs every car's tick hooks, head first, then delivers every
// message they caused.
func (c *Consist) Tick(dt time.Duration) error {
	for _, car := range c.cars {
		for _, fn := range car.tickHooks {
			fn(dt)
		}
	}
	return c.Flush()
}

// Pending returns the number of queued deliveries.
func (c *Consist) Pending() int {
	return len(c.queue)
}

// Delivered returns the number of messages delivered so far.
func (c *Consist) Delivered() int {
	return c.delivered
}

// Flush delivers queued messages in FIFO order until the queue is empty.
// Messages published during delivery are appended and delivered in the
// same Flush.
func (c *Consist) Flush() error {
	if c.flushing {
		return nil
	}
	c.flushing = true
	defer func() { c.flushing = false }()

	n := 0
	for len(c.queue) > 0 {
		if n >= c.config.MaxDeliveries {
			dropped := len(c.queue)
			c.queue = nil
			err := fmt.Errorf("%w: %d deliveries, %d dropped", ErrNotSettled, n, dropped)
			c.logger.Error("delivery did not settle", "deliveries", n, "dropped", dropped)
			c.cars[0].Bus.RecordError(log.ErrorKindSettle, err, "flush")
			return err
		}
		d := c.queue[0]
		c.queue[0] = delivery{}
		c.queue = c.queue[1:]
		d.to.Bus.Dispatch(d.msg)
		n++
		c.delivered++
	}
	c.queue = nil
	return nil
}

func (c *Consist) enqueue(to *Car, msg wire.Message) {
	c.queue = append(c.queue, delivery{to: to, msg: msg})
}
