package scenario

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/consist-sim/consist-go/pkg/arbitration"
	"github.com/consist-sim/consist-go/pkg/bus"
	"github.com/consist-sim/consist-go/pkg/consist"
	"github.com/consist-sim/consist-go/pkg/couplingline"
	"github.com/consist-sim/consist-go/pkg/log"
	"github.com/consist-sim/consist-go/pkg/messages"
	"github.com/consist-sim/consist-go/pkg/model"
	"github.com/consist-sim/consist-go/pkg/wire"
)

// DefaultTick is the tick length used when a tick step gives none.
const DefaultTick = 20 * time.Millisecond

// Options configures the environment built for a scenario.
type Options struct {
	ProtocolLogger log.Logger
	Logger         *slog.Logger
	MaxDeliveries  int
}

// Env is a consist set up for a scenario.
type Env struct {
	Consist  *consist.Consist
	channels map[string]map[string]Channel
	units    map[string]*arbitration.SwitchControlUnit
	requests arbitration.Requests
}

// Setup builds the consist, lines and switch control units of sc.
// All joints start uncoupled.
func Setup(sc *Scenario, opts Options) (*Env, error) {
	specs := make([]consist.CarSpec, len(sc.Cars))
	for i, c := range sc.Cars {
		specs[i] = consist.CarSpec{Name: c.Name, Reversed: c.Reversed}
	}
	c, err := consist.New(consist.Config{
		MaxDeliveries:  opts.MaxDeliveries,
		ProtocolLogger: opts.ProtocolLogger,
		Logger:         opts.Logger,
	}, specs...)
	if err != nil {
		return nil, err
	}

	env := &Env{
		Consist:  c,
		channels: make(map[string]map[string]Channel),
		units:    make(map[string]*arbitration.SwitchControlUnit),
	}

	for _, ls := range sc.Lines {
		def, ok := catalogue[ls.Channel]
		if !ok {
			return nil, fmt.Errorf("unknown channel %q", ls.Channel)
		}
		perCar := make(map[string]Channel, len(sc.Cars))
		for _, car := range c.Cars() {
			var blocked couplingline.Sides[bool]
			for _, s := range ls.Blocked[car.Name] {
				side, err := parseSide(s)
				if err != nil {
					return nil, err
				}
				blocked.Set(side, true)
			}
			ch, err := def.build(car.Bus, blocked)
			if err != nil {
				return nil, fmt.Errorf("car %s: %w", car.Name, err)
			}
			perCar[car.Name] = ch
		}
		env.channels[ls.Channel] = perCar
	}

	for _, ss := range sc.Switches {
		car, ok := c.Car(ss.Car)
		if !ok {
			return nil, fmt.Errorf("switch: unknown car %q", ss.Car)
		}
		if _, dup := env.units[ss.Car]; dup {
			return nil, fmt.Errorf("switch: car %q already has a unit", ss.Car)
		}
		priorities := make([]model.SwitchSender, len(ss.Priorities))
		for i, p := range ss.Priorities {
			if priorities[i], err = model.ParseSwitchSender(p); err != nil {
				return nil, err
			}
		}
		unit, err := arbitration.NewSwitchControlUnit(priorities, ss.Sensor)
		if err != nil {
			return nil, fmt.Errorf("switch on %s: %w", ss.Car, err)
		}
		if err := unit.Register(car.Bus); err != nil {
			return nil, err
		}
		car.OnTick(func(time.Duration) {
			unit.Tick(env.requests.Switch, env.requests.Signal, env.requests.Routing)
		})
		env.units[ss.Car] = unit
	}
	return env, nil
}

// Channel returns the named channel on car.
func (e *Env) Channel(channel, car string) (Channel, error) {
	perCar, ok := e.channels[channel]
	if !ok {
		return nil, fmt.Errorf("channel %q is not attached", channel)
	}
	ch, ok := perCar[car]
	if !ok {
		return nil, fmt.Errorf("unknown car %q", car)
	}
	return ch, nil
}

// ChannelNames returns the attached channels, sorted.
func (e *Env) ChannelNames() []string {
	names := make([]string, 0, len(e.channels))
	for n := range e.channels {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Unit returns the switch control unit on car.
func (e *Env) Unit(car string) (*arbitration.SwitchControlUnit, bool) {
	u, ok := e.units[car]
	return u, ok
}

// Units returns the cars carrying a switch control unit, sorted.
func (e *Env) Units() []string {
	return sortedKeys(e.units)
}

func (e *Env) car(name string) (*consist.Car, error) {
	c, ok := e.Consist.Car(name)
	if !ok {
		return nil, fmt.Errorf("unknown car %q", name)
	}
	return c, nil
}

// Apply executes one step.
func (e *Env) Apply(st Step) error {
	fn, ok := actions[st.Action]
	if !ok {
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return fn(e, params(st.Params))
}

type actionFunc func(e *Env, p params) error

var actions = map[string]actionFunc{
	"couple":    func(e *Env, p params) error { return e.joint(p, true) },
	"uncouple":  func(e *Env, p params) error { return e.joint(p, false) },
	"set_local": (*Env).setLocal,
	"permit":    (*Env).permit,
	"tick":      (*Env).tick,
	"route":     (*Env).route,
	"code":      (*Env).code,
	"trigger":   (*Env).trigger,
	"expect":    func(*Env, params) error { return nil },
}

// Actions returns the supported step actions, sorted.
func Actions() []string {
	names := make([]string, 0, len(actions))
	for n := range actions {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func (e *Env) joint(p params, coupled bool) error {
	if p.flag("all") {
		for j := 0; j < e.Consist.Joints(); j++ {
			if err := e.setJoint(j, coupled); err != nil {
				return err
			}
		}
		return nil
	}
	j, err := p.num("joint")
	if err != nil {
		return err
	}
	return e.setJoint(j, coupled)
}

func (e *Env) setJoint(j int, coupled bool) error {
	if coupled {
		return e.Consist.Couple(j)
	}
	return e.Consist.Uncouple(j)
}

func (e *Env) setLocal(p params) error {
	ch, err := e.Channel(p.str("line"), p.str("car"))
	if err != nil {
		return err
	}
	var setErr error
	if err := e.Consist.Do(func() { setErr = ch.SetLocal(p.str("value")) }); err != nil {
		return err
	}
	return setErr
}

func (e *Env) permit(p params) error {
	ch, err := e.Channel(p.str("line"), p.str("car"))
	if err != nil {
		return err
	}
	front, rear := true, true
	if p.has("front") {
		front = p.flag("front")
	}
	if p.has("rear") {
		rear = p.flag("rear")
	}
	return e.Consist.Do(func() { ch.Permit(front, rear) })
}

func (e *Env) tick(p params) error {
	dt := DefaultTick
	if p.has("dt") {
		d, err := time.ParseDuration(p.str("dt"))
		if err != nil {
			return fmt.Errorf("tick: %w", err)
		}
		dt = d
	}
	e.requests = arbitration.Requests{
		Switch:  p.flag("switch_request"),
		Signal:  p.flag("signal_request"),
		Routing: p.flag("routing_request"),
	}
	n := 1
	if p.has("count") {
		var err error
		if n, err = p.num("count"); err != nil {
			return err
		}
	}
	for i := 0; i < n; i++ {
		if err := e.Consist.Tick(dt); err != nil {
			return err
		}
	}
	return nil
}

// publishLocal sends v from car to itself and delivers it.
func publishLocal[T any](e *Env, car string, topic bus.Topic[T], v T) error {
	c, err := e.car(car)
	if err != nil {
		return err
	}
	var pubErr error
	if err := e.Consist.Do(func() { pubErr = bus.Publish(c.Bus, topic, v, wire.Myself()) }); err != nil {
		return err
	}
	return pubErr
}

func (e *Env) route(p params) error {
	dir, err := model.ParseRoutingDirection(p.str("direction"))
	if err != nil {
		return err
	}
	sender := model.Vehicle()
	if p.has("sender") {
		if sender, err = model.ParseSwitchSender(p.str("sender")); err != nil {
			return err
		}
	}
	car := p.str("car")
	if sender == model.Vehicle() && !p.flag("wheelchair") {
		return publishLocal(e, car, messages.RoutingDirection, dir)
	}
	return publishLocal(e, car, messages.SwitchDirection, messages.SwitchRequest{
		Sender:     sender,
		Direction:  dir,
		Wheelchair: p.flag("wheelchair"),
	})
}

func (e *Env) code(p params) error {
	code, err := p.num("code")
	if err != nil {
		return err
	}
	if code < 0 {
		return fmt.Errorf("code: %d is negative", code)
	}
	if err := publishLocal(e, p.str("car"), messages.RoutingCode, uint32(code)); err != nil {
		return err
	}
	if p.has("request") {
		return publishLocal(e, p.str("car"), messages.RoutingRequest, p.flag("request"))
	}
	return nil
}

func (e *Env) trigger(p params) error {
	sensor, err := p.num("sensor")
	if err != nil {
		return err
	}
	entering := true
	if p.has("entering") {
		entering = p.flag("entering")
	}
	c, err := e.car(p.str("car"))
	if err != nil {
		return err
	}
	// Trackside sensors are seen by every car of the consist.
	var pubErr error
	if err := e.Consist.Do(func() {
		pubErr = bus.Publish(c.Bus, messages.SensorTrigger, messages.SensorEvent{Sensor: uint32(sensor), Entering: entering},
			wire.Broadcast(true, true))
	}); err != nil {
		return err
	}
	return pubErr
}

// Check compares the environment against ex and returns one message per
// mismatch.
func (e *Env) Check(ex *Expectation) []string {
	if ex == nil {
		return nil
	}
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	for _, channel := range sortedKeys(ex.Lines) {
		for _, car := range sortedKeys(ex.Lines[channel]) {
			want := fmt.Sprint(ex.Lines[channel][car])
			ch, err := e.Channel(channel, car)
			if err != nil {
				fail("%s on %s: %v", channel, car, err)
				continue
			}
			ok, err := ch.Matches(want)
			if err != nil {
				fail("%s on %s: %v", channel, car, err)
				continue
			}
			if !ok {
				fail("%s on %s: got %s, want %s", channel, car, ch.Value(), want)
			}
		}
	}

	for _, car := range sortedKeys(ex.Switches) {
		want := ex.Switches[car]
		u, ok := e.units[car]
		if !ok {
			fail("switch on %s: no unit", car)
			continue
		}
		if want.Value != "" && u.Value().String() != want.Value {
			fail("switch on %s: got %s, want %s", car, u.Value(), want.Value)
		}
		if want.Wheelchair != "" && u.ValueWheelchair().String() != want.Wheelchair {
			fail("wheelchair switch on %s: got %s, want %s", car, u.ValueWheelchair(), want.Wheelchair)
		}
		if want.TriggerZone != nil && u.InTriggerZone() != *want.TriggerZone {
			fail("trigger zone on %s: got %v, want %v", car, u.InTriggerZone(), *want.TriggerZone)
		}
		if want.RoutingCode != nil && u.RoutingCode() != *want.RoutingCode {
			fail("routing code on %s: got %d, want %d", car, u.RoutingCode(), *want.RoutingCode)
		}
	}

	for _, j := range sortedKeys(ex.Coupled) {
		if got := e.Consist.Coupled(j); got != ex.Coupled[j] {
			fail("joint %d: coupled=%v, want %v", j, got, ex.Coupled[j])
		}
	}
	return failures
}

func sortedKeys[K interface{ ~int | ~string }, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// params wraps step parameters decoded from YAML.
type params map[string]any

func (p params) has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p params) str(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (p params) flag(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func (p params) num(key string) (int, error) {
	switch v := p[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("param %s: %w", key, err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("param %s is required", key)
	}
	return 0, fmt.Errorf("param %s: unexpected type %T", key, p[key])
}
