package consist

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consist-sim/consist-go/pkg/bus"
	"github.com/consist-sim/consist-go/pkg/couplingline"
	"github.com/consist-sim/consist-go/pkg/messages"
	"github.com/consist-sim/consist-go/pkg/model"
	"github.com/consist-sim/consist-go/pkg/wire"
)

var counter = bus.NewTopic[int]("Test", "Counter")

type arrival struct {
	car    string
	source wire.Source
	value  int
}

// listen subscribes every car to counter and returns the arrival log.
func listen(t *testing.T, c *Consist) *[]arrival {
	t.Helper()
	var got []arrival
	for _, car := range c.Cars() {
		name := car.Name
		require.NoError(t, bus.Subscribe(car.Bus, counter, func(src wire.Source, v int) {
			got = append(got, arrival{car: name, source: src, value: v})
		}))
	}
	return &got
}

// newTrain builds A, B (reversed), C with every joint coupled.
func newTrain(t *testing.T) *Consist {
	t.Helper()
	c, err := New(Config{}, CarSpec{Name: "A"}, CarSpec{Name: "B", Reversed: true}, CarSpec{Name: "C"})
	require.NoError(t, err)
	require.NoError(t, c.CoupleAll())
	return c
}

func car(t *testing.T, c *Consist, name string) *Car {
	t.Helper()
	found, ok := c.Car(name)
	require.True(t, ok, "car %s", name)
	return found
}

func TestNeighborOrientation(t *testing.T) {
	c := newTrain(t)

	tests := []struct {
		from     string
		side     wire.Coupling
		wantCar  string
		wantSide wire.Coupling
		wantOK   bool
	}{
		{"A", wire.CouplingFront, "", 0, false},
		{"A", wire.CouplingRear, "B", wire.CouplingRear, true},
		{"B", wire.CouplingRear, "A", wire.CouplingRear, true},
		{"B", wire.CouplingFront, "C", wire.CouplingFront, true},
		{"C", wire.CouplingFront, "B", wire.CouplingFront, true},
		{"C", wire.CouplingRear, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"/"+tt.side.String(), func(t *testing.T) {
			n, side, ok := car(t, c, tt.from).Neighbor(tt.side)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantCar, n.Name)
			assert.Equal(t, tt.wantSide, side)
		})
	}
}

func TestAcrossCouplingRouting(t *testing.T) {
	c := newTrain(t)
	got := listen(t, c)
	a := car(t, c, "A")

	require.NoError(t, c.Do(func() {
		require.NoError(t, bus.Publish(a.Bus, counter, 1, wire.AcrossCoupling(wire.CouplingRear, false)))
	}))
	assert.Equal(t, []arrival{{"B", wire.SourceRear, 1}}, *got)

	*got = nil
	require.NoError(t, c.Do(func() {
		require.NoError(t, bus.Publish(a.Bus, counter, 2, wire.AcrossCoupling(wire.CouplingRear, true)))
	}))
	assert.Equal(t, []arrival{{"B", wire.SourceRear, 2}, {"C", wire.SourceFront, 2}}, *got)
}

func TestBroadcastRouting(t *testing.T) {
	c := newTrain(t)
	got := listen(t, c)
	b := car(t, c, "B")

	tests := []struct {
		name   string
		target wire.Target
		want   []arrival
	}{
		{"car only", wire.Broadcast(false, true), []arrival{{"B", wire.SourceSelf, 0}}},
		{"car without self", wire.Broadcast(false, false), nil},
		{"consist", wire.Broadcast(true, false), []arrival{
			{"C", wire.SourceFront, 0},
			{"A", wire.SourceRear, 0},
		}},
		{"consist with self", wire.Broadcast(true, true), []arrival{
			{"B", wire.SourceSelf, 0},
			{"C", wire.SourceFront, 0},
			{"A", wire.SourceRear, 0},
		}},
		{"myself", wire.Myself(), []arrival{{"B", wire.SourceSelf, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			*got = nil
			require.NoError(t, c.Do(func() {
				require.NoError(t, bus.Publish(b.Bus, counter, 0, tt.target))
			}))
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestUncoupledJointStopsRouting(t *testing.T) {
	c := newTrain(t)
	got := listen(t, c)
	require.NoError(t, c.Uncouple(1))

	b := car(t, c, "B")
	assert.False(t, b.Coupled(wire.CouplingFront))
	assert.True(t, b.Coupled(wire.CouplingRear))

	require.NoError(t, c.Do(func() {
		require.NoError(t, bus.Publish(b.Bus, counter, 3, wire.Broadcast(true, false)))
		require.NoError(t, bus.Publish(b.Bus, counter, 4, wire.AcrossCoupling(wire.CouplingFront, false)))
	}))
	assert.Equal(t, []arrival{{"A", wire.SourceRear, 3}}, *got)
}

func TestCoupleNotifiesBothCars(t *testing.T) {
	c, err := New(Config{}, CarSpec{Name: "A"}, CarSpec{Name: "B", Reversed: true})
	require.NoError(t, err)

	var events []string
	for _, cr := range c.Cars() {
		name := cr.Name
		require.NoError(t, bus.Subscribe(cr.Bus, messages.Ecoupler, func(src wire.Source, s messages.EcouplerState) {
			assert.Equal(t, wire.SourceSelf, src)
			state := "off"
			if s.Connected {
				state = "on"
			}
			events = append(events, name+":"+s.Coupling.String()+":"+state)
		}))
	}

	require.NoError(t, c.Couple(0))
	require.NoError(t, c.Couple(0))
	require.NoError(t, c.Uncouple(0))

	assert.Equal(t, []string{"A:REAR:on", "B:REAR:on", "A:REAR:off", "B:REAR:off"}, events)
	assert.False(t, c.Coupled(0))
}

func TestFlushIsFIFO(t *testing.T) {
	c := newTrain(t)
	got := listen(t, c)
	a := car(t, c, "A")

	require.NoError(t, c.Do(func() {
		for i := 0; i < 5; i++ {
			require.NoError(t, bus.Publish(a.Bus, counter, i, wire.AcrossCoupling(wire.CouplingRear, false)))
		}
	}))

	var values []int
	for _, g := range *got {
		values = append(values, g.value)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, values)
	assert.Zero(t, c.Pending())
}

func TestFlushDetectsOscillation(t *testing.T) {
	c, err := New(Config{MaxDeliveries: 50}, CarSpec{Name: "A"})
	require.NoError(t, err)
	a := car(t, c, "A")

	require.NoError(t, bus.Subscribe(a.Bus, counter, func(_ wire.Source, v int) {
		_ = bus.Publish(a.Bus, counter, v+1, wire.Myself())
	}))

	err = c.Do(func() {
		require.NoError(t, bus.Publish(a.Bus, counter, 0, wire.Myself()))
	})
	assert.ErrorIs(t, err, ErrNotSettled)
	assert.Zero(t, c.Pending())
	assert.Equal(t, 50, c.Delivered())
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNoCars)

	_, err = New(Config{}, CarSpec{Name: "A"}, CarSpec{Name: "A"})
	assert.ErrorIs(t, err, ErrDuplicateCar)

	_, err = New(Config{}, CarSpec{})
	assert.Error(t, err)

	c, err := New(Config{}, CarSpec{Name: "A"})
	require.NoError(t, err)
	assert.Zero(t, c.Joints())
	assert.ErrorIs(t, c.Couple(0), ErrNoJoint)
}

func TestSessionID(t *testing.T) {
	id := uuid.MustParse("6f1c3a52-9d0e-4b8f-a3c1-2e7d5f4b9a10")
	c, err := New(Config{SessionID: id}, CarSpec{Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, id.String(), c.SessionID())
	assert.Equal(t, id.String(), car(t, c, "A").Bus.SessionID())

	random, err := New(Config{}, CarSpec{Name: "A"})
	require.NoError(t, err)
	_, err = uuid.Parse(random.SessionID())
	assert.NoError(t, err)
}

func TestTickRunsHooksAndFlushes(t *testing.T) {
	c := newTrain(t)
	got := listen(t, c)
	a := car(t, c, "A")

	var elapsed time.Duration
	a.OnTick(func(dt time.Duration) {
		elapsed += dt
		_ = bus.Publish(a.Bus, counter, int(elapsed/time.Millisecond), wire.AcrossCoupling(wire.CouplingRear, false))
	})

	require.NoError(t, c.Tick(20*time.Millisecond))
	require.NoError(t, c.Tick(20*time.Millisecond))

	assert.Equal(t, []arrival{{"B", wire.SourceRear, 20}, {"B", wire.SourceRear, 40}}, *got)
}

// lines builds one coupling line per car.
func lines[T comparable](t *testing.T, c *Consist, cfg couplingline.Config[T]) []*couplingline.Line[T] {
	t.Helper()
	var out []*couplingline.Line[T]
	for _, cr := range c.Cars() {
		l, err := couplingline.New(cr.Bus, cfg)
		require.NoError(t, err)
		out = append(out, l)
	}
	return out
}

func TestLineDiffusionAcrossConsist(t *testing.T) {
	c, err := New(Config{},
		CarSpec{Name: "c0"}, CarSpec{Name: "c1", Reversed: true}, CarSpec{Name: "c2"}, CarSpec{Name: "c3"})
	require.NoError(t, err)

	sanding := lines(t, c, couplingline.Config[bool]{Topic: messages.Sanding, Policy: couplingline.Or()})
	require.NoError(t, c.CoupleAll())

	require.NoError(t, c.Do(func() { sanding[3].UpdateLocal(true) }))
	for i, l := range sanding {
		assert.True(t, l.Value(), "car %d", i)
	}

	require.NoError(t, c.Uncouple(1))
	assert.Equal(t, []bool{false, false, true, true},
		[]bool{sanding[0].Value(), sanding[1].Value(), sanding[2].Value(), sanding[3].Value()})

	// Each side of the joint already sent its current value before the
	// split, so re-coupling alone transmits nothing.
	require.NoError(t, c.Couple(1))
	assert.Equal(t, []bool{false, false, true, true},
		[]bool{sanding[0].Value(), sanding[1].Value(), sanding[2].Value(), sanding[3].Value()})

	require.NoError(t, c.Do(func() { sanding[3].UpdateLocal(false) }))
	for i, l := range sanding {
		assert.False(t, l.Value(), "car %d", i)
	}

	require.NoError(t, c.Do(func() { sanding[3].UpdateLocal(true) }))
	for i, l := range sanding {
		assert.True(t, l.Value(), "car %d after a fresh change", i)
	}
}

func TestOrientedLineAcrossReversedCar(t *testing.T) {
	c, err := New(Config{},
		CarSpec{Name: "c0"}, CarSpec{Name: "c1", Reversed: true}, CarSpec{Name: "c2"})
	require.NoError(t, err)

	ind := lines(t, c, couplingline.Config[model.Indicator]{
		Topic:  messages.Indicator,
		Policy: couplingline.Oriented[model.Indicator](),
	})
	require.NoError(t, c.CoupleAll())

	require.NoError(t, c.Do(func() { ind[0].UpdateLocal(model.Indicator{Left: true}) }))

	assert.Equal(t, model.Indicator{Left: true}, ind[0].Value())
	assert.Equal(t, model.Indicator{Right: true}, ind[1].Value())
	assert.Equal(t, model.Indicator{Left: true}, ind[2].Value())
}
