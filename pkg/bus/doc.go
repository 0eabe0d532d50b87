// Package bus implements the per-car publish/subscribe message bus.
//
// Every car owns one MessageBus. Components register callbacks under a
// message key; Dispatch invokes every callback registered under the key of
// an incoming message, synchronously and in registration order. Messages
// whose key has no subscription are dropped without error.
//
// # Typed topics
//
// Raw handlers receive a wire.Message and decode its payload themselves.
// Most code uses the typed layer instead:
//
//	var Sanding = bus.NewTopic[bool]("Std_Coupler", "Sanding")
//
//	bus.Subscribe(b, Sanding, func(src wire.Source, on bool) { ... })
//	bus.Publish(b, Sanding, true, wire.AcrossCoupling(wire.CouplingFront, false))
//
// The bus remembers the Go payload type claimed for each key. A second
// topic claiming a different payload type for the same key is rejected
// with ErrShapeMismatch, so a key always maps to exactly one shape.
//
// A payload that fails to decode for a typed subscription skips only that
// callback. The failure is reported through slog and the protocol logger.
//
// # Concurrency
//
// A MessageBus is not safe for concurrent use. All registration, dispatch
// and publishing happens on the simulation loop of the car that owns it.
package bus
