// Package wire defines the message types exchanged between cars of a consist
// and their CBOR encoding.
//
// Every message carries a (namespace, identifier) Key naming the shape of its
// payload, the Source it arrived from and the payload itself, encoded with
// deterministic CBOR (RFC 8949).
//
// # Sources and Couplings
//
// A car has exactly two couplings, Front and Rear. A message that crossed a
// coupling arrives with SourceFront or SourceRear, naming the receiving car's
// own coupling. Messages a car sends to itself arrive with SourceSelf.
//
// # Targets
//
// Producers address messages with a Target:
//   - AcrossCoupling: the immediate neighbor behind one coupling, optionally
//     cascading further in the same direction
//   - Myself: the sending car only
//   - Broadcast: the current car, or every car of the coupled group
//
// Messages are values. Once built they are never mutated; WithSource returns
// a copy.
package wire
