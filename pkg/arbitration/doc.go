// Package arbitration resolves one effective value out of several
// prioritised senders.
//
// An Arbiter stores the last value of every sender and, on Tick, selects
// the value of the first sender in priority order whose value is not
// neutral. SwitchControlUnit uses two arbiters to resolve the switch
// direction a track switch should take, fed by routing messages on a bus.
package arbitration
