// Package consist hosts a chain of cars in one process and carries
// messages between them.
//
// Cars are ordered from head to tail. Joint i connects car i and car i+1
// and can be coupled or uncoupled at any time. A car may be reversed, in
// which case its front coupling faces the tail of the consist.
//
// Every car owns a bus.MessageBus whose transport is the car itself.
// Published messages are queued in FIFO order and delivered by Flush,
// which the consist runs at the end of every operation it performs (Couple,
// Uncouple, Tick, Do). Delivery therefore never re-enters a bus while it is
// publishing, and every operation returns with the consist settled.
//
// A Flush that keeps producing messages beyond Config.MaxDeliveries is
// aborted with ErrNotSettled.
package consist
