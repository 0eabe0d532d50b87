// Package couplingline diffuses a value of type T across a consist using
// only messages between adjacent cars.
//
// Each car holds one Line per shared value. A line combines its local
// contribution with what it last received from each neighbour, using a
// merge Policy, and sends each neighbour the merge of everything except
// that neighbour's own value. A value is only sent when it differs from
// what was last sent on that side, so diffusion settles once every car
// agrees.
//
// Policies must be idempotent and must treat the zero value of T as
// identity. New enforces this on the zero value and on any samples given
// in Config.
//
// # Orientation
//
// Two coupled cars may face opposite ways. A policy that also implements
// Flipper re-expresses values across such joints: the line flips values
// sent over its front coupling and values received over its rear coupling,
// so a joint between two cars facing the same way flips twice (or not at
// all) and a joint between cars facing each other flips once.
package couplingline
