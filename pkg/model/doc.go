// Package model defines the value types shared across a consist.
//
// Each type's zero value is the neutral contribution of a car that has
// nothing to say. Types diffused over coupling lines carry a Merge method
// that is idempotent and treats the zero value as identity. Types with a
// sense of direction also carry Flip, which re-expresses a value for a car
// facing the other way.
package model
