// Package messages is the catalogue of topics exchanged inside a consist.
//
// Topics live in three namespaces:
//
//   - Std_TrainBus: coupling hardware notifications (Ecoupler)
//   - Std_Coupler: values diffused over coupling lines
//   - Std_Pis: passenger information and switch routing
//
// Every key in the catalogue maps to exactly one payload type.
package messages
