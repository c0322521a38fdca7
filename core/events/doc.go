// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - TickEvent: one hour of the simulation has been aggregated
//   - RunEvent: a run changed lifecycle state
package events
