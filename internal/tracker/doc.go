// Package tracker implements the berth-step state machine.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// All step events are applied by a single goroutine, in arrival order.
// Per-area ordering is the source of correctness for occupancy transfer
// and history, and a single total order trivially preserves it. The feed
// session enqueues decoded events; Run dequeues and applies them one at
// a time, each inside its own store transaction.
//
// Event Processing Flow:
//  1. Events enqueued to FIFO queue by the feed session
//  2. Tracker.Run() dequeues events one at a time
//  3. Advance/cancel events mutate the train store and history log
//     atomically; heartbeats only refresh per-area liveness
//
// Occupancy Invariant:
// At most one non-cancelled train occupies a berth at any time. Before a
// berth is newly occupied, any stale occupant is cancelled inside the
// same transaction, strictly before the new occupancy is written. Berths
// can be silently vacated (feed loss, untracked destinations); the claim
// is how stale occupancy self-heals without a timeout process.
//
// Expected absences - unknown berth, unknown train, duplicate destination,
// wildcard train descriptions, untracked areas - are designed discard
// paths, not errors.
package tracker
