// Package feed owns the upstream STOMP subscription.
//
// The session manager connects to the signalling feed, subscribes to the
// area-step and movement topics, decodes raw frames into typed events and
// hands them to the tracker strictly in the order received.
//
// Failure handling follows three tiers:
//   - malformed frames and bus error frames are logged and skipped,
//     never fatal to the session
//   - disconnects trigger reconnection with exponential backoff (base
//     interval doubling per consecutive failure, reset on success)
//   - only context cancellation ends the session loop
package feed
