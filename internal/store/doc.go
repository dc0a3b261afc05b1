// Package store provides SQLite-backed durable storage for the train
// position model.
//
// The store holds four kinds of records:
//   - Berths: read-mostly reference data (coordinates, inter-area border links)
//   - Trains: one row per occupancy episode, keyed by (area, description)
//     while the episode is open
//   - History: append-only log of confirmed berth exits
//   - Operators/Movements: the operator-correlation side channel
//
// # Consistency model
//
// Every step event is applied inside a single transaction via Transact:
// the occupancy claim, the train insert/update and the history append
// commit together or not at all. A partially applied event is never
// observable, even by concurrent readers in WAL mode.
//
// The occupancy invariant (at most one non-cancelled train per berth) is
// maintained by cancelling any stale occupant inside the same transaction,
// strictly before the new occupancy is written.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
