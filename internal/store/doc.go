// Package store provides SQLite-backed durable storage for checkpoints and
// their undo logs.
//
// Two tables back the subsystem:
//   - checkpoints: one row per logical transaction (status, timing, audit
//     metadata)
//   - undo_log: ordered row-level pre-images captured while a checkpoint is
//     active
//
// # Critical patterns
//
// Guarded status transitions
//   - Every terminal transition runs as UPDATE ... WHERE status = <expected>
//     and reports whether a row changed. Two callers racing to roll back the
//     same checkpoint cannot both win.
//
// Monotonic per-checkpoint sequence
//   - Entries are stamped with seq = MAX(seq)+1 scoped to their checkpoint,
//     assigned inside the INSERT itself. Replay order never depends on
//     wall-clock resolution.
//
// Deterministic query results
//   - Listing and replay queries order by (created_at, id) or (seq, id) so
//     results are identical across runs. IDs are UUIDv7 and sort by creation
//     time, which makes them a stable tie-break.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: undo_log rows cascade with their checkpoint
package store
