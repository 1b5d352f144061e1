// Package record defines the persistent records of the checkpoint subsystem.
//
// A Checkpoint groups an ordered sequence of row-level mutations into a
// single named, revertible unit. Each mutation is captured as an
// UndoLogEntry holding the pre-image of the affected row, which is enough
// to build the exact inverse statement later.
//
// # Status lifecycle
//
//	active      -> historical   (commit: log retained, restorable)
//	active      -> rolled_back  (rollback: log consumed)
//	historical  -> rolled_back  (restore: log consumed, possibly cascading)
//
// rolled_back is terminal. The undo log of a rolled_back checkpoint no
// longer exists.
//
// # Ordering
//
// Entries within a checkpoint carry a monotonic Seq assigned at append
// time. Undo replay always proceeds in exact reverse Seq order: a later
// operation may depend on state produced by an earlier one, so reversal
// must unwind newest first.
package record
