// Package checkpoint implements the checkpoint manager: the write-ahead
// style mechanism that groups row-level mutations into named, atomically
// revertible transactions.
//
// Callers interact with exactly two contracts. They open and close
// checkpoints (Begin, then exactly one of Commit or Rollback), and they log
// a pre-image via LogOperation before or atomically with each real
// mutation. Everything else - which tables exist, what to mutate, business
// validation - lives in higher layers.
//
// Rollback, RestoreTo, and the cascading deletes each run in exactly one
// database transaction. Once started, a reversal runs to completion or
// aborts wholesale; no partial state is ever visible to readers, and a
// failed attempt leaves status and log ready for retry.
package checkpoint
