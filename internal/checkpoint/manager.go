package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/casewise/checkpoint/internal/record"
	"github.com/casewise/checkpoint/internal/store"
	"github.com/casewise/checkpoint/internal/undo"
)

// Listing caps. Active listings surface orphaned/in-flight transactions;
// history feeds an audit trail.
const (
	DefaultActiveLimit  = 100
	DefaultHistoryLimit = 50
)

// Manager orchestrates the checkpoint lifecycle: begin, log, commit,
// rollback, restore, and the history queries. It is the only component
// external callers talk to.
//
// The inbound contract: before mutating a monitored row, call LogOperation
// with the pre-image (nil for inserts) under a checkpoint obtained from
// Begin, then close the checkpoint with exactly one terminal call - Commit
// on success, Rollback on failure.
type Manager struct {
	store *store.Store
	log   *logrus.Entry
	now   func() time.Time
}

// New creates a Manager on top of an opened store.
func New(st *store.Store) *Manager {
	return &Manager{
		store: st,
		log:   logrus.WithField("component", "checkpoint"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// BeginParams are the required fields for opening a checkpoint.
type BeginParams struct {
	ObjectID      int64
	ApplicationID *int64
	Description   string
	UserCommand   string
	Source        record.Source
}

// Begin inserts a new active checkpoint and returns its ID.
// Pure append; no validation beyond the required fields.
func (m *Manager) Begin(ctx context.Context, p BeginParams) (string, error) {
	if p.Description == "" {
		return "", newInvalidArgument("description is required")
	}
	if p.UserCommand == "" {
		return "", newInvalidArgument("user command is required")
	}
	if !p.Source.Valid() {
		return "", newInvalidArgument(fmt.Sprintf("unknown source %q", p.Source))
	}

	cp := record.Checkpoint{
		ID:            uuid.Must(uuid.NewV7()).String(),
		ObjectID:      p.ObjectID,
		ApplicationID: p.ApplicationID,
		Description:   p.Description,
		UserCommand:   p.UserCommand,
		Status:        record.StatusActive,
		Source:        p.Source,
		CreatedAt:     m.now(),
	}

	if err := m.store.InsertCheckpoint(ctx, cp); err != nil {
		return "", fmt.Errorf("begin checkpoint: %w", err)
	}

	m.log.WithFields(logrus.Fields{
		"checkpoint": cp.ID,
		"objectid":   cp.ObjectID,
		"source":     cp.Source,
	}).Info("checkpoint opened")

	return cp.ID, nil
}

// LogParams describe one row-level pre-image.
type LogParams struct {
	CheckpointID string
	ObjectID     int64
	Operation    record.Operation
	TableName    string

	// PrimaryKey identifies the mutated row by exact equality across every
	// key column.
	PrimaryKey record.Data

	// PreviousData is the full pre-image. Must be nil for insert (nothing
	// existed before) and non-nil for update/delete.
	PreviousData record.Data
}

// LogOperation appends one undo log entry. The caller must invoke this with
// the pre-image before or atomically with the real mutation.
//
// Known gap: the manager does not verify the checkpoint is still active; a
// caller logging against a closed checkpoint gets an entry that will never
// be replayed.
func (m *Manager) LogOperation(ctx context.Context, p LogParams) error {
	if p.CheckpointID == "" {
		return newInvalidArgument("checkpoint id is required")
	}
	if p.TableName == "" {
		return newInvalidArgument("table name is required")
	}
	if !p.Operation.Valid() {
		return newInvalidArgument(fmt.Sprintf("unknown operation %q", p.Operation))
	}
	if len(p.PrimaryKey) == 0 {
		return newInvalidArgument("primary key is required")
	}
	switch p.Operation {
	case record.OpInsert:
		if p.PreviousData != nil {
			return newInvalidArgument("insert entries carry no previous data")
		}
	case record.OpUpdate, record.OpDelete:
		if p.PreviousData == nil {
			return newInvalidArgument(fmt.Sprintf("%s entries require previous data", p.Operation))
		}
	}

	e := record.UndoLogEntry{
		ID:           uuid.Must(uuid.NewV7()).String(),
		CheckpointID: p.CheckpointID,
		ObjectID:     p.ObjectID,
		Operation:    p.Operation,
		TableName:    p.TableName,
		PrimaryKey:   p.PrimaryKey,
		PreviousData: p.PreviousData,
		CreatedAt:    m.now(),
	}

	if err := m.store.AppendUndoEntry(ctx, e); err != nil {
		return fmt.Errorf("log operation: %w", err)
	}
	return nil
}

// RecordToolExecution appends a tool name to the checkpoint's audit list.
// Display only; never affects rollback correctness.
func (m *Manager) RecordToolExecution(ctx context.Context, checkpointID, toolName string) error {
	if toolName == "" {
		return newInvalidArgument("tool name is required")
	}

	ok, err := m.store.AppendToolExecution(ctx, checkpointID, toolName)
	if err != nil {
		return fmt.Errorf("record tool execution: %w", err)
	}
	if !ok {
		return newNotFound(checkpointID)
	}
	return nil
}

// Commit marks an active checkpoint historical, recording the number of log
// entries present as changes_count. Log entries are retained so the
// checkpoint stays restorable.
//
// Committing a checkpoint that is not active is an invalid-state error, not
// a no-op: a second Commit of the same ID fails.
func (m *Manager) Commit(ctx context.Context, checkpointID string) error {
	ok, err := m.store.CommitCheckpoint(ctx, checkpointID, m.now())
	if err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	if !ok {
		return m.explainFailedTransition(ctx, checkpointID)
	}

	m.log.WithField("checkpoint", checkpointID).Info("checkpoint committed")
	return nil
}

// Rollback reverses every operation logged under an active checkpoint, in
// exact reverse append order, inside one transaction. On success the
// checkpoint is rolled_back and its log is deleted; a second Rollback of the
// same ID is an invalid-state error with nothing re-applied.
//
// All-or-nothing: any applier failure aborts the whole transaction, leaving
// the checkpoint and data untouched for retry.
func (m *Manager) Rollback(ctx context.Context, checkpointID string) error {
	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("rollback checkpoint: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Claim the checkpoint first. The guarded transition is what keeps two
	// callers from racing to roll back the same checkpoint: the loser fails
	// here before any undo work happens.
	ok, err := m.store.TransitionStatusTx(ctx, tx, checkpointID, record.StatusActive, record.StatusRolledBack, m.now())
	if err != nil {
		return fmt.Errorf("rollback checkpoint: %w", err)
	}
	if !ok {
		return m.explainFailedTransitionTx(ctx, tx, checkpointID)
	}

	applied, err := m.replayTx(ctx, tx, checkpointID)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rollback checkpoint: commit: %w", err)
	}

	m.log.WithFields(logrus.Fields{
		"checkpoint": checkpointID,
		"entries":    applied,
	}).Info("checkpoint rolled back")

	return nil
}

// RestoreTo returns the store to the state immediately before the target
// checkpoint began: the target and every historical checkpoint created
// after it in the same object scope are reversed newest-first, marked
// rolled_back, and their logs deleted - all within a single transaction.
func (m *Manager) RestoreTo(ctx context.Context, targetID string) error {
	tx, err := m.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("restore checkpoint: begin tx: %w", err)
	}
	defer tx.Rollback()

	target, err := m.store.GetCheckpointTx(ctx, tx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newNotFound(targetID)
		}
		return fmt.Errorf("restore checkpoint: %w", err)
	}
	if target.Status != record.StatusHistorical {
		return newInvalidState(targetID, target.Status, string(record.StatusHistorical))
	}

	selected, err := m.store.HistoricalFromTx(ctx, tx, target.ObjectID, target.CreatedAt, target.ID)
	if err != nil {
		return fmt.Errorf("restore checkpoint: %w", err)
	}

	now := m.now()
	var applied int
	for _, cp := range selected {
		ok, err := m.store.TransitionStatusTx(ctx, tx, cp.ID, record.StatusHistorical, record.StatusRolledBack, now)
		if err != nil {
			return fmt.Errorf("restore checkpoint: %w", err)
		}
		if !ok {
			// The row was read as historical inside this transaction, so a
			// failed transition means the snapshot shifted underneath us.
			return newInvalidState(cp.ID, cp.Status, string(record.StatusHistorical))
		}

		n, err := m.replayTx(ctx, tx, cp.ID)
		if err != nil {
			return err
		}
		applied += n
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("restore checkpoint: commit: %w", err)
	}

	m.log.WithFields(logrus.Fields{
		"target":      targetID,
		"checkpoints": len(selected),
		"entries":     applied,
	}).Info("restored to checkpoint")

	return nil
}

// replayTx applies the inverse of every entry for one checkpoint, newest
// first, then deletes the consumed log. Returns the number of entries
// applied.
func (m *Manager) replayTx(ctx context.Context, tx *sql.Tx, checkpointID string) (int, error) {
	entries, err := m.store.UndoEntriesNewestFirstTx(ctx, tx, checkpointID)
	if err != nil {
		return 0, fmt.Errorf("load undo log: %w", err)
	}

	for _, e := range entries {
		if err := undo.Apply(ctx, tx, e); err != nil {
			m.log.WithFields(logrus.Fields{
				"checkpoint": checkpointID,
				"entry":      e.ID,
				"operation":  e.Operation,
				"table":      e.TableName,
			}).WithError(err).Error("undo application failed")
			return 0, newUndoFailure(checkpointID, err)
		}
	}

	if err := m.store.DeleteUndoEntriesTx(ctx, tx, checkpointID); err != nil {
		return 0, fmt.Errorf("consume undo log: %w", err)
	}

	return len(entries), nil
}

// Filter narrows the listing operations.
type Filter struct {
	ObjectID      *int64
	ApplicationID *int64

	// Limit overrides the default cap when positive.
	Limit int
}

// ActiveCheckpoints returns status=active checkpoints, newest-first, capped
// at DefaultActiveLimit unless the filter overrides it. Used to surface
// orphaned or in-flight transactions.
func (m *Manager) ActiveCheckpoints(ctx context.Context, f Filter) ([]record.Checkpoint, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultActiveLimit
	}
	cps, err := m.store.ListCheckpoints(ctx, store.CheckpointQuery{
		ObjectID:      f.ObjectID,
		ApplicationID: f.ApplicationID,
		Active:        true,
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list active checkpoints: %w", err)
	}
	return cps, nil
}

// History returns non-active checkpoints, newest-first, capped at
// DefaultHistoryLimit unless the filter overrides it.
func (m *Manager) History(ctx context.Context, f Filter) ([]record.Checkpoint, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	cps, err := m.store.ListCheckpoints(ctx, store.CheckpointQuery{
		ObjectID:      f.ObjectID,
		ApplicationID: f.ApplicationID,
		Active:        false,
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list checkpoint history: %w", err)
	}
	return cps, nil
}

// Delete purges one checkpoint and its log without applying any undo.
// Explicit history discard, not a data mutation: monitored rows keep their
// current values.
func (m *Manager) Delete(ctx context.Context, checkpointID string) error {
	ok, err := m.store.DeleteCheckpoint(ctx, checkpointID)
	if err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	if !ok {
		return newNotFound(checkpointID)
	}

	m.log.WithField("checkpoint", checkpointID).Info("checkpoint purged")
	return nil
}

// DeleteAll purges every checkpoint matching the filter scope (or all of
// them when the filter is empty), without applying any undo. Returns the
// number of checkpoints removed.
func (m *Manager) DeleteAll(ctx context.Context, f Filter) (int64, error) {
	n, err := m.store.DeleteCheckpoints(ctx, f.ObjectID, f.ApplicationID)
	if err != nil {
		return 0, fmt.Errorf("delete checkpoints: %w", err)
	}

	m.log.WithField("deleted", n).Info("checkpoints purged")
	return n, nil
}

// explainFailedTransition turns a lost compare-and-swap into the right
// taxonomy error: not-found when the row is gone, invalid-state otherwise.
func (m *Manager) explainFailedTransition(ctx context.Context, checkpointID string) error {
	cp, err := m.store.GetCheckpoint(ctx, checkpointID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newNotFound(checkpointID)
		}
		return fmt.Errorf("inspect checkpoint: %w", err)
	}
	return newInvalidState(checkpointID, cp.Status, string(record.StatusActive))
}

// explainFailedTransitionTx is explainFailedTransition inside an open
// transaction.
func (m *Manager) explainFailedTransitionTx(ctx context.Context, tx *sql.Tx, checkpointID string) error {
	cp, err := m.store.GetCheckpointTx(ctx, tx, checkpointID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newNotFound(checkpointID)
		}
		return fmt.Errorf("inspect checkpoint: %w", err)
	}
	return newInvalidState(checkpointID, cp.Status, string(record.StatusActive))
}
