package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/casewise/checkpoint/internal/record"
)

// AppendUndoEntry appends one pre-image to a checkpoint's undo log.
// Single statement: the per-checkpoint seq is assigned inside the INSERT via
// a scoped MAX(seq)+1 subselect, so ordering never depends on wall-clock
// resolution or concurrent appends to other checkpoints.
//
// The store does not verify the checkpoint is still active; callers must
// only log against checkpoints they hold open.
func (s *Store) AppendUndoEntry(ctx context.Context, e record.UndoLogEntry) error {
	pk, err := marshalData(e.PrimaryKey)
	if err != nil {
		return fmt.Errorf("append undo entry: %w", err)
	}

	var prev any
	if e.PreviousData != nil {
		raw, err := marshalData(e.PreviousData)
		if err != nil {
			return fmt.Errorf("append undo entry: %w", err)
		}
		prev = raw
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO undo_log
		(id, checkpoint_id, objectid, seq, operation, table_name, primary_key, previous_data, created_at)
		VALUES (?, ?, ?,
		        (SELECT COALESCE(MAX(seq), 0) + 1 FROM undo_log WHERE checkpoint_id = ?),
		        ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.CheckpointID,
		e.ObjectID,
		e.CheckpointID,
		string(e.Operation),
		e.TableName,
		pk,
		prev,
		toMillis(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append undo entry: %w", err)
	}

	return nil
}

// UndoEntryCount returns the number of log entries for a checkpoint.
func (s *Store) UndoEntryCount(ctx context.Context, checkpointID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM undo_log WHERE checkpoint_id = ?
	`, checkpointID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count undo entries: %w", err)
	}
	return count, nil
}

// UndoEntriesNewestFirstTx returns a checkpoint's log entries in exact
// reverse append order (seq DESC, id DESC) inside an open transaction.
// This is the replay order for rollback and restore: a later operation may
// have acted on state produced by an earlier one, so reversal must unwind
// newest first.
func (s *Store) UndoEntriesNewestFirstTx(ctx context.Context, tx *sql.Tx, checkpointID string) ([]record.UndoLogEntry, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+undoEntryColumns+`
		FROM undo_log
		WHERE checkpoint_id = ?
		ORDER BY seq DESC, id DESC
	`, checkpointID)
	if err != nil {
		return nil, fmt.Errorf("query undo entries: %w", err)
	}
	defer rows.Close()

	var entries []record.UndoLogEntry
	for rows.Next() {
		e, err := scanUndoEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan undo entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate undo entries: %w", err)
	}

	if entries == nil {
		entries = []record.UndoLogEntry{}
	}

	return entries, nil
}

// DeleteUndoEntriesTx removes a checkpoint's entire log inside an open
// transaction. Called after the entries have been applied (consumed) so a
// second rollback of the same checkpoint has nothing to re-apply.
func (s *Store) DeleteUndoEntriesTx(ctx context.Context, tx *sql.Tx, checkpointID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM undo_log WHERE checkpoint_id = ?`, checkpointID); err != nil {
		return fmt.Errorf("delete undo entries: %w", err)
	}
	return nil
}
