package store

import (
	"database/sql"
	"fmt"

	"github.com/casewise/checkpoint/internal/record"
)

// checkpointColumns is the canonical SELECT column list for checkpoints.
// Every checkpoint query selects these columns in this order so a single
// scan function serves them all.
const checkpointColumns = `id, objectid, applicationid, description, user_command,
       status, source, tools_executed, changes_count, created_at, finished_at`

// undoEntryColumns is the canonical SELECT column list for undo_log.
const undoEntryColumns = `id, checkpoint_id, objectid, seq, operation, table_name,
       primary_key, previous_data, created_at, applied_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCheckpoint reads one checkpoint row in checkpointColumns order.
func scanCheckpoint(sc rowScanner) (record.Checkpoint, error) {
	var (
		cp         record.Checkpoint
		appID      sql.NullInt64
		tools      string
		createdAt  int64
		finishedAt sql.NullInt64
	)

	err := sc.Scan(
		&cp.ID,
		&cp.ObjectID,
		&appID,
		&cp.Description,
		&cp.UserCommand,
		&cp.Status,
		&cp.Source,
		&tools,
		&cp.ChangesCount,
		&createdAt,
		&finishedAt,
	)
	if err != nil {
		return record.Checkpoint{}, err
	}

	if appID.Valid {
		v := appID.Int64
		cp.ApplicationID = &v
	}

	cp.ToolsExecuted, err = unmarshalTools(tools)
	if err != nil {
		return record.Checkpoint{}, fmt.Errorf("checkpoint %s: %w", cp.ID, err)
	}

	cp.CreatedAt = fromMillis(createdAt)
	cp.FinishedAt = fromNullMillis(finishedAt)

	return cp, nil
}

// scanUndoEntry reads one undo_log row in undoEntryColumns order.
func scanUndoEntry(sc rowScanner) (record.UndoLogEntry, error) {
	var (
		e         record.UndoLogEntry
		pk        string
		prev      sql.NullString
		createdAt int64
		appliedAt sql.NullInt64
	)

	err := sc.Scan(
		&e.ID,
		&e.CheckpointID,
		&e.ObjectID,
		&e.Seq,
		&e.Operation,
		&e.TableName,
		&pk,
		&prev,
		&createdAt,
		&appliedAt,
	)
	if err != nil {
		return record.UndoLogEntry{}, err
	}

	e.PrimaryKey, err = unmarshalData(sql.NullString{String: pk, Valid: true})
	if err != nil {
		return record.UndoLogEntry{}, fmt.Errorf("entry %s primary key: %w", e.ID, err)
	}

	e.PreviousData, err = unmarshalData(prev)
	if err != nil {
		return record.UndoLogEntry{}, fmt.Errorf("entry %s previous data: %w", e.ID, err)
	}

	e.CreatedAt = fromMillis(createdAt)
	e.AppliedAt = fromNullMillis(appliedAt)

	return e, nil
}
