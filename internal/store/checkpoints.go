package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/casewise/checkpoint/internal/record"
)

// InsertCheckpoint appends a new checkpoint row. Pure append: the caller is
// responsible for supplying a unique ID and a valid status/source.
func (s *Store) InsertCheckpoint(ctx context.Context, cp record.Checkpoint) error {
	tools, err := marshalTools(cp.ToolsExecuted)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}

	var appID any
	if cp.ApplicationID != nil {
		appID = *cp.ApplicationID
	}

	var finishedAt any
	if cp.FinishedAt != nil {
		finishedAt = toMillis(*cp.FinishedAt)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints
		(id, objectid, applicationid, description, user_command, status, source,
		 tools_executed, changes_count, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		cp.ID,
		cp.ObjectID,
		appID,
		cp.Description,
		cp.UserCommand,
		string(cp.Status),
		string(cp.Source),
		tools,
		cp.ChangesCount,
		toMillis(cp.CreatedAt),
		finishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}

	return nil
}

// GetCheckpoint retrieves a single checkpoint by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetCheckpoint(ctx context.Context, id string) (record.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+checkpointColumns+`
		FROM checkpoints
		WHERE id = ?
	`, id)

	return scanCheckpoint(row)
}

// GetCheckpointTx is GetCheckpoint inside an open transaction.
func (s *Store) GetCheckpointTx(ctx context.Context, tx *sql.Tx, id string) (record.Checkpoint, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT `+checkpointColumns+`
		FROM checkpoints
		WHERE id = ?
	`, id)

	return scanCheckpoint(row)
}

// CommitCheckpoint marks an active checkpoint historical in a single guarded
// statement: changes_count is computed from the undo log and the update only
// applies while status is still 'active'. Returns false if no row changed,
// which means the checkpoint is missing or not active.
//
// Log entries are intentionally not deleted - historical checkpoints remain
// restorable.
func (s *Store) CommitCheckpoint(ctx context.Context, id string, finishedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE checkpoints
		SET status = ?,
		    changes_count = (SELECT COUNT(*) FROM undo_log WHERE checkpoint_id = checkpoints.id),
		    finished_at = ?
		WHERE id = ? AND status = ?
	`,
		string(record.StatusHistorical),
		toMillis(finishedAt),
		id,
		string(record.StatusActive),
	)
	if err != nil {
		return false, fmt.Errorf("commit checkpoint: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("commit checkpoint: rows affected: %w", err)
	}
	return n > 0, nil
}

// TransitionStatusTx performs a guarded status transition inside an open
// transaction. The WHERE status = <from> clause is the compare-and-swap that
// keeps two callers from consuming the same checkpoint: the loser sees
// false and must not proceed.
func (s *Store) TransitionStatusTx(ctx context.Context, tx *sql.Tx, id string, from, to record.Status, finishedAt time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE checkpoints
		SET status = ?, finished_at = ?
		WHERE id = ? AND status = ?
	`,
		string(to),
		toMillis(finishedAt),
		id,
		string(from),
	)
	if err != nil {
		return false, fmt.Errorf("transition checkpoint status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition checkpoint status: rows affected: %w", err)
	}
	return n > 0, nil
}

// AppendToolExecution appends a tool name to the checkpoint's
// tools_executed list. Single statement via json_insert; audit only.
// Returns false if the checkpoint does not exist.
func (s *Store) AppendToolExecution(ctx context.Context, id, toolName string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE checkpoints
		SET tools_executed = json_insert(tools_executed, '$[#]', ?)
		WHERE id = ?
	`, toolName, id)
	if err != nil {
		return false, fmt.Errorf("append tool execution: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append tool execution: rows affected: %w", err)
	}
	return n > 0, nil
}

// CheckpointQuery selects checkpoints for the listing operations.
type CheckpointQuery struct {
	// ObjectID filters to one owning entity when set.
	ObjectID *int64

	// ApplicationID filters to one wider scope when set.
	ApplicationID *int64

	// Active selects status=active rows when true, non-active otherwise.
	Active bool

	// Limit caps the result size. Zero means no cap.
	Limit int
}

// ListCheckpoints returns checkpoints matching the query, newest-first.
// Ordering is (created_at DESC, id DESC) so results are deterministic even
// for same-millisecond checkpoints.
func (s *Store) ListCheckpoints(ctx context.Context, q CheckpointQuery) ([]record.Checkpoint, error) {
	query := `SELECT ` + checkpointColumns + ` FROM checkpoints WHERE `
	var args []any

	if q.Active {
		query += `status = ?`
		args = append(args, string(record.StatusActive))
	} else {
		query += `status != ?`
		args = append(args, string(record.StatusActive))
	}

	if q.ObjectID != nil {
		query += ` AND objectid = ?`
		args = append(args, *q.ObjectID)
	}
	if q.ApplicationID != nil {
		query += ` AND applicationid = ?`
		args = append(args, *q.ApplicationID)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []record.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		checkpoints = append(checkpoints, cp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}

	if checkpoints == nil {
		checkpoints = []record.Checkpoint{}
	}

	return checkpoints, nil
}

// HistoricalFromTx returns every historical checkpoint for an object created
// at or after the given point, newest-first. The (created_at, id) pair
// identifies the starting point exactly; IDs break millisecond ties.
//
// Restore replays the returned checkpoints in order, so the ordering here is
// load-bearing: newest must come first.
func (s *Store) HistoricalFromTx(ctx context.Context, tx *sql.Tx, objectID int64, createdAt time.Time, id string) ([]record.Checkpoint, error) {
	ms := toMillis(createdAt)
	rows, err := tx.QueryContext(ctx, `
		SELECT `+checkpointColumns+`
		FROM checkpoints
		WHERE objectid = ? AND status = ?
		  AND (created_at > ? OR (created_at = ? AND id >= ?))
		ORDER BY created_at DESC, id DESC
	`,
		objectID,
		string(record.StatusHistorical),
		ms,
		ms,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("select historical checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []record.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		checkpoints = append(checkpoints, cp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}

	return checkpoints, nil
}

// DeleteCheckpoint purges one checkpoint and its undo log in a single
// transaction, without applying any undo. Returns false if the checkpoint
// does not exist.
func (s *Store) DeleteCheckpoint(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("delete checkpoint: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM undo_log WHERE checkpoint_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete checkpoint: purge log: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM checkpoints WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete checkpoint: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete checkpoint: rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("delete checkpoint: commit: %w", err)
	}

	return n > 0, nil
}

// DeleteCheckpoints purges every checkpoint matching the scope filters,
// cascading each undo log, all in one transaction. Nil filters match
// everything. Returns the number of checkpoints removed.
func (s *Store) DeleteCheckpoints(ctx context.Context, objectID, applicationID *int64) (int64, error) {
	where := `1 = 1`
	var args []any
	if objectID != nil {
		where += ` AND objectid = ?`
		args = append(args, *objectID)
	}
	if applicationID != nil {
		where += ` AND applicationid = ?`
		args = append(args, *applicationID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("delete checkpoints: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM undo_log
		WHERE checkpoint_id IN (SELECT id FROM checkpoints WHERE `+where+`)
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete checkpoints: purge logs: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM checkpoints WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete checkpoints: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete checkpoints: rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("delete checkpoints: commit: %w", err)
	}

	return n, nil
}
