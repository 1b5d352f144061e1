// Package undo turns logged pre-images back into inverse SQL statements.
//
// Apply is pure reversal logic: it inspects one undo log entry and executes
// exactly one inverse statement on the caller's transaction. It never
// commits, never retries, and never reorders - callers replay a checkpoint's
// entries in exact reverse append order, because a later operation may have
// acted on state produced by an earlier one (insert row X then update row X
// must be undone as update-then-delete).
package undo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/casewise/checkpoint/internal/record"
)

// ErrUnsupportedOperation is returned for an operation kind the applier
// cannot reverse. Fatal: the enclosing transaction must abort.
var ErrUnsupportedOperation = errors.New("unsupported undo operation")

// ErrMissingPreImage is returned when an update/delete entry carries no
// previous_data. Such an entry violates the logging contract and cannot be
// reversed.
var ErrMissingPreImage = errors.New("undo entry has no previous data")

// Apply executes the inverse of one logged operation on tx:
//
//	insert -> DELETE the row matching primary_key exactly
//	delete -> INSERT previous_data back, omitting primary-key columns so the
//	          store regenerates identity values (the restored row may receive
//	          a new surrogate identity)
//	update -> UPDATE the row matching primary_key, setting every
//	          previous_data column except the primary-key columns
//
// Any failure leaves tx poisoned; the caller aborts the whole transaction.
func Apply(ctx context.Context, tx *sql.Tx, e record.UndoLogEntry) error {
	if len(e.PrimaryKey) == 0 {
		return fmt.Errorf("undo %s on %q: entry %s has empty primary key", e.Operation, e.TableName, e.ID)
	}

	switch e.Operation {
	case record.OpInsert:
		return undoInsert(ctx, tx, e)
	case record.OpDelete:
		return undoDelete(ctx, tx, e)
	case record.OpUpdate:
		return undoUpdate(ctx, tx, e)
	default:
		return fmt.Errorf("entry %s: %w: %q", e.ID, ErrUnsupportedOperation, e.Operation)
	}
}

// undoInsert deletes the inserted row by exact equality across every key
// column.
func undoInsert(ctx context.Context, tx *sql.Tx, e record.UndoLogEntry) error {
	table, err := quoteIdent(e.TableName)
	if err != nil {
		return fmt.Errorf("undo insert: %w", err)
	}

	where, args, err := whereClause(e.PrimaryKey)
	if err != nil {
		return fmt.Errorf("undo insert on %q: %w", e.TableName, err)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", table, where)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("undo insert on %q: %w", e.TableName, err)
	}
	return nil
}

// undoDelete reinserts the pre-image, dropping primary-key columns so
// identity values are regenerated by the store.
func undoDelete(ctx context.Context, tx *sql.Tx, e record.UndoLogEntry) error {
	if e.PreviousData == nil {
		return fmt.Errorf("undo delete on %q: entry %s: %w", e.TableName, e.ID, ErrMissingPreImage)
	}

	table, err := quoteIdent(e.TableName)
	if err != nil {
		return fmt.Errorf("undo delete: %w", err)
	}

	data := e.PreviousData.Without(e.PrimaryKey.SortedColumns()...)
	if len(data) == 0 {
		return fmt.Errorf("undo delete on %q: entry %s has no reinsertable columns", e.TableName, e.ID)
	}

	cols := data.SortedColumns()
	quoted := make([]string, len(cols))
	holders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		q, err := quoteIdent(c)
		if err != nil {
			return fmt.Errorf("undo delete on %q: %w", e.TableName, err)
		}
		quoted[i] = q
		holders[i] = "?"
		args[i] = data[c]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(quoted, ", "),
		strings.Join(holders, ", "),
	)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("undo delete on %q: %w", e.TableName, err)
	}
	return nil
}

// undoUpdate restores every pre-image column except the primary-key columns,
// which are immutable under undo.
func undoUpdate(ctx context.Context, tx *sql.Tx, e record.UndoLogEntry) error {
	if e.PreviousData == nil {
		return fmt.Errorf("undo update on %q: entry %s: %w", e.TableName, e.ID, ErrMissingPreImage)
	}

	table, err := quoteIdent(e.TableName)
	if err != nil {
		return fmt.Errorf("undo update: %w", err)
	}

	data := e.PreviousData.Without(e.PrimaryKey.SortedColumns()...)
	if len(data) == 0 {
		return fmt.Errorf("undo update on %q: entry %s has no restorable columns", e.TableName, e.ID)
	}

	cols := data.SortedColumns()
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+len(e.PrimaryKey))
	for i, c := range cols {
		q, err := quoteIdent(c)
		if err != nil {
			return fmt.Errorf("undo update on %q: %w", e.TableName, err)
		}
		sets[i] = q + " = ?"
		args = append(args, data[c])
	}

	where, whereArgs, err := whereClause(e.PrimaryKey)
	if err != nil {
		return fmt.Errorf("undo update on %q: %w", e.TableName, err)
	}
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(sets, ", "), where)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("undo update on %q: %w", e.TableName, err)
	}
	return nil
}

// whereClause builds an exact-equality predicate over every key column, in
// sorted column order so generated SQL is deterministic.
func whereClause(pk record.Data) (string, []any, error) {
	cols := pk.SortedColumns()
	preds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		q, err := quoteIdent(c)
		if err != nil {
			return "", nil, err
		}
		preds[i] = q + " = ?"
		args[i] = pk[c]
	}
	return strings.Join(preds, " AND "), args, nil
}

// quoteIdent validates and double-quotes an identifier from the log.
// Table and column names travel through the undo log as data, so they are
// validated before being interpolated; values always travel as parameters.
func quoteIdent(name string) (string, error) {
	if name == "" {
		return "", errors.New("empty identifier")
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return "", fmt.Errorf("invalid identifier %q", name)
			}
		default:
			return "", fmt.Errorf("invalid identifier %q", name)
		}
	}
	return `"` + name + `"`, nil
}
