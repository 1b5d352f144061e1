package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/casewise/checkpoint/internal/record"
)

// createTestStore creates a new on-disk store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testTime returns a fixed base time, truncated to the stored millisecond
// resolution so round trips compare equal.
func testTime() time.Time {
	return time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)
}

// createTestCheckpoint builds a checkpoint with minimal required fields.
func createTestCheckpoint(id string, objectID int64, status record.Status, createdAt time.Time) record.Checkpoint {
	return record.Checkpoint{
		ID:          id,
		ObjectID:    objectID,
		Description: "test checkpoint",
		UserCommand: "do the thing",
		Status:      status,
		Source:      record.SourceAPI,
		CreatedAt:   createdAt,
	}
}

// createTestEntry builds an undo log entry with minimal required fields.
func createTestEntry(id, checkpointID string, op record.Operation, prev record.Data) record.UndoLogEntry {
	return record.UndoLogEntry{
		ID:           id,
		CheckpointID: checkpointID,
		ObjectID:     5,
		Operation:    op,
		TableName:    "Fields",
		PrimaryKey:   record.Data{"id": int64(9)},
		PreviousData: prev,
		CreatedAt:    testTime(),
	}
}

// mustInsertCheckpoint inserts or fails the test.
func mustInsertCheckpoint(t *testing.T, s *Store, cp record.Checkpoint) {
	t.Helper()
	if err := s.InsertCheckpoint(context.Background(), cp); err != nil {
		t.Fatalf("InsertCheckpoint(%s) failed: %v", cp.ID, err)
	}
}
