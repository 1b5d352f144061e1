package record

import "time"

// Status is the lifecycle state of a checkpoint.
type Status string

const (
	// StatusActive marks a checkpoint that is still collecting operations.
	StatusActive Status = "active"

	// StatusHistorical marks a committed checkpoint whose undo log is
	// retained so the checkpoint remains restorable.
	StatusHistorical Status = "historical"

	// StatusRolledBack marks a consumed checkpoint. Terminal.
	StatusRolledBack Status = "rolled_back"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusHistorical, StatusRolledBack:
		return true
	}
	return false
}

// Source identifies which caller opened a checkpoint.
type Source string

const (
	SourceLLM Source = "LLM"
	SourceMCP Source = "MCP"
	SourceAPI Source = "API"
)

// Valid reports whether s is a known source value.
func (s Source) Valid() bool {
	switch s {
	case SourceLLM, SourceMCP, SourceAPI:
		return true
	}
	return false
}

// Operation is the kind of row mutation an undo log entry reverses.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Valid reports whether o is a known operation value.
func (o Operation) Valid() bool {
	switch o {
	case OpInsert, OpUpdate, OpDelete:
		return true
	}
	return false
}

// Checkpoint is the durable record of one logical transaction.
type Checkpoint struct {
	// ID is an opaque unique identifier (UUIDv7, time-sortable).
	ID string `json:"id"`

	// ObjectID scopes the checkpoint to its owning entity.
	ObjectID int64 `json:"objectid"`

	// ApplicationID optionally scopes the checkpoint to a wider entity.
	ApplicationID *int64 `json:"applicationid,omitempty"`

	Description string `json:"description"`
	UserCommand string `json:"user_command"`
	Status      Status `json:"status"`
	Source      Source `json:"source"`

	// ToolsExecuted lists tool names recorded against this checkpoint,
	// in execution order. Audit only; never affects rollback.
	ToolsExecuted []string `json:"tools_executed"`

	// ChangesCount is the number of log entries present at commit time.
	// Zero until the checkpoint is committed.
	ChangesCount int64 `json:"changes_count"`

	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// UndoLogEntry is the recorded pre-image of one row mutation.
type UndoLogEntry struct {
	ID           string `json:"id"`
	CheckpointID string `json:"checkpoint_id"`
	ObjectID     int64  `json:"objectid"`

	// Seq is a monotonic per-checkpoint sequence number. Replay during
	// rollback/restore proceeds in exact descending Seq order.
	Seq int64 `json:"seq"`

	Operation Operation `json:"operation"`
	TableName string    `json:"table_name"`

	// PrimaryKey identifies the affected row by exact equality across
	// every key column.
	PrimaryKey Data `json:"primary_key"`

	// PreviousData is the full pre-image of the row. Nil for insert
	// entries (nothing existed before); required for update/delete.
	PreviousData Data `json:"previous_data,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}
