package domain

import (
	"encoding/json"
	"time"
)

// Operation identifies the kind of row-level change a history record
// describes. Values are stored as small integers.
type Operation int16

const (
	OperationCreate Operation = 1
	OperationDelete Operation = 2
	OperationUpdate Operation = 3
)

// IsValid checks if the operation is one of the known values.
func (o Operation) IsValid() bool {
	return o == OperationCreate || o == OperationDelete || o == OperationUpdate
}

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OperationCreate:
		return "CREATE"
	case OperationDelete:
		return "DELETE"
	case OperationUpdate:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// HistoryRecord is an audit entry capturing one executed operation and
// the row state needed to reverse it. Records are immutable once
// written, except for the Used flag which is flipped exactly once when
// an undo consumes the record.
type HistoryRecord struct {
	ID          int64
	TargetRowID string
	Operation   Operation
	ExecutedAt  time.Time
	// Snapshot holds the full row as JSON: the new row for CREATE,
	// the pre-delete row for DELETE, the pre-image for UPDATE.
	Snapshot json.RawMessage
	FromUndo bool
	UserID   string
	Used     bool
}
