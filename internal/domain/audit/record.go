package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verdantis/peaproc/internal/domain/errors"
)

// ChangeType categorizes an audited data change
type ChangeType string

const (
	ChangeCreate   ChangeType = "CREATE"
	ChangeUpdate   ChangeType = "UPDATE"
	ChangeDelete   ChangeType = "DELETE"
	ChangeValidate ChangeType = "VALIDATE"
)

// ParseChangeType validates and converts a string to a ChangeType
func ParseChangeType(s string) (ChangeType, error) {
	switch ChangeType(s) {
	case ChangeCreate, ChangeUpdate, ChangeDelete, ChangeValidate:
		return ChangeType(s), nil
	default:
		return "", errors.NewValidationError("UNKNOWN_CHANGE_TYPE",
			fmt.Sprintf("unknown change type: %s", s))
	}
}

// FieldChangeKind classifies one field-level difference
type FieldChangeKind string

const (
	FieldAdded    FieldChangeKind = "ADDED"
	FieldRemoved  FieldChangeKind = "REMOVED"
	FieldModified FieldChangeKind = "MODIFIED"
)

// FieldChange describes one field's difference between two documents
type FieldChange struct {
	Field string          `json:"field"`
	Kind  FieldChangeKind `json:"kind"`
	Old   interface{}     `json:"old,omitempty"`
	New   interface{}     `json:"new,omitempty"`
}

// Record is one entry in the audit trail. Records are immutable once
// appended; the trail only grows.
type Record struct {
	ID         uuid.UUID     `json:"id"`
	DataID     string        `json:"data_id"`
	UserID     string        `json:"user_id"`
	ChangeType ChangeType    `json:"change_type"`
	OldHash    string        `json:"old_hash,omitempty"`
	NewHash    string        `json:"new_hash"`
	Changes    []FieldChange `json:"changes,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

// NewRecord creates an audit Record with validation
func NewRecord(dataID, userID string, changeType ChangeType, oldHash, newHash string, changes []FieldChange, at time.Time) (Record, error) {
	if dataID == "" {
		return Record{}, errors.NewValidationError("EMPTY_DATA_ID", "data id cannot be empty")
	}
	if userID == "" {
		return Record{}, errors.NewValidationError("EMPTY_USER_ID", "user id cannot be empty")
	}
	if _, err := ParseChangeType(string(changeType)); err != nil {
		return Record{}, err
	}
	if newHash == "" {
		return Record{}, errors.NewValidationError("EMPTY_HASH", "new content hash cannot be empty")
	}

	copied := make([]FieldChange, len(changes))
	copy(copied, changes)

	return Record{
		ID:         uuid.New(),
		DataID:     dataID,
		UserID:     userID,
		ChangeType: changeType,
		OldHash:    oldHash,
		NewHash:    newHash,
		Changes:    copied,
		Timestamp:  at,
	}, nil
}

// Clone returns a deep copy of the record
func (r Record) Clone() Record {
	changes := make([]FieldChange, len(r.Changes))
	copy(changes, r.Changes)
	clone := r
	clone.Changes = changes
	return clone
}
