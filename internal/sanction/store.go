package sanction

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrRecordNotFound is returned by stores when a record id does not exist.
var ErrRecordNotFound = errors.New("sanction record not found")

// PersistenceError wraps a storage failure so callers can tell it apart
// from a not-found result and decide whether to block the user action or
// retry the sanction later.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("sanction store %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistenceError reports whether err originated in the sanction store.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// Store is the persistence contract for the engine. Implementations must
// keep AppendRecord append-only and PutStatus keyed by user; the engine
// handles per-user serialization on top.
type Store interface {
	// AppendRecord persists a new sanction record.
	AppendRecord(record *Record) error

	// GetRecord returns one record by id, or ErrRecordNotFound.
	GetRecord(id uuid.UUID) (*Record, error)

	// UpdateRecord persists changes to the mutable fields of a record.
	UpdateRecord(record *Record) error

	// GetRecordsByUser returns a user's full history, newest first.
	GetRecordsByUser(userID uuid.UUID) ([]Record, error)

	// ListRecords returns all records, optionally only active ones.
	ListRecords(activeOnly bool) ([]Record, error)

	// GetStatus returns the stored projection for a user, or (nil, nil)
	// when the user has never been sanctioned.
	GetStatus(userID uuid.UUID) (*UserStatus, error)

	// PutStatus creates or replaces the projection for a user.
	PutStatus(status *UserStatus) error
}
