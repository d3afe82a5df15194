package edit

import (
	"database/sql"
	"time"

	"pedit/internal/model"
)

// Save operation statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// SaveOperation is one attempt to save a session's changes to a file.
type SaveOperation struct {
	ID             int64
	SessionID      string
	Path           string
	StartedAt      time.Time
	FinishedAt     sql.NullTime
	Status         string
	Modified       int
	Added          int
	Deleted        int
	ArchiveVersion sql.NullInt64 // set when the previous file was archived
	Encrypted      bool
	Error          string
}

// SavedChange is one record written by a successful save.
type SavedChange struct {
	RecordID model.ID
	Category Category
	Name     string
}

// History persists the record of save operations.
type History interface {
	// CreateSaveOperation inserts a running operation and assigns its ID.
	CreateSaveOperation(sessionID, path string, startedAt time.Time) (*SaveOperation, error)

	// FinishSaveOperation stores the final status, counts and archive details
	// of op together with the changes it wrote, in one transaction.
	FinishSaveOperation(op *SaveOperation, changes []SavedChange) error

	// FindSaveOperation returns the operation with the given ID, or nil if none.
	FindSaveOperation(id int64) (*SaveOperation, error)

	// ListSaveOperations returns the most recent operations, newest first.
	ListSaveOperations(limit int) ([]*SaveOperation, error)

	// ListSavedChanges returns the changes written by operation id ordered by record ID.
	ListSavedChanges(id int64) ([]SavedChange, error)

	// Close closes the underlying connection.
	Close() error
}
