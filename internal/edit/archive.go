package edit

import "io"

// Archive keeps copies of roster files as they were before a save overwrote them.
// Backups are addressed by file name and version (the save operation ID).
type Archive interface {
	// Name identifies the archive in logs.
	Name() string

	// PutBackup stores a backup. size is the number of bytes that will be read from r.
	PutBackup(name string, version int64, r io.Reader, size int64) error

	// GetBackup writes the backup to w.
	GetBackup(name string, version int64, w io.Writer) error

	// ListBackups returns the stored versions of name in ascending order.
	ListBackups(name string) ([]int64, error)

	// ValidateSetup verifies that the archive is accessible.
	ValidateSetup() error
}
