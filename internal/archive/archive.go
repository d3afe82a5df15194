// Package archive stores copies of roster files as they were before a save
// replaced them. Backups are keyed by file name and version.
package archive

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBackupNotFound is returned when no backup exists for a name and version.
var ErrBackupNotFound = errors.New("backup not found")

// validateName rejects names that would escape a backend's namespace.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid backup name: %q", name)
	}
	return nil
}

// versionKey formats a version so that lexical order matches numeric order.
func versionKey(version int64) string {
	return fmt.Sprintf("%020d", version)
}
