package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"pedit/internal/edit"
)

const backupExt = ".bak"

// FileSystemArchive stores backups as files in a directory structure:
//
//	<root>/
//	  <name>/
//	    <version>.bak   (zero-padded so directory listings sort by version)
type FileSystemArchive struct {
	name string
	root string
}

// NewFileSystemArchive creates a new filesystem archive rooted at the given path.
func NewFileSystemArchive(name, root string) (*FileSystemArchive, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &FileSystemArchive{name: name, root: root}, nil
}

func (a *FileSystemArchive) backupPath(name string, version int64) string {
	return filepath.Join(a.root, name, versionKey(version)+backupExt)
}

// PutBackup stores a backup using an atomic write (temp file + rename).
func (a *FileSystemArchive) PutBackup(name string, version int64, r io.Reader, size int64) error {
	if err := validateName(name); err != nil {
		return err
	}
	destPath := a.backupPath(name, version)
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// GetBackup writes the backup of name at version to w.
func (a *FileSystemArchive) GetBackup(name string, version int64, w io.Writer) error {
	if err := validateName(name); err != nil {
		return err
	}
	f, err := os.Open(a.backupPath(name, version))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s version %d", ErrBackupNotFound, name, version)
		}
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	return nil
}

// ListBackups returns the stored versions of name in ascending order.
// Files that do not look like backups are ignored.
func (a *FileSystemArchive) ListBackups(name string) ([]int64, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(a.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing backups: %w", err)
	}

	var versions []int64
	for _, e := range entries {
		base, ok := strings.CutSuffix(e.Name(), backupExt)
		if e.IsDir() || !ok {
			continue
		}
		v, err := strconv.ParseInt(base, 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}
	slices.Sort(versions)
	return versions, nil
}

// ValidateSetup verifies that the archive root is an accessible directory.
func (a *FileSystemArchive) ValidateSetup() error {
	info, err := os.Stat(a.root)
	if err != nil {
		return fmt.Errorf("archive root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("archive root is not a directory: %s", a.root)
	}
	return nil
}

// Name returns the archive's name.
func (a *FileSystemArchive) Name() string {
	return a.name
}

// Compile-time check that FileSystemArchive implements edit.Archive interface
var _ edit.Archive = (*FileSystemArchive)(nil)
