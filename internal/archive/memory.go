package archive

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sync"

	"pedit/internal/edit"
)

// MemoryArchive is an in-memory implementation of the Archive interface.
// Backups are lost when the process exits, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryArchive struct {
	name    string
	backups map[string]map[int64][]byte // file name -> version -> content
	mu      sync.RWMutex
}

// NewMemoryArchive creates a new in-memory archive with the given name.
func NewMemoryArchive(name string) *MemoryArchive {
	return &MemoryArchive{
		name:    name,
		backups: make(map[string]map[int64][]byte),
	}
}

// PutBackup stores a backup of name at version, replacing any previous one.
func (m *MemoryArchive) PutBackup(name string, version int64, r io.Reader, size int64) error {
	if err := validateName(name); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	versions, ok := m.backups[name]
	if !ok {
		versions = make(map[int64][]byte)
		m.backups[name] = versions
	}
	versions[version] = data
	return nil
}

// GetBackup writes the backup of name at version to w.
func (m *MemoryArchive) GetBackup(name string, version int64, w io.Writer) error {
	m.mu.RLock()
	data, ok := m.backups[name][version]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s version %d", ErrBackupNotFound, name, version)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// ListBackups returns the stored versions of name in ascending order.
func (m *MemoryArchive) ListBackups(name string) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	versions := make([]int64, 0, len(m.backups[name]))
	for v := range m.backups[name] {
		versions = append(versions, v)
	}
	slices.Sort(versions)
	return versions, nil
}

// ValidateSetup always succeeds for the in-memory archive.
func (m *MemoryArchive) ValidateSetup() error {
	return nil
}

// Name returns the archive's name.
func (m *MemoryArchive) Name() string {
	return m.name
}

// Compile-time check that MemoryArchive implements edit.Archive interface
var _ edit.Archive = (*MemoryArchive)(nil)
