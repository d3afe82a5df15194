package edit

import (
	"bufio"
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"pedit/internal/model"
)

// Save writes the session's changes to path (the loaded file when empty).
//
// Order: archive the file as it is on disk, write the merged roster through a
// temporary file renamed into place, fold the changes into the baseline and
// clear the tracker. If anything fails before the rename, the file and the
// tracked changes are left untouched. Every attempt is recorded in history.
func (s *Service) Save(path string) (*SaveOperation, error) {
	if path == "" {
		path = s.Path()
	}
	if path == "" {
		return nil, ErrNoFileLoaded
	}

	op, err := s.history.CreateSaveOperation(s.sessionID, path, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("recording save operation: %w", err)
	}

	records := s.tracker.Materialize()
	changes := make([]SavedChange, 0, len(records))
	for _, r := range records {
		c := s.tracker.Category(r.ID)
		switch c {
		case CategoryModified:
			op.Modified++
		case CategoryAdded:
			op.Added++
		case CategoryDeleted:
			op.Deleted++
		}
		changes = append(changes, SavedChange{RecordID: r.ID, Category: c, Name: r.Player.DisplayName()})
	}

	if err := s.write(op, path, records); err != nil {
		op.Status = StatusError
		op.Error = err.Error()
		s.finish(op, nil)
		s.logger.Error("save failed", "path", path, "error", err)
		return op, err
	}

	s.roster.Apply(records)
	s.tracker.Commit()
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()

	op.Status = StatusSuccess
	s.finish(op, changes)
	s.logger.Info("roster saved", "path", path, "modified", op.Modified, "added", op.Added, "deleted", op.Deleted)
	return op, nil
}

func (s *Service) finish(op *SaveOperation, changes []SavedChange) {
	op.FinishedAt.Time = s.clock.Now()
	op.FinishedAt.Valid = true
	if err := s.history.FinishSaveOperation(op, changes); err != nil {
		s.logger.Error("failed to record save result", "id", op.ID, "error", err)
	}
}

func (s *Service) write(op *SaveOperation, path string, records []SaveRecord) error {
	if err := s.archivePrevious(op, path); err != nil {
		return err
	}
	merged := mergeRecords(s.roster.All(), records)
	return writeFileAtomic(path, func(w io.Writer) error {
		return s.codec.Encode(w, merged)
	})
}

// archivePrevious stores the current on-disk content of path in the archive
// under the operation's ID. A missing file has nothing to archive.
func (s *Service) archivePrevious(op *SaveOperation, path string) error {
	if s.archive == nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading previous roster file: %w", err)
	}

	encrypted := s.encryptor != nil && s.encryptor.IsConfigured()
	if encrypted {
		var buf bytes.Buffer
		if err := s.encryptor.Encrypt(bytes.NewReader(data), &buf); err != nil {
			return fmt.Errorf("encrypting backup: %w", err)
		}
		data = buf.Bytes()
	}

	if err := s.archive.PutBackup(filepath.Base(path), op.ID, bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("archiving previous roster file: %w", err)
	}
	op.ArchiveVersion.Int64 = op.ID
	op.ArchiveVersion.Valid = true
	op.Encrypted = encrypted
	s.logger.Debug("previous roster archived", "archive", s.archive.Name(), "path", path, "version", op.ID, "encrypted", encrypted)
	return nil
}

// mergeRecords applies changes to base and returns the result ordered by ID.
func mergeRecords(base []model.PlayerRecord, changes []SaveRecord) []model.PlayerRecord {
	byID := make(map[model.ID]model.Player, len(base)+len(changes))
	for _, r := range base {
		byID[r.ID] = r.Player
	}
	for _, c := range changes {
		if c.Op == OpDelete {
			delete(byID, c.ID)
			continue
		}
		byID[c.ID] = c.Player
	}
	merged := make([]model.PlayerRecord, 0, len(byID))
	for id, p := range byID {
		merged = append(merged, model.PlayerRecord{ID: id, Player: p})
	}
	slices.SortFunc(merged, func(a, b model.PlayerRecord) int { return cmp.Compare(a.ID, b.ID) })
	return merged
}

// writeFileAtomic writes to a temporary file in path's directory and renames
// it over path once fn and all flushing succeeded.
func writeFileAtomic(path string, fn func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	w := bufio.NewWriter(tmp)
	if err := fn(w); err != nil {
		cleanup()
		return fmt.Errorf("encoding roster: %w", err)
	}
	if err := w.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("writing roster: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing roster: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing roster file: %w", err)
	}
	return nil
}

// History returns the most recent save operations, newest first.
func (s *Service) History(limit int) ([]*SaveOperation, error) {
	ops, err := s.history.ListSaveOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing save operations: %w", err)
	}
	return ops, nil
}

// SaveOperation returns the save operation with the given ID, or nil if none.
func (s *Service) SaveOperation(id int64) (*SaveOperation, error) {
	op, err := s.history.FindSaveOperation(id)
	if err != nil {
		return nil, fmt.Errorf("finding save operation: %w", err)
	}
	return op, nil
}

// SavedChanges returns the records written by save operation id.
func (s *Service) SavedChanges(id int64) ([]SavedChange, error) {
	changes, err := s.history.ListSavedChanges(id)
	if err != nil {
		return nil, fmt.Errorf("listing saved changes: %w", err)
	}
	return changes, nil
}

// RestoreBackup writes the file archived by save operation id to w.
// passphrase is only called when the backup is encrypted.
func (s *Service) RestoreBackup(id int64, passphrase func() (string, error), w io.Writer) (*SaveOperation, error) {
	op, err := s.history.FindSaveOperation(id)
	if err != nil {
		return nil, fmt.Errorf("finding save operation: %w", err)
	}
	if op == nil {
		return nil, fmt.Errorf("save operation not found: %d", id)
	}
	if !op.ArchiveVersion.Valid {
		return op, fmt.Errorf("save operation %d has no archived backup", id)
	}
	if s.archive == nil {
		return op, fmt.Errorf("no archive configured")
	}
	name := filepath.Base(op.Path)
	version := op.ArchiveVersion.Int64

	if !op.Encrypted {
		if err := s.archive.GetBackup(name, version, w); err != nil {
			return op, fmt.Errorf("retrieving backup: %w", err)
		}
		return op, nil
	}

	if s.encryptor == nil || !s.encryptor.IsConfigured() {
		return op, fmt.Errorf("backup is encrypted but no encryption keys are configured")
	}
	pass, err := passphrase()
	if err != nil {
		return op, fmt.Errorf("reading passphrase: %w", err)
	}
	decryptCtx, err := s.encryptor.Unlock(pass)
	if err != nil {
		return op, fmt.Errorf("unlocking private key: %w", err)
	}

	pr, pw := io.Pipe()
	archiveErrCh := make(chan error, 1)
	go func() {
		err := s.archive.GetBackup(name, version, pw)
		pw.CloseWithError(err)
		archiveErrCh <- err
	}()

	decryptErr := decryptCtx.Decrypt(pr, w)
	pr.CloseWithError(decryptErr)
	archiveErr := <-archiveErrCh

	if decryptErr != nil {
		return op, fmt.Errorf("decrypting backup: %w", decryptErr)
	}
	if archiveErr != nil {
		return op, fmt.Errorf("retrieving backup: %w", archiveErr)
	}
	s.logger.Info("backup restored", "id", id, "path", op.Path)
	return op, nil
}
