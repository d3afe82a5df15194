package edit

import (
	"slices"
	"sync"

	"pedit/internal/model"
)

// Entry is the tracked state of one record.
//
// Original is nil when the record did not exist before editing began (added).
// Current is nil when the record is marked for deletion. HasCurrent is false
// only in the instant between recording the original and the first current
// value; such entries are swept by cleanup.
type Entry struct {
	ID         model.ID
	Original   *model.Player
	Current    *model.Player
	HasCurrent bool
}

// Category classifies the entry. Entries without a current slot have no category.
func (e Entry) Category() Category {
	if !e.HasCurrent {
		return CategoryNone
	}
	switch {
	case e.Original == nil && e.Current != nil:
		return CategoryAdded
	case e.Original != nil && e.Current == nil:
		return CategoryDeleted
	case e.Original != nil && e.Current != nil:
		return CategoryModified
	default:
		return CategoryNone
	}
}

// SnapshotStore holds the original and current snapshot of every record with
// a pending change. It is the only source of truth for what has changed.
// Missing IDs simply read as untracked; no operation fails.
// This implementation is safe for concurrent use.
type SnapshotStore struct {
	mu        sync.Mutex
	originals map[model.ID]*model.Player // nil value: absent (added record)
	currents  map[model.ID]*model.Player // nil value: deleted
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		originals: make(map[model.ID]*model.Player),
		currents:  make(map[model.ID]*model.Player),
	}
}

// RecordOriginal stores the original snapshot for id unless one is already held.
// A nil player records the "absent" sentinel. Reports whether it stored anything.
func (s *SnapshotStore) RecordOriginal(id model.ID, p *model.Player) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.originals[id]; ok {
		return false
	}
	s.originals[id] = clonePlayer(p)
	return true
}

// RecordCurrent overwrites the current snapshot for id and then runs cleanup.
// Reports whether id is still tracked afterwards.
func (s *SnapshotStore) RecordCurrent(id model.ID, p model.Player) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := p.Clone()
	s.currents[id] = &c
	return !s.cleanupLocked(id)
}

// MarkCurrentDeleted sets the current slot for id to the deleted sentinel.
func (s *SnapshotStore) MarkCurrentDeleted(id model.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currents[id] = nil
}

// Cleanup purges id when it no longer represents a net change: the original
// is present and either no current value was ever recorded or the current
// value equals the original. Reports whether id was purged.
func (s *SnapshotStore) Cleanup(id model.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked(id)
}

func (s *SnapshotStore) cleanupLocked(id model.ID) bool {
	original, ok := s.originals[id]
	if !ok || original == nil {
		return false
	}
	current, hasCurrent := s.currents[id]
	if hasCurrent && !model.Equal(original, current) {
		return false
	}
	delete(s.originals, id)
	delete(s.currents, id)
	return true
}

// Get returns the tracked entry for id. The returned snapshots are copies.
func (s *SnapshotStore) Get(id model.ID) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entryLocked(id)
}

func (s *SnapshotStore) entryLocked(id model.ID) (Entry, bool) {
	original, hasOriginal := s.originals[id]
	current, hasCurrent := s.currents[id]
	if !hasOriginal && !hasCurrent {
		return Entry{}, false
	}
	return Entry{
		ID:         id,
		Original:   clonePlayer(original),
		Current:    clonePlayer(current),
		HasCurrent: hasCurrent,
	}, true
}

// Count returns the number of distinct tracked IDs.
func (s *SnapshotStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.originals)
	for id := range s.currents {
		if _, ok := s.originals[id]; !ok {
			n++
		}
	}
	return n
}

// Entries returns every tracked entry ordered by ID.
func (s *SnapshotStore) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.idsLocked()
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		e, _ := s.entryLocked(id)
		entries = append(entries, e)
	}
	return entries
}

// IDs returns the tracked IDs in category c, ordered by ID.
// CategoryNone returns every tracked ID.
func (s *SnapshotStore) IDs(c Category) []model.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.idsLocked()
	if c == CategoryNone {
		return all
	}
	var ids []model.ID
	for _, id := range all {
		e, _ := s.entryLocked(id)
		if e.Category() == c {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *SnapshotStore) idsLocked() []model.ID {
	ids := make([]model.ID, 0, len(s.originals))
	for id := range s.originals {
		ids = append(ids, id)
	}
	for id := range s.currents {
		if _, ok := s.originals[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Remove purges the given IDs from both slots.
func (s *SnapshotStore) Remove(ids ...model.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.originals, id)
		delete(s.currents, id)
	}
}

// Clear empties both slots.
func (s *SnapshotStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.originals = make(map[model.ID]*model.Player)
	s.currents = make(map[model.ID]*model.Player)
}

func clonePlayer(p *model.Player) *model.Player {
	if p == nil {
		return nil
	}
	c := p.Clone()
	return &c
}
