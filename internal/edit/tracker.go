package edit

import (
	"fmt"
	"sync"

	"pedit/internal/model"
)

// SaveOp tells the persistence layer what to do with a materialized record.
type SaveOp int

const (
	// OpUpsert writes Player under ID, inserting it if it is new.
	OpUpsert SaveOp = iota
	// OpDelete removes ID. Player carries the pre-deletion snapshot.
	OpDelete
)

func (o SaveOp) String() string {
	switch o {
	case OpUpsert:
		return "upsert"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("SaveOp(%d)", int(o))
	}
}

// SaveRecord is one tracked change ready for persistence.
type SaveRecord struct {
	ID     model.ID
	Player model.Player
	Op     SaveOp
}

// Tracker coordinates changes to the snapshot store under the editing
// protocol: record edits, additions and deletions, revert by category, and
// clear or commit the whole change set.
//
// Reverts are two-phase. The affected entries are broadcast to the UI layer
// first, and purged from the store once every listener has acknowledged by
// returning, so the UI can still read originals while it repaints.
type Tracker struct {
	store   *SnapshotStore
	restore *RestoreBroadcast
	logger  Logger

	mu              sync.Mutex
	showOnlyTracked bool
}

// NewTracker creates a Tracker over the given store and broadcast.
func NewTracker(store *SnapshotStore, restore *RestoreBroadcast, logger Logger) *Tracker {
	return &Tracker{
		store:   store,
		restore: restore,
		logger:  logger,
	}
}

// RecordEdit records after as the working value for id. before is the
// pre-edit value, or nil if the record is new; it is captured only the first
// time id is touched. Reports whether id is still tracked: an edit that
// brings the record back to its original value removes it from tracking.
func (t *Tracker) RecordEdit(id model.ID, before *model.Player, after model.Player) bool {
	t.store.RecordOriginal(id, before)
	tracked := t.store.RecordCurrent(id, after)
	if !tracked {
		t.logger.Debug("edit reverted to original", "id", id)
	}
	return tracked
}

// MarkAdded tracks p as a record that did not exist before this session.
func (t *Tracker) MarkAdded(id model.ID, p model.Player) {
	t.store.RecordOriginal(id, nil)
	t.store.RecordCurrent(id, p)
	t.logger.Debug("record added", "id", id)
}

// MarkDeleted marks id for removal. Deleting a record that was itself added
// in this session purges it entirely. Otherwise p becomes the original unless
// one was already captured.
func (t *Tracker) MarkDeleted(id model.ID, p model.Player) {
	if e, ok := t.store.Get(id); ok && e.Original == nil {
		t.store.Remove(id)
		t.logger.Debug("unsaved addition discarded", "id", id)
		return
	}
	t.store.RecordOriginal(id, &p)
	t.store.MarkCurrentDeleted(id)
	t.logger.Debug("record marked for deletion", "id", id)
}

// RevertCategory reverts every tracked record in category c: modified records
// get their original values back, added records disappear and deleted records
// are restored. It returns the reverted IDs. When nothing matches, no event is
// published. A non-nil error means a listener failed to repaint; the entries
// are purged regardless.
func (t *Tracker) RevertCategory(c Category) ([]model.ID, error) {
	if c == CategoryNone {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	ids := t.store.IDs(c)
	if len(ids) == 0 {
		return nil, nil
	}
	err := t.revert(RestoreEvent{Category: c, Entries: t.entries(ids)})
	t.logger.Info("reverted changes", "category", c, "count", len(ids))
	return ids, err
}

// Revert reverts a single tracked record. Reports whether id was tracked.
func (t *Tracker) Revert(id model.ID) (bool, error) {
	e, ok := t.store.Get(id)
	if !ok {
		return false, nil
	}
	err := t.revert(RestoreEvent{Category: e.Category(), Entries: []Entry{e}})
	t.logger.Debug("reverted record", "id", id)
	return true, err
}

func (t *Tracker) revert(ev RestoreEvent) error {
	err := t.restore.Publish(ev)
	if err != nil {
		t.logger.Warn("restore listener failed", "error", err)
	}
	t.store.Remove(ev.IDs()...)
	return err
}

func (t *Tracker) entries(ids []model.ID) []Entry {
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		if e, ok := t.store.Get(id); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// ClearAll abandons the edit session: it publishes a global restore event,
// then empties the store and leaves the tracked-only view.
func (t *Tracker) ClearAll() error {
	n := t.store.Count()
	err := t.restore.Publish(RestoreEvent{All: true})
	if err != nil {
		t.logger.Warn("restore listener failed", "error", err)
	}
	t.reset()
	t.logger.Info("cleared all changes", "count", n)
	return err
}

// Commit empties the store without publishing a restore event. Use after a
// successful save, when the UI already shows the new baseline.
func (t *Tracker) Commit() {
	t.reset()
}

func (t *Tracker) reset() {
	t.store.Clear()
	t.mu.Lock()
	t.showOnlyTracked = false
	t.mu.Unlock()
}

// ToggleShowOnlyTracked flips the tracked-only view. When the view is on and
// narrowed to a category, it calls resetFilter and stays on instead, so the
// user lands on the full change set rather than leaving the view.
// Returns the new state.
//
// resetFilter runs after the tracker's lock is released, so it may call back
// into the tracker.
func (t *Tracker) ToggleShowOnlyTracked(filter Category, resetFilter func()) bool {
	t.mu.Lock()
	narrowed := t.showOnlyTracked && filter != CategoryNone
	if !narrowed {
		t.showOnlyTracked = !t.showOnlyTracked
	}
	show := t.showOnlyTracked
	t.mu.Unlock()

	if narrowed && resetFilter != nil {
		resetFilter()
	}
	return show
}

func (t *Tracker) ShowOnlyTracked() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.showOnlyTracked
}

// Materialize returns every tracked change ordered by ID. Deleted records are
// returned with OpDelete and their original snapshot; everything else is an
// OpUpsert of the current value.
func (t *Tracker) Materialize() []SaveRecord {
	var records []SaveRecord
	for _, e := range t.store.Entries() {
		if !e.HasCurrent {
			continue
		}
		if e.Current == nil {
			if e.Original == nil {
				continue
			}
			records = append(records, SaveRecord{ID: e.ID, Player: *e.Original, Op: OpDelete})
			continue
		}
		records = append(records, SaveRecord{ID: e.ID, Player: *e.Current, Op: OpUpsert})
	}
	return records
}

// Get returns the tracked entry for id.
func (t *Tracker) Get(id model.ID) (Entry, bool) { return t.store.Get(id) }

// Category returns the category of id, or CategoryNone when untracked.
func (t *Tracker) Category(id model.ID) Category {
	e, ok := t.store.Get(id)
	if !ok {
		return CategoryNone
	}
	return e.Category()
}

// Count returns the number of records with a pending change.
func (t *Tracker) Count() int { return t.store.Count() }

// CountByCategory returns the number of tracked records per category.
func (t *Tracker) CountByCategory() map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, e := range t.store.Entries() {
		if c := e.Category(); c != CategoryNone {
			counts[c]++
		}
	}
	return counts
}

// Entries returns the tracked entries in category c (all when CategoryNone).
func (t *Tracker) Entries(c Category) []Entry {
	if c == CategoryNone {
		return t.store.Entries()
	}
	return t.entries(t.store.IDs(c))
}

// Restore returns the broadcast the UI layer subscribes to.
func (t *Tracker) Restore() *RestoreBroadcast { return t.restore }
