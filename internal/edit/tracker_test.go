package edit

import (
	"errors"
	"testing"
	"time"

	"pedit/internal/model"
)

func newTestTracker() *Tracker {
	return NewTracker(NewSnapshotStore(), NewRestoreBroadcast(), NewNopLogger())
}

func TestTracker_RecordEdit(t *testing.T) {
	t.Run("edit back to original untracks", func(t *testing.T) {
		tr := newTestTracker()
		before := testPlayer(75)

		if !tr.RecordEdit(7, &before, testPlayer(80)) {
			t.Error("RecordEdit() = false, want true")
		}
		if got := tr.Category(7); got != CategoryModified {
			t.Errorf("Category() = %q, want %q", got, CategoryModified)
		}

		current := testPlayer(80)
		if tr.RecordEdit(7, &current, testPlayer(75)) {
			t.Error("RecordEdit() back to original = true, want false")
		}
		if tr.Count() != 0 {
			t.Errorf("Count() = %d, want 0", tr.Count())
		}
	})

	t.Run("original is captured once", func(t *testing.T) {
		tr := newTestTracker()
		v0, v1 := testPlayer(75), testPlayer(80)

		tr.RecordEdit(7, &v0, v1)
		tr.RecordEdit(7, &v1, testPlayer(85))

		e, ok := tr.Get(7)
		if !ok {
			t.Fatal("Get() ok = false")
		}
		if *e.Original.CA != 75 {
			t.Errorf("Original.CA = %d, want 75", *e.Original.CA)
		}
		if *e.Current.CA != 85 {
			t.Errorf("Current.CA = %d, want 85", *e.Current.CA)
		}
	})

	t.Run("editing an added record keeps it added", func(t *testing.T) {
		tr := newTestTracker()
		tr.MarkAdded(100, testPlayer(50))
		tr.RecordEdit(100, nil, testPlayer(55))
		if got := tr.Category(100); got != CategoryAdded {
			t.Errorf("Category() = %q, want %q", got, CategoryAdded)
		}
	})
}

func TestTracker_MarkDeleted(t *testing.T) {
	t.Run("untracked record becomes deleted", func(t *testing.T) {
		tr := newTestTracker()
		tr.MarkDeleted(7, testPlayer(75))

		e, ok := tr.Get(7)
		if !ok {
			t.Fatal("Get() ok = false")
		}
		if e.Category() != CategoryDeleted {
			t.Errorf("Category() = %q, want %q", e.Category(), CategoryDeleted)
		}
		if e.Current != nil || *e.Original.CA != 75 {
			t.Errorf("entry = %+v, want original CA 75 and no current", e)
		}
	})

	t.Run("modified record keeps its original", func(t *testing.T) {
		tr := newTestTracker()
		before := testPlayer(75)
		tr.RecordEdit(7, &before, testPlayer(80))
		tr.MarkDeleted(7, testPlayer(80))

		e, _ := tr.Get(7)
		if e.Category() != CategoryDeleted {
			t.Errorf("Category() = %q, want %q", e.Category(), CategoryDeleted)
		}
		if *e.Original.CA != 75 {
			t.Errorf("Original.CA = %d, want 75", *e.Original.CA)
		}
	})

	t.Run("deleting an addition purges it", func(t *testing.T) {
		tr := newTestTracker()
		tr.MarkAdded(100, testPlayer(50))
		tr.MarkDeleted(100, testPlayer(50))
		if _, ok := tr.Get(100); ok {
			t.Error("Get() ok = true, want addition purged")
		}
	})
}

func TestTracker_CategoriesPartition(t *testing.T) {
	tr := newTestTracker()
	a, b := testPlayer(75), testPlayer(60)
	tr.RecordEdit(1, &a, testPlayer(80))
	tr.MarkDeleted(2, b)
	tr.MarkAdded(100, testPlayer(50))

	seen := make(map[model.ID]int)
	for _, c := range Categories {
		for _, e := range tr.Entries(c) {
			seen[e.ID]++
		}
	}
	for _, e := range tr.Entries(CategoryNone) {
		if seen[e.ID] != 1 {
			t.Errorf("id %d appears in %d categories, want 1", e.ID, seen[e.ID])
		}
	}

	counts := tr.CountByCategory()
	for _, c := range Categories {
		if counts[c] != 1 {
			t.Errorf("CountByCategory()[%s] = %d, want 1", c, counts[c])
		}
	}
}

func TestTracker_RevertCategory(t *testing.T) {
	t.Run("broadcasts before purging", func(t *testing.T) {
		tr := newTestTracker()
		tr.MarkAdded(100, testPlayer(50))
		before := testPlayer(75)
		tr.RecordEdit(7, &before, testPlayer(80))

		var events []RestoreEvent
		tr.Restore().Subscribe(func(ev RestoreEvent) error {
			events = append(events, ev)
			if _, ok := tr.Get(100); !ok {
				t.Error("entry purged before the listener acknowledged")
			}
			return nil
		})

		ids, err := tr.RevertCategory(CategoryAdded)
		if err != nil {
			t.Fatalf("RevertCategory() error = %v", err)
		}
		if len(ids) != 1 || ids[0] != 100 {
			t.Errorf("RevertCategory() = %v, want [100]", ids)
		}
		if len(events) != 1 || events[0].All || events[0].Category != CategoryAdded {
			t.Fatalf("events = %+v, want one scoped added event", events)
		}
		if got := events[0].IDs(); len(got) != 1 || got[0] != 100 {
			t.Errorf("event IDs = %v, want [100]", got)
		}
		if _, ok := tr.Get(100); ok {
			t.Error("added entry still tracked after revert")
		}
		if tr.Category(7) != CategoryModified {
			t.Error("revert of added touched a modified entry")
		}
	})

	t.Run("modified event carries originals", func(t *testing.T) {
		tr := newTestTracker()
		before := testPlayer(75)
		tr.RecordEdit(7, &before, testPlayer(80))

		var original *model.Player
		tr.Restore().Subscribe(func(ev RestoreEvent) error {
			original = ev.Entries[0].Original
			return nil
		})
		if _, err := tr.RevertCategory(CategoryModified); err != nil {
			t.Fatalf("RevertCategory() error = %v", err)
		}
		if original == nil || *original.CA != 75 {
			t.Errorf("event original = %v, want CA 75", original)
		}
	})

	t.Run("nothing to revert is a no-op", func(t *testing.T) {
		tr := newTestTracker()
		before := testPlayer(75)
		tr.RecordEdit(7, &before, testPlayer(80))

		published := false
		tr.Restore().Subscribe(func(RestoreEvent) error { published = true; return nil })

		ids, err := tr.RevertCategory(CategoryDeleted)
		if err != nil || ids != nil {
			t.Errorf("RevertCategory() = %v, %v, want nil, nil", ids, err)
		}
		if published {
			t.Error("RevertCategory() published with no matching entries")
		}
		if tr.Count() != 1 {
			t.Errorf("Count() = %d, want 1", tr.Count())
		}
	})

	t.Run("listener failure still purges", func(t *testing.T) {
		tr := newTestTracker()
		tr.MarkDeleted(7, testPlayer(75))
		tr.Restore().Subscribe(func(RestoreEvent) error { return errors.New("repaint failed") })

		if _, err := tr.RevertCategory(CategoryDeleted); err == nil {
			t.Error("RevertCategory() error = nil, want listener error")
		}
		if tr.Count() != 0 {
			t.Errorf("Count() = %d, want 0", tr.Count())
		}
	})

	t.Run("rejects the all view", func(t *testing.T) {
		tr := newTestTracker()
		if _, err := tr.RevertCategory(CategoryNone); !errors.Is(err, ErrUnknownCategory) {
			t.Errorf("RevertCategory() error = %v, want ErrUnknownCategory", err)
		}
	})
}

func TestTracker_Revert(t *testing.T) {
	tr := newTestTracker()
	tr.MarkDeleted(7, testPlayer(75))
	tr.MarkDeleted(8, testPlayer(60))

	var got RestoreEvent
	tr.Restore().Subscribe(func(ev RestoreEvent) error { got = ev; return nil })

	ok, err := tr.Revert(7)
	if err != nil || !ok {
		t.Fatalf("Revert() = %v, %v, want true, nil", ok, err)
	}
	if ids := got.IDs(); len(ids) != 1 || ids[0] != 7 || got.Category != CategoryDeleted {
		t.Errorf("event = %+v, want scoped deleted event for 7", got)
	}
	if tr.Category(8) != CategoryDeleted {
		t.Error("Revert(7) touched 8")
	}

	ok, err = tr.Revert(42)
	if err != nil || ok {
		t.Errorf("Revert(untracked) = %v, %v, want false, nil", ok, err)
	}
}

func TestTracker_ClearAllAndCommit(t *testing.T) {
	setup := func() *Tracker {
		tr := newTestTracker()
		before := testPlayer(75)
		tr.RecordEdit(7, &before, testPlayer(80))
		tr.MarkAdded(100, testPlayer(50))
		tr.ToggleShowOnlyTracked(CategoryNone, nil)
		return tr
	}

	t.Run("clear all broadcasts a global event", func(t *testing.T) {
		tr := setup()
		var events []RestoreEvent
		tr.Restore().Subscribe(func(ev RestoreEvent) error {
			events = append(events, ev)
			if tr.Count() != 2 {
				t.Errorf("Count() during broadcast = %d, want 2", tr.Count())
			}
			return nil
		})

		if err := tr.ClearAll(); err != nil {
			t.Fatalf("ClearAll() error = %v", err)
		}
		if len(events) != 1 || !events[0].All {
			t.Errorf("events = %+v, want one global event", events)
		}
		if tr.Count() != 0 || tr.ShowOnlyTracked() {
			t.Errorf("after ClearAll: Count = %d, ShowOnlyTracked = %v", tr.Count(), tr.ShowOnlyTracked())
		}
	})

	t.Run("commit does not broadcast", func(t *testing.T) {
		tr := setup()
		published := false
		tr.Restore().Subscribe(func(RestoreEvent) error { published = true; return nil })

		tr.Commit()
		if published {
			t.Error("Commit() published a restore event")
		}
		if tr.Count() != 0 || tr.ShowOnlyTracked() {
			t.Errorf("after Commit: Count = %d, ShowOnlyTracked = %v", tr.Count(), tr.ShowOnlyTracked())
		}
	})
}

func TestTracker_ToggleShowOnlyTracked(t *testing.T) {
	tr := newTestTracker()
	resets := 0
	reset := func() { resets++ }

	if !tr.ToggleShowOnlyTracked(CategoryNone, reset) {
		t.Fatal("first toggle = false, want true")
	}
	if !tr.ToggleShowOnlyTracked(CategoryModified, reset) {
		t.Error("toggle under a category view = false, want it kept on")
	}
	if resets != 1 {
		t.Errorf("resetFilter called %d times, want 1", resets)
	}
	if tr.ToggleShowOnlyTracked(CategoryNone, reset) {
		t.Error("toggle under the all view = true, want false")
	}
	if resets != 1 {
		t.Errorf("resetFilter called %d times, want 1", resets)
	}
}

func TestTracker_ToggleShowOnlyTracked_ResetCallsBack(t *testing.T) {
	tr := newTestTracker()
	tr.RecordEdit(1, model.Ptr(testPlayer(75)), testPlayer(80))
	tr.ToggleShowOnlyTracked(CategoryNone, nil)

	var sawShow bool
	var sawCount int
	done := make(chan bool, 1)
	go func() {
		done <- tr.ToggleShowOnlyTracked(CategoryModified, func() {
			sawShow = tr.ShowOnlyTracked()
			sawCount = tr.Count()
		})
	}()

	select {
	case show := <-done:
		if !show {
			t.Error("ToggleShowOnlyTracked() = false, want the view kept on")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ToggleShowOnlyTracked() did not return while resetFilter read the tracker")
	}
	if !sawShow || sawCount != 1 {
		t.Errorf("resetFilter saw ShowOnlyTracked = %v, Count = %d, want true, 1", sawShow, sawCount)
	}
}

func TestTracker_Materialize(t *testing.T) {
	tr := newTestTracker()
	before := testPlayer(75)
	tr.RecordEdit(9, &before, testPlayer(80))
	tr.MarkDeleted(7, testPlayer(60))
	tr.MarkAdded(100, testPlayer(50))

	records := tr.Materialize()
	want := []struct {
		id model.ID
		ca int
		op SaveOp
	}{
		{id: 7, ca: 60, op: OpDelete},
		{id: 9, ca: 80, op: OpUpsert},
		{id: 100, ca: 50, op: OpUpsert},
	}
	if len(records) != len(want) {
		t.Fatalf("Materialize() returned %d records, want %d", len(records), len(want))
	}
	for i, w := range want {
		r := records[i]
		if r.ID != w.id || *r.Player.CA != w.ca || r.Op != w.op {
			t.Errorf("record %d = {%d CA=%d %s}, want {%d CA=%d %s}", i, r.ID, *r.Player.CA, r.Op, w.id, w.ca, w.op)
		}
	}
}
