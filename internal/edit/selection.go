package edit

import (
	"slices"
	"sync"

	"pedit/internal/model"
)

// Selection is the set of record IDs the user picked for bulk actions.
// It is independent of edit tracking: deselecting never reverts an edit and
// reverting never changes the selection.
// This implementation is safe for concurrent use.
type Selection struct {
	mu               sync.Mutex
	ids              map[model.ID]struct{}
	showOnlySelected bool
}

// NewSelection creates an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[model.ID]struct{})}
}

// Toggle flips the selection state of id and reports whether it is now selected.
func (s *Selection) Toggle(id model.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// SelectAll adds ids to the selection.
func (s *Selection) SelectAll(ids []model.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// DeselectAll empties the selection and turns off the selected-only view.
func (s *Selection) DeselectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[model.ID]struct{})
	s.showOnlySelected = false
}

// Set replaces the selection wholesale.
func (s *Selection) Set(ids []model.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[model.ID]struct{}, len(ids))
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

// Deselect removes id from the selection.
func (s *Selection) Deselect(id model.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

func (s *Selection) IsSelected(id model.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// IDs returns the selected IDs in ascending order.
func (s *Selection) IDs() []model.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]model.ID, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

func (s *Selection) ShowOnlySelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showOnlySelected
}

func (s *Selection) SetShowOnlySelected(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showOnlySelected = show
}
