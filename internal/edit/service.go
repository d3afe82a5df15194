package edit

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"pedit/internal/model"
)

var (
	// ErrUnknownPlayer is returned for IDs that are neither in the roster nor tracked.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrPlayerDeleted is returned when editing a record marked for deletion.
	ErrPlayerDeleted = errors.New("player is marked for deletion")
	// ErrNoFileLoaded is returned by operations that need a loaded roster file.
	ErrNoFileLoaded = errors.New("no roster file loaded")
)

// Row is one record as the UI should render it: the working value plus its
// tracking category. Deleted rows carry their original value.
type Row struct {
	ID       model.ID
	Player   model.Player
	Category Category
	Selected bool
}

// ViewRequest describes one page of rows.
type ViewRequest struct {
	Filter Filter
	// Category narrows the tracked-only view; CategoryNone shows all tracked rows.
	Category Category
	Offset   int
	Limit    int // zero or negative means no limit
}

// Summary describes the state of the editing session.
type Summary struct {
	Path             string
	Records          int
	Tracked          int
	ByCategory       map[Category]int
	Selected         int
	ShowOnlyTracked  bool
	ShowOnlySelected bool
	ProblematicRows  []int
}

// Service is the orchestration layer between the roster file, the baseline
// roster, the change tracker and the selection. It owns one editing session.
type Service struct {
	roster    Roster
	codec     RecordCodec
	history   History
	archive   Archive   // nil disables pre-save backups
	encryptor Encryptor // nil stores backups in plaintext
	logger    Logger
	clock     Clock
	idgen     IDGenerator

	sessionID string
	tracker   *Tracker
	selection *Selection

	mu          sync.Mutex
	path        string
	problematic []int
}

// NewService creates a Service with an empty session identified by
// sessionID. The same ID should tag the session's log lines.
func NewService(sessionID string, roster Roster, codec RecordCodec, history History, archive Archive, encryptor Encryptor, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		roster:    roster,
		codec:     codec,
		history:   history,
		archive:   archive,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
		sessionID: sessionID,
		tracker:   NewTracker(NewSnapshotStore(), NewRestoreBroadcast(), logger),
		selection: NewSelection(),
	}
}

// Tracker returns the session's change tracker.
func (s *Service) Tracker() *Tracker { return s.tracker }

// Selection returns the session's selection.
func (s *Service) Selection() *Selection { return s.selection }

// SessionID identifies this editing session in logs and save history.
func (s *Service) SessionID() string { return s.sessionID }

// Path returns the roster file the session is bound to.
func (s *Service) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Load reads a roster file, replaces the baseline with its records and starts
// a fresh session: tracked changes and the selection are discarded.
// Returns the number of records loaded.
func (s *Service) Load(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening roster file: %w", err)
	}
	defer f.Close()

	res, err := s.codec.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("decoding roster file: %w", err)
	}

	s.roster.Replace(res.Records)
	s.tracker.Commit()
	s.selection.DeselectAll()

	s.mu.Lock()
	s.path = path
	s.problematic = res.ProblematicRows
	s.mu.Unlock()

	if len(res.ProblematicRows) > 0 {
		s.logger.Warn("skipped problematic rows", "path", path, "count", len(res.ProblematicRows), "rows", res.ProblematicRows)
	}
	s.logger.Info("roster loaded", "path", path, "count", len(res.Records))
	return len(res.Records), nil
}

// Player returns the working value of id: the tracked value if there is one,
// otherwise the baseline.
func (s *Service) Player(id model.ID) (Row, error) {
	if e, ok := s.tracker.Get(id); ok && e.HasCurrent {
		row := Row{ID: id, Category: e.Category(), Selected: s.selection.IsSelected(id)}
		switch {
		case e.Current != nil:
			row.Player = *e.Current
		case e.Original != nil:
			row.Player = *e.Original
		}
		return row, nil
	}
	p, ok := s.roster.Get(id)
	if !ok {
		return Row{}, fmt.Errorf("%w: %d", ErrUnknownPlayer, id)
	}
	return Row{ID: id, Player: p, Selected: s.selection.IsSelected(id)}, nil
}

// Baseline returns the last loaded or saved value of id.
func (s *Service) Baseline(id model.ID) (model.Player, bool) {
	return s.roster.Get(id)
}

// Edit sets one field of id. Reports whether id still has a pending change
// afterwards: setting a field back to its original value untracks the record.
func (s *Service) Edit(id model.ID, field, value string) (bool, error) {
	row, err := s.Player(id)
	if err != nil {
		return false, err
	}
	if row.Category == CategoryDeleted {
		return true, fmt.Errorf("%w: %d", ErrPlayerDeleted, id)
	}

	updated := row.Player.Clone()
	if err := updated.SetField(field, value); err != nil {
		return false, fmt.Errorf("editing player %d: %w", id, err)
	}

	var before *model.Player
	if base, ok := s.roster.Get(id); ok {
		before = &base
	}
	tracked := s.tracker.RecordEdit(id, before, updated)
	s.logger.Debug("field edited", "id", id, "field", field, "tracked", tracked)
	return tracked, nil
}

// EditSelected applies one field edit to every selected record. Records that
// are marked for deletion or no longer exist are skipped. Returns the number
// of records edited.
func (s *Service) EditSelected(field, value string) (int, error) {
	count := 0
	for _, id := range s.selection.IDs() {
		if _, err := s.Edit(id, field, value); err != nil {
			if errors.Is(err, ErrPlayerDeleted) || errors.Is(err, ErrUnknownPlayer) {
				continue
			}
			return count, err
		}
		count++
	}
	s.logger.Info("bulk edit applied", "field", field, "count", count)
	return count, nil
}

// Add tracks p as a new record and returns its ID.
func (s *Service) Add(p model.Player) model.ID {
	id := s.newID()
	s.tracker.MarkAdded(id, p)
	return id
}

func (s *Service) newID() model.ID {
	for {
		id := s.idgen.New()
		if _, ok := s.roster.Get(id); ok {
			continue
		}
		if _, ok := s.tracker.Get(id); ok {
			continue
		}
		return id
	}
}

// Delete marks id for deletion. Deleting an unsaved addition discards it.
func (s *Service) Delete(id model.ID) error {
	row, err := s.Player(id)
	if err != nil {
		return err
	}
	if row.Category == CategoryDeleted {
		return nil
	}
	value := row.Player
	if base, ok := s.roster.Get(id); ok {
		value = base
	}
	s.tracker.MarkDeleted(id, value)
	return nil
}

// DeleteSelected marks every selected record for deletion and returns how
// many were newly marked. Records already marked are not counted.
func (s *Service) DeleteSelected() (int, error) {
	count := 0
	for _, id := range s.selection.IDs() {
		if s.tracker.Category(id) == CategoryDeleted {
			continue
		}
		if err := s.Delete(id); err != nil {
			if errors.Is(err, ErrUnknownPlayer) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

// Revert reverts every tracked record in category c.
func (s *Service) Revert(c Category) ([]model.ID, error) {
	return s.tracker.RevertCategory(c)
}

// RevertPlayer reverts a single record. Reports whether it had a pending change.
func (s *Service) RevertPlayer(id model.ID) (bool, error) {
	return s.tracker.Revert(id)
}

// Reset abandons every pending change.
func (s *Service) Reset() error {
	return s.tracker.ClearAll()
}

// Rows returns one page of rows and the total number of rows in the view.
//
// The source of rows depends on the session's view flags: the selection when
// showing only selected records, the tracked set when showing only tracked
// records, and otherwise the filtered roster with pending additions first.
func (s *Service) Rows(req ViewRequest) ([]Row, int) {
	var rows []Row
	switch {
	case s.selection.ShowOnlySelected():
		rows = s.rowsFor(s.selection.IDs(), req.Filter)
	case s.tracker.ShowOnlyTracked():
		rows = s.rowsFor(entryIDs(s.tracker.Entries(req.Category)), req.Filter)
	default:
		rows = s.rowsFor(entryIDs(s.tracker.Entries(CategoryAdded)), req.Filter)
		for _, rec := range s.roster.Query(req.Filter) {
			if row, err := s.Player(rec.ID); err == nil {
				rows = append(rows, row)
			}
		}
	}

	total := len(rows)
	if req.Offset > 0 {
		if req.Offset >= len(rows) {
			return nil, total
		}
		rows = rows[req.Offset:]
	}
	if req.Limit > 0 && len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}
	return rows, total
}

func (s *Service) rowsFor(ids []model.ID, f Filter) []Row {
	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		row, err := s.Player(id)
		if err != nil || !f.Matches(row.Player) {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func entryIDs(entries []Entry) []model.ID {
	ids := make([]model.ID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// ToggleShowOnlyTracked flips the tracked-only view; see Tracker.ToggleShowOnlyTracked.
func (s *Service) ToggleShowOnlyTracked(view Category, resetView func()) bool {
	return s.tracker.ToggleShowOnlyTracked(view, resetView)
}

// Statistics summarises the baseline records matching f.
func (s *Service) Statistics(f Filter) Statistics {
	return s.roster.Statistics(f)
}

// TopPlayers returns the highest-ranked baseline records matching f.
func (s *Service) TopPlayers(f Filter, limit int) TopPlayers {
	return s.roster.TopPlayers(f, limit)
}

// Summary reports the current session state.
func (s *Service) Summary() Summary {
	s.mu.Lock()
	path := s.path
	problematic := append([]int(nil), s.problematic...)
	s.mu.Unlock()

	return Summary{
		Path:             path,
		Records:          s.roster.Len(),
		Tracked:          s.tracker.Count(),
		ByCategory:       s.tracker.CountByCategory(),
		Selected:         s.selection.Len(),
		ShowOnlyTracked:  s.tracker.ShowOnlyTracked(),
		ShowOnlySelected: s.selection.ShowOnlySelected(),
		ProblematicRows:  problematic,
	}
}
