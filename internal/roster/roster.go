// Package roster holds the baseline player records in memory and answers
// filtered, sorted and paginated queries over them.
package roster

import (
	"cmp"
	"slices"
	"sync"

	"pedit/internal/edit"
	"pedit/internal/model"
)

// MemoryRoster implements edit.Roster over an in-memory map.
// This implementation is safe for concurrent use.
type MemoryRoster struct {
	mu      sync.RWMutex
	players map[model.ID]model.Player
	logger  edit.Logger
}

var _ edit.Roster = (*MemoryRoster)(nil)

// NewMemoryRoster creates an empty roster.
func NewMemoryRoster(logger edit.Logger) *MemoryRoster {
	return &MemoryRoster{
		players: make(map[model.ID]model.Player),
		logger:  logger,
	}
}

func (r *MemoryRoster) Replace(records []model.PlayerRecord) {
	players := make(map[model.ID]model.Player, len(records))
	for _, rec := range records {
		players[rec.ID] = rec.Player.Clone()
	}

	r.mu.Lock()
	r.players = players
	r.mu.Unlock()
}

func (r *MemoryRoster) Get(id model.ID) (model.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	if !ok {
		return model.Player{}, false
	}
	return p.Clone(), true
}

func (r *MemoryRoster) All() []model.PlayerRecord {
	r.mu.RLock()
	records := r.collectLocked(func(model.Player) bool { return true })
	r.mu.RUnlock()

	slices.SortFunc(records, func(a, b model.PlayerRecord) int { return cmp.Compare(a.ID, b.ID) })
	return records
}

func (r *MemoryRoster) Query(f edit.Filter) []model.PlayerRecord {
	r.mu.RLock()
	records := r.collectLocked(f.Matches)
	r.mu.RUnlock()

	keys := f.Sort
	if len(keys) == 0 {
		keys = []string{edit.DefaultSort}
	}
	if unknown := SortRecords(records, keys); len(unknown) > 0 {
		r.logger.Warn("ignoring unknown sort keys", "keys", unknown)
	}
	return records
}

func (r *MemoryRoster) Page(f edit.Filter, offset, limit int) []model.PlayerRecord {
	records := r.Query(f)
	if offset >= len(records) {
		return nil
	}
	records = records[max(offset, 0):]
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}

func (r *MemoryRoster) Apply(records []edit.SaveRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		switch rec.Op {
		case edit.OpDelete:
			delete(r.players, rec.ID)
		default:
			r.players[rec.ID] = rec.Player.Clone()
		}
	}
}

func (r *MemoryRoster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// collectLocked copies out the records that pass keep. Callers hold r.mu.
func (r *MemoryRoster) collectLocked(keep func(model.Player) bool) []model.PlayerRecord {
	records := make([]model.PlayerRecord, 0, len(r.players))
	for id, p := range r.players {
		if keep(p) {
			records = append(records, model.PlayerRecord{ID: id, Player: p.Clone()})
		}
	}
	return records
}
