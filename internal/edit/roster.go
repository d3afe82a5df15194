package edit

import (
	"strings"

	"pedit/internal/model"
)

// Sort keys understood by Roster implementations.
const (
	SortCADesc   = "ca_desc"
	SortCAAsc    = "ca_asc"
	SortPADesc   = "pa_desc"
	SortPAAsc    = "pa_asc"
	SortAgeDesc  = "age_desc" // oldest first
	SortAgeAsc   = "age_asc"  // youngest first
	SortNameAsc  = "name_asc"
	SortNameDesc = "name_desc"
)

// DefaultSort is applied when a filter names no sort keys.
const DefaultSort = SortAgeDesc

// Filter narrows and orders a view of the roster. Nil fields do not filter.
type Filter struct {
	Country         *int
	Club            *int
	MinCA           *int
	MaxCA           *int
	MinPA           *int
	MaxPA           *int
	PreferredFoot   *int
	FavouriteNumber *int
	BirthYear       *int
	// Name is a case-insensitive substring match over first, common and last name.
	Name string
	// Sort lists sort keys in priority order.
	Sort []string
}

// Matches reports whether p passes every predicate of f.
// A record with no CA (or PA) fails any CA (or PA) bound.
func (f Filter) Matches(p model.Player) bool {
	if f.Country != nil && p.NationalityID != *f.Country {
		return false
	}
	if f.Club != nil && (p.ClubID == nil || *p.ClubID != *f.Club) {
		return false
	}
	if !inRange(p.CA, f.MinCA, f.MaxCA) || !inRange(p.PA, f.MinPA, f.MaxPA) {
		return false
	}
	if f.PreferredFoot != nil && (p.PreferredFoot == nil || *p.PreferredFoot != *f.PreferredFoot) {
		return false
	}
	if f.FavouriteNumber != nil && (p.FavouriteNumber == nil || *p.FavouriteNumber != *f.FavouriteNumber) {
		return false
	}
	if f.BirthYear != nil {
		year, ok := p.BirthYear()
		if !ok || year != *f.BirthYear {
			return false
		}
	}
	if f.Name != "" {
		haystack := strings.ToLower(p.FirstName + " " + derefString(p.CommonName) + " " + p.LastName)
		if !strings.Contains(haystack, strings.ToLower(f.Name)) {
			return false
		}
	}
	return true
}

func inRange(v, lo, hi *int) bool {
	if lo == nil && hi == nil {
		return true
	}
	if v == nil {
		return false
	}
	if lo != nil && *v < *lo {
		return false
	}
	if hi != nil && *v > *hi {
		return false
	}
	return true
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NumberStats summarises one numeric attribute. Count is zero when no
// matching record has the attribute set; the other fields are then zero too.
type NumberStats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	Q25    float64
	Q75    float64
	StdDev float64
}

// Statistics summarises the records matching a filter. Heights and weights
// of zero are treated as unset.
type Statistics struct {
	Count         int
	CA            NumberStats
	PA            NumberStats
	Height        NumberStats
	Weight        NumberStats
	Positions     map[string]int
	PreferredFoot map[int]int
	Nationalities map[int]int
}

// TopPlayers lists the highest-ranked matching records per attribute.
type TopPlayers struct {
	CA     []model.PlayerRecord
	PA     []model.PlayerRecord
	Height []model.PlayerRecord
	Weight []model.PlayerRecord
}

// Roster serves the baseline (last loaded or saved) records. It never sees
// pending changes; those live in the Tracker until a save applies them.
type Roster interface {
	// Replace swaps the whole baseline, e.g. after loading a file.
	Replace(records []model.PlayerRecord)

	// Get returns the baseline value of id.
	Get(id model.ID) (model.Player, bool)

	// All returns every baseline record ordered by ID.
	All() []model.PlayerRecord

	// Query returns the records matching f in f's sort order.
	Query(f Filter) []model.PlayerRecord

	// Page returns at most limit records of Query(f) starting at offset.
	Page(f Filter, offset, limit int) []model.PlayerRecord

	// Apply writes saved changes into the baseline.
	Apply(records []SaveRecord)

	// Statistics summarises the records matching f.
	Statistics(f Filter) Statistics

	// TopPlayers returns up to limit matching records per attribute, highest first.
	TopPlayers(f Filter, limit int) TopPlayers

	// Len returns the number of baseline records.
	Len() int
}
