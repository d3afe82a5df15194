package roster

import (
	"cmp"
	"slices"
	"strings"

	"pedit/internal/edit"
	"pedit/internal/model"
)

type compareFunc func(a, b model.Player) int

// Unset CA, PA and unparseable birth dates count as zero.
var comparators = map[string]compareFunc{
	edit.SortCADesc:   func(a, b model.Player) int { return cmp.Compare(intOrZero(b.CA), intOrZero(a.CA)) },
	edit.SortCAAsc:    func(a, b model.Player) int { return cmp.Compare(intOrZero(a.CA), intOrZero(b.CA)) },
	edit.SortPADesc:   func(a, b model.Player) int { return cmp.Compare(intOrZero(b.PA), intOrZero(a.PA)) },
	edit.SortPAAsc:    func(a, b model.Player) int { return cmp.Compare(intOrZero(a.PA), intOrZero(b.PA)) },
	edit.SortAgeDesc:  func(a, b model.Player) int { return cmp.Compare(birthKey(a), birthKey(b)) },
	edit.SortAgeAsc:   func(a, b model.Player) int { return cmp.Compare(birthKey(b), birthKey(a)) },
	edit.SortNameAsc:  func(a, b model.Player) int { return strings.Compare(sortName(a), sortName(b)) },
	edit.SortNameDesc: func(a, b model.Player) int { return strings.Compare(sortName(b), sortName(a)) },
}

// IsSortKey reports whether key names a known sort order.
func IsSortKey(key string) bool {
	_, ok := comparators[key]
	return ok
}

// SortKeys returns every known sort key in alphabetical order.
func SortKeys() []string {
	keys := make([]string, 0, len(comparators))
	for k := range comparators {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SortRecords orders records by keys in priority order, breaking remaining
// ties by ID. Unknown keys are skipped and returned.
func SortRecords(records []model.PlayerRecord, keys []string) (unknown []string) {
	var funcs []compareFunc
	for _, k := range keys {
		fn, ok := comparators[k]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		funcs = append(funcs, fn)
	}

	slices.SortFunc(records, func(a, b model.PlayerRecord) int {
		for _, fn := range funcs {
			if c := fn(a.Player, b.Player); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return unknown
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func birthKey(p model.Player) int {
	k, _ := p.BirthDateKey()
	return k
}

func sortName(p model.Player) string {
	return strings.ToLower(p.FirstName + " " + p.LastName)
}
