package roster

import (
	"cmp"
	"math"
	"slices"

	"pedit/internal/edit"
	"pedit/internal/model"
)

func (r *MemoryRoster) Statistics(f edit.Filter) edit.Statistics {
	r.mu.RLock()
	records := r.collectLocked(f.Matches)
	r.mu.RUnlock()

	st := edit.Statistics{
		Count:         len(records),
		Positions:     make(map[string]int),
		PreferredFoot: make(map[int]int),
		Nationalities: make(map[int]int),
	}

	var ca, pa, height, weight []int
	for _, rec := range records {
		p := rec.Player
		if p.CA != nil {
			ca = append(ca, *p.CA)
		}
		if p.PA != nil {
			pa = append(pa, *p.PA)
		}
		if p.Height > 0 {
			height = append(height, p.Height)
		}
		if p.Weight > 0 {
			weight = append(weight, p.Weight)
		}
		if p.Position != nil {
			st.Positions[*p.Position]++
		}
		if p.PreferredFoot != nil {
			st.PreferredFoot[*p.PreferredFoot]++
		}
		st.Nationalities[p.NationalityID]++
	}

	st.CA = numberStats(ca)
	st.PA = numberStats(pa)
	st.Height = numberStats(height)
	st.Weight = numberStats(weight)
	return st
}

func (r *MemoryRoster) TopPlayers(f edit.Filter, limit int) edit.TopPlayers {
	r.mu.RLock()
	records := r.collectLocked(f.Matches)
	r.mu.RUnlock()

	return edit.TopPlayers{
		CA:     topBy(records, limit, func(p model.Player) (int, bool) { return intValue(p.CA) }),
		PA:     topBy(records, limit, func(p model.Player) (int, bool) { return intValue(p.PA) }),
		Height: topBy(records, limit, func(p model.Player) (int, bool) { return p.Height, p.Height > 0 }),
		Weight: topBy(records, limit, func(p model.Player) (int, bool) { return p.Weight, p.Weight > 0 }),
	}
}

// topBy returns up to limit records that have a value, highest value first
// and lowest ID first among equals.
func topBy(records []model.PlayerRecord, limit int, value func(model.Player) (int, bool)) []model.PlayerRecord {
	type ranked struct {
		rec model.PlayerRecord
		v   int
	}
	var rs []ranked
	for _, rec := range records {
		if v, ok := value(rec.Player); ok {
			rs = append(rs, ranked{rec, v})
		}
	}
	slices.SortFunc(rs, func(a, b ranked) int {
		if c := cmp.Compare(b.v, a.v); c != 0 {
			return c
		}
		return cmp.Compare(a.rec.ID, b.rec.ID)
	})
	if limit >= 0 && len(rs) > limit {
		rs = rs[:limit]
	}
	out := make([]model.PlayerRecord, len(rs))
	for i, r := range rs {
		out[i] = r.rec
	}
	return out
}

func intValue(v *int) (int, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// numberStats uses population standard deviation and nearest-rank quartiles
// (index floor(n*q) of the sorted values).
func numberStats(values []int) edit.NumberStats {
	n := len(values)
	if n == 0 {
		return edit.NumberStats{}
	}
	sorted := make([]float64, n)
	for i, v := range values {
		sorted[i] = float64(v)
	}
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var median float64
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	} else {
		median = sorted[n/2]
	}

	var variance float64
	for _, v := range sorted {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n)

	return edit.NumberStats{
		Count:  n,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   mean,
		Median: median,
		Q25:    sorted[int(float64(n)*0.25)],
		Q75:    sorted[int(float64(n)*0.75)],
		StdDev: math.Sqrt(variance),
	}
}
