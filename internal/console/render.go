package console

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"

	"pedit/internal/edit"
	"pedit/internal/model"
)

type column struct {
	title string
	width int
	value func(id model.ID, row renderedRow) string
}

var tableColumns = []column{
	{"ID", 6, func(id model.ID, _ renderedRow) string { return id.String() }},
	{"", 2, func(_ model.ID, row renderedRow) string { return rowFlags(row) }},
	{"NAME", 28, func(_ model.ID, row renderedRow) string { return displayName(row.values) }},
	{"BORN", 10, field(model.FieldBirthDate)},
	{"NAT", 5, field(model.FieldNationalityID)},
	{"CLUB", 6, field(model.FieldClubID)},
	{"POS", 18, field(model.FieldPosition)},
	{"CA", 4, field(model.FieldCA)},
	{"PA", 4, field(model.FieldPA)},
}

func field(name string) func(model.ID, renderedRow) string {
	return func(_ model.ID, row renderedRow) string { return row.values[name] }
}

func rowFlags(row renderedRow) string {
	var flag string
	switch row.category {
	case edit.CategoryModified:
		flag = "M"
	case edit.CategoryAdded:
		flag = "A"
	case edit.CategoryDeleted:
		flag = "D"
	default:
		flag = " "
	}
	if row.selected {
		return flag + "*"
	}
	return flag
}

func displayName(values map[string]string) string {
	if common := values[model.FieldCommonName]; common != "" {
		return common
	}
	return strings.TrimSpace(values[model.FieldFirstName] + " " + values[model.FieldLastName])
}

// cell pads or truncates s to exactly width terminal columns.
func cell(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

func (c *Console) printRendered() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cells := make([]string, len(tableColumns))
	for i, col := range tableColumns {
		cells[i] = cell(col.title, col.width)
	}
	fmt.Fprintln(c.out, strings.TrimRight(strings.Join(cells, " "), " "))

	if len(c.order) == 0 {
		fmt.Fprintln(c.out, "(no rows)")
		return
	}
	for _, id := range c.order {
		row := c.rendered[id]
		for i, col := range tableColumns {
			cells[i] = cell(col.value(id, row), col.width)
		}
		fmt.Fprintln(c.out, strings.TrimRight(strings.Join(cells, " "), " "))
	}
}

// printPlayer lists every field of row. Fields that differ from the
// original value show the original alongside.
func (c *Console) printPlayer(row edit.Row) {
	var original *model.Player
	if e, ok := c.svc.Tracker().Get(row.ID); ok && row.Category == edit.CategoryModified {
		original = e.Original
	}

	fmt.Fprintf(c.out, "%d  %s", row.ID, row.Player.DisplayName())
	if row.Category != edit.CategoryNone {
		fmt.Fprintf(c.out, "  [%s]", row.Category)
	}
	if row.Selected {
		fmt.Fprint(c.out, "  [selected]")
	}
	fmt.Fprintln(c.out)

	for _, name := range model.Fields {
		v, _ := row.Player.FieldValue(name)
		line := cell(name, 18) + " " + v
		if original != nil {
			if was, _ := original.FieldValue(name); was != v {
				line += fmt.Sprintf("  (was %q)", was)
			}
		}
		fmt.Fprintln(c.out, line)
	}
}

// PrintStatistics writes a statistics summary to w.
func PrintStatistics(w io.Writer, s edit.Statistics) {
	fmt.Fprintf(w, "players: %d\n", s.Count)
	fmt.Fprintln(w, cell("", 8)+" "+strings.Join([]string{
		cell("n", 6), cell("min", 6), cell("q25", 6), cell("median", 7),
		cell("mean", 7), cell("q75", 6), cell("max", 6), "std",
	}, " "))
	for _, n := range []struct {
		name  string
		stats edit.NumberStats
	}{
		{"CA", s.CA}, {"PA", s.PA}, {"Height", s.Height}, {"Weight", s.Weight},
	} {
		st := n.stats
		if st.Count == 0 {
			fmt.Fprintf(w, "%s -\n", cell(n.name, 8))
			continue
		}
		fmt.Fprintf(w, "%s %s %s %s %s %s %s %s %.2f\n",
			cell(n.name, 8),
			cell(fmt.Sprint(st.Count), 6),
			cell(fmt.Sprintf("%.0f", st.Min), 6),
			cell(fmt.Sprintf("%.0f", st.Q25), 6),
			cell(fmt.Sprintf("%.1f", st.Median), 7),
			cell(fmt.Sprintf("%.1f", st.Mean), 7),
			cell(fmt.Sprintf("%.0f", st.Q75), 6),
			cell(fmt.Sprintf("%.0f", st.Max), 6),
			st.StdDev)
	}

	printCounts(w, "positions", s.Positions)
	printCounts(w, "preferred foot", s.PreferredFoot)
	printCounts(w, "nationalities", s.Nationalities)
}

// printCounts lists counts largest first, ties by key.
func printCounts[K int | string](w io.Writer, title string, counts map[K]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]K, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b K) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s %d\n", cell(fmt.Sprint(k), 24), counts[k])
	}
}

// PrintTopPlayers writes the top-ranked players per attribute to w.
func PrintTopPlayers(w io.Writer, top edit.TopPlayers) {
	for _, group := range []struct {
		name    string
		records []model.PlayerRecord
		value   func(model.Player) string
	}{
		{"CA", top.CA, playerField(model.FieldCA)},
		{"PA", top.PA, playerField(model.FieldPA)},
		{"Height", top.Height, playerField(model.FieldHeight)},
		{"Weight", top.Weight, playerField(model.FieldWeight)},
	} {
		fmt.Fprintf(w, "top %s:\n", group.name)
		if len(group.records) == 0 {
			fmt.Fprintln(w, "  -")
			continue
		}
		for _, r := range group.records {
			fmt.Fprintf(w, "  %s %s %s\n", cell(r.ID.String(), 6), cell(r.Player.DisplayName(), 28), group.value(r.Player))
		}
	}
}

func playerField(name string) func(model.Player) string {
	return func(p model.Player) string {
		v, _ := p.FieldValue(name)
		return v
	}
}
