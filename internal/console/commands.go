package console

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"pedit/internal/edit"
	"pedit/internal/model"
	"pedit/internal/roster"
)

type command struct {
	usage string
	run   func(c *Console, args []string) error
}

var errQuit = errors.New("quit")

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":       {"help", (*Console).cmdHelp},
		"list":       {"list [page]", (*Console).cmdList},
		"filter":     {"filter [key=value...]", (*Console).cmdFilter},
		"sort":       {"sort [key...]", (*Console).cmdSort},
		"show":       {"show ID", (*Console).cmdShow},
		"set":        {"set ID field value", (*Console).cmdSet},
		"setsel":     {"setsel field value", (*Console).cmdSetSelected},
		"add":        {"add first last", (*Console).cmdAdd},
		"delete":     {"delete ID", (*Console).cmdDelete},
		"delsel":     {"delsel", (*Console).cmdDeleteSelected},
		"select":     {"select ID...", (*Console).cmdSelect},
		"deselect":   {"deselect ID", (*Console).cmdDeselect},
		"selectpage": {"selectpage", (*Console).cmdSelectPage},
		"clearsel":   {"clearsel", (*Console).cmdClearSelection},
		"onlysel":    {"onlysel", (*Console).cmdOnlySelected},
		"tracked":    {"tracked", (*Console).cmdTracked},
		"view":       {"view all|modified|added|deleted", (*Console).cmdView},
		"revert":     {"revert modified|added|deleted|ID", (*Console).cmdRevert},
		"reset":      {"reset", (*Console).cmdReset},
		"status":     {"status", (*Console).cmdStatus},
		"stats":      {"stats", (*Console).cmdStats},
		"top":        {"top [n]", (*Console).cmdTop},
		"save":       {"save [path]", (*Console).cmdSave},
		"quit":       {"quit", func(*Console, []string) error { return errQuit }},
	}
}

// Exec runs one command line. It reports whether the session should end.
func (c *Console) Exec(line string) (bool, error) {
	args, err := splitArgs(line)
	if err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}
	name := strings.ToLower(args[0])
	if name == "exit" {
		name = "quit"
	}
	cmd, ok := commands[name]
	if !ok {
		return false, fmt.Errorf("unknown command %q (try help)", args[0])
	}
	err = cmd.run(c, args[1:])
	if errors.Is(err, errQuit) {
		return true, nil
	}
	return false, err
}

func (c *Console) cmdHelp([]string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(c.out, "  %s\n", commands[name].usage)
	}
	return nil
}

func (c *Console) cmdList(args []string) error {
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid page %q", args[0])
		}
		c.page = n
	}
	return c.list()
}

// List renders page of the rows matching f. Sort keys in f are validated;
// none means the default order.
func (c *Console) List(f edit.Filter, page int) error {
	for _, k := range f.Sort {
		if !roster.IsSortKey(k) {
			return fmt.Errorf("unknown sort key %q (known: %s)", k, strings.Join(roster.SortKeys(), ", "))
		}
	}
	if len(f.Sort) == 0 {
		f.Sort = c.opts.DefaultSort
	}
	if page < 1 {
		page = 1
	}
	c.filter = f
	c.page = page
	return c.list()
}

func (c *Console) list() error {
	size := c.opts.PageSize
	rows, total := c.svc.Rows(edit.ViewRequest{
		Filter:   c.filter,
		Category: c.view,
		Offset:   (c.page - 1) * size,
		Limit:    size,
	})
	c.paint(rows)
	c.printRendered()

	pages := max((total+size-1)/size, 1)
	fmt.Fprintf(c.out, "page %d/%d, %d rows%s\n", c.page, pages, total, c.viewLabel())
	return nil
}

func (c *Console) viewLabel() string {
	var parts []string
	if c.svc.Selection().ShowOnlySelected() {
		parts = append(parts, "selected only")
	} else if c.svc.Tracker().ShowOnlyTracked() {
		parts = append(parts, "tracked only: "+c.view.String())
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func (c *Console) cmdFilter(args []string) error {
	if len(args) == 0 || (len(args) == 1 && args[0] == "clear") {
		c.filter = edit.Filter{Sort: c.filter.Sort}
		c.page = 1
		return c.list()
	}
	f := c.filter
	if err := parseFilter(args, &f); err != nil {
		return err
	}
	c.filter = f
	c.page = 1
	return c.list()
}

// parseFilter applies key=value arguments to f. An empty value clears the key.
func parseFilter(args []string, f *edit.Filter) error {
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("expected key=value, got %q", arg)
		}
		if key == "name" {
			f.Name = value
			continue
		}
		var target **int
		switch key {
		case "country":
			target = &f.Country
		case "club":
			target = &f.Club
		case "min_ca":
			target = &f.MinCA
		case "max_ca":
			target = &f.MaxCA
		case "min_pa":
			target = &f.MinPA
		case "max_pa":
			target = &f.MaxPA
		case "foot":
			target = &f.PreferredFoot
		case "number":
			target = &f.FavouriteNumber
		case "year":
			target = &f.BirthYear
		default:
			return fmt.Errorf("unknown filter %q", key)
		}
		if value == "" {
			*target = nil
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("filter %s: %q is not a number", key, value)
		}
		*target = &n
	}
	return nil
}

func (c *Console) cmdSort(args []string) error {
	for _, k := range args {
		if !roster.IsSortKey(k) {
			return fmt.Errorf("unknown sort key %q (known: %s)", k, strings.Join(roster.SortKeys(), ", "))
		}
	}
	if len(args) == 0 {
		args = c.opts.DefaultSort
	}
	c.filter.Sort = args
	c.page = 1
	return c.list()
}

func parseID(s string) (model.ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return model.ID(n), nil
}

func (c *Console) cmdShow(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: show ID")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	row, err := c.svc.Player(id)
	if err != nil {
		return err
	}
	c.printPlayer(row)
	return nil
}

func (c *Console) cmdSet(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: set ID field value")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	tracked, err := c.svc.Edit(id, args[1], args[2])
	if err != nil {
		return err
	}
	c.repaint(id)
	if tracked {
		fmt.Fprintf(c.out, "%d: %s = %q\n", id, args[1], args[2])
	} else {
		fmt.Fprintf(c.out, "%d: back to original\n", id)
	}
	return nil
}

func (c *Console) cmdSetSelected(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: setsel field value")
	}
	n, err := c.svc.EditSelected(args[0], args[1])
	if err != nil {
		return err
	}
	c.repaint(c.svc.Selection().IDs()...)
	fmt.Fprintf(c.out, "edited %d selected rows\n", n)
	return nil
}

func (c *Console) cmdAdd(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: add first last")
	}
	id := c.svc.Add(model.Player{
		RecordType: model.DetailedFutureRegen,
		FirstName:  args[0],
		LastName:   args[1],
	})
	fmt.Fprintf(c.out, "added %d\n", id)
	return nil
}

func (c *Console) cmdDelete(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete ID")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := c.svc.Delete(id); err != nil {
		return err
	}
	c.repaint(id)
	fmt.Fprintf(c.out, "%d: marked for deletion\n", id)
	return nil
}

func (c *Console) cmdDeleteSelected([]string) error {
	n, err := c.svc.DeleteSelected()
	if err != nil {
		return err
	}
	c.repaint(c.svc.Selection().IDs()...)
	fmt.Fprintf(c.out, "marked %d selected rows for deletion\n", n)
	return nil
}

func (c *Console) cmdSelect(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: select ID...")
	}
	ids := make([]model.ID, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	for _, id := range ids {
		c.svc.Selection().Toggle(id)
	}
	c.repaint(ids...)
	fmt.Fprintf(c.out, "%d selected\n", c.svc.Selection().Len())
	return nil
}

func (c *Console) cmdDeselect(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: deselect ID")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	c.svc.Selection().Deselect(id)
	c.repaint(id)
	fmt.Fprintf(c.out, "%d selected\n", c.svc.Selection().Len())
	return nil
}

func (c *Console) cmdSelectPage([]string) error {
	ids := c.RenderedIDs()
	c.svc.Selection().SelectAll(ids)
	c.repaint(ids...)
	fmt.Fprintf(c.out, "%d selected\n", c.svc.Selection().Len())
	return nil
}

func (c *Console) cmdClearSelection([]string) error {
	c.svc.Selection().DeselectAll()
	c.repaintAll()
	fmt.Fprintln(c.out, "selection cleared")
	return nil
}

func (c *Console) cmdOnlySelected([]string) error {
	sel := c.svc.Selection()
	sel.SetShowOnlySelected(!sel.ShowOnlySelected())
	c.page = 1
	return c.list()
}

func (c *Console) cmdTracked([]string) error {
	if !c.svc.ToggleShowOnlyTracked(c.view, func() { c.view = edit.CategoryNone }) {
		c.view = edit.CategoryNone
	}
	c.page = 1
	return c.list()
}

func (c *Console) cmdView(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: view all|modified|added|deleted")
	}
	v, err := edit.ParseView(args[0])
	if err != nil {
		return err
	}
	c.view = v
	if v != edit.CategoryNone && !c.svc.Tracker().ShowOnlyTracked() {
		c.svc.ToggleShowOnlyTracked(edit.CategoryNone, nil)
	}
	c.page = 1
	return c.list()
}

func (c *Console) cmdRevert(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: revert modified|added|deleted|ID")
	}
	if cat, err := edit.ParseCategory(args[0]); err == nil {
		ids, err := c.svc.Revert(cat)
		fmt.Fprintf(c.out, "reverted %d %s rows\n", len(ids), cat)
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return fmt.Errorf("expected a category or an id, got %q", args[0])
	}
	ok, err := c.svc.RevertPlayer(id)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(c.out, "%d has no pending change\n", id)
		return nil
	}
	fmt.Fprintf(c.out, "%d: reverted\n", id)
	return nil
}

func (c *Console) cmdReset([]string) error {
	n := c.svc.Tracker().Count()
	if err := c.svc.Reset(); err != nil {
		return err
	}
	c.view = edit.CategoryNone
	fmt.Fprintf(c.out, "discarded %d pending changes\n", n)
	return nil
}

func (c *Console) cmdStatus([]string) error {
	s := c.svc.Summary()
	path := s.Path
	if path == "" {
		path = "(none)"
	}
	fmt.Fprintf(c.out, "file:      %s\n", path)
	fmt.Fprintf(c.out, "records:   %d\n", s.Records)
	fmt.Fprintf(c.out, "pending:   %d (modified %d, added %d, deleted %d)\n",
		s.Tracked, s.ByCategory[edit.CategoryModified], s.ByCategory[edit.CategoryAdded], s.ByCategory[edit.CategoryDeleted])
	fmt.Fprintf(c.out, "selected:  %d\n", s.Selected)
	if len(s.ProblematicRows) > 0 {
		fmt.Fprintf(c.out, "skipped rows: %v\n", s.ProblematicRows)
	}
	return nil
}

func (c *Console) cmdStats([]string) error {
	PrintStatistics(c.out, c.svc.Statistics(c.filter))
	return nil
}

func (c *Console) cmdTop(args []string) error {
	limit := 5
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		limit = n
	}
	PrintTopPlayers(c.out, c.svc.TopPlayers(c.filter, limit))
	return nil
}

func (c *Console) cmdSave(args []string) error {
	var path string
	if len(args) > 0 {
		path = args[0]
	}
	op, err := c.svc.Save(path)
	if err != nil {
		return err
	}
	c.repaintAll()
	fmt.Fprintf(c.out, "saved %s (modified %d, added %d, deleted %d)\n", op.Path, op.Modified, op.Added, op.Deleted)
	if op.ArchiveVersion.Valid {
		fmt.Fprintf(c.out, "previous file archived as version %d\n", op.ArchiveVersion.Int64)
	}
	return nil
}
