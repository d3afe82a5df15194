// Package console implements the interactive editing session. It owns the
// rendered rows the user sees and keeps them in step with the change
// tracker by listening to restore events.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"

	"pedit/internal/edit"
	"pedit/internal/model"
)

// Options configures a Console.
type Options struct {
	PageSize    int
	DefaultSort []string
	// Prompt prints a prompt before reading each command.
	Prompt bool
	Logger edit.Logger
}

// renderedRow is the field text of one row as last painted.
type renderedRow struct {
	values   map[string]string
	category edit.Category
	selected bool
}

// Console runs edit commands against a Service and renders the results.
type Console struct {
	svc    *edit.Service
	out    io.Writer
	opts   Options
	logger edit.Logger

	filter edit.Filter
	view   edit.Category
	page   int

	mu          sync.Mutex
	rendered    map[model.ID]renderedRow
	order       []model.ID
	unsubscribe func()
}

// New creates a Console writing to out and subscribes it to the service's
// restore events. Call Close to unsubscribe.
func New(svc *edit.Service, out io.Writer, opts Options) *Console {
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.Logger == nil {
		opts.Logger = edit.NewNopLogger()
	}
	c := &Console{
		svc:      svc,
		out:      out,
		opts:     opts,
		logger:   opts.Logger,
		filter:   edit.Filter{Sort: opts.DefaultSort},
		page:     1,
		rendered: make(map[model.ID]renderedRow),
	}
	c.unsubscribe = svc.Tracker().Restore().Subscribe(c.onRestore)
	return c
}

// Close detaches the console from the service.
func (c *Console) Close() {
	c.unsubscribe()
}

// Run reads commands from in until quit or end of input.
func (c *Console) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if c.opts.Prompt {
			fmt.Fprint(c.out, "pedit> ")
		}
		if !scanner.Scan() {
			break
		}
		quit, err := c.Exec(scanner.Text())
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading commands: %w", err)
	}
	return nil
}

// onRestore repaints rendered rows from original values. It returns only
// after every affected row has been repainted.
func (c *Console) onRestore(ev edit.RestoreEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	repainted, removed := 0, 0
	if ev.All {
		for id, row := range c.rendered {
			base, ok := c.svc.Baseline(id)
			if !ok {
				delete(c.rendered, id)
				removed++
				continue
			}
			c.rendered[id] = newRenderedRow(base, edit.CategoryNone, row.selected)
			repainted++
		}
	} else {
		for _, e := range ev.Entries {
			row, ok := c.rendered[e.ID]
			if !ok {
				continue
			}
			if e.Original == nil {
				delete(c.rendered, e.ID)
				removed++
				continue
			}
			c.rendered[e.ID] = newRenderedRow(*e.Original, edit.CategoryNone, row.selected)
			repainted++
		}
	}
	if removed > 0 {
		c.pruneOrderLocked()
	}
	c.logger.Debug("rows restored", "repainted", repainted, "removed", removed, "all", ev.All)
	return nil
}

func (c *Console) pruneOrderLocked() {
	kept := c.order[:0]
	for _, id := range c.order {
		if _, ok := c.rendered[id]; ok {
			kept = append(kept, id)
		}
	}
	c.order = kept
}

func newRenderedRow(p model.Player, category edit.Category, selected bool) renderedRow {
	values := make(map[string]string, len(model.Fields))
	for _, name := range model.Fields {
		v, _ := p.FieldValue(name)
		values[name] = v
	}
	return renderedRow{values: values, category: category, selected: selected}
}

// paint replaces the rendered rows with rows.
func (c *Console) paint(rows []edit.Row) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rendered = make(map[model.ID]renderedRow, len(rows))
	c.order = make([]model.ID, 0, len(rows))
	for _, r := range rows {
		c.rendered[r.ID] = newRenderedRow(r.Player, r.Category, r.Selected)
		c.order = append(c.order, r.ID)
	}
}

// repaint refreshes the rendered rows for ids from the service's working values.
func (c *Console) repaint(ids ...model.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := false
	for _, id := range ids {
		if _, ok := c.rendered[id]; !ok {
			continue
		}
		row, err := c.svc.Player(id)
		if err != nil {
			delete(c.rendered, id)
			removed = true
			continue
		}
		c.rendered[id] = newRenderedRow(row.Player, row.Category, row.Selected)
	}
	if removed {
		c.pruneOrderLocked()
	}
}

// repaintAll refreshes every rendered row.
func (c *Console) repaintAll() {
	c.repaint(c.RenderedIDs()...)
}

// RenderedIDs returns the IDs of the rendered rows in display order.
func (c *Console) RenderedIDs() []model.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ID(nil), c.order...)
}

// RenderedValue returns the rendered text of one field of id.
func (c *Console) RenderedValue(id model.ID, field string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.rendered[id]
	if !ok {
		return "", false
	}
	v, ok := row.values[field]
	return v, ok
}

// RenderedCategory returns the tracking category id was last painted with.
func (c *Console) RenderedCategory(id model.ID) (edit.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.rendered[id]
	return row.category, ok
}

var errUnterminatedQuote = errors.New("unterminated quote")

// splitArgs splits a command line on whitespace. Double quotes group words
// and "" is an empty argument.
func splitArgs(line string) ([]string, error) {
	var (
		args     []string
		cur      strings.Builder
		inQuote  bool
		hasToken bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasToken = true
		case unicode.IsSpace(r) && !inQuote:
			if hasToken {
				args = append(args, cur.String())
				cur.Reset()
				hasToken = false
			}
		default:
			cur.WriteRune(r)
			hasToken = true
		}
	}
	if inQuote {
		return nil, errUnterminatedQuote
	}
	if hasToken {
		args = append(args, cur.String())
	}
	return args, nil
}
