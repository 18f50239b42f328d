package grid

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultPageSize is used when Config.PageSize is not positive
const DefaultPageSize = 10

// DefaultSearchPlaceholder is shown in the search box when none is configured
const DefaultSearchPlaceholder = "Search..."

// Config is the construction-time configuration of a grid
type Config struct {
	Title             string
	KPIs              []Renderable
	Columns           []Column
	Filters           *FilterConfig // nil: search all fields, no selects, no date filter
	PageSize          int
	SearchPlaceholder string
}

// Grid filters, sorts, paginates, renders and exports an in-memory row set.
// A Grid is owned by one caller and is not safe for concurrent use.
type Grid struct {
	cfg      Config
	rows     []Row
	state    State
	loading  bool
	collator *collate.Collator

	filtered []Row
	unparsed int
	dirty    bool
}

// New creates a grid over rows
func New(rows []Row, cfg Config) *Grid {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.SearchPlaceholder == "" {
		cfg.SearchPlaceholder = DefaultSearchPlaceholder
	}
	return &Grid{
		cfg:      cfg,
		rows:     rows,
		state:    State{Selects: map[string]string{}, Page: 1},
		collator: collate.New(language.Und, collate.Numeric),
		dirty:    true,
	}
}

// SetRows replaces the underlying rows, keeping filter and sort state
func (g *Grid) SetRows(rows []Row) {
	g.rows = rows
	g.dirty = true
}

// SetLoading toggles the loading placeholder. State is preserved.
func (g *Grid) SetLoading(loading bool) {
	g.loading = loading
}

// Loading reports whether the loading placeholder is shown
func (g *Grid) Loading() bool {
	return g.loading
}

// Config returns the grid configuration
func (g *Grid) Config() Config {
	return g.cfg
}

// State returns a copy of the current state
func (g *Grid) State() State {
	return g.state.Clone()
}

// Total is the number of rows before filtering
func (g *Grid) Total() int {
	return len(g.rows)
}

// Search sets the free-text query and resets to page 1
func (g *Grid) Search(q string) {
	g.state.Query = q
	g.filterChanged()
}

// Select sets the chosen value of a select filter; "" clears it.
// Resets to page 1.
func (g *Grid) Select(key, value string) error {
	if !g.cfg.Filters.hasSelect(key) {
		return ErrUnknownSelect
	}
	if value == "" {
		delete(g.state.Selects, key)
	} else {
		g.state.Selects[key] = value
	}
	g.filterChanged()
	return nil
}

// SetDateRange sets the date-range inputs and resets to page 1
func (g *Grid) SetDateRange(from, to string) {
	g.state.From = from
	g.state.To = to
	g.filterChanged()
}

// ClearDates clears only the date-range inputs and resets to page 1
func (g *Grid) ClearDates() {
	g.SetDateRange("", "")
}

// ResetAll clears search, selects, dates and sort, and resets to page 1
func (g *Grid) ResetAll() {
	g.state = State{Selects: map[string]string{}, Page: 1}
	g.dirty = true
}

// ToggleSort sorts by key ascending, or flips the direction when key is
// already the sort column.
func (g *Grid) ToggleSort(key string) error {
	col, ok := g.column(key)
	if !ok || !col.IsSortable() {
		return ErrNotSortable
	}
	if g.state.Sort.Key == key {
		g.state.Sort.Direction = g.state.Sort.Direction.Flip()
	} else {
		g.state.Sort = SortState{Key: key, Direction: Ascending}
	}
	g.dirty = true
	return nil
}

// Restore replaces the whole state, validating sort and select keys.
// The page is clamped into range.
func (g *Grid) Restore(s State) error {
	s = s.Clone()
	for k, v := range s.Selects {
		if !g.cfg.Filters.hasSelect(k) {
			return ErrUnknownSelect
		}
		if v == "" {
			delete(s.Selects, k)
		}
	}
	if s.Sort.Active() {
		col, ok := g.column(s.Sort.Key)
		if !ok || !col.IsSortable() {
			return ErrNotSortable
		}
		if s.Sort.Direction == "" {
			s.Sort.Direction = Ascending
		}
		if !s.Sort.Direction.Valid() {
			return ErrInvalidDirection
		}
	} else {
		s.Sort = SortState{}
	}
	g.state = s
	g.dirty = true
	g.state.Page = min(max(s.Page, 1), g.TotalPages())
	return nil
}

// Page returns the current page number (1-based)
func (g *Grid) Page() int {
	return g.state.Page
}

// PageSize returns the fixed page size
func (g *Grid) PageSize() int {
	return g.cfg.PageSize
}

// TotalPages is ceil(filtered/pageSize), never less than 1
func (g *Grid) TotalPages() int {
	n := len(g.Filtered())
	pages := (n + g.cfg.PageSize - 1) / g.cfg.PageSize
	return max(pages, 1)
}

// Nav reports which navigation controls are enabled
func (g *Grid) Nav() Nav {
	total := g.TotalPages()
	return Nav{
		First: g.state.Page > 1,
		Prev:  g.state.Page > 1,
		Next:  g.state.Page < total,
		Last:  g.state.Page < total,
	}
}

// FirstPage moves to page 1
func (g *Grid) FirstPage() {
	if g.Nav().First {
		g.state.Page = 1
	}
}

// PrevPage moves back one page unless already on the first page
func (g *Grid) PrevPage() {
	if g.Nav().Prev {
		g.state.Page--
	}
}

// NextPage moves forward one page unless already on the last page
func (g *Grid) NextPage() {
	if g.Nav().Next {
		g.state.Page++
	}
}

// LastPage moves to the last page
func (g *Grid) LastPage() {
	if g.Nav().Last {
		g.state.Page = g.TotalPages()
	}
}

// Filtered returns the filtered and sorted row set (all pages)
func (g *Grid) Filtered() []Row {
	if g.dirty {
		g.recompute()
	}
	return g.filtered
}

// UnparsedDates is how many rows the date-range filter dropped because
// their date field could not be parsed.
func (g *Grid) UnparsedDates() int {
	if g.dirty {
		g.recompute()
	}
	return g.unparsed
}

// PageRows returns the rows on the current page
func (g *Grid) PageRows() []Row {
	rows := g.Filtered()
	start := (g.state.Page - 1) * g.cfg.PageSize
	if start < 0 || start >= len(rows) {
		return nil
	}
	end := min(start+g.cfg.PageSize, len(rows))
	return rows[start:end]
}

func (g *Grid) filterChanged() {
	g.state.Page = 1
	g.dirty = true
}

func (g *Grid) column(key string) (Column, bool) {
	for _, c := range g.cfg.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

func (g *Grid) recompute() {
	g.unparsed = 0
	match := g.predicate()

	out := make([]Row, 0, len(g.rows))
	for _, r := range g.rows {
		if match(r) {
			out = append(out, r)
		}
	}

	if s := g.state.Sort; s.Active() {
		slices.SortStableFunc(out, func(a, b Row) int {
			c := g.compare(a.Get(s.Key), b.Get(s.Key))
			if s.Direction == Descending {
				return -c
			}
			return c
		})
	}

	g.filtered = out
	g.dirty = false
}

func (g *Grid) predicate() predicate {
	var preds []predicate

	var searchKeys []string
	if g.cfg.Filters != nil {
		searchKeys = g.cfg.Filters.SearchKeys
	}
	if p := searchPredicate(g.state.Query, searchKeys); p != nil {
		preds = append(preds, p)
	}

	for key, chosen := range g.state.Selects {
		if chosen != "" {
			preds = append(preds, selectPredicate(key, chosen))
		}
	}

	if f := g.cfg.Filters; f != nil && f.DateKey != "" && (g.state.From != "" || g.state.To != "") {
		rng := newDateRange(g.state.From, g.state.To)
		dateKey := f.DateKey
		preds = append(preds, func(r Row) bool {
			t, ok := TimeOf(r.Get(dateKey))
			if !ok {
				g.unparsed++
				return false
			}
			return rng.contains(t)
		})
	}

	return allOf(preds...)
}

// compare orders numbers numerically and everything else with a
// numeric-aware collation, so "item2" sorts before "item10".
func (g *Grid) compare(a, b Value) int {
	if an, ok := a.Number(); ok {
		if bn, ok := b.Number(); ok {
			return cmp.Compare(an, bn)
		}
	}
	return g.collator.CompareString(a.String(), b.String())
}
