package grid

// IndexKey is the reserved column key that displays a row's ordinal position
// instead of a field lookup.
const IndexKey = "#"

// CellRenderer overrides how a column displays a cell. index is the row's
// position within the full filtered set, not within the current page.
type CellRenderer interface {
	RenderCell(value Value, row Row, index int) Renderable
}

// CellRendererFunc adapts a function to CellRenderer
type CellRendererFunc func(value Value, row Row, index int) Renderable

// RenderCell calls f
func (f CellRendererFunc) RenderCell(value Value, row Row, index int) Renderable {
	return f(value, row, index)
}

// HeaderRenderer overrides how a column header displays given the current sort
type HeaderRenderer interface {
	RenderHeader(column Column, sort SortState) Renderable
}

// HeaderRendererFunc adapts a function to HeaderRenderer
type HeaderRendererFunc func(column Column, sort SortState) Renderable

// RenderHeader calls f
func (f HeaderRendererFunc) RenderHeader(column Column, sort SortState) Renderable {
	return f(column, sort)
}

// Column describes how one field is labeled, sorted and rendered
type Column struct {
	Key      string
	Label    string
	Sortable *bool // nil means sortable
	Renderer CellRenderer
	Header   HeaderRenderer
}

// IsIndex reports whether the column is the synthetic index column
func (c Column) IsIndex() bool {
	return c.Key == IndexKey
}

// IsSortable reports whether clicking the header toggles sorting
func (c Column) IsSortable() bool {
	if c.IsIndex() {
		return false
	}
	return c.Sortable == nil || *c.Sortable
}

// Title returns the label, falling back to the key
func (c Column) Title() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Key
}

// Bool returns a pointer to b, for Column.Sortable literals
func Bool(b bool) *bool {
	return &b
}
