package grid

// Table is the format-independent content of an export: every filtered row,
// every column, resolved to plain text. Cells hold either string or float64.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]any
}

// Len is the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ExportTable resolves the full filtered set (ignoring pagination) into a
// Table. The index column exports the row number within the filtered set.
// Returns ErrEmptyExport when nothing passes the filters.
func (g *Grid) ExportTable() (*Table, error) {
	rows := g.Filtered()
	if len(rows) == 0 {
		return nil, ErrEmptyExport
	}

	t := &Table{
		Title:   g.cfg.Title,
		Headers: make([]string, len(g.cfg.Columns)),
		Rows:    make([][]any, len(rows)),
	}
	for i, c := range g.cfg.Columns {
		t.Headers[i] = c.Title()
	}
	for i, r := range rows {
		line := make([]any, len(g.cfg.Columns))
		for j, c := range g.cfg.Columns {
			line[j] = g.exportCell(c, r, i)
		}
		t.Rows[i] = line
	}
	return t, nil
}

func (g *Grid) exportCell(c Column, r Row, idx int) any {
	if c.IsIndex() {
		return float64(idx + 1)
	}
	v := r.Get(c.Key)
	if c.Renderer != nil {
		return PlainText(c.Renderer.RenderCell(v, r, idx))
	}
	switch v.Kind() {
	case KindNull:
		return ""
	case KindNumber:
		n, _ := v.Number()
		return n
	default:
		return v.String()
	}
}

// CellString formats an export cell as text
func CellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return formatNumber(v)
	default:
		return PlainString(Raw{V: v})
	}
}
