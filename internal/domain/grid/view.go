package grid

// Body tells which of the three mutually exclusive body states is shown
type Body string

const (
	BodyRows    Body = "rows"
	BodyLoading Body = "loading"
	BodyEmpty   Body = "empty"
)

// Header is one rendered column header
type Header struct {
	Key      string     `json:"key"`
	Label    string     `json:"label"`
	Sortable bool       `json:"sortable"`
	Sort     Direction  `json:"sort,omitempty"`
	Content  Renderable `json:"content,omitempty"`
}

// Cell is one rendered table cell
type Cell struct {
	Key     string     `json:"key"`
	Content Renderable `json:"content"`
}

// ViewRow is one rendered line. Index is the position within the filtered set.
type ViewRow struct {
	Index int    `json:"index"`
	Cells []Cell `json:"cells"`
}

// SelectView is a select filter with its current choice
type SelectView struct {
	Select
	Value string `json:"value"`
}

// View is a fully rendered snapshot of the grid
type View struct {
	Title             string       `json:"title,omitempty"`
	SearchPlaceholder string       `json:"search_placeholder"`
	KPIs              []Renderable `json:"kpis,omitempty"`
	Headers           []Header     `json:"headers"`
	Body              Body         `json:"body"`
	Rows              []ViewRow    `json:"rows"`
	Selects           []SelectView `json:"selects,omitempty"`
	DateFilter        bool         `json:"date_filter"`
	State             State        `json:"state"`
	Page              int          `json:"page"`
	PageSize          int          `json:"page_size"`
	TotalPages        int          `json:"total_pages"`
	Filtered          int          `json:"filtered"`
	Total             int          `json:"total"`
	Nav               Nav          `json:"nav"`
	UnparsedDates     int          `json:"unparsed_dates,omitempty"`
}

// View renders the current page
func (g *Grid) View() View {
	v := View{
		Title:             g.cfg.Title,
		SearchPlaceholder: g.cfg.SearchPlaceholder,
		KPIs:              g.cfg.KPIs,
		Headers:           g.headers(),
		State:             g.State(),
		Page:              g.state.Page,
		PageSize:          g.cfg.PageSize,
		TotalPages:        g.TotalPages(),
		Filtered:          len(g.Filtered()),
		Total:             len(g.rows),
		Nav:               g.Nav(),
		UnparsedDates:     g.UnparsedDates(),
		Rows:              []ViewRow{},
	}

	if f := g.cfg.Filters; f != nil {
		v.DateFilter = f.DateKey != ""
		for _, s := range f.Selects {
			v.Selects = append(v.Selects, SelectView{Select: s, Value: g.state.Selects[s.Key]})
		}
	}

	if g.loading {
		v.Body = BodyLoading
		return v
	}

	pageRows := g.PageRows()
	if len(pageRows) == 0 {
		v.Body = BodyEmpty
		return v
	}

	v.Body = BodyRows
	offset := (g.state.Page - 1) * g.cfg.PageSize
	for i, r := range pageRows {
		idx := offset + i
		cells := make([]Cell, len(g.cfg.Columns))
		for j, c := range g.cfg.Columns {
			cells[j] = Cell{Key: c.Key, Content: g.cell(c, r, idx)}
		}
		v.Rows = append(v.Rows, ViewRow{Index: idx, Cells: cells})
	}
	return v
}

func (g *Grid) headers() []Header {
	headers := make([]Header, len(g.cfg.Columns))
	for i, c := range g.cfg.Columns {
		h := Header{Key: c.Key, Label: c.Title(), Sortable: c.IsSortable()}
		if g.state.Sort.Key == c.Key {
			h.Sort = g.state.Sort.Direction
		}
		if c.Header != nil {
			h.Content = c.Header.RenderHeader(c, g.state.Sort)
		}
		headers[i] = h
	}
	return headers
}

// cell resolves one cell; idx is the row's position in the filtered set
func (g *Grid) cell(c Column, r Row, idx int) Renderable {
	if c.IsIndex() {
		return Number(idx + 1)
	}
	v := r.Get(c.Key)
	if c.Renderer != nil {
		return c.Renderer.RenderCell(v, r, idx)
	}
	return v.Display()
}
