package portal

import (
	"fmt"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ibportal/backend/internal/domain/grid"
	"github.com/ibportal/backend/internal/domain/identity"
)

// DefaultCacheTTL applies when a page does not set cache_ttl
const DefaultCacheTTL = 5 * time.Minute

// Page declares one report screen: where its rows come from, how they are
// aggregated, and how the grid and KPI cards present them.
type Page struct {
	ID                string        `yaml:"id"`
	Portal            identity.Role `yaml:"portal"`
	Title             string        `yaml:"title"`
	Section           string        `yaml:"section"`
	Icon              string        `yaml:"icon"`
	Source            Source        `yaml:"source"`
	Aggregate         *Aggregate    `yaml:"aggregate"`
	Columns           []ColumnDef   `yaml:"columns"`
	Filters           *FilterDef    `yaml:"filters"`
	PageSize          int           `yaml:"page_size"`
	SearchPlaceholder string        `yaml:"search_placeholder"`
	KPIs              []KPI         `yaml:"kpis"`
	CacheTTL          time.Duration `yaml:"cache_ttl"`
}

// Source locates rows on the gateway. Rows is a gjson path to the row array
// inside the response envelope; empty means the body itself is the array.
type Source struct {
	Path   string            `yaml:"path"`
	Rows   string            `yaml:"rows"`
	Params map[string]string `yaml:"params"`
}

// ColumnDef is the declarative form of a grid column
type ColumnDef struct {
	Key      string            `yaml:"key"`
	Label    string            `yaml:"label"`
	Sortable *bool             `yaml:"sortable"`
	Render   RendererName      `yaml:"render"`
	Tones    map[string]string `yaml:"tones"`    // badge: value -> tone
	Currency string            `yaml:"currency"` // money
	Href     string            `yaml:"href"`     // link: "/clients/{id}"
}

// FilterDef is the declarative form of the grid filter configuration
type FilterDef struct {
	Search  []string    `yaml:"search"`
	Selects []SelectDef `yaml:"selects"`
	Date    string      `yaml:"date"`
}

// SelectDef declares one equality filter
type SelectDef struct {
	Key     string   `yaml:"key"`
	Label   string   `yaml:"label"`
	Options []Option `yaml:"options"`
}

// Option is a select choice. In YAML it is either a plain scalar, used as
// both value and label, or a {value, label} mapping.
type Option grid.Option

// UnmarshalYAML implements yaml.Unmarshaler
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		o.Value = node.Value
		o.Label = node.Value
		return nil
	}
	var raw struct {
		Value string `yaml:"value"`
		Label string `yaml:"label"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	o.Value, o.Label = raw.Value, raw.Label
	if o.Label == "" {
		o.Label = o.Value
	}
	return nil
}

// TTL returns how long fetched rows stay cached
func (p *Page) TTL() time.Duration {
	if p.CacheTTL > 0 {
		return p.CacheTTL
	}
	return DefaultCacheTTL
}

// Validate checks the definition is complete and refers only to known
// renderers, KPI kinds and aggregation periods.
func (p *Page) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("page id is required")
	}
	if !p.Portal.IsValid() {
		return fmt.Errorf("page %q: unknown portal %q", p.ID, p.Portal)
	}
	if p.Title == "" {
		return fmt.Errorf("page %q: title is required", p.ID)
	}
	if p.Source.Path == "" {
		return fmt.Errorf("page %q: source.path is required", p.ID)
	}
	if len(p.Columns) == 0 {
		return fmt.Errorf("page %q: at least one column is required", p.ID)
	}
	if p.PageSize < 0 {
		return fmt.Errorf("page %q: page_size cannot be negative", p.ID)
	}

	seen := make(map[string]bool, len(p.Columns))
	for _, c := range p.Columns {
		if c.Key == "" {
			return fmt.Errorf("page %q: column key is required", p.ID)
		}
		if seen[c.Key] {
			return fmt.Errorf("page %q: duplicate column %q", p.ID, c.Key)
		}
		seen[c.Key] = true
		if !c.Render.IsValid() {
			return fmt.Errorf("page %q: column %q has unknown renderer %q", p.ID, c.Key, c.Render)
		}
		if c.Render == RenderLink && c.Href == "" {
			return fmt.Errorf("page %q: link column %q needs href", p.ID, c.Key)
		}
	}

	if p.Filters != nil {
		for _, s := range p.Filters.Selects {
			if s.Key == "" {
				return fmt.Errorf("page %q: select key is required", p.ID)
			}
		}
	}

	if p.Aggregate != nil {
		if err := p.Aggregate.Validate(); err != nil {
			return fmt.Errorf("page %q: %w", p.ID, err)
		}
	}

	for _, k := range p.KPIs {
		if err := k.Validate(); err != nil {
			return fmt.Errorf("page %q: %w", p.ID, err)
		}
	}
	return nil
}

// GridConfig builds the grid configuration for this page, with kpis as the
// rendered KPI cards.
func (p *Page) GridConfig(kpis []grid.Renderable) grid.Config {
	cfg := grid.Config{
		Title:             p.Title,
		KPIs:              kpis,
		Columns:           make([]grid.Column, len(p.Columns)),
		PageSize:          p.PageSize,
		SearchPlaceholder: p.SearchPlaceholder,
	}
	for i, c := range p.Columns {
		col := grid.Column{
			Key:      c.Key,
			Label:    c.Label,
			Sortable: c.Sortable,
			Renderer: c.renderer(),
		}
		if col.IsSortable() {
			col.Header = SortArrowHeader
		}
		cfg.Columns[i] = col
	}

	if f := p.Filters; f != nil {
		fc := &grid.FilterConfig{
			SearchKeys: slices.Clone(f.Search),
			DateKey:    f.Date,
		}
		for _, s := range f.Selects {
			sel := grid.Select{Key: s.Key, Label: s.Label, Options: make([]grid.Option, len(s.Options))}
			if sel.Label == "" {
				sel.Label = s.Key
			}
			for j, o := range s.Options {
				sel.Options[j] = grid.Option(o)
			}
			fc.Selects = append(fc.Selects, sel)
		}
		cfg.Filters = fc
	}
	return cfg
}

// HasRemoteKPIs reports whether any KPI needs its own gateway call
func (p *Page) HasRemoteKPIs() bool {
	return slices.ContainsFunc(p.KPIs, func(k KPI) bool { return k.Kind == KPIRemote })
}
