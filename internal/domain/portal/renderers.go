package portal

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ibportal/backend/internal/domain/grid"
	"github.com/ibportal/backend/internal/domain/shared/valueobject"
)

// RendererName selects a named cell renderer. Empty means the value's
// default display.
type RendererName string

const (
	RenderDefault  RendererName = ""
	RenderBadge    RendererName = "badge"
	RenderMoney    RendererName = "money"
	RenderDate     RendererName = "date"
	RenderDateTime RendererName = "datetime"
	RenderPercent  RendererName = "percent"
	RenderUpper    RendererName = "upper"
	RenderLink     RendererName = "link"
)

// Display layouts
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

// Badge tones
const (
	ToneNeutral = "neutral"
	ToneSuccess = "success"
	ToneWarning = "warning"
	ToneDanger  = "danger"
	ToneInfo    = "info"
)

// defaultTones colors the status words the gateway commonly returns
var defaultTones = map[string]string{
	"active":    ToneSuccess,
	"approved":  ToneSuccess,
	"completed": ToneSuccess,
	"paid":      ToneSuccess,
	"pending":   ToneWarning,
	"review":    ToneWarning,
	"dormant":   ToneWarning,
	"rejected":  ToneDanger,
	"failed":    ToneDanger,
	"blocked":   ToneDanger,
	"cancelled": ToneDanger,
	"new":       ToneInfo,
}

// IsValid reports whether n names a known renderer
func (n RendererName) IsValid() bool {
	switch n {
	case RenderDefault, RenderBadge, RenderMoney, RenderDate, RenderDateTime,
		RenderPercent, RenderUpper, RenderLink:
		return true
	}
	return false
}

func (c ColumnDef) renderer() grid.CellRenderer {
	switch c.Render {
	case RenderBadge:
		return badgeRenderer(c.Tones)
	case RenderMoney:
		return moneyRenderer(valueobject.Currency(c.Currency))
	case RenderDate:
		return timeRenderer(DateLayout)
	case RenderDateTime:
		return timeRenderer(DateTimeLayout)
	case RenderPercent:
		return grid.CellRendererFunc(renderPercent)
	case RenderUpper:
		return grid.CellRendererFunc(renderUpper)
	case RenderLink:
		return linkRenderer(c.Href)
	}
	return nil
}

// Badge renders a status pill. The tone comes from the column's tones map,
// then the built-in defaults, matched case-insensitively.
func Badge(text, tone string) grid.Renderable {
	if tone == "" {
		tone = ToneNeutral
	}
	return grid.El("span", grid.Text(text)).Attr("class", "badge badge-"+tone).Attr("tone", tone)
}

func badgeRenderer(tones map[string]string) grid.CellRenderer {
	lookup := make(map[string]string, len(tones))
	for k, v := range tones {
		lookup[strings.ToLower(k)] = v
	}
	return grid.CellRendererFunc(func(v grid.Value, _ grid.Row, _ int) grid.Renderable {
		if v.IsNull() {
			return grid.Text("")
		}
		s := v.String()
		key := strings.ToLower(s)
		tone, ok := lookup[key]
		if !ok {
			tone = defaultTones[key]
		}
		return Badge(s, tone)
	})
}

// decimalOf reads a number or a numeric string
func decimalOf(v grid.Value) (decimal.Decimal, bool) {
	if n, ok := v.Number(); ok {
		return decimal.NewFromFloat(n), true
	}
	if v.Kind() != grid.KindString {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v.String()))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// MoneyNode renders an amount with its currency symbol
func MoneyNode(m valueobject.Money) grid.Renderable {
	node := grid.El("span", grid.Text(m.Format())).Attr("class", "money")
	if m.IsNegative() {
		node.Attr("tone", ToneDanger)
	}
	return node
}

func moneyRenderer(currency valueobject.Currency) grid.CellRenderer {
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	return grid.CellRendererFunc(func(v grid.Value, _ grid.Row, _ int) grid.Renderable {
		d, ok := decimalOf(v)
		if !ok {
			return v.Display()
		}
		m, err := valueobject.NewMoney(d, currency)
		if err != nil {
			return v.Display()
		}
		return MoneyNode(m)
	})
}

func timeRenderer(layout string) grid.CellRenderer {
	return grid.CellRendererFunc(func(v grid.Value, _ grid.Row, _ int) grid.Renderable {
		if v.IsNull() {
			return grid.Text("")
		}
		t, ok := grid.TimeOf(v)
		if !ok {
			return grid.Text(v.String())
		}
		return grid.El("time", grid.Text(t.Format(layout))).Attr("datetime", t.Format(timeAttrLayout))
	})
}

const timeAttrLayout = "2006-01-02T15:04:05Z07:00"

func renderPercent(v grid.Value, _ grid.Row, _ int) grid.Renderable {
	d, ok := decimalOf(v)
	if !ok {
		return v.Display()
	}
	return grid.Text(d.StringFixed(2) + "%")
}

var upper = cases.Upper(language.Und)

func renderUpper(v grid.Value, _ grid.Row, _ int) grid.Renderable {
	if v.IsNull() {
		return grid.Text("")
	}
	return grid.Text(upper.String(v.String()))
}

func linkRenderer(href string) grid.CellRenderer {
	return grid.CellRendererFunc(func(v grid.Value, row grid.Row, _ int) grid.Renderable {
		if v.IsNull() {
			return grid.Text("")
		}
		return grid.El("a", grid.Text(v.String())).Attr("href", ExpandHref(href, row))
	})
}

// ExpandHref replaces each {field} in tmpl with the path-escaped value of
// that field in row. Unknown fields expand to the empty string.
func ExpandHref(tmpl string, row grid.Row) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			break
		}
		b.WriteString(tmpl[:open])
		b.WriteString(url.PathEscape(row.Get(tmpl[open+1 : open+end]).String()))
		tmpl = tmpl[open+end+1:]
	}
	b.WriteString(tmpl)
	return b.String()
}

// Sort arrows shown in sortable headers
const (
	ArrowNone = "↕"
	ArrowUp   = "▲"
	ArrowDown = "▼"
)

// SortArrowHeader renders a sortable column's label followed by an arrow
// reflecting whether the grid is sorted by it.
var SortArrowHeader = grid.HeaderRendererFunc(func(c grid.Column, s grid.SortState) grid.Renderable {
	arrow, dir := ArrowNone, "none"
	if s.Key == c.Key {
		dir = string(s.Direction)
		if s.Direction == grid.Descending {
			arrow = ArrowDown
		} else {
			arrow = ArrowUp
		}
	}
	return grid.El("span",
		grid.Text(c.Title()),
		grid.El("i", grid.Text(arrow)).Attr("class", "sort-arrow").Attr("dir", dir),
	).Attr("class", "sortable")
})
