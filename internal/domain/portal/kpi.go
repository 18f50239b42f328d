package portal

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/ibportal/backend/internal/domain/grid"
	"github.com/ibportal/backend/internal/domain/shared/valueobject"
)

// KPIKind selects how a KPI card gets its value
type KPIKind string

const (
	KPICount  KPIKind = "count"
	KPISum    KPIKind = "sum"
	KPIAvg    KPIKind = "avg"
	KPIMax    KPIKind = "max"
	KPIRemote KPIKind = "remote"
)

// KPIFormat selects how a KPI value is displayed
type KPIFormat string

const (
	FormatNumber  KPIFormat = "number"
	FormatInteger KPIFormat = "integer"
	FormatMoney   KPIFormat = "money"
	FormatPercent KPIFormat = "percent"
)

// Unavailable is shown in place of a KPI value that could not be fetched
const Unavailable = "n/a"

// KPI is a summary card above a grid. Local kinds reduce the page's rows
// (after aggregation); remote reads Value (a gjson path) from Source.
type KPI struct {
	Label    string    `yaml:"label"`
	Kind     KPIKind   `yaml:"kind"`
	Field    string    `yaml:"field"`
	Format   KPIFormat `yaml:"format"`
	Currency string    `yaml:"currency"`
	Source   *Source   `yaml:"source"`
	Value    string    `yaml:"value"`
}

// Validate checks the KPI is computable
func (k KPI) Validate() error {
	if k.Label == "" {
		return fmt.Errorf("kpi label is required")
	}
	switch k.Kind {
	case KPICount:
	case KPISum, KPIAvg, KPIMax:
		if k.Field == "" {
			return fmt.Errorf("kpi %q: field is required for %s", k.Label, k.Kind)
		}
	case KPIRemote:
		if k.Source == nil || k.Source.Path == "" || k.Value == "" {
			return fmt.Errorf("kpi %q: remote needs source.path and value", k.Label)
		}
	default:
		return fmt.Errorf("kpi %q: unknown kind %q", k.Label, k.Kind)
	}
	switch k.Format {
	case "", FormatNumber, FormatInteger, FormatMoney, FormatPercent:
	default:
		return fmt.Errorf("kpi %q: unknown format %q", k.Label, k.Format)
	}
	return nil
}

// Compute reduces rows for the local kinds. Non-numeric values are ignored
// by sum, avg and max; avg and max over no numeric values are zero.
func (k KPI) Compute(rows []grid.Row) decimal.Decimal {
	if k.Kind == KPICount {
		return decimal.NewFromInt(int64(len(rows)))
	}

	var (
		total decimal.Decimal
		best  decimal.Decimal
		n     int64
	)
	for _, r := range rows {
		d, ok := decimalOf(r.Get(k.Field))
		if !ok {
			continue
		}
		if n == 0 || d.GreaterThan(best) {
			best = d
		}
		total = total.Add(d)
		n++
	}

	switch k.Kind {
	case KPISum:
		return total
	case KPIAvg:
		if n == 0 {
			return decimal.Zero
		}
		return total.Div(decimal.NewFromInt(n))
	case KPIMax:
		return best
	}
	return decimal.Zero
}

var numberPrinter = message.NewPrinter(language.English)

// FormatValue displays v in the KPI's format
func (k KPI) FormatValue(v decimal.Decimal) string {
	switch k.Format {
	case FormatMoney:
		currency := valueobject.Currency(k.Currency)
		if currency == "" {
			currency = valueobject.DefaultCurrency
		}
		m, err := valueobject.NewMoney(v, currency)
		if err != nil {
			return v.StringFixed(2)
		}
		return m.Format()
	case FormatPercent:
		return v.StringFixed(2) + "%"
	case FormatInteger:
		return numberPrinter.Sprint(number.Decimal(v.Round(0).IntPart()))
	}
	if k.Kind == KPICount {
		return numberPrinter.Sprint(number.Decimal(v.IntPart()))
	}
	return numberPrinter.Sprint(number.Decimal(v.Round(2).InexactFloat64(), number.MaxFractionDigits(2)))
}

// Render builds the card for a computed value
func (k KPI) Render(v decimal.Decimal) grid.Renderable {
	return kpiCard(k.Label, k.FormatValue(v))
}

// RenderUnavailable builds the card for a value that could not be obtained
func (k KPI) RenderUnavailable() grid.Renderable {
	return kpiCard(k.Label, Unavailable)
}

func kpiCard(label, value string) grid.Renderable {
	return grid.El("div",
		grid.El("span", grid.Text(label)).Attr("class", "kpi-label"),
		grid.El("strong", grid.Text(value)).Attr("class", "kpi-value"),
	).Attr("class", "kpi")
}
