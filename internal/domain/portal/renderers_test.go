package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibportal/backend/internal/domain/grid"
)

func render(t *testing.T, def ColumnDef, v grid.Value, row grid.Row) grid.Renderable {
	t.Helper()
	r := def.renderer()
	require.NotNil(t, r)
	return r.RenderCell(v, row, 0)
}

func TestBadgeRenderer(t *testing.T) {
	def := ColumnDef{Key: "status", Render: RenderBadge, Tones: map[string]string{"Settled": ToneSuccess}}

	node, ok := render(t, def, grid.StringValue("settled"), nil).(*grid.Node)
	require.True(t, ok)
	assert.Equal(t, "span", node.Tag)
	assert.Equal(t, ToneSuccess, node.Attrs["tone"])
	assert.Equal(t, "badge badge-success", node.Attrs["class"])
	assert.Equal(t, "settled", grid.PlainString(node))

	node = render(t, def, grid.StringValue("Rejected"), nil).(*grid.Node)
	assert.Equal(t, ToneDanger, node.Attrs["tone"])

	node = render(t, def, grid.StringValue("mystery"), nil).(*grid.Node)
	assert.Equal(t, ToneNeutral, node.Attrs["tone"])

	assert.Equal(t, grid.Text(""), render(t, def, grid.NullValue(), nil))
}

func TestMoneyRenderer(t *testing.T) {
	def := ColumnDef{Key: "amount", Render: RenderMoney}

	assert.Equal(t, "$1,250.50", grid.PlainString(render(t, def, grid.NumberValue(1250.5), nil)))
	assert.Equal(t, "$99.90", grid.PlainString(render(t, def, grid.StringValue(" 99.9 "), nil)))

	neg := render(t, def, grid.NumberValue(-3), nil).(*grid.Node)
	assert.Equal(t, "-$3.00", grid.PlainString(neg))
	assert.Equal(t, ToneDanger, neg.Attrs["tone"])

	assert.Equal(t, grid.Text("n/a"), render(t, def, grid.StringValue("n/a"), nil))

	eur := ColumnDef{Key: "amount", Render: RenderMoney, Currency: "EUR"}
	assert.Equal(t, "€1,000.00", grid.PlainString(render(t, eur, grid.NumberValue(1000), nil)))
}

func TestTimeRenderers(t *testing.T) {
	date := ColumnDef{Key: "d", Render: RenderDate}
	datetime := ColumnDef{Key: "d", Render: RenderDateTime}

	assert.Equal(t, "2024-03-05", grid.PlainString(render(t, date, grid.StringValue("2024-03-05T14:30:00Z"), nil)))
	assert.Equal(t, "2024-03-05 14:30", grid.PlainString(render(t, datetime, grid.StringValue("2024-03-05T14:30:00Z"), nil)))

	// epoch milliseconds
	node := render(t, date, grid.NumberValue(1709649000000), nil).(*grid.Node)
	assert.Equal(t, "time", node.Tag)
	assert.Equal(t, "2024-03-05T14:30:00Z", node.Attrs["datetime"])

	assert.Equal(t, grid.Text("someday"), render(t, date, grid.StringValue("someday"), nil))
	assert.Equal(t, grid.Text(""), render(t, date, grid.NullValue(), nil))
}

func TestPercentAndUpper(t *testing.T) {
	percent := ColumnDef{Key: "p", Render: RenderPercent}
	assert.Equal(t, grid.Text("12.50%"), render(t, percent, grid.NumberValue(12.5), nil))
	assert.Equal(t, grid.Text("7.00%"), render(t, percent, grid.StringValue("7"), nil))

	up := ColumnDef{Key: "c", Render: RenderUpper}
	assert.Equal(t, grid.Text("GB"), render(t, up, grid.StringValue("gb"), nil))
	assert.Equal(t, grid.Text("STRASSE"), render(t, up, grid.StringValue("straße"), nil))
	assert.Equal(t, grid.Text(""), render(t, up, grid.NullValue(), nil))
}

func TestLinkRenderer(t *testing.T) {
	def := ColumnDef{Key: "name", Render: RenderLink, Href: "/clients/{account}/trades?n={name}"}
	row := grid.Row{"account": grid.StringValue("10 01"), "name": grid.StringValue("Ann")}

	node := render(t, def, row["name"], row).(*grid.Node)
	assert.Equal(t, "a", node.Tag)
	assert.Equal(t, "/clients/10%2001/trades?n=Ann", node.Attrs["href"])
	assert.Equal(t, "Ann", grid.PlainString(node))
}

func TestExpandHref(t *testing.T) {
	row := grid.Row{"id": grid.NumberValue(7)}
	assert.Equal(t, "/x/7", ExpandHref("/x/{id}", row))
	assert.Equal(t, "/x/", ExpandHref("/x/{missing}", row))
	assert.Equal(t, "/x/{id", ExpandHref("/x/{id", row))
	assert.Equal(t, "/plain", ExpandHref("/plain", row))
}

func TestDefaultRenderer(t *testing.T) {
	assert.Nil(t, ColumnDef{Key: "x"}.renderer())
	assert.True(t, RenderDefault.IsValid())
	assert.False(t, RendererName("sparkle").IsValid())
}

func TestSortArrowHeader(t *testing.T) {
	col := grid.Column{Key: "amount", Label: "Amount"}

	arrowOf := func(r grid.Renderable) *grid.Node {
		return r.(*grid.Node).Children[1].(*grid.Node)
	}

	unsorted := SortArrowHeader.RenderHeader(col, grid.SortState{})
	assert.Equal(t, "Amount "+ArrowNone, grid.PlainString(unsorted))
	assert.Equal(t, "none", arrowOf(unsorted).Attrs["dir"])

	other := SortArrowHeader.RenderHeader(col, grid.SortState{Key: "name", Direction: grid.Ascending})
	assert.Equal(t, ArrowNone, grid.PlainString(arrowOf(other)))

	asc := SortArrowHeader.RenderHeader(col, grid.SortState{Key: "amount", Direction: grid.Ascending})
	assert.Equal(t, ArrowUp, grid.PlainString(arrowOf(asc)))
	assert.Equal(t, "asc", arrowOf(asc).Attrs["dir"])

	desc := SortArrowHeader.RenderHeader(col, grid.SortState{Key: "amount", Direction: grid.Descending})
	assert.Equal(t, ArrowDown, grid.PlainString(arrowOf(desc)))
}
