package grid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"null", NullValue(), ""},
		{"string", StringValue("hello"), "hello"},
		{"integer number", NumberValue(42), "42"},
		{"fractional number", NumberValue(12.5), "12.5"},
		{"bool", BoolValue(true), "true"},
		{"renderable", RenderableValue(El("span", Text("a"), Number(1))), "a 1"},
		{"raw object", ValueOf(map[string]any{"k": "v"}), `{"k":"v"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestValueOf(t *testing.T) {
	assert.Equal(t, KindNull, ValueOf(nil).Kind())
	assert.Equal(t, KindString, ValueOf("x").Kind())
	assert.Equal(t, KindBool, ValueOf(false).Kind())
	assert.Equal(t, KindNumber, ValueOf(3).Kind())
	assert.Equal(t, KindNumber, ValueOf(json.Number("1.25")).Kind())
	assert.Equal(t, KindRenderable, ValueOf([]any{1, 2}).Kind())
	assert.Equal(t, KindRenderable, ValueOf(Text("t")).Kind())
	assert.True(t, RenderableValue(nil).IsNull())

	n, ok := ValueOf(json.Number("1.25")).Number()
	require.True(t, ok)
	assert.Equal(t, 1.25, n)

	_, ok = StringValue("1.25").Number()
	assert.False(t, ok)
}

func TestValue_JSON(t *testing.T) {
	row := Row{
		"a": StringValue("x"),
		"b": NumberValue(2),
		"c": NullValue(),
		"d": BoolValue(true),
	}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":2,"c":null,"d":true}`, string(data))

	var back Row
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "x", back.Get("a").String())
	assert.Equal(t, KindNumber, back.Get("b").Kind())
	assert.True(t, back.Get("c").IsNull())
}

func TestRowsFromJSON(t *testing.T) {
	rows, err := RowsFromJSON([]byte(`[{"id":1,"name":"a","tags":["x"]},{"id":2,"name":null}]`))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "1", rows[0].Get("id").String())
	assert.Equal(t, `["x"]`, rows[0].Get("tags").String())
	assert.True(t, rows[1].Get("name").IsNull())
	assert.True(t, rows[1].Get("missing").IsNull())

	_, err = RowsFromJSON([]byte(`[1,2]`))
	assert.Error(t, err)

	_, err = RowsFromJSON([]byte(`{`))
	assert.Error(t, err)
}

func TestPlainText(t *testing.T) {
	tree := El("div",
		El("span", Text("Gold")).Attr("tone", "warning"),
		Text(""),
		El("b", Number(3), Text("lots")),
		Raw{V: true},
	)

	assert.Equal(t, "Gold 3 lots true", PlainText(tree))
	assert.Equal(t, 7.5, PlainText(Number(7.5)))
	assert.Equal(t, "plain", PlainText(Text("plain")))
	assert.Equal(t, "", PlainText(nil))
	assert.Equal(t, "", PlainString((*Node)(nil)))
}

func TestNode_JSON(t *testing.T) {
	n := El("span", Text("Active"), Number(2)).Attr("class", "badge")
	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag":"span","attrs":{"class":"badge"},"children":["Active",2]}`, string(data))
}
