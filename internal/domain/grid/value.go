package grid

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies which variant a Value holds
type Kind uint8

const (
	// KindNull is a missing or null field
	KindNull Kind = iota
	// KindString is a text field
	KindString
	// KindNumber is a numeric field (always held as float64)
	KindNumber
	// KindBool is a boolean field
	KindBool
	// KindRenderable is a structured field that is displayed as a Renderable
	KindRenderable
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindRenderable:
		return "renderable"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Value is a single row field: a tagged union of string, number, bool,
// null and renderable. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	r    Renderable
}

// NullValue returns the null value
func NullValue() Value {
	return Value{}
}

// StringValue wraps a string
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// NumberValue wraps a number
func NumberValue(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// BoolValue wraps a boolean
func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// RenderableValue wraps a renderable tree. A nil renderable is null.
func RenderableValue(r Renderable) Value {
	if r == nil {
		return Value{}
	}
	return Value{kind: KindRenderable, r: r}
}

// Kind returns the variant held by v
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is null
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Number returns the numeric payload and true when v is a number
func (v Value) Number() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Bool returns the boolean payload and true when v is a bool
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// String converts v to its canonical string form. Null converts to "".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindRenderable:
		return PlainString(v.r)
	default:
		return ""
	}
}

// Display returns the Renderable used when a column has no renderer
func (v Value) Display() Renderable {
	switch v.kind {
	case KindNumber:
		return Number(v.num)
	case KindRenderable:
		return v.r
	default:
		return Text(v.String())
	}
}

// Interface returns v as a plain Go value (nil, string, float64, bool or Renderable)
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindRenderable:
		return v.r
	default:
		return nil
	}
}

// MarshalJSON encodes v as its natural JSON form
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes any JSON scalar, object or array into v
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ValueOf(raw)
	return nil
}

// ValueOf converts a decoded JSON value (or a common Go scalar) into a Value.
// Objects and arrays become Raw renderables.
func ValueOf(x any) Value {
	switch t := x.(type) {
	case nil:
		return NullValue()
	case Value:
		return t
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case float64:
		return NumberValue(t)
	case float32:
		return NumberValue(float64(t))
	case int:
		return NumberValue(float64(t))
	case int32:
		return NumberValue(float64(t))
	case int64:
		return NumberValue(float64(t))
	case uint:
		return NumberValue(float64(t))
	case uint64:
		return NumberValue(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return NumberValue(f)
		}
		return StringValue(t.String())
	case Renderable:
		return RenderableValue(t)
	default:
		return RenderableValue(Raw{V: t})
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
