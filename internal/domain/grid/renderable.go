package grid

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Renderable is a display tree returned by cell renderers. Leaves are Text,
// Number and Raw; *Node holds children.
type Renderable interface {
	renderable()
}

// Text is a textual leaf
type Text string

// Number is a numeric leaf
type Number float64

// Raw is an opaque leaf that is neither text nor a number.
// It is stringified for search and export.
type Raw struct {
	V any
}

// Node is a tagged element with child renderables
type Node struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []Renderable      `json:"children,omitempty"`
}

func (Text) renderable()   {}
func (Number) renderable() {}
func (Raw) renderable()    {}
func (*Node) renderable()  {}

// El builds a node with the given tag and children
func El(tag string, children ...Renderable) *Node {
	return &Node{Tag: tag, Children: children}
}

// Attr sets an attribute and returns the node for chaining
func (n *Node) Attr(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
	return n
}

// String stringifies the raw payload, encoding maps and slices as JSON
func (r Raw) String() string {
	switch v := r.V.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

// MarshalJSON encodes the raw payload as-is
func (r Raw) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.V)
}

// PlainText reduces a renderable to an export cell: a bare Number leaf stays a
// float64, everything else becomes a string. Nodes join the text of their
// non-empty children with a single space.
func PlainText(r Renderable) any {
	if n, ok := r.(Number); ok {
		return float64(n)
	}
	return PlainString(r)
}

// PlainString is PlainText with numbers formatted as strings
func PlainString(r Renderable) string {
	switch v := r.(type) {
	case nil:
		return ""
	case Text:
		return string(v)
	case Number:
		return formatNumber(float64(v))
	case Raw:
		return v.String()
	case *Node:
		if v == nil {
			return ""
		}
		parts := make([]string, 0, len(v.Children))
		for _, child := range v.Children {
			if s := PlainString(child); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(v)
	}
}
