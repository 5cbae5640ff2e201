package xctrace

import (
	"encoding/xml"
	"strconv"
)

// Element is one node of an exported row. In the export's compression scheme
// an element either defines a value (ID set, content inline) or points at an
// earlier or later definition (Ref set, no content).
type Element struct {
	Tag      string
	ID       string
	Ref      string
	Attrs    []xml.Attr
	Text     string
	Children []*Element
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Label returns the human formatted value (fmt attribute), or the raw text
// when the element has none.
func (e *Element) Label() string {
	if v, ok := e.Attr("fmt"); ok {
		return v
	}
	return e.Text
}

// Float parses the element text as a number.
func (e *Element) Float() (float64, error) {
	return strconv.ParseFloat(e.Text, 64)
}

// descendants returns every element below e with the given tag, in document
// order. e itself is not included.
func (e *Element) descendants(tag string) []*Element {
	var out []*Element
	var walk func(*Element)
	walk = func(n *Element) {
		for _, c := range n.Children {
			if c.Tag == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

// Row is one <row> of a table, together with its position in the table.
type Row struct {
	Index int
	Root  *Element
}

// Table is one exported table document: a schema and its rows. Identifiers
// are unique within a table and never shared between tables.
type Table struct {
	Schema string
	Rows   []*Row
}
