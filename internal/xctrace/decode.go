package xctrace

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadTablesFile reads every table of an exported XML file.
func ReadTablesFile(path string) ([]*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export %s: %w", path, err)
	}
	defer f.Close()

	tables, err := ReadTables(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read export %s: %w", path, err)
	}
	return tables, nil
}

// ReadTables decodes an xctrace table export. Each <node> starts a new table
// document; rows found outside of any node are collected into a single
// unnamed table.
func ReadTables(r io.Reader) ([]*Table, error) {
	dec := xml.NewDecoder(r)

	var (
		tables []*Table
		cur    *Table
		stack  []*Element
		text   [][]byte
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed table xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				switch t.Name.Local {
				case "node":
					cur = &Table{}
					tables = append(tables, cur)
					continue
				case "schema":
					if cur == nil {
						cur = &Table{}
						tables = append(tables, cur)
					}
					cur.Schema = attrValue(t.Attr, "name")
					if err := dec.Skip(); err != nil {
						return nil, fmt.Errorf("malformed schema element: %w", err)
					}
					continue
				case "row":
				default:
					continue
				}
			}

			el := newElement(t)
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
			text = append(text, nil)

		case xml.CharData:
			if len(stack) > 0 {
				text[len(text)-1] = append(text[len(text)-1], t...)
			}

		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			el := stack[len(stack)-1]
			el.Text = strings.TrimSpace(string(text[len(text)-1]))
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]

			if len(stack) == 0 {
				if cur == nil {
					cur = &Table{}
					tables = append(tables, cur)
				}
				cur.Rows = append(cur.Rows, &Row{Index: len(cur.Rows), Root: el})
			}
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("malformed table xml: unterminated row")
	}
	return tables, nil
}

func newElement(t xml.StartElement) *Element {
	el := &Element{Tag: t.Name.Local}
	for _, a := range t.Attr {
		switch a.Name.Local {
		case "id":
			el.ID = a.Value
		case "ref":
			el.Ref = a.Value
		}
	}
	el.Attrs = append(el.Attrs, t.Attr...)
	return el
}

func attrValue(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
