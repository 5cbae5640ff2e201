package xctrace

import (
	"errors"
	"fmt"
)

// ErrNoMatch is returned when a row has no element for the requested path.
var ErrNoMatch = errors.New("no element matches path")

// MissingReferenceError reports a ref attribute pointing at an identifier
// that is not defined in the current table document.
type MissingReferenceError struct {
	Schema string
	Row    int
	Tag    string
	Ref    string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("table %q row %d: <%s ref=%q> points at an undefined id", e.Schema, e.Row, e.Tag, e.Ref)
}

// SchemaMismatchError reports a table that is not the one a metric expects:
// either its schema name differs or a required path never occurs in any row.
type SchemaMismatchError struct {
	Schema string
	Want   string
	Path   Path
}

func (e *SchemaMismatchError) Error() string {
	if e.Want != "" {
		return fmt.Sprintf("table schema %q, want %q", e.Schema, e.Want)
	}
	return fmt.Sprintf("table %q: element %s never occurs", e.Schema, e.Path)
}
