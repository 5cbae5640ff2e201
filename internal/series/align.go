package series

import (
	"errors"
	"fmt"
	"sort"

	"xctrace-mcp/internal/samples"
)

// Named maps a series name (a file or metric) to its normalized points.
type Named map[string][]DisplayPoint

// Bundle is a chart-ready set of series sharing one x axis. Names gives the
// legend order; every Series entry is indexed positionally against XDomain.
type Bundle struct {
	Title   string               `json:"title"`
	YLabel  string               `json:"y_label"`
	XDomain []string             `json:"x_domain"`
	Names   []string             `json:"names"`
	Series  map[string][]float64 `json:"series"`
}

// Align combines named series into one bundle. Names are sorted. The x axis
// is borrowed from the longest series (the first in name order on ties) and
// the other series are laid against it by position only; there is no
// per-timestamp alignment, so series of differing length or rate line up
// approximately.
func Align(title, yLabel string, named Named) Bundle {
	b := Bundle{
		Title:   title,
		YLabel:  yLabel,
		XDomain: []string{},
		Names:   make([]string, 0, len(named)),
		Series:  make(map[string][]float64, len(named)),
	}
	for name := range named {
		b.Names = append(b.Names, name)
	}
	sort.Strings(b.Names)

	for _, name := range b.Names {
		pts := named[name]
		values := make([]float64, len(pts))
		for i, p := range pts {
			values[i] = p.Value
		}
		if len(pts) > len(b.XDomain) {
			b.XDomain = make([]string, len(pts))
			for i, p := range pts {
				b.XDomain[i] = p.Time
			}
		}
		b.Series[name] = values
	}
	return b
}

// Single wraps one series as a bundle named after its y label.
func Single(title, yLabel string, pts []DisplayPoint) Bundle {
	return Align(title, yLabel, Named{yLabel: pts})
}

// Build normalizes each named raw series of metric k and aligns them. A
// series that fails to normalize is left out of the bundle and reported in
// the returned error; the others are still aligned.
func Build(k samples.Kind, raw map[string][]samples.Raw) (Bundle, error) {
	named := make(Named, len(raw))
	var errs []error
	for name, raws := range raw {
		pts, err := NormalizeRaw(k, raws)
		if err != nil {
			errs = append(errs, fmt.Errorf("series %s: %w", name, err))
			continue
		}
		named[name] = pts
	}
	return Align(k.Title(), k.Label(), named), errors.Join(errs...)
}
