package series

import (
	"fmt"
	"math"
	"sort"

	"xctrace-mcp/internal/duration"
	"xctrace-mcp/internal/samples"
)

// Point is one sample at whole-second resolution.
type Point struct {
	Seconds int
	Value   float64
}

// DisplayPoint is a normalized sample with its HH:MM:SS label.
type DisplayPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// FromRaw converts extracted samples into points. CPU and memory values are
// rounded to two decimals. A malformed time label fails the whole series.
func FromRaw(k samples.Kind, raws []samples.Raw) ([]Point, error) {
	points := make([]Point, 0, len(raws))
	for i, r := range raws {
		sec, err := duration.Parse(r.Time)
		if err != nil {
			return nil, fmt.Errorf("%s sample %d: %w", k, i, err)
		}
		v := r.Value
		if k.Rounded() {
			v = math.Round(v*100) / 100
		}
		points = append(points, Point{Seconds: sec, Value: v})
	}
	return points, nil
}

// Collapse sorts points by time and keeps one point per second; the value of
// the last point seen for a second wins. The input is not modified.
func Collapse(points []Point) []Point {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Seconds < sorted[j].Seconds
	})

	out := make([]Point, 0, len(sorted))
	for _, p := range sorted {
		if n := len(out); n > 0 && out[n-1].Seconds == p.Seconds {
			out[n-1].Value = p.Value
			continue
		}
		out = append(out, p)
	}
	return out
}

// Normalize collapses points and renders their labels.
func Normalize(points []Point) []DisplayPoint {
	collapsed := Collapse(points)
	out := make([]DisplayPoint, len(collapsed))
	for i, p := range collapsed {
		out[i] = DisplayPoint{Time: duration.Format(p.Seconds), Value: p.Value}
	}
	return out
}

// Points parses display labels back into points.
func Points(dps []DisplayPoint) ([]Point, error) {
	out := make([]Point, len(dps))
	for i, dp := range dps {
		sec, err := duration.Parse(dp.Time)
		if err != nil {
			return nil, err
		}
		out[i] = Point{Seconds: sec, Value: dp.Value}
	}
	return out, nil
}

// NormalizeRaw is FromRaw followed by Normalize.
func NormalizeRaw(k samples.Kind, raws []samples.Raw) ([]DisplayPoint, error) {
	points, err := FromRaw(k, raws)
	if err != nil {
		return nil, err
	}
	return Normalize(points), nil
}
