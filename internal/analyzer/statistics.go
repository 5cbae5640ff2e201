package analyzer

import (
	"fmt"
	"math"
	"sort"

	"xctrace-mcp/internal/samples"
	"xctrace-mcp/internal/series"
)

// SeriesStatistics summarizes the values of one named series
type SeriesStatistics struct {
	Name        string
	Samples     int
	Unavailable int // samples carrying the -1 memory sentinel
	Min         float64
	Max         float64
	Average     float64
	First       float64
	Last        float64
}

// ComputeStatistics calculates statistics for every series of the bundle,
// in legend order. Memory sentinels are counted but excluded from the values.
func ComputeStatistics(k samples.Kind, b series.Bundle) []SeriesStatistics {
	out := make([]SeriesStatistics, 0, len(b.Names))
	for _, name := range b.Names {
		out = append(out, computeOne(k, name, b.Series[name]))
	}
	return out
}

func computeOne(k samples.Kind, name string, values []float64) SeriesStatistics {
	stats := SeriesStatistics{Name: name, Samples: len(values)}

	stats.Min = math.MaxFloat64
	stats.Max = -math.MaxFloat64
	total := 0.0
	counted := 0
	for _, v := range values {
		if k == samples.MEM && v < 0 {
			stats.Unavailable++
			continue
		}
		if counted == 0 {
			stats.First = v
		}
		stats.Last = v
		total += v
		counted++
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
	}

	if counted == 0 {
		stats.Min, stats.Max = 0, 0
		return stats
	}
	stats.Average = math.Round(total/float64(counted)*10) / 10
	return stats
}

// Subtitle renders statistics the way chart subtitles show them
func Subtitle(stats []SeriesStatistics) string {
	s := ""
	for i, st := range stats {
		if i > 0 {
			s += " | "
		}
		s += fmt.Sprintf("%s max: %g min: %g avg: %g", st.Name, st.Max, st.Min, st.Average)
	}
	return s
}

// Percentile returns the p-th percentile (0-100) of the values of one
// series, ignoring memory sentinels.
func Percentile(k samples.Kind, values []float64, p float64) float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if k == samples.MEM && v < 0 {
			continue
		}
		sorted = append(sorted, v)
	}
	if len(sorted) == 0 {
		return 0
	}
	sort.Float64s(sorted)

	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
