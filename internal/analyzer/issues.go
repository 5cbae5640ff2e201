package analyzer

import (
	"fmt"
	"sort"

	"xctrace-mcp/internal/samples"
	"xctrace-mcp/internal/series"
)

// Thresholds used by DetectPerformanceIssues.
const (
	lowFPSCritical   = 30.0
	lowFPSHigh       = 50.0
	cpuSaturation    = 90.0
	memoryGrowthHigh = 50.0 // percent growth from first to last sample
)

// PerformanceIssue is a heuristic finding within one series
type PerformanceIssue struct {
	Severity    string // "Critical", "High", "Medium", "Low"
	Category    string // e.g., "Low Frame Rate", "CPU Saturation", "Memory Growth"
	Description string
	Series      string
	Impact      float64 // % of samples affected, or growth in %
}

// DetectPerformanceIssues identifies potential performance problems in a bundle
func DetectPerformanceIssues(k samples.Kind, b series.Bundle) []PerformanceIssue {
	issues := []PerformanceIssue{}

	for _, st := range ComputeStatistics(k, b) {
		values := b.Series[st.Name]
		if len(values) == 0 {
			continue
		}

		switch k {
		case samples.FPS:
			low := fraction(values, func(v float64) bool { return v < lowFPSHigh })
			switch {
			case st.Average < lowFPSCritical:
				issues = append(issues, PerformanceIssue{
					Severity:    "Critical",
					Category:    "Low Frame Rate",
					Description: fmt.Sprintf("Average frame rate is %.1f FPS", st.Average),
					Series:      st.Name,
					Impact:      low,
				})
			case low > 10.0:
				issues = append(issues, PerformanceIssue{
					Severity:    "High",
					Category:    "Frame Drops",
					Description: fmt.Sprintf("%.2f%% of samples are below %.0f FPS", low, lowFPSHigh),
					Series:      st.Name,
					Impact:      low,
				})
			}

		case samples.CPU, samples.GPU:
			busy := fraction(values, func(v float64) bool { return v >= cpuSaturation })
			if busy > 20.0 {
				issues = append(issues, PerformanceIssue{
					Severity:    "High",
					Category:    fmt.Sprintf("%s Saturation", k.Label()),
					Description: fmt.Sprintf("%.2f%% of samples are at or above %.0f%%", busy, cpuSaturation),
					Series:      st.Name,
					Impact:      busy,
				})
			}

		case samples.MEM:
			if st.First > 0 {
				growth := (st.Last - st.First) / st.First * 100.0
				if growth > memoryGrowthHigh {
					issues = append(issues, PerformanceIssue{
						Severity:    "Medium",
						Category:    "Memory Growth",
						Description: fmt.Sprintf("Memory grew from %.2f MB to %.2f MB", st.First, st.Last),
						Series:      st.Name,
						Impact:      growth,
					})
				}
			}
			if st.Unavailable > 0 {
				issues = append(issues, PerformanceIssue{
					Severity:    "Low",
					Category:    "Missing Memory Samples",
					Description: fmt.Sprintf("%d of %d samples have no memory value", st.Unavailable, st.Samples),
					Series:      st.Name,
					Impact:      float64(st.Unavailable) / float64(st.Samples) * 100.0,
				})
			}
		}
	}

	// Sort by impact (descending)
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Impact > issues[j].Impact
	})

	return issues
}

func fraction(values []float64, match func(float64) bool) float64 {
	n := 0
	for _, v := range values {
		if match(v) {
			n++
		}
	}
	return float64(n) / float64(len(values)) * 100.0
}
