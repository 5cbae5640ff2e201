package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"xctrace-mcp/internal/series"
)

func testBundle() series.Bundle {
	return series.Align("FPS Data", "FPS", series.Named{
		"run_2_fps": {{Time: "00:00:01", Value: 58}},
		"run_1_fps": {{Time: "00:00:01", Value: 60}, {Time: "00:00:02", Value: 59}},
	})
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, "trace 42", []Chart{{Bundle: testBundle(), Subtitle: "two runs"}})
	require.NoError(t, err)

	html := buf.String()
	require.Contains(t, html, "trace 42")
	require.Contains(t, html, "FPS Data")
	require.Contains(t, html, "two runs")
	require.Contains(t, html, "run_1_fps")
	require.Contains(t, html, "run_2_fps")
	require.Contains(t, html, "00:00:02")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visualize", "report.html")
	require.NoError(t, WriteFile(path, "r", []Chart{{Bundle: testBundle()}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "FPS Data")
}
