package mcptools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"xctrace-mcp/internal/series"
)

const export = `<trace-query-result>
<node><schema name="core-animation-fps-estimate"/>
<row><start-time fmt="00:03">3</start-time><fps>20</fps></row>
<row><start-time fmt="00:02">2</start-time><fps>15</fps></row>
<row><start-time fmt="00:01">1</start-time><fps>25</fps></row>
</node>
</trace-query-result>`

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)

	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text, res.IsError
	case *mcp.TextContent:
		return c.Text, res.IsError
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return "", false
}

var sessionRE = regexp.MustCompile(`Session: (\S+)`)

func TestTools(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fps.xml")
	require.NoError(t, os.WriteFile(path, []byte(export), 0o644))

	tools := New(nil, nil)

	text, isErr := call(t, tools.parseExport, map[string]any{"file_paths": path})
	require.False(t, isErr, text)
	require.Contains(t, text, "FPS: 1 series, 3 samples")
	m := sessionRE.FindStringSubmatch(text)
	require.Len(t, m, 2)
	id := m[1]

	text, isErr = call(t, tools.getSeries, map[string]any{"session_id": id, "metric": "FPS"})
	require.False(t, isErr, text)
	var b series.Bundle
	require.NoError(t, json.Unmarshal([]byte(text), &b))
	require.Equal(t, []string{"00:00:01", "00:00:02", "00:00:03"}, b.XDomain)
	require.Equal(t, []float64{25, 15, 20}, b.Series["FPS"])

	_, isErr = call(t, tools.getSeries, map[string]any{"session_id": id, "metric": "disk"})
	require.True(t, isErr)
	_, isErr = call(t, tools.getSeries, map[string]any{"session_id": id, "metric": "cpu"})
	require.True(t, isErr)

	text, isErr = call(t, tools.getStatistics, map[string]any{"session_id": id})
	require.False(t, isErr)
	require.Contains(t, text, "Avg: 20.0")

	text, isErr = call(t, tools.detectIssues, map[string]any{"session_id": id})
	require.False(t, isErr)
	require.Contains(t, text, "Low Frame Rate")

	saveDir := filepath.Join(dir, "save")
	text, isErr = call(t, tools.saveSamples, map[string]any{"session_id": id, "output_dir": saveDir})
	require.False(t, isErr, text)
	require.FileExists(t, filepath.Join(saveDir, id+"_fps.json"))

	reportPath := filepath.Join(dir, "report.html")
	text, isErr = call(t, tools.renderReport, map[string]any{"session_id": id, "output_path": reportPath})
	require.False(t, isErr, text)
	require.FileExists(t, reportPath)

	text, isErr = call(t, tools.loadSamples, map[string]any{"directory": saveDir})
	require.False(t, isErr, text)
	require.Contains(t, text, "FPS: 1 series, 3 samples")
}

func TestTools_Errors(t *testing.T) {
	tools := New(nil, nil)

	_, isErr := call(t, tools.getStatistics, map[string]any{"session_id": "nope"})
	require.True(t, isErr)

	_, isErr = call(t, tools.parseExport, map[string]any{})
	require.True(t, isErr)

	_, isErr = call(t, tools.parseExport, map[string]any{"file_paths": filepath.Join(t.TempDir(), "missing.xml")})
	require.True(t, isErr)

	_, isErr = call(t, tools.loadSamples, map[string]any{"directory": filepath.Join(t.TempDir(), "missing")})
	require.True(t, isErr)
}

func TestNewServer(t *testing.T) {
	require.NotNil(t, NewServer(New(nil, nil), "test"))
}
