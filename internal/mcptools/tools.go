package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"xctrace-mcp/internal/analyzer"
	"xctrace-mcp/internal/config"
	"xctrace-mcp/internal/samples"
	"xctrace-mcp/internal/session"
)

// Tools holds loaded sessions between tool calls.
type Tools struct {
	conf   *config.Config
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session.Session
}

func New(conf *config.Config, logger *zap.Logger) *Tools {
	if conf == nil {
		conf = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tools{conf: conf, logger: logger, sessions: make(map[string]*session.Session)}
}

// NewServer creates an MCP server with every tool registered.
func NewServer(t *Tools, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"xctrace-charts",
		version,
		server.WithLogging(),
	)
	t.Register(s)
	return s
}

// Register adds the tools to s.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("parse_export",
		mcp.WithDescription("Parse xctrace XML table exports (FPS, GPU and sysmon-process tables) into a session of time series"),
		mcp.WithString("file_paths",
			mcp.Required(),
			mcp.Description("Comma-separated absolute paths of exported .xml files"),
		),
		mcp.WithString("target_process",
			mcp.Description("Process name whose CPU and memory samples are extracted (e.g. Steam)"),
		),
	), t.parseExport)

	s.AddTool(mcp.NewTool("load_samples",
		mcp.WithDescription("Load saved *_fps/_gpu/_cpu/_mem.json sample files from a directory, one series per file"),
		mcp.WithString("directory",
			mcp.Required(),
			mcp.Description("Directory scanned recursively for .json files"),
		),
	), t.loadSamples)

	s.AddTool(mcp.NewTool("get_series",
		mcp.WithDescription("Return the normalized, chart-ready series of one metric as JSON (title, y label, x axis, values per series)"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session returned by parse_export or load_samples"),
		),
		mcp.WithString("metric",
			mcp.Required(),
			mcp.Description("One of fps, gpu, cpu, mem"),
		),
	), t.getSeries)

	s.AddTool(mcp.NewTool("get_statistics",
		mcp.WithDescription("Get min/max/average statistics of every series in a session"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session returned by parse_export or load_samples"),
		),
	), t.getStatistics)

	s.AddTool(mcp.NewTool("detect_performance_issues",
		mcp.WithDescription("Detect low frame rate, CPU/GPU saturation and memory growth using heuristics"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session returned by parse_export or load_samples"),
		),
	), t.detectIssues)

	s.AddTool(mcp.NewTool("save_samples",
		mcp.WithDescription("Save the raw samples of a parsed export as <session>_<metric>.json files"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session returned by parse_export"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Output directory (default: configured save directory)"),
		),
	), t.saveSamples)

	s.AddTool(mcp.NewTool("render_report",
		mcp.WithDescription("Render an HTML report with one line chart per metric"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session returned by parse_export or load_samples"),
		),
		mcp.WithString("output_path",
			mcp.Description("Report path (default: <visualize dir>/<session>_report.html)"),
		),
	), t.renderReport)
}

func (t *Tools) store(s *session.Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[s.TraceID] = s
}

func (t *Tools) lookup(request mcp.CallToolRequest) (*session.Session, *mcp.CallToolResult) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[id]
	if !ok {
		return nil, mcp.NewToolResultError("Session not loaded. Use parse_export or load_samples first")
	}
	return s, nil
}

func (t *Tools) parseExport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("file_paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var paths []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}

	conf := *t.conf
	if target := request.GetString("target_process", ""); target != "" {
		conf.TargetProcess = target
	}

	s, perr := session.FromExports(paths, &conf, t.logger)
	if perr != nil && len(s.Raw) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse export: %v", perr)), nil
	}
	t.store(s)

	var sb strings.Builder
	sb.WriteString("Export parsed successfully!\n\n")
	sb.WriteString(fmt.Sprintf("Session: %s\n", s.TraceID))
	writeCounts(&sb, s)
	if perr != nil {
		sb.WriteString(fmt.Sprintf("\n⚠️  Some tables failed: %v\n", perr))
	}
	sb.WriteString("\nUse other tools to analyze this session.\n")
	return mcp.NewToolResultText(sb.String()), nil
}

func (t *Tools) loadSamples(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := request.RequireString("directory")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s, err := session.FromSampleDir(ctx, dir, t.logger)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load samples: %v", err)), nil
	}
	t.store(s)

	var sb strings.Builder
	sb.WriteString("Samples loaded successfully!\n\n")
	sb.WriteString(fmt.Sprintf("Session: %s\n", s.TraceID))
	writeCounts(&sb, s)
	return mcp.NewToolResultText(sb.String()), nil
}

func writeCounts(sb *strings.Builder, s *session.Session) {
	for _, k := range samples.Kinds {
		named, ok := s.Raw[k]
		if !ok {
			continue
		}
		total := 0
		for _, raws := range named {
			total += len(raws)
		}
		sb.WriteString(fmt.Sprintf("%s: %d series, %d samples\n", k.Label(), len(named), total))
	}
}

func (t *Tools) getSeries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, errResult := t.lookup(request)
	if errResult != nil {
		return errResult, nil
	}
	name, err := request.RequireString("metric")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	k, ok := samples.ParseKind(strings.ToLower(name))
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Unknown metric %q. Valid metrics: fps, gpu, cpu, mem", name)), nil
	}

	m, ok, err := s.Metric(k)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Session has no %s samples", k.Label())), nil
	}
	if err != nil {
		t.logger.Warn("Some series failed to normalize", zap.String("metric", string(k)), zap.Error(err))
	}

	data, err := json.MarshalIndent(m.Bundle, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (t *Tools) getStatistics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, errResult := t.lookup(request)
	if errResult != nil {
		return errResult, nil
	}
	metrics, err := s.Metrics()

	var sb strings.Builder
	sb.WriteString("📊 SERIES STATISTICS\n")
	sb.WriteString("═══════════════════════════════════════════════════\n\n")

	for _, m := range metrics {
		sb.WriteString(fmt.Sprintf("%s (%d points on the x axis)\n", m.Bundle.Title, len(m.Bundle.XDomain)))
		for _, st := range m.Stats {
			sb.WriteString(fmt.Sprintf("  %s\n", st.Name))
			sb.WriteString(fmt.Sprintf("    Samples: %d\n", st.Samples))
			sb.WriteString(fmt.Sprintf("    Min: %.2f  Max: %.2f  Avg: %.1f\n", st.Min, st.Max, st.Average))
			if st.Unavailable > 0 {
				sb.WriteString(fmt.Sprintf("    Unavailable: %d\n", st.Unavailable))
			}
		}
		sb.WriteString("\n")
	}
	if err != nil {
		sb.WriteString(fmt.Sprintf("⚠️  %v\n", err))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (t *Tools) detectIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, errResult := t.lookup(request)
	if errResult != nil {
		return errResult, nil
	}
	metrics, _ := s.Metrics()

	var issues []analyzer.PerformanceIssue
	for _, m := range metrics {
		issues = append(issues, analyzer.DetectPerformanceIssues(m.Kind, m.Bundle)...)
	}

	var sb strings.Builder
	sb.WriteString("⚠️  AUTOMATED PERFORMANCE ISSUE DETECTION\n")
	sb.WriteString("═══════════════════════════════════════════════════\n\n")

	if len(issues) == 0 {
		sb.WriteString("✅ No significant performance issues detected!\n")
		return mcp.NewToolResultText(sb.String()), nil
	}

	counts := map[string]int{}
	for i, issue := range issues {
		counts[issue.Severity]++
		sb.WriteString(fmt.Sprintf("%d. [%s] [%s] %s\n", i+1, issue.Severity, issue.Category, issue.Description))
		sb.WriteString(fmt.Sprintf("   Series: %s\n", issue.Series))
		if issue.Impact > 0 {
			sb.WriteString(fmt.Sprintf("   Impact: %.2f%%\n", issue.Impact))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("📊 SUMMARY:\n")
	for _, sev := range []string{"Critical", "High", "Medium", "Low"} {
		sb.WriteString(fmt.Sprintf("   %s: %d\n", sev, counts[sev]))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (t *Tools) saveSamples(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, errResult := t.lookup(request)
	if errResult != nil {
		return errResult, nil
	}
	dir := request.GetString("output_dir", t.conf.Output.SaveDir)

	paths, err := s.Save(dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save samples: %v", err)), nil
	}
	return mcp.NewToolResultText("Saved:\n" + strings.Join(paths, "\n") + "\n"), nil
}

func (t *Tools) renderReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, errResult := t.lookup(request)
	if errResult != nil {
		return errResult, nil
	}
	path := request.GetString("output_path", s.ReportPath(t.conf.Output.VisualizeDir))

	if err := s.WriteReport(path); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Report written with errors to %s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Report saved to: %s\n", path)), nil
}
