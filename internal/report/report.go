package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"xctrace-mcp/internal/series"
)

// Chart is one bundle to draw, with an optional subtitle.
type Chart struct {
	Bundle   series.Bundle
	Subtitle string
}

// Render writes an HTML page with one line chart per bundle.
func Render(w io.Writer, pageTitle string, list []Chart) error {
	page := components.NewPage()
	page.PageTitle = pageTitle

	for _, c := range list {
		page.AddCharts(lineChart(c))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteFile renders the report into path, creating parent directories.
func WriteFile(path, pageTitle string, list []Chart) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", path, err)
	}
	if err := Render(f, pageTitle, list); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func lineChart(c Chart) *charts.Line {
	b := c.Bundle
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    b.Title,
			Subtitle: c.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(len(b.Names) > 1),
			Top:  "bottom",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "Time",
			Type: "category",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: b.YLabel,
			Type: "value",
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:  "slider",
			Start: 0,
			End:   100,
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "450px",
		}),
	)

	line.SetXAxis(b.XDomain)
	for _, name := range b.Names {
		values := b.Series[name]
		data := make([]opts.LineData, len(values))
		for i, v := range values {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(name, data, charts.WithLineChartOpts(opts.LineChart{
			ShowSymbol: opts.Bool(false),
		}))
	}
	return line
}
