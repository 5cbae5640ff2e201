package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"xctrace-mcp/internal/analyzer"
	"xctrace-mcp/internal/config"
	"xctrace-mcp/internal/report"
	"xctrace-mcp/internal/samples"
	"xctrace-mcp/internal/series"
	"xctrace-mcp/internal/xctrace"
)

// Session is one run's samples, grouped by metric and then by series name.
// Sessions built from XML exports hold a single series per metric, named
// after the metric label; sessions built from sample files hold one series
// per file.
type Session struct {
	TraceID string
	Raw     map[samples.Kind]map[string][]samples.Raw
}

// Metric is the aligned bundle of one metric with its statistics.
type Metric struct {
	Kind   samples.Kind
	Bundle series.Bundle
	Stats  []analyzer.SeriesStatistics
}

// FromExports extracts samples from exported XML files. Files or tables that
// fail are reported in the returned error; whatever was extracted from the
// rest is kept in the session.
func FromExports(paths []string, conf *config.Config, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{TraceID: samples.NewTraceID(), Raw: make(map[samples.Kind]map[string][]samples.Raw)}
	metrics := conf.Metrics()

	var errs []error
	for _, path := range paths {
		logger.Info("Parsing export", zap.String("path", path), zap.String("trace_id", s.TraceID))
		set, err := xctrace.ParseFile(path, metrics, logger.With(zap.String("path", path)))
		if err != nil {
			logger.Error("Export parsed with errors", zap.String("path", path), zap.Error(err))
			errs = append(errs, err)
		}
		for k, raws := range set {
			s.add(k, k.Label(), raws)
		}
	}
	return s, errors.Join(errs...)
}

// FromSampleFiles loads previously saved sample files, one series per file.
func FromSampleFiles(ctx context.Context, paths []string, logger *zap.Logger) (*Session, error) {
	fs, err := samples.Load(ctx, paths, logger)
	if err != nil {
		return nil, err
	}
	return &Session{TraceID: samples.NewTraceID(), Raw: fs.Series}, nil
}

// FromSampleDir loads every sample file under dir.
func FromSampleDir(ctx context.Context, dir string, logger *zap.Logger) (*Session, error) {
	paths, err := samples.Scan(dir)
	if err != nil {
		return nil, err
	}
	return FromSampleFiles(ctx, paths, logger)
}

func (s *Session) add(k samples.Kind, name string, raws []samples.Raw) {
	if s.Raw[k] == nil {
		s.Raw[k] = make(map[string][]samples.Raw)
	}
	s.Raw[k][name] = append(s.Raw[k][name], raws...)
}

// Metric builds the bundle of one metric. ok is false when the session has
// no series for it.
func (s *Session) Metric(k samples.Kind) (Metric, bool, error) {
	raw, ok := s.Raw[k]
	if !ok {
		return Metric{}, false, nil
	}
	b, err := series.Build(k, raw)
	return Metric{Kind: k, Bundle: b, Stats: analyzer.ComputeStatistics(k, b)}, true, err
}

// Metrics builds every metric present, in report order. A metric whose
// series fail to normalize keeps its remaining series.
func (s *Session) Metrics() ([]Metric, error) {
	var (
		out  []Metric
		errs []error
	)
	for _, k := range samples.Kinds {
		m, ok, err := s.Metric(k)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
		if ok {
			out = append(out, m)
		}
	}
	return out, errors.Join(errs...)
}

// Save writes the raw samples of a single-series session, one file per metric.
func (s *Session) Save(dir string) ([]string, error) {
	set := samples.Set{}
	for k, named := range s.Raw {
		if len(named) != 1 {
			return nil, fmt.Errorf("%s has %d series, only single-series sessions can be saved", k, len(named))
		}
		for _, raws := range named {
			set[k] = raws
		}
	}
	return samples.Save(dir, s.TraceID, set)
}

// ReportPath returns "<dir>/<trace id>_report.html".
func (s *Session) ReportPath(dir string) string {
	return filepath.Join(dir, s.TraceID+"_report.html")
}

// WriteReport renders every metric into the HTML report at path.
func (s *Session) WriteReport(path string) error {
	metrics, err := s.Metrics()
	charts := make([]report.Chart, 0, len(metrics))
	for _, m := range metrics {
		charts = append(charts, report.Chart{Bundle: m.Bundle, Subtitle: analyzer.Subtitle(m.Stats)})
	}
	if rerr := report.WriteFile(path, fmt.Sprintf("Trace %s", s.TraceID), charts); rerr != nil {
		return rerr
	}
	return err
}
