package xctrace

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"xctrace-mcp/internal/samples"
)

// ParseTables extracts every table whose schema one of metrics reads. A
// failing table does not affect samples already extracted from others; all
// failures are joined into the returned error.
func ParseTables(tables []*Table, metrics []Metric, logger *zap.Logger) (samples.Set, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	set := samples.Set{}
	var errs []error
	for i, t := range tables {
		m := metricFor(t, metrics)
		if m == nil {
			logger.Debug("Skipping table without a matching metric", zap.Int("table", i), zap.String("schema", t.Schema))
			continue
		}

		logger.Info("Parsing table", zap.Int("table", i), zap.String("schema", t.Schema), zap.Int("rows", len(t.Rows)))
		got, err := Extract(t, m, logger.With(zap.Int("table", i)))
		if err != nil {
			errs = append(errs, fmt.Errorf("table %d: %w", i, err))
			continue
		}
		for k, raws := range got {
			set[k] = append(set[k], raws...)
		}
	}
	return set, errors.Join(errs...)
}

// ParseFile extracts metrics from one exported XML file.
func ParseFile(path string, metrics []Metric, logger *zap.Logger) (samples.Set, error) {
	tables, err := ReadTablesFile(path)
	if err != nil {
		return nil, err
	}
	set, err := ParseTables(tables, metrics, logger)
	if err != nil {
		return set, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

func metricFor(t *Table, metrics []Metric) Metric {
	for _, m := range metrics {
		if m.Schema() == t.Schema {
			return m
		}
	}
	return nil
}
