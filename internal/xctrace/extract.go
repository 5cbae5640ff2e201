package xctrace

import (
	"errors"
	"slices"
	"strings"

	"go.uber.org/zap"

	"xctrace-mcp/internal/samples"
)

// Default table schemas and positions used by Instruments exports.
const (
	FPSSchema     = "core-animation-fps-estimate"
	GPUSchema     = "gpu-utilization-interval"
	ProcessSchema = "sysmon-process"

	// bytesPerMB converts size-in-bytes values to megabytes.
	bytesPerMB = 1048576

	// memorySentinel marks a memory sample whose size element is absent.
	memorySentinel = -1
)

var (
	startTimePath  = Tag("start-time")
	fpsPath        = Tag("fps")
	processPath    = Tag("process")
	cpuPercentPath = Tag("system-cpu-percent")
)

// Metric is the closed set of extractions: FPS, GPU and Process. Each case
// knows the table schema it expects and how to turn rows into samples.
type Metric interface {
	// Schema is the table schema the metric reads.
	Schema() string
	extract(r *Resolver, t *Table) (samples.Set, error)
}

// FPS reads frame-rate estimates.
type FPS struct {
	Table string
}

// GPU reads GPU utilization. Value is the tag of the value element.
type GPU struct {
	Table string
	Value string
}

// Process reads CPU and memory samples of one target process. MemoryIndex
// and ResidentIndex are the 1-based positions of the size-in-bytes elements
// holding total and resident memory within a row.
type Process struct {
	Table         string
	Target        string
	MemoryIndex   int
	ResidentIndex int
}

func (m FPS) Schema() string     { return orDefault(m.Table, FPSSchema) }
func (m GPU) Schema() string     { return orDefault(m.Table, GPUSchema) }
func (m Process) Schema() string { return orDefault(m.Table, ProcessSchema) }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Extract runs one metric over a table document. Samples are returned
// earliest first. A table whose schema differs from the metric's, or that
// never contains an element the metric requires, yields a
// *SchemaMismatchError.
func Extract(t *Table, m Metric, logger *zap.Logger) (samples.Set, error) {
	if t.Schema != "" && t.Schema != m.Schema() {
		return nil, &SchemaMismatchError{Schema: t.Schema, Want: m.Schema()}
	}
	r := NewResolver(NewCache(), logger)
	r.BeginTable(t)
	return m.extract(r, t)
}

// seen records which paths matched at least one element in the table.
type seen map[Path]bool

func (s seen) note(p Path, err error) {
	if !errors.Is(err, ErrNoMatch) {
		s[p] = true
	}
}

func (s seen) require(t *Table, paths ...Path) error {
	for _, p := range paths {
		if !s[p] {
			return &SchemaMismatchError{Schema: t.Schema, Path: p}
		}
	}
	return nil
}

func (m FPS) extract(r *Resolver, t *Table) (samples.Set, error) {
	return extractTimed(r, t, samples.FPS, fpsPath)
}

func (m GPU) extract(r *Resolver, t *Table) (samples.Set, error) {
	return extractTimed(r, t, samples.GPU, Tag(orDefault(m.Value, "gpu")))
}

// extractTimed handles tables of (start-time, value) rows. Rows where either
// element is absent are dropped.
func extractTimed(r *Resolver, t *Table, k samples.Kind, valuePath Path) (samples.Set, error) {
	found := seen{}
	out := make([]samples.Raw, 0, len(t.Rows))

	for _, row := range t.Rows {
		r.Register(row)

		ts, tsErr := r.Resolve(row, startTimePath)
		found.note(startTimePath, tsErr)
		val, valErr := r.Resolve(row, valuePath)
		found.note(valuePath, valErr)
		if tsErr != nil || valErr != nil {
			continue
		}

		v, err := val.Float()
		if err != nil {
			r.logger.Warn("Dropping sample with non-numeric value",
				zap.String("schema", t.Schema), zap.Int("row", row.Index), zap.String("value", val.Text))
			continue
		}
		out = append(out, samples.Raw{Time: ts.Label(), Value: v})
	}

	if len(t.Rows) > 0 {
		if err := found.require(t, startTimePath, valuePath); err != nil {
			return nil, err
		}
	}

	// Rows are exported most recent first.
	slices.Reverse(out)
	r.logger.Info("Extracted samples", zap.String("metric", string(k)), zap.Int("count", len(out)))
	return samples.Set{k: out}, nil
}

// cpuCarry is the carry-forward accumulator of one CPU/MEM pass.
type cpuCarry struct {
	last float64
}

// next returns the CPU value for a row and the updated accumulator. An
// absent value repeats the last one observed.
func (c cpuCarry) next(el *Element, err error) (float64, cpuCarry) {
	if err != nil {
		return c.last, c
	}
	v, perr := el.Float()
	if perr != nil {
		return c.last, c
	}
	return v, cpuCarry{last: v}
}

// memoryMB converts a size element to megabytes, or the sentinel when the
// element is absent. Memory is never carried forward.
func memoryMB(el *Element, err error) float64 {
	if err != nil {
		return memorySentinel
	}
	v, perr := el.Float()
	if perr != nil {
		return memorySentinel
	}
	return v / bytesPerMB
}

func (m Process) extract(r *Resolver, t *Table) (samples.Set, error) {
	memIdx, resIdx := m.MemoryIndex, m.ResidentIndex
	if memIdx == 0 {
		memIdx = 3
	}
	if resIdx == 0 {
		resIdx = 9
	}
	memPath := Nth("size-in-bytes", memIdx)
	resPath := Nth("size-in-bytes", resIdx)

	found := seen{}
	targetRows := 0
	carry := cpuCarry{}
	cpu := make([]samples.Raw, 0, len(t.Rows))
	mem := make([]samples.Raw, 0, len(t.Rows))

	for _, row := range t.Rows {
		r.Register(row)

		ts, err := r.Resolve(row, startTimePath)
		found.note(startTimePath, err)
		if err != nil {
			continue
		}

		proc, err := r.Resolve(row, processPath)
		found.note(processPath, err)
		if err != nil {
			continue
		}
		name := strings.Fields(proc.Label())
		if len(name) == 0 || name[0] != m.Target {
			continue
		}
		targetRows++

		cpuEl, cpuErr := r.Resolve(row, cpuPercentPath)
		found.note(cpuPercentPath, cpuErr)
		var cpuValue float64
		cpuValue, carry = carry.next(cpuEl, cpuErr)

		memEl, memErr := r.Resolve(row, memPath)
		found.note(memPath, memErr)
		resEl, resErr := r.Resolve(row, resPath)
		found.note(resPath, resErr)

		timestamp := ts.Label()
		cpu = append(cpu, samples.Raw{Time: timestamp, Value: cpuValue, Process: m.Target})
		mem = append(mem, samples.Raw{
			Time:     timestamp,
			Value:    memoryMB(memEl, memErr),
			Resident: memoryMB(resEl, resErr),
			Process:  m.Target,
		})
	}

	if len(t.Rows) > 0 {
		if err := found.require(t, startTimePath, processPath); err != nil {
			return nil, err
		}
	}
	if targetRows > 0 {
		if err := found.require(t, cpuPercentPath, memPath); err != nil {
			return nil, err
		}
	}

	slices.Reverse(cpu)
	slices.Reverse(mem)
	r.logger.Info("Extracted process samples",
		zap.String("process", m.Target), zap.Int("cpu", len(cpu)), zap.Int("mem", len(mem)))
	return samples.Set{samples.CPU: cpu, samples.MEM: mem}, nil
}
