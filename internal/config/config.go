package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"xctrace-mcp/internal/xctrace"
)

type SchemaConfig struct {
	FPS     string `yaml:"fps"`
	GPU     string `yaml:"gpu"`
	Process string `yaml:"process"`
}

type MemoryConfig struct {
	// 1-based positions of the size-in-bytes elements within a process row.
	TotalIndex    int `yaml:"total_index"`
	ResidentIndex int `yaml:"resident_index"`
}

type OutputConfig struct {
	SaveDir      string `yaml:"save_dir"`
	VisualizeDir string `yaml:"visualize_dir"`
}

type Config struct {
	TargetProcess string        `yaml:"target_process"`
	GPUValue      string        `yaml:"gpu_value"`
	LogLevel      string        `yaml:"log_level"`
	Schemas       *SchemaConfig `yaml:"schemas"`
	Memory        *MemoryConfig `yaml:"memory"`
	Output        *OutputConfig `yaml:"output"`
}

func (c *Config) fillDefault() {
	if c.Schemas == nil {
		c.Schemas = &SchemaConfig{}
	}
	if c.Schemas.FPS == "" {
		c.Schemas.FPS = xctrace.FPSSchema
	}
	if c.Schemas.GPU == "" {
		c.Schemas.GPU = xctrace.GPUSchema
	}
	if c.Schemas.Process == "" {
		c.Schemas.Process = xctrace.ProcessSchema
	}

	if c.GPUValue == "" {
		c.GPUValue = "gpu"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Memory == nil {
		c.Memory = &MemoryConfig{}
	}
	if c.Memory.TotalIndex == 0 {
		c.Memory.TotalIndex = 3
	}
	if c.Memory.ResidentIndex == 0 {
		c.Memory.ResidentIndex = 9
	}

	if c.Output == nil {
		c.Output = &OutputConfig{}
	}
	if c.Output.SaveDir == "" {
		c.Output.SaveDir = filepath.Join("temp", "save")
	}
	if c.Output.VisualizeDir == "" {
		c.Output.VisualizeDir = filepath.Join("temp", "visualize")
	}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.fillDefault()
	return c
}

// Parse reads a YAML config file and fills unset fields with defaults.
func Parse(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("can't open config file: %w", err)
	}
	defer file.Close()

	var conf Config

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil {
		return nil, fmt.Errorf("can't parse config: %s, with error: %w", configPath, err)
	}

	conf.fillDefault()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks values that defaults cannot fix.
func (c *Config) Validate() error {
	if c.Memory.TotalIndex < 1 || c.Memory.ResidentIndex < 1 {
		return fmt.Errorf("memory element positions must be positive, got %d and %d",
			c.Memory.TotalIndex, c.Memory.ResidentIndex)
	}
	return nil
}

// Metrics returns the extractions configured for one export. The process
// extraction is only included when a target process is set.
func (c *Config) Metrics() []xctrace.Metric {
	metrics := []xctrace.Metric{
		xctrace.FPS{Table: c.Schemas.FPS},
		xctrace.GPU{Table: c.Schemas.GPU, Value: c.GPUValue},
	}
	if c.TargetProcess != "" {
		metrics = append(metrics, xctrace.Process{
			Table:         c.Schemas.Process,
			Target:        c.TargetProcess,
			MemoryIndex:   c.Memory.TotalIndex,
			ResidentIndex: c.Memory.ResidentIndex,
		})
	}
	return metrics
}
