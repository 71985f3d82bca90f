// Package config loads perfkit CLI defaults from a YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/danpilch/perfkit/pkg/benchmark"
	"github.com/danpilch/perfkit/pkg/profiling"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds CLI defaults. Command-line flags override these values.
type Config struct {
	LogLevel  string            `yaml:"log_level"`
	Format    string            `yaml:"format"`
	PprofAddr string            `yaml:"pprof_addr"`
	Workload  string            `yaml:"workload"`
	Timing    Timing            `yaml:"timing"`
	Profile   profiling.Options `yaml:"profile"`
	Benchmark benchmark.Options `yaml:"benchmark"`
	Baseline  Baseline          `yaml:"baseline"`
}

// Timing configures the time command.
type Timing struct {
	Prefix  string `yaml:"prefix"`
	Enabled bool   `yaml:"enabled"`
}

// Baseline configures baseline storage.
type Baseline struct {
	Dir string `yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:  "warn",
		Format:    "table",
		Workload:  "fib",
		Timing:    Timing{Prefix: "elapsed: ", Enabled: true},
		Profile:   profiling.DefaultOptions(),
		Benchmark: benchmark.DefaultOptions(),
	}
}

// Load reads path over the defaults. An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks fields the CLI cannot pass through. Profiling options
// are deliberately left unchecked.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return c.Benchmark.Validate()
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
