// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable [Load] reads the config path from.
const EnvironmentVariable = "BUREAU_PERFMON_CONFIG"

// Compression values accepted in [Config].Compression.
const (
	CompressionNone = "none"
	CompressionLZ4  = "lz4"
	CompressionZstd = "zstd"
)

// Config is the configuration for bureau-perfmon.
type Config struct {
	// MSRRoot is the directory holding per-CPU MSR device nodes
	// (<msr_root>/<cpu>/msr).
	// Default: /dev/cpu
	MSRRoot string `yaml:"msr_root"`

	// SysRoot is the sysfs mount used for topology probing.
	// Default: /sys
	SysRoot string `yaml:"sys_root"`

	// CPUs restricts sampling to these logical CPUs. Empty means every
	// online CPU.
	CPUs []int `yaml:"cpus"`

	// Interval is the time between samples, as a Go duration string.
	// Default: 1s
	Interval string `yaml:"interval"`

	// RotateAfter is how many samples each group collects before the
	// counters are multiplexed onto the next group.
	// Default: 1
	RotateAfter int `yaml:"rotate_after"`

	// Groups are the event groups to measure, in rotation order.
	Groups []Group `yaml:"groups"`

	// EventsFile is an optional JSONC file of extra event definitions.
	EventsFile string `yaml:"events_file"`

	// Output is the sample stream path. "-" writes to stdout.
	// Default: -
	Output string `yaml:"output"`

	// Compression is applied to the sample stream: none, lz4, or zstd.
	// Default: none
	Compression string `yaml:"compression"`

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string `yaml:"log_level"`
}

// Group is a named set of events measured together.
type Group struct {
	Name string `yaml:"name"`

	// Events are event strings of the form EVENT:COUNTER[:OPTION[=VALUE]].
	Events []string `yaml:"events"`
}

// Default returns the default configuration. Values not set by the
// config file keep these defaults.
func Default() *Config {
	return &Config{
		MSRRoot:     "/dev/cpu",
		SysRoot:     "/sys",
		Interval:    "1s",
		RotateAfter: 1,
		Groups: []Group{
			{
				Name: "ipc",
				Events: []string{
					"RETIRED_INSTRUCTIONS:PMC0",
					"CPU_CLOCKS_UNHALTED:PMC1",
				},
			},
		},
		Output:      "-",
		Compression: CompressionNone,
		LogLevel:    "info",
	}
}

// Load loads configuration from the file named by BUREAU_PERFMON_CONFIG.
// It fails if the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your perfmon.yaml config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, on top of
// [Default]. ${VAR} and ${VAR:-default} patterns in path fields are
// expanded after loading.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.parse(data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// parse merges YAML into c. A groups list in the file replaces the
// default groups rather than appending to them.
func (c *Config) parse(data []byte) error {
	var probe struct {
		Groups []Group `yaml:"groups"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Groups != nil {
		c.Groups = nil
	}
	return yaml.Unmarshal(data, c)
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.MSRRoot = expandVars(c.MSRRoot, vars)
	c.SysRoot = expandVars(c.SysRoot, vars)
	c.EventsFile = expandVars(c.EventsFile, vars)
	c.Output = expandVars(c.Output, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// IntervalDuration returns Interval parsed as a duration.
func (c *Config) IntervalDuration() (time.Duration, error) {
	interval, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0, fmt.Errorf("interval: %w", err)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	return interval, nil
}

// Level returns LogLevel as a slog level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Validate checks the configuration for errors. Every problem found is
// reported in the joined error.
func (c *Config) Validate() error {
	var errs []error

	if c.MSRRoot == "" {
		errs = append(errs, fmt.Errorf("msr_root is required"))
	}
	if c.SysRoot == "" {
		errs = append(errs, fmt.Errorf("sys_root is required"))
	}
	if _, err := c.IntervalDuration(); err != nil {
		errs = append(errs, err)
	}
	if c.RotateAfter < 1 {
		errs = append(errs, fmt.Errorf("rotate_after must be at least 1, got %d", c.RotateAfter))
	}

	seenCPUs := make(map[int]bool)
	for _, cpu := range c.CPUs {
		if cpu < 0 {
			errs = append(errs, fmt.Errorf("cpus: negative cpu %d", cpu))
		}
		if seenCPUs[cpu] {
			errs = append(errs, fmt.Errorf("cpus: cpu %d listed twice", cpu))
		}
		seenCPUs[cpu] = true
	}

	if len(c.Groups) == 0 {
		errs = append(errs, fmt.Errorf("at least one group is required"))
	}
	seenGroups := make(map[string]bool)
	for i, group := range c.Groups {
		if group.Name == "" {
			errs = append(errs, fmt.Errorf("groups[%d]: name is required", i))
		} else if seenGroups[group.Name] {
			errs = append(errs, fmt.Errorf("groups[%d]: duplicate name %q", i, group.Name))
		}
		seenGroups[group.Name] = true
		if len(group.Events) == 0 {
			errs = append(errs, fmt.Errorf("groups[%d]: no events", i))
		}
	}

	if c.Output == "" {
		errs = append(errs, fmt.Errorf("output is required (use - for stdout)"))
	}

	compressionValues := []string{CompressionNone, CompressionLZ4, CompressionZstd}
	if !contains(compressionValues, c.Compression) {
		errs = append(errs, fmt.Errorf("compression must be one of: %v", compressionValues))
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
