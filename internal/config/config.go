// Package config holds the compiled-in defaults for the analysis engine and
// the optional guardlint.yml override file.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/guardlint/guardlint/internal/support"
)

// Config is the compiled-in configuration with optional overrides.
type Config struct {
	SchemaVersion string          `yaml:"schema_version"`
	Paths         PathsConfig     `yaml:"paths"`
	Scan          ScanConfig      `yaml:"scan"`
	Gating        GatingConfig    `yaml:"gating"`
	Logging       LoggingConfig   `yaml:"logging"`
	Components    []ComponentSpec `yaml:"components"`
}

type PathsConfig struct {
	OutputDir    string `yaml:"output_dir"`
	PatternsFile string `yaml:"patterns_file"`
}

// ScanConfig carries the heuristic knobs shared by all detectors.
type ScanConfig struct {
	Workers         int      `yaml:"workers"`
	WindowLines     int      `yaml:"window_lines"`
	TimeoutOverhead int      `yaml:"timeout_overhead_seconds"`
	ExcludeDirs     []string `yaml:"exclude_dirs"`
	SafeAccessors   []string `yaml:"safe_accessors"`
	SafeReceivers   []string `yaml:"safe_receivers"`
	HTTPCallAPIs    []string `yaml:"http_call_apis"`
	SubprocessAPIs  []string `yaml:"subprocess_apis"`
	ConversionCalls []string `yaml:"conversion_calls"`
	SQLKeywords     []string `yaml:"sql_keywords"`
	PIIKeywords     []string `yaml:"pii_keywords"`
	LoggingCalls    []string `yaml:"logging_calls"`
	RetryKeywords   []string `yaml:"retry_keywords"`
}

// GatingConfig controls the process exit code. Pointer fields distinguish
// "unset" from zero values, same convention as severity caps in CI gates.
type GatingConfig struct {
	FailOnCritical *bool `yaml:"fail_on_critical"`
	MaxWarnings    *int  `yaml:"max_warnings"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ComponentSpec declares one component of the analyzed system for
// dependency-graph analysis.
type ComponentSpec struct {
	Name    string `yaml:"name"`
	Root    string `yaml:"root"`
	Timeout int    `yaml:"timeout_seconds"`
	Retry   bool   `yaml:"retry"`
}

// Default returns the compiled-in defaults.
func Default() Config {
	return Config{
		SchemaVersion: "1.0",
		Paths: PathsConfig{
			OutputDir:    ".guardlint",
			PatternsFile: "guardlint-patterns.yml",
		},
		Scan: ScanConfig{
			Workers:         runtime.NumCPU(),
			WindowLines:     5,
			TimeoutOverhead: 5,
			ExcludeDirs: []string{
				"venv",
				".venv",
				"node_modules",
				"__pycache__",
				".git",
				"build",
				"dist",
			},
			SafeAccessors: []string{
				"get", "keys", "values", "items", "append", "extend",
				"join", "split", "strip", "lstrip", "rstrip", "format",
				"lower", "upper", "startswith", "endswith", "replace",
				"encode", "decode", "setdefault", "update", "copy",
			},
			SafeReceivers: []string{
				"self", "cls", "os", "sys", "json", "re", "math", "time",
				"datetime", "logging", "logger", "log", "random", "uuid",
				"hashlib", "secrets", "itertools", "functools", "collections",
				"pathlib", "typing",
			},
			HTTPCallAPIs: []string{
				"requests.get", "requests.post", "requests.put",
				"requests.patch", "requests.delete", "requests.head",
				"requests.request", "httpx.get", "httpx.post",
				"urllib.request.urlopen", "session.get", "session.post",
			},
			SubprocessAPIs: []string{
				"subprocess.run", "subprocess.call", "subprocess.check_call",
				"subprocess.check_output", "subprocess.Popen",
			},
			ConversionCalls: []string{
				"int", "float", "json.loads", "json.load",
			},
			SQLKeywords: []string{
				"SELECT", "INSERT", "UPDATE", "DELETE", "DROP", "ALTER",
			},
			PIIKeywords: []string{
				"password", "passwd", "secret", "token", "api_key",
				"apikey", "ssn", "credit_card", "card_number", "cvv",
				"email", "phone", "dob", "address",
			},
			LoggingCalls: []string{
				"logger", "logging", "log", "print",
			},
			RetryKeywords: []string{
				"retry", "retries", "backoff", "tenacity", "max_attempts",
			},
		},
		Gating: GatingConfig{},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, merging it over the compiled-in
// defaults. A missing file returns plain defaults; a malformed file is an
// error so a typo never silently disables every rule.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	var override Config
	if err := yaml.Unmarshal(support.StripBOM(data), &override); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	mergeDefaults(&override, &cfg)
	if err := override.Validate(); err != nil {
		return cfg, err
	}
	return override, nil
}

// Validate checks the resolved configuration for consistency.
func (c *Config) Validate() error {
	if c.SchemaVersion != "1.0" {
		return fmt.Errorf("unsupported schema_version: %s (expected 1.0)", c.SchemaVersion)
	}
	if c.Scan.WindowLines < 1 {
		return fmt.Errorf("scan.window_lines must be >= 1, got %d", c.Scan.WindowLines)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be >= 1, got %d", c.Scan.Workers)
	}
	seen := map[string]bool{}
	for _, comp := range c.Components {
		if comp.Name == "" || comp.Root == "" {
			return fmt.Errorf("component entries need both name and root")
		}
		if seen[comp.Name] {
			return fmt.Errorf("duplicate component name: %s", comp.Name)
		}
		seen[comp.Name] = true
	}
	return nil
}

// FailOnCritical resolves the gating default: criticals fail the run unless
// explicitly disabled.
func (g GatingConfig) FailOnCriticalEnabled() bool {
	if g.FailOnCritical == nil {
		return true
	}
	return *g.FailOnCritical
}

func mergeDefaults(cfg *Config, defaults *Config) {
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = defaults.SchemaVersion
	}
	if cfg.Paths.OutputDir == "" {
		cfg.Paths.OutputDir = defaults.Paths.OutputDir
	}
	if cfg.Paths.PatternsFile == "" {
		cfg.Paths.PatternsFile = defaults.Paths.PatternsFile
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = defaults.Scan.Workers
	}
	if cfg.Scan.WindowLines == 0 {
		cfg.Scan.WindowLines = defaults.Scan.WindowLines
	}
	if cfg.Scan.TimeoutOverhead == 0 {
		cfg.Scan.TimeoutOverhead = defaults.Scan.TimeoutOverhead
	}
	if len(cfg.Scan.ExcludeDirs) == 0 {
		cfg.Scan.ExcludeDirs = defaults.Scan.ExcludeDirs
	}
	if len(cfg.Scan.SafeAccessors) == 0 {
		cfg.Scan.SafeAccessors = defaults.Scan.SafeAccessors
	}
	if len(cfg.Scan.SafeReceivers) == 0 {
		cfg.Scan.SafeReceivers = defaults.Scan.SafeReceivers
	}
	if len(cfg.Scan.HTTPCallAPIs) == 0 {
		cfg.Scan.HTTPCallAPIs = defaults.Scan.HTTPCallAPIs
	}
	if len(cfg.Scan.SubprocessAPIs) == 0 {
		cfg.Scan.SubprocessAPIs = defaults.Scan.SubprocessAPIs
	}
	if len(cfg.Scan.ConversionCalls) == 0 {
		cfg.Scan.ConversionCalls = defaults.Scan.ConversionCalls
	}
	if len(cfg.Scan.SQLKeywords) == 0 {
		cfg.Scan.SQLKeywords = defaults.Scan.SQLKeywords
	}
	if len(cfg.Scan.PIIKeywords) == 0 {
		cfg.Scan.PIIKeywords = defaults.Scan.PIIKeywords
	}
	if len(cfg.Scan.LoggingCalls) == 0 {
		cfg.Scan.LoggingCalls = defaults.Scan.LoggingCalls
	}
	if len(cfg.Scan.RetryKeywords) == 0 {
		cfg.Scan.RetryKeywords = defaults.Scan.RetryKeywords
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
}
