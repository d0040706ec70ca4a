package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guardlint.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.Scan.WindowLines != 5 {
		t.Fatalf("window_lines = %d, want default 5", cfg.Scan.WindowLines)
	}
	if cfg.Paths.OutputDir != ".guardlint" {
		t.Fatalf("output_dir = %q, want .guardlint", cfg.Paths.OutputDir)
	}
	if !cfg.Gating.FailOnCriticalEnabled() {
		t.Fatal("fail_on_critical must default to enabled")
	}
}

func TestLoad_OverridesMergeWithDefaults(t *testing.T) {
	path := writeConfig(t, `
scan:
  window_lines: 3
  workers: 2
gating:
  fail_on_critical: false
components:
  - name: gateway
    root: services/gateway
    timeout_seconds: 30
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scan.WindowLines != 3 {
		t.Fatalf("window_lines = %d, want 3", cfg.Scan.WindowLines)
	}
	if cfg.Scan.Workers != 2 {
		t.Fatalf("workers = %d, want 2", cfg.Scan.Workers)
	}
	// Unset knobs keep their defaults.
	if cfg.Scan.TimeoutOverhead != 5 {
		t.Fatalf("timeout_overhead = %d, want default 5", cfg.Scan.TimeoutOverhead)
	}
	if len(cfg.Scan.SafeReceivers) == 0 {
		t.Fatal("safe_receivers must keep defaults when unset")
	}
	if cfg.Gating.FailOnCriticalEnabled() {
		t.Fatal("fail_on_critical: false must be honored")
	}
	if len(cfg.Components) != 1 || cfg.Components[0].Timeout != 30 {
		t.Fatalf("components = %+v", cfg.Components)
	}
}

func TestLoad_MalformedFileIsError(t *testing.T) {
	path := writeConfig(t, "scan: [broken\n")
	if _, err := Load(path); err == nil {
		t.Fatal("malformed config must error, not silently use defaults")
	}
}

func TestValidate_DuplicateComponent(t *testing.T) {
	cfg := Default()
	cfg.Components = []ComponentSpec{
		{Name: "gateway", Root: "a"},
		{Name: "gateway", Root: "b"},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate component error, got %v", err)
	}
}

func TestValidate_ComponentNeedsNameAndRoot(t *testing.T) {
	cfg := Default()
	cfg.Components = []ComponentSpec{{Name: "gateway"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("component without root must fail validation")
	}
}

func TestValidate_SchemaVersion(t *testing.T) {
	path := writeConfig(t, "schema_version: \"2.0\"\n")
	if _, err := Load(path); err == nil {
		t.Fatal("unknown schema_version must fail")
	}
}

func TestGating_MaxWarningsUnset(t *testing.T) {
	cfg := Default()
	if cfg.Gating.MaxWarnings != nil {
		t.Fatal("max_warnings must default to unset")
	}
}
