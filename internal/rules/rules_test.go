package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesBuiltins(t *testing.T) {
	lib := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if lib.FallbackReason != "" {
		t.Fatalf("missing file is the normal case, reason = %q", lib.FallbackReason)
	}
	if len(lib.Rules) != 4 {
		t.Fatalf("builtin rule count = %d, want 4", len(lib.Rules))
	}
}

func TestLoad_MalformedFileFallsBack(t *testing.T) {
	path := writeFile(t, "bad.yml", "patterns: [unclosed\n")
	lib := Load(path)
	if lib.FallbackReason == "" {
		t.Fatal("malformed file must record a fallback reason")
	}
	if len(lib.Rules) != 4 {
		t.Fatalf("fallback rule count = %d, want 4", len(lib.Rules))
	}
}

func TestLoad_BadRegexFallsBack(t *testing.T) {
	path := writeFile(t, "bad.yml", `
patterns:
  - id: broken
    detection_pattern: "(unclosed"
`)
	lib := Load(path)
	if lib.FallbackReason == "" {
		t.Fatal("invalid regex must record a fallback reason")
	}
}

func TestLoad_CustomFile(t *testing.T) {
	path := writeFile(t, "patterns.yml", `
patterns:
  - id: refund
    detection_pattern: "refund|chargeback"
    fix_strategy: "Check the order state before refunding."
    required_elements:
      - name: state_check
        keywords: [status, state]
`)
	lib := Load(path)
	if lib.FallbackReason != "" {
		t.Fatalf("unexpected fallback: %s", lib.FallbackReason)
	}
	if len(lib.Rules) != 1 {
		t.Fatalf("rule count = %d, want 1", len(lib.Rules))
	}
	r := &lib.Rules[0]
	if r.Severity != "critical" {
		t.Fatalf("default severity = %q, want critical", r.Severity)
	}
	if !r.Matches("issue_refund", "") {
		t.Fatal("pattern must match the function name")
	}
	if !r.Matches("handle", "Processes a chargeback dispute.") {
		t.Fatal("pattern must match the docstring")
	}
	if r.Matches("create_user", "") {
		t.Fatal("pattern must not match unrelated names")
	}
}

func TestMatches_CaseInsensitive(t *testing.T) {
	lib := Load("")
	var auth *Rule
	for i := range lib.Rules {
		if lib.Rules[i].ID == "authentication" {
			auth = &lib.Rules[i]
		}
	}
	if auth == nil {
		t.Fatal("builtin authentication rule missing")
	}
	if !auth.Matches("Login", "") {
		t.Fatal("matching must ignore case")
	}
}
