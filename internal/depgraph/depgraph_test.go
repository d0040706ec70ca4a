package depgraph

import (
	"strings"
	"testing"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/syntax"
)

func parseTree(t *testing.T, path, src string) *syntax.Tree {
	t.Helper()
	tree, err := syntax.Parse(path, []byte(src))
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return tree
}

func countKind(fs []report.PredictedFailure, kind string) int {
	n := 0
	for _, f := range fs {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

func twoComponentCycle(t *testing.T, comps []config.ComponentSpec) *Graph {
	t.Helper()
	cfg := config.Default().Scan
	trees := map[string][]*syntax.Tree{
		"alpha": {parseTree(t, "alpha/api.py", "import beta\n")},
		"beta":  {parseTree(t, "beta/api.py", "import alpha\n")},
	}
	return Build(comps, trees, &cfg)
}

func TestDetectCycles_ReportedOnce(t *testing.T) {
	comps := []config.ComponentSpec{
		{Name: "alpha", Root: "alpha", Timeout: 10},
		{Name: "beta", Root: "beta", Timeout: 8},
	}
	cfg := config.Default().Scan

	for name, ordered := range map[string][]config.ComponentSpec{
		"alpha-first": comps,
		"beta-first":  {comps[1], comps[0]},
	} {
		g := twoComponentCycle(t, ordered)
		fs := g.Analyze(&cfg)
		if got := countKind(fs, report.FailureCycle); got != 1 {
			t.Fatalf("%s: cycle count = %d, want 1", name, got)
		}
		for _, f := range fs {
			if f.Kind != report.FailureCycle {
				continue
			}
			if !strings.Contains(f.Description, "alpha") || !strings.Contains(f.Description, "beta") {
				t.Fatalf("%s: cycle description %q must name both components", name, f.Description)
			}
			if f.Severity != report.SeverityCritical {
				t.Fatalf("%s: cycle severity = %s, want critical", name, f.Severity)
			}
		}
	}
}

func TestTimeoutCascade(t *testing.T) {
	cfg := config.Default().Scan
	build := func(callerTimeout int) []report.PredictedFailure {
		comps := []config.ComponentSpec{
			{Name: "gateway", Root: "gateway", Timeout: callerTimeout},
			{Name: "orders", Root: "orders", Timeout: 8},
		}
		trees := map[string][]*syntax.Tree{
			"gateway": {parseTree(t, "gateway/api.py", "import orders\n")},
			"orders":  {parseTree(t, "orders/api.py", "x = 1\n")},
		}
		return Build(comps, trees, &cfg).Analyze(&cfg)
	}

	// 10 <= 8 + 5: the caller cannot outlive the callee.
	if got := countKind(build(10), report.FailureTimeoutCascade); got != 1 {
		t.Fatalf("cascade count for timeout 10 = %d, want 1", got)
	}
	// 20 > 8 + 5: enough headroom.
	if got := countKind(build(20), report.FailureTimeoutCascade); got != 0 {
		t.Fatalf("cascade count for timeout 20 = %d, want 0", got)
	}
}

func TestTimeoutCascade_UnsetTimeoutSkipped(t *testing.T) {
	cfg := config.Default().Scan
	comps := []config.ComponentSpec{
		{Name: "gateway", Root: "gateway"},
		{Name: "orders", Root: "orders", Timeout: 8},
	}
	trees := map[string][]*syntax.Tree{
		"gateway": {parseTree(t, "gateway/api.py", "import orders\n")},
	}
	fs := Build(comps, trees, &cfg).Analyze(&cfg)
	if got := countKind(fs, report.FailureTimeoutCascade); got != 0 {
		t.Fatalf("unset timeout must not produce cascades, got %d", got)
	}
}

func TestPropagationGaps(t *testing.T) {
	cfg := config.Default().Scan
	comps := []config.ComponentSpec{
		{Name: "gateway", Root: "gateway", Timeout: 30},
		{Name: "orders", Root: "orders", Timeout: 8},
	}
	trees := map[string][]*syntax.Tree{
		"gateway": {parseTree(t, "gateway/api.py", "import orders\n")},
	}
	fs := Build(comps, trees, &cfg).Analyze(&cfg)
	if got := countKind(fs, report.FailureNoErrorHandling); got != 1 {
		t.Fatalf("missing_error_handling count = %d, want 1", got)
	}
	if got := countKind(fs, report.FailureNoRetry); got != 1 {
		t.Fatalf("no_retry count = %d, want 1", got)
	}
}

func TestPropagationGaps_GuardedAndRetried(t *testing.T) {
	cfg := config.Default().Scan
	comps := []config.ComponentSpec{
		{Name: "gateway", Root: "gateway", Timeout: 30},
		{Name: "orders", Root: "orders", Timeout: 8},
	}
	trees := map[string][]*syntax.Tree{
		"gateway": {parseTree(t, "gateway/api.py", `
def call_orders():
    for attempt in range(MAX_RETRIES):
        try:
            import orders
        except ImportError:
            continue
`)},
	}
	fs := Build(comps, trees, &cfg).Analyze(&cfg)
	if got := countKind(fs, report.FailureNoErrorHandling); got != 0 {
		t.Fatalf("guarded reference flagged as unhandled: %v", fs)
	}
	if got := countKind(fs, report.FailureNoRetry); got != 0 {
		t.Fatalf("retried reference flagged as no-retry: %v", fs)
	}
}

func TestBuild_NoSelfEdges(t *testing.T) {
	cfg := config.Default().Scan
	comps := []config.ComponentSpec{{Name: "alpha", Root: "alpha", Timeout: 10}}
	trees := map[string][]*syntax.Tree{
		"alpha": {parseTree(t, "alpha/api.py", "import alpha\n")},
	}
	g := Build(comps, trees, &cfg)
	if len(g.Edges) != 0 {
		t.Fatalf("self reference must not create an edge, got %v", g.Edges)
	}
}
