package detect

import (
	"fmt"
	"strings"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/syntax"
	"github.com/guardlint/guardlint/internal/window"
)

// ExternalCallSafety flags HTTP and subprocess calls with no timeout
// keyword. A network or process call that can hang forever is the most
// common production-stall class this tool exists to catch.
func ExternalCallSafety(t *syntax.Tree, w *window.Window, cfg *config.ScanConfig) []report.Violation {
	var out []report.Violation
	for _, n := range t.NodesOfKind(syntax.KindCall) {
		kind := externalKind(n.Name, cfg)
		if kind == "" {
			continue
		}
		if n.HasKeywordArg("timeout") {
			continue
		}
		out = append(out, report.Violation{
			File:        t.Path,
			Line:        n.StartLine,
			Type:        report.TypeExternalCall,
			Severity:    report.SeverityCritical,
			Description: fmt.Sprintf("%s call %s() has no timeout", kind, n.Name),
			Snippet:     snippet(t, n.StartLine),
			Suggestion:  fmt.Sprintf("pass timeout=<seconds> to %s()", n.Name),
		})
	}
	return out
}

func externalKind(target string, cfg *config.ScanConfig) string {
	for _, api := range cfg.HTTPCallAPIs {
		if target == api || strings.HasSuffix(target, "."+api) {
			return "http"
		}
	}
	for _, api := range cfg.SubprocessAPIs {
		if target == api || strings.HasSuffix(target, "."+api) {
			return "subprocess"
		}
	}
	return ""
}
