package detect

import (
	"fmt"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/syntax"
	"github.com/guardlint/guardlint/internal/window"
)

// TypeSafety flags numeric and JSON conversions executed outside any try
// block. int("abc") and json.loads(garbage) raise, and the raise point is
// rarely where the bad data entered.
func TypeSafety(t *syntax.Tree, w *window.Window, cfg *config.ScanConfig) []report.Violation {
	var out []report.Violation
	for _, n := range t.NodesOfKind(syntax.KindCall) {
		if !inSet(cfg.ConversionCalls, n.Name) {
			continue
		}
		if w.InsideGuard(t, n, window.GuardTry) {
			continue
		}
		out = append(out, report.Violation{
			File:        t.Path,
			Line:        n.StartLine,
			Type:        report.TypeTypeSafety,
			Severity:    report.SeverityWarning,
			Description: fmt.Sprintf("%s() conversion outside a try block", n.Name),
			Snippet:     snippet(t, n.StartLine),
			Suggestion:  fmt.Sprintf("wrap %s() in try/except ValueError", n.Name),
		})
	}
	return out
}
