package detect

import (
	"fmt"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/syntax"
	"github.com/guardlint/guardlint/internal/window"
)

// NullSafety flags attribute access on a plain local variable when no None
// check appears in the lookback window. Known-safe accessors and module
// receivers are exempt. Approximation: a check performed further up than
// the window, or in a helper, is missed and still reported.
func NullSafety(t *syntax.Tree, w *window.Window, cfg *config.ScanConfig) []report.Violation {
	imports := importedNames(t)
	seen := map[string]bool{}

	var out []report.Violation
	for _, n := range t.NodesOfKind(syntax.KindAttribute) {
		obj := n.Object()
		if obj == nil || obj.Kind != syntax.KindIdentifier {
			continue
		}
		recv := obj.Text
		if inSet(cfg.SafeReceivers, recv) || imports[recv] {
			continue
		}
		if inSet(cfg.SafeAccessors, n.Name) {
			continue
		}
		if w.HasPriorCheck(t, n.StartLine, recv, window.NoneCheck) {
			continue
		}
		key := fmt.Sprintf("%d:%s", n.StartLine, recv)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, report.Violation{
			File:        t.Path,
			Line:        n.StartLine,
			Type:        report.TypeNullSafety,
			Severity:    report.SeverityCritical,
			Description: fmt.Sprintf("attribute access on %q without a prior None check", recv),
			Snippet:     snippet(t, n.StartLine),
			Suggestion:  fmt.Sprintf("guard with 'if %s is not None:' before accessing %s.%s", recv, recv, n.Name),
		})
	}
	return out
}
