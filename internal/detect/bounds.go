package detect

import (
	"fmt"

	"github.com/guardlint/guardlint/internal/config"
	"github.com/guardlint/guardlint/internal/report"
	"github.com/guardlint/guardlint/internal/syntax"
	"github.com/guardlint/guardlint/internal/window"
)

var divisionOps = map[string]bool{"/": true, "//": true, "%": true}

// BoundsSafety flags division and modulo where the right operand is a bare
// variable with no zero check in the window. String formatting with % is
// excluded by checking the left operand.
func BoundsSafety(t *syntax.Tree, w *window.Window, cfg *config.ScanConfig) []report.Violation {
	var out []report.Violation
	for _, n := range t.NodesOfKind(syntax.KindBinaryOp) {
		if !divisionOps[n.Operator] || len(n.Children) < 2 {
			continue
		}
		left := n.Children[0]
		right := n.Children[len(n.Children)-1]
		if n.Operator == "%" && left.Kind == syntax.KindString {
			continue
		}
		if right.Kind != syntax.KindIdentifier {
			continue
		}
		if w.HasPriorCheck(t, n.StartLine, right.Text, window.ZeroCheck) {
			continue
		}
		out = append(out, report.Violation{
			File:        t.Path,
			Line:        n.StartLine,
			Type:        report.TypeBoundsSafety,
			Severity:    report.SeverityWarning,
			Description: fmt.Sprintf("division by %q without a zero check", right.Text),
			Snippet:     snippet(t, n.StartLine),
			Suggestion:  fmt.Sprintf("check '%s != 0' before dividing", right.Text),
		})
	}
	return out
}
